package handlers

import (
	"net/http"
	"strings"
	"time"

	"symples/grouping"
	"symples/models"
	"symples/utilities"
)

// groupOptions carrega os rótulos das colunas dinâmicas do workspace.
func (a *API) groupOptions(r *http.Request, scope models.TaskScope, mode grouping.GroupBy) (grouping.Options, error) {
	var opts grouping.Options
	if scope.Personal() {
		return opts, nil
	}
	var err error
	switch mode {
	case grouping.ByGroup:
		opts.Groups, err = a.Workspaces.ListGroups(r.Context(), scope.WorkspaceID)
	case grouping.ByAssignee:
		opts.Members, err = a.Workspaces.ListMembers(r.Context(), scope.WorkspaceID)
	}
	return opts, err
}

// BoardHandler devolve as colunas do quadro para ?group_by=.
func (a *API) BoardHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, false)
	if err != nil {
		respondError(w, err, "BoardHandler")
		return
	}
	mode, err := grouping.ParseGroupBy(r.URL.Query().Get("group_by"))
	if err != nil {
		respondError(w, err, "BoardHandler")
		return
	}

	tasks, err := a.Tasks.ListTasks(r.Context(), scope, models.ListFilter{})
	if err != nil {
		respondError(w, err, "BoardHandler: erro ao listar tarefas")
		return
	}
	opts, err := a.groupOptions(r, scope, mode)
	if err != nil {
		respondError(w, err, "BoardHandler: erro ao carregar colunas")
		return
	}
	respondJSON(w, http.StatusOK, grouping.Project(tasks, mode, opts))
}

const calendarCache = "calendar"

var calendarLayouts = []string{time.RFC3339, "2006-01-02"}

func parseCalendarBound(s string) (time.Time, bool) {
	for _, layout := range calendarLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// calendarRange lê ?from=&to=. Sem parâmetros usa o mês corrente.
func calendarRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	if s := q.Get("from"); s != "" {
		t, ok := parseCalendarBound(s)
		if !ok {
			return from, to, &models.ValidationError{Field: "from", Message: "data inválida: " + s}
		}
		from = t
	}
	if s := q.Get("to"); s != "" {
		t, ok := parseCalendarBound(s)
		if !ok {
			return from, to, &models.ValidationError{Field: "to", Message: "data inválida: " + s}
		}
		to = t
	} else if q.Get("from") != "" {
		to = from.AddDate(0, 1, 0)
	}
	if !to.After(from) {
		return from, to, &models.ValidationError{Field: "to", Message: "o fim do intervalo deve ser posterior ao início"}
	}
	return from, to, nil
}

func calendarKey(scope models.TaskScope, from, to time.Time) string {
	return scope.Key() + "|" + from.UTC().Format(time.RFC3339) + "|" + to.UTC().Format(time.RFC3339)
}

// CalendarHandler lista as tarefas com prazo no intervalo, com cache por
// escopo e intervalo.
func (a *API) CalendarHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, false)
	if err != nil {
		respondError(w, err, "CalendarHandler")
		return
	}
	from, to, err := calendarRange(r, time.Now().UTC())
	if err != nil {
		respondError(w, err, "CalendarHandler")
		return
	}

	m := utilities.GetMetrics()
	key := calendarKey(scope, from, to)
	if tasks, ok := a.Calendar.Get(key); ok {
		m.CacheHitsTotal.WithLabelValues(calendarCache).Inc()
		respondJSON(w, http.StatusOK, tasks)
		return
	}
	m.CacheMissesTotal.WithLabelValues(calendarCache).Inc()

	tasks, err := a.Tasks.ListDue(r.Context(), scope, from, to)
	if err != nil {
		respondError(w, err, "CalendarHandler: erro ao listar prazos")
		return
	}
	a.Calendar.Add(key, tasks)
	respondJSON(w, http.StatusOK, tasks)
}

// evictCalendar descarta os intervalos em cache do escopo após uma escrita.
func (a *API) evictCalendar(scope models.TaskScope) {
	prefix := scope.Key() + "|"
	n := a.Calendar.RemoveFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
	if n > 0 {
		utilities.LogDebug("Calendário: %d intervalos descartados para %s", n, scope.Key())
	}
}
