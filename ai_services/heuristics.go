package ai_services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"symples/models"
)

// parseState acumula o que as regras encontraram no texto.
type parseState struct {
	now      time.Time
	day      *time.Time
	hour     int
	minute   int
	hasTime  bool
	priority models.Priority
}

type rule struct {
	re    *regexp.Regexp
	apply func(groups []string, st *parseState) bool
}

// bounded exige separador (ou início/fim) dos dois lados. \b do RE2 não
// reconhece letras acentuadas.
func bounded(p string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[\s,;(])` + p + `($|[\s,.;:!?)])`)
}

var weekdays = map[string]time.Weekday{
	"domingo": time.Sunday,
	"segunda": time.Monday,
	"terça":   time.Tuesday,
	"terca":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
	"sábado":  time.Saturday,
	"sabado":  time.Saturday,
}

func (st *parseState) today() time.Time {
	y, m, d := st.now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, st.now.Location())
}

func (st *parseState) setDay(t time.Time) bool {
	if st.day != nil {
		return false
	}
	st.day = &t
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var dateRules = []rule{
	{bounded(`depois\s+de\s+amanh[ãa]`), func(_ []string, st *parseState) bool {
		return st.setDay(st.today().AddDate(0, 0, 2))
	}},
	{bounded(`amanh[ãa]`), func(_ []string, st *parseState) bool {
		return st.setDay(st.today().AddDate(0, 0, 1))
	}},
	{bounded(`hoje`), func(_ []string, st *parseState) bool {
		return st.setDay(st.today())
	}},
	{bounded(`(?:daqui\s+a|em)\s+(\d{1,3})\s+dias?`), func(g []string, st *parseState) bool {
		return st.setDay(st.today().AddDate(0, 0, atoi(g[0])))
	}},
	{bounded(`(?:(?:n[oa]|at[ée])\s+)?(?:(pr[óo]xim[oa])\s+)?(segunda|ter[çc]a|quarta|quinta|sexta|s[áa]bado|domingo)(?:-feira)?`), func(g []string, st *parseState) bool {
		wd, ok := weekdays[strings.ToLower(g[1])]
		if !ok {
			return false
		}
		ahead := (int(wd) - int(st.now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return st.setDay(st.today().AddDate(0, 0, ahead))
	}},
	{bounded(`(?:(?:n[oa]\s+)?dia\s+|at[ée]\s+)?(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?`), func(g []string, st *parseState) bool {
		d, m := atoi(g[0]), atoi(g[1])
		today := st.today()
		y := today.Year()
		explicitYear := g[2] != ""
		if explicitYear {
			y = atoi(g[2])
			if y < 100 {
				y += 2000
			}
		}
		t, ok := validDate(y, time.Month(m), d, st.now.Location())
		if !ok {
			return false
		}
		if !explicitYear && t.Before(today) {
			t = t.AddDate(1, 0, 0)
		}
		return st.setDay(t)
	}},
	{bounded(`(?:n[oa]\s+)?dia\s+(\d{1,2})`), func(g []string, st *parseState) bool {
		today := st.today()
		t, ok := validDate(today.Year(), today.Month(), atoi(g[0]), st.now.Location())
		if ok && t.Before(today) {
			next := today.AddDate(0, 1, 1-today.Day())
			t, ok = validDate(next.Year(), next.Month(), atoi(g[0]), st.now.Location())
		}
		if !ok {
			return false
		}
		return st.setDay(t)
	}},
}

var timeRules = []rule{
	{bounded(`(?:[àa]s\s+)?(\d{1,2})(?::(\d{2})|h(\d{2})?)(?:\s*horas?)?`), func(g []string, st *parseState) bool {
		minute := g[1]
		if minute == "" {
			minute = g[2]
		}
		return st.setTime(atoi(g[0]), atoi(minute))
	}},
	{bounded(`[àa]s\s+(\d{1,2})\s*horas?`), func(g []string, st *parseState) bool {
		return st.setTime(atoi(g[0]), 0)
	}},
}

var priorityRules = []rule{
	{bounded(`urgente`), setPriority(models.PriorityUrgent)},
	{bounded(`(?:(?:com\s+)?alta\s+prioridade|prioridade\s+alta|importante)`), setPriority(models.PriorityHigh)},
	{bounded(`(?:(?:com\s+)?baixa\s+prioridade|prioridade\s+baixa)`), setPriority(models.PriorityLow)},
	{bounded(`(?:(?:com\s+)?m[ée]dia\s+prioridade|prioridade\s+m[ée]dia)`), setPriority(models.PriorityMedium)},
}

func setPriority(p models.Priority) func([]string, *parseState) bool {
	return func(_ []string, st *parseState) bool {
		if st.priority != "" {
			return false
		}
		st.priority = p
		return true
	}
}

func (st *parseState) setTime(h, m int) bool {
	if st.hasTime || h > 23 || m > 59 {
		return false
	}
	st.hour, st.minute, st.hasTime = h, m, true
	return true
}

func validDate(y int, m time.Month, d int, loc *time.Location) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Day() != d || t.Month() != m {
		return time.Time{}, false
	}
	return t, true
}

// run executa a regra uma vez e remove o trecho reconhecido do texto.
func (r rule) run(text string, st *parseState) string {
	loc := r.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	groups := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, text[loc[i]:loc[i+1]])
	}
	// groups[0] é o trecho inteiro, [1] e [último] são os separadores
	inner := groups[2 : len(groups)-1]
	if !r.apply(inner, st) {
		return text
	}
	return text[:loc[0]] + groups[1] + " " + groups[len(groups)-1] + text[loc[1]:]
}

var danglingWords = map[string]bool{
	"até": true, "ate": true, "para": true, "pra": true, "no": true, "na": true,
	"de": true, "do": true, "da": true, "em": true, "e": true, "às": true, "as": true,
	"-": true, "com": true, "prioridade": true,
}

var spaces = regexp.MustCompile(`\s+`)

func cleanTitle(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ,;:-.!")
	words := strings.Fields(s)
	for len(words) > 0 && danglingWords[strings.ToLower(strings.Trim(words[len(words)-1], ",;:."))] {
		words = words[:len(words)-1]
	}
	s = strings.Trim(strings.Join(words, " "), " ,;:-")
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// ExtractHeuristic reconhece prazo e prioridade em português e devolve o
// restante do texto como título.
func ExtractHeuristic(text string, now time.Time) models.ExtractedTask {
	st := &parseState{now: now}
	rest := text
	for _, group := range [][]rule{dateRules, timeRules, priorityRules} {
		for _, r := range group {
			rest = r.run(rest, st)
		}
	}

	task := models.ExtractedTask{Title: cleanTitle(rest), Priority: st.priority}
	switch {
	case st.day != nil:
		due := *st.day
		if st.hasTime {
			due = time.Date(due.Year(), due.Month(), due.Day(), st.hour, st.minute, 0, 0, due.Location())
		}
		task.DueDate = &due
	case st.hasTime:
		today := st.today()
		due := time.Date(today.Year(), today.Month(), today.Day(), st.hour, st.minute, 0, 0, today.Location())
		if due.Before(now) {
			due = due.AddDate(0, 0, 1)
		}
		task.DueDate = &due
	}
	return task
}
