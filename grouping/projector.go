// Package grouping projeta a coleção plana de tarefas nas colunas exibidas
// pelo quadro, de acordo com o modo de agrupamento ativo.
package grouping

import (
	"fmt"
	"sort"

	"symples/models"
	"symples/ordering"
)

type GroupBy string

const (
	ByNone     GroupBy = ""
	ByStatus   GroupBy = "status"
	ByPriority GroupBy = "priority"
	ByGroup    GroupBy = "group"
	ByAssignee GroupBy = "assignee"
)

const (
	NoStatusKey   = ""
	InboxKey      = "inbox"
	UnassignedKey = "unassigned"
	AllKey        = "all"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case ByNone, ByStatus, ByPriority, ByGroup, ByAssignee:
		return g, nil
	}
	return ByNone, &models.ValidationError{Field: "group_by", Message: fmt.Sprintf("agrupamento inválido: %s", s)}
}

var statusLabels = map[models.Status]string{
	models.StatusTodo:       "A Fazer",
	models.StatusInProgress: "Em Andamento",
	models.StatusDone:       "Concluído",
	models.StatusArchived:   "Arquivado",
}

var priorityLabels = map[models.Priority]string{
	models.PriorityUrgent: "Urgente",
	models.PriorityHigh:   "Alta",
	models.PriorityMedium: "Média",
	models.PriorityLow:    "Baixa",
}

type Bucket struct {
	Key   string        `json:"key"`
	Label string        `json:"label"`
	Tasks []models.Task `json:"tasks"`
}

// Options traz os dados usados para rotular e ordenar colunas dinâmicas.
// Com Groups nil, qualquer group_id vira uma coluna própria.
type Options struct {
	Groups  []models.TaskGroup
	Members []models.WorkspaceMember
}

// KeyFor devolve a coluna da tarefa no modo informado.
func KeyFor(t models.Task, mode GroupBy, opts Options) string {
	switch mode {
	case ByStatus:
		if t.Status.Valid() {
			return string(t.Status)
		}
		return NoStatusKey
	case ByPriority:
		if t.Priority == "" || !t.Priority.Valid() {
			return string(models.PriorityMedium)
		}
		return string(t.Priority)
	case ByGroup:
		if t.GroupID == nil || *t.GroupID == "" {
			return InboxKey
		}
		if opts.Groups != nil && !hasGroup(opts.Groups, *t.GroupID) {
			return InboxKey
		}
		return *t.GroupID
	case ByAssignee:
		if t.AssigneeID == nil || *t.AssigneeID == "" {
			return UnassignedKey
		}
		return *t.AssigneeID
	default:
		return AllKey
	}
}

// Project particiona tasks em colunas. Dentro de cada coluna a ordem é por
// posição crescente; empates mantêm a ordem de entrada.
func Project(tasks []models.Task, mode GroupBy, opts Options) []Bucket {
	buckets := skeleton(mode, opts)
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		index[b.Key] = i
	}

	for _, t := range tasks {
		key := KeyFor(t, mode, opts)
		i, ok := index[key]
		if !ok {
			buckets = append(buckets, Bucket{Key: key, Label: dynamicLabel(mode, key, opts)})
			i = len(buckets) - 1
			index[key] = i
		}
		buckets[i].Tasks = append(buckets[i].Tasks, t)
	}

	out := buckets[:0]
	for _, b := range buckets {
		if b.Tasks == nil {
			b.Tasks = []models.Task{}
		}
		ordering.Sort(b.Tasks)
		// "Sem Status" só aparece quando há tarefas nela.
		if mode == ByStatus && b.Key == NoStatusKey && len(b.Tasks) == 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Column devolve as tarefas de uma única coluna, já ordenadas.
func Column(tasks []models.Task, mode GroupBy, key string, opts Options) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if KeyFor(t, mode, opts) == key {
			out = append(out, t)
		}
	}
	ordering.Sort(out)
	return out
}

// MoveFields converte uma coluna de destino no efeito colateral sobre o campo
// agrupado. Mover para "inbox" limpa group_id em vez de gravar um sentinela.
func MoveFields(mode GroupBy, key string) (models.TaskMove, error) {
	var m models.TaskMove
	switch mode {
	case ByStatus:
		s := models.Status(key)
		if !s.Valid() {
			return m, &models.ValidationError{Field: "status", Message: fmt.Sprintf("coluna de status inválida: %q", key)}
		}
		m.Status = &s
	case ByPriority:
		p := models.Priority(key)
		if p == "" || !p.Valid() {
			return m, &models.ValidationError{Field: "priority", Message: fmt.Sprintf("coluna de prioridade inválida: %q", key)}
		}
		m.Priority = &p
	case ByGroup:
		if key == InboxKey || key == "" {
			m.ClearGroup = true
		} else {
			g := key
			m.GroupID = &g
		}
	case ByAssignee:
		if key == UnassignedKey || key == "" {
			m.ClearAssignee = true
		} else {
			a := key
			m.AssigneeID = &a
		}
	}
	return m, nil
}

// Apply move a tarefa para a coluna key, alterando somente o campo agrupado.
func Apply(t models.Task, mode GroupBy, key string) (models.Task, error) {
	m, err := MoveFields(mode, key)
	if err != nil {
		return t, err
	}
	m.Position = t.Position
	return m.ApplyTo(t), nil
}

func skeleton(mode GroupBy, opts Options) []Bucket {
	var out []Bucket
	switch mode {
	case ByStatus:
		out = append(out, Bucket{Key: NoStatusKey, Label: "Sem Status"})
		for _, s := range models.Statuses {
			out = append(out, Bucket{Key: string(s), Label: statusLabels[s]})
		}
	case ByPriority:
		for _, p := range models.Priorities {
			out = append(out, Bucket{Key: string(p), Label: priorityLabels[p]})
		}
	case ByGroup:
		out = append(out, Bucket{Key: InboxKey, Label: "Inbox"})
		groups := append([]models.TaskGroup(nil), opts.Groups...)
		sortGroups(groups)
		for _, g := range groups {
			out = append(out, Bucket{Key: g.ID, Label: g.Name})
		}
	case ByAssignee:
		out = append(out, Bucket{Key: UnassignedKey, Label: "Sem responsável"})
		for _, m := range opts.Members {
			out = append(out, Bucket{Key: m.UserID, Label: memberLabel(m)})
		}
	default:
		out = append(out, Bucket{Key: AllKey, Label: "Todas"})
	}
	return out
}

func dynamicLabel(mode GroupBy, key string, opts Options) string {
	if mode == ByAssignee {
		for _, m := range opts.Members {
			if m.UserID == key {
				return memberLabel(m)
			}
		}
	}
	return key
}

func memberLabel(m models.WorkspaceMember) string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Email
}

func hasGroup(groups []models.TaskGroup, id string) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

func sortGroups(groups []models.TaskGroup) {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Position < groups[j].Position })
}
