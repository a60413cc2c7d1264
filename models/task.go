package models

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

// Statuses lista os status na ordem em que as colunas são exibidas.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone, StatusArchived}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusArchived:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities em ordem decrescente de urgência.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// Valid aceita prioridade vazia (não definida).
func (p Priority) Valid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      Status        `json:"status"`
	Priority    Priority      `json:"priority,omitempty"`
	Position    float64       `json:"position"`
	GroupID     *string       `json:"group_id,omitempty"`
	WorkspaceID *string       `json:"workspace_id,omitempty"` // nil = tarefa pessoal
	AssigneeID  *string       `json:"assignee_id,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Origin      OriginContext `json:"origin"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Clone devolve uma cópia sem ponteiros compartilhados.
func (t Task) Clone() Task {
	c := t
	c.GroupID = cloneString(t.GroupID)
	c.WorkspaceID = cloneString(t.WorkspaceID)
	c.AssigneeID = cloneString(t.AssigneeID)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.Origin = t.Origin.Clone()
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// CreateTaskInput é o corpo aceito na criação. Position é opcional: sem ela o
// servidor coloca a tarefa no fim do escopo.
type CreateTaskInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      Status        `json:"status"`
	Priority    Priority      `json:"priority"`
	Position    *float64      `json:"position"`
	GroupID     *string       `json:"group_id"`
	AssigneeID  *string       `json:"assignee_id"`
	DueDate     *time.Time    `json:"due_date"`
	Origin      OriginContext `json:"origin"`
}

func (in *CreateTaskInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return &ValidationError{Field: "title", Message: "o título é obrigatório"}
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !in.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("status inválido: %s", in.Status)}
	}
	if !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("prioridade inválida: %s", in.Priority)}
	}
	return nil
}

// TaskPatch carrega apenas os campos alterados por um formulário de edição.
type TaskPatch struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *Status    `json:"status"`
	Priority      *Priority  `json:"priority"`
	GroupID       *string    `json:"group_id"`
	ClearGroup    bool       `json:"clear_group"`
	AssigneeID    *string    `json:"assignee_id"`
	ClearAssignee bool       `json:"clear_assignee"`
	DueDate       *time.Time `json:"due_date"`
	ClearDue      bool       `json:"clear_due_date"`
}

func (p *TaskPatch) Validate() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return &ValidationError{Field: "title", Message: "o título é obrigatório"}
		}
		p.Title = &t
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("status inválido: %s", *p.Status)}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("prioridade inválida: %s", *p.Priority)}
	}
	if p.ClearGroup && p.GroupID != nil {
		return &ValidationError{Field: "group_id", Message: "group_id e clear_group são exclusivos"}
	}
	if p.ClearAssignee && p.AssigneeID != nil {
		return &ValidationError{Field: "assignee_id", Message: "assignee_id e clear_assignee são exclusivos"}
	}
	if p.ClearDue && p.DueDate != nil {
		return &ValidationError{Field: "due_date", Message: "due_date e clear_due_date são exclusivos"}
	}
	return nil
}

// Empty indica que nenhum campo seria alterado.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.GroupID == nil && !p.ClearGroup && p.AssigneeID == nil && !p.ClearAssignee &&
		p.DueDate == nil && !p.ClearDue
}

// TaskMove é a única mutação usada pelo drag-and-drop: nova posição e,
// opcionalmente, o novo valor do campo de agrupamento.
type TaskMove struct {
	Position      float64   `json:"position"`
	Status        *Status   `json:"status,omitempty"`
	Priority      *Priority `json:"priority,omitempty"`
	GroupID       *string   `json:"group_id,omitempty"`
	ClearGroup    bool      `json:"clear_group,omitempty"`
	AssigneeID    *string   `json:"assignee_id,omitempty"`
	ClearAssignee bool      `json:"clear_assignee,omitempty"`
}

func (m TaskMove) Validate() error {
	if m.Status != nil && !m.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("status inválido: %s", *m.Status)}
	}
	if m.Priority != nil && !m.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("prioridade inválida: %s", *m.Priority)}
	}
	if m.ClearGroup && m.GroupID != nil {
		return &ValidationError{Field: "group_id", Message: "group_id e clear_group são exclusivos"}
	}
	if m.ClearAssignee && m.AssigneeID != nil {
		return &ValidationError{Field: "assignee_id", Message: "assignee_id e clear_assignee são exclusivos"}
	}
	return nil
}

// ApplyTo devolve a tarefa com a movimentação aplicada. Nenhum outro campo muda.
func (m TaskMove) ApplyTo(t Task) Task {
	t = t.Clone()
	t.Position = m.Position
	if m.Status != nil {
		t.Status = *m.Status
	}
	if m.Priority != nil {
		t.Priority = *m.Priority
	}
	switch {
	case m.ClearGroup:
		t.GroupID = nil
	case m.GroupID != nil:
		t.GroupID = cloneString(m.GroupID)
	}
	switch {
	case m.ClearAssignee:
		t.AssigneeID = nil
	case m.AssigneeID != nil:
		t.AssigneeID = cloneString(m.AssigneeID)
	}
	return t
}

// TaskScope identifica a coleção: um workspace ou as tarefas pessoais de um usuário.
type TaskScope struct {
	WorkspaceID string
	OwnerUID    string
}

func (s TaskScope) Personal() bool { return s.WorkspaceID == "" }

// Key é usada nas chaves de cache.
func (s TaskScope) Key() string {
	if s.Personal() {
		return "user:" + s.OwnerUID
	}
	return "ws:" + s.WorkspaceID
}

// ListFilter corresponde aos filtros das abas da listagem.
type ListFilter struct {
	Status   Status
	Priority Priority
	GroupID  string
}

func (f ListFilter) Key() string {
	return fmt.Sprintf("s=%s|p=%s|g=%s", f.Status, f.Priority, f.GroupID)
}
