package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"symples/grouping"
	"symples/models"
	"symples/ordering"
)

// TaskStore é a coleção durável de tarefas. O servidor é a fonte da verdade
// e vence em qualquer conflito com o espelho do cliente.
type TaskStore interface {
	ListTasks(ctx context.Context, scope models.TaskScope, filter models.ListFilter) ([]models.Task, error)
	GetTask(ctx context.Context, scope models.TaskScope, id string) (models.Task, error)
	CreateTask(ctx context.Context, scope models.TaskScope, createdBy string, in models.CreateTaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, scope models.TaskScope, id string, patch models.TaskPatch) (models.Task, error)
	MoveTask(ctx context.Context, scope models.TaskScope, id string, move models.TaskMove) (models.Task, error)
	ApplyPositions(ctx context.Context, scope models.TaskScope, id string, move models.TaskMove, others map[string]float64) (models.Task, error)
	DeleteTask(ctx context.Context, scope models.TaskScope, id string) error
	ListDue(ctx context.Context, scope models.TaskScope, from, to time.Time) ([]models.Task, error)
}

const taskColumns = "id, title, description, status, priority, position, group_id, workspace_id, assignee_id, due_date, origin, created_by, created_at, updated_at"

type TaskRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db, now: time.Now}
}

// scopeClause devolve o filtro do escopo usando o placeholder $n.
func scopeClause(scope models.TaskScope, n int) (string, any) {
	if scope.Personal() {
		return fmt.Sprintf("workspace_id IS NULL AND created_by = $%d", n), scope.OwnerUID
	}
	return fmt.Sprintf("workspace_id = $%d", n), scope.WorkspaceID
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                       models.Task
		status                  string
		priority, group, ws, as sql.NullString
		due                     sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.Position,
		&group, &ws, &as, &due, &t.Origin, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	t.Status = models.Status(status)
	t.Priority = models.Priority(priority.String)
	t.GroupID = fromNull(group)
	t.WorkspaceID = fromNull(ws)
	t.AssigneeID = fromNull(as)
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullablePriority(p models.Priority) any {
	if p == "" {
		return nil
	}
	return string(p)
}

func collectTasks(rows *sql.Rows) ([]models.Task, error) {
	defer rows.Close()
	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) ListTasks(ctx context.Context, scope models.TaskScope, filter models.ListFilter) ([]models.Task, error) {
	where, arg := scopeClause(scope, 1)
	conds := []string{where}
	args := []any{arg}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	switch filter.GroupID {
	case "":
	case grouping.InboxKey:
		conds = append(conds, "group_id IS NULL")
	default:
		args = append(args, filter.GroupID)
		conds = append(conds, fmt.Sprintf("group_id = $%d", len(args)))
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " + strings.Join(conds, " AND ") + " ORDER BY position ASC, created_at ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar tarefas: %w", mapError(err))
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("ler tarefas: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) GetTask(ctx context.Context, scope models.TaskScope, id string) (models.Task, error) {
	where, arg := scopeClause(scope, 2)
	row := r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND "+where, id, arg)
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, mapError(err)
	}
	return t, nil
}

// CreateTask grava a tarefa na posição sugerida pelo cliente ou, sem ela,
// depois da maior posição do escopo.
func (r *TaskRepository) CreateTask(ctx context.Context, scope models.TaskScope, createdBy string, in models.CreateTaskInput) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, err
	}
	if err := checkGroup(ctx, r.db, scope, in.GroupID); err != nil {
		return models.Task{}, err
	}

	position := 0.0
	if in.Position != nil {
		position = *in.Position
	} else {
		next, err := r.nextPosition(ctx, scope)
		if err != nil {
			return models.Task{}, err
		}
		position = next
	}

	origin := in.Origin
	if origin.Source == "" {
		origin = models.ManualOrigin()
	}
	now := r.now().UTC()
	t := models.Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Position:    position,
		GroupID:     in.GroupID,
		AssigneeID:  in.AssigneeID,
		DueDate:     in.DueDate,
		Origin:      origin,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !scope.Personal() {
		ws := scope.WorkspaceID
		t.WorkspaceID = &ws
	}

	var due any
	if t.DueDate != nil {
		due = *t.DueDate
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)",
		t.ID, t.Title, t.Description, string(t.Status), nullablePriority(t.Priority), t.Position,
		nullable(t.GroupID), nullable(t.WorkspaceID), nullable(t.AssigneeID), due, t.Origin,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("criar tarefa: %w", mapError(err))
	}
	return t, nil
}

// checkGroup garante que o grupo existe no workspace do escopo. Tarefas
// pessoais não têm grupo.
func checkGroup(ctx context.Context, q querier, scope models.TaskScope, groupID *string) error {
	if groupID == nil {
		return nil
	}
	if scope.Personal() {
		return &models.ValidationError{Field: "group_id", Message: "tarefas pessoais não pertencem a grupos"}
	}
	if _, err := uuid.Parse(*groupID); err != nil {
		return &models.ValidationError{Field: "group_id", Message: "grupo inválido"}
	}
	var ok bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM task_groups WHERE id = $1 AND workspace_id = $2)",
		*groupID, scope.WorkspaceID).Scan(&ok)
	if err != nil {
		return fmt.Errorf("verificar grupo: %w", mapError(err))
	}
	if !ok {
		return &models.ValidationError{Field: "group_id", Message: "o grupo não pertence a este workspace"}
	}
	return nil
}

func (r *TaskRepository) nextPosition(ctx context.Context, scope models.TaskScope) (float64, error) {
	where, arg := scopeClause(scope, 1)
	var max sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(position) FROM tasks WHERE "+where, arg).Scan(&max); err != nil {
		return 0, fmt.Errorf("calcular posição: %w", mapError(err))
	}
	if !max.Valid {
		return ordering.Step, nil
	}
	return ordering.AfterMax(max.Float64), nil
}

// setList monta a cláusula SET com placeholders numerados.
type setList struct {
	sets []string
	args []any
}

func (s *setList) add(col string, v any) {
	s.args = append(s.args, v)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", col, len(s.args)))
}

func patchSets(p models.TaskPatch) *setList {
	s := &setList{}
	if p.Title != nil {
		s.add("title", *p.Title)
	}
	if p.Description != nil {
		s.add("description", *p.Description)
	}
	if p.Status != nil {
		s.add("status", string(*p.Status))
	}
	if p.Priority != nil {
		s.add("priority", nullablePriority(*p.Priority))
	}
	switch {
	case p.ClearGroup:
		s.add("group_id", nil)
	case p.GroupID != nil:
		s.add("group_id", *p.GroupID)
	}
	switch {
	case p.ClearAssignee:
		s.add("assignee_id", nil)
	case p.AssigneeID != nil:
		s.add("assignee_id", *p.AssigneeID)
	}
	switch {
	case p.ClearDue:
		s.add("due_date", nil)
	case p.DueDate != nil:
		s.add("due_date", *p.DueDate)
	}
	return s
}

func moveSets(m models.TaskMove) *setList {
	s := &setList{}
	s.add("position", m.Position)
	if m.Status != nil {
		s.add("status", string(*m.Status))
	}
	if m.Priority != nil {
		s.add("priority", nullablePriority(*m.Priority))
	}
	switch {
	case m.ClearGroup:
		s.add("group_id", nil)
	case m.GroupID != nil:
		s.add("group_id", *m.GroupID)
	}
	switch {
	case m.ClearAssignee:
		s.add("assignee_id", nil)
	case m.AssigneeID != nil:
		s.add("assignee_id", *m.AssigneeID)
	}
	return s
}

func (r *TaskRepository) update(ctx context.Context, q querier, scope models.TaskScope, id string, s *setList) (models.Task, error) {
	s.add("updated_at", r.now().UTC())
	args := append(s.args, id)
	where, arg := scopeClause(scope, len(args)+1)
	args = append(args, arg)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND %s RETURNING %s",
		strings.Join(s.sets, ", "), len(s.args)+1, where, taskColumns)
	t, err := scanTask(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Task{}, mapError(err)
	}
	return t, nil
}

func (r *TaskRepository) UpdateTask(ctx context.Context, scope models.TaskScope, id string, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, err
	}
	if patch.Empty() {
		return r.GetTask(ctx, scope, id)
	}
	if err := checkGroup(ctx, r.db, scope, patch.GroupID); err != nil {
		return models.Task{}, err
	}
	return r.update(ctx, r.db, scope, id, patchSets(patch))
}

// MoveTask grava a nova posição e, se houver, o novo valor do campo agrupado.
// Nenhum outro campo é alterado.
func (r *TaskRepository) MoveTask(ctx context.Context, scope models.TaskScope, id string, move models.TaskMove) (models.Task, error) {
	if err := move.Validate(); err != nil {
		return models.Task{}, err
	}
	if err := checkGroup(ctx, r.db, scope, move.GroupID); err != nil {
		return models.Task{}, err
	}
	return r.update(ctx, r.db, scope, id, moveSets(move))
}

// ApplyPositions grava um movimento que exigiu renumerar o grupo: a tarefa
// movida e as novas posições das irmãs numa única transação.
func (r *TaskRepository) ApplyPositions(ctx context.Context, scope models.TaskScope, id string, move models.TaskMove, others map[string]float64) (models.Task, error) {
	if err := move.Validate(); err != nil {
		return models.Task{}, err
	}
	if err := checkGroup(ctx, r.db, scope, move.GroupID); err != nil {
		return models.Task{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("iniciar transação: %w", err)
	}
	defer rollback(tx)

	moved, err := r.update(ctx, tx, scope, id, moveSets(move))
	if err != nil {
		return models.Task{}, err
	}

	ids := make([]string, 0, len(others))
	for other := range others {
		if other != id {
			ids = append(ids, other)
		}
	}
	sort.Strings(ids)

	now := r.now().UTC()
	where, scopeArg := scopeClause(scope, 4)
	query := "UPDATE tasks SET position = $1, updated_at = $2 WHERE id = $3 AND " + where
	for _, other := range ids {
		res, err := tx.ExecContext(ctx, query, others[other], now, other, scopeArg)
		if err != nil {
			return models.Task{}, fmt.Errorf("renumerar tarefa %s: %w", other, mapError(err))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return models.Task{}, models.ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("confirmar renumeração: %w", err)
	}
	return moved, nil
}

func (r *TaskRepository) DeleteTask(ctx context.Context, scope models.TaskScope, id string) error {
	where, arg := scopeClause(scope, 2)
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1 AND "+where, id, arg)
	if err != nil {
		return fmt.Errorf("apagar tarefa: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListDue devolve as tarefas com prazo em [from, to).
func (r *TaskRepository) ListDue(ctx context.Context, scope models.TaskScope, from, to time.Time) ([]models.Task, error) {
	where, arg := scopeClause(scope, 1)
	query := "SELECT " + taskColumns + " FROM tasks WHERE " + where +
		" AND due_date IS NOT NULL AND due_date >= $2 AND due_date < $3 ORDER BY due_date ASC, position ASC"
	rows, err := r.db.QueryContext(ctx, query, arg, from, to)
	if err != nil {
		return nil, fmt.Errorf("listar prazos: %w", mapError(err))
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("ler prazos: %w", err)
	}
	return tasks, nil
}
