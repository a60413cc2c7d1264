package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"

	"symples/models"
	"symples/ordering"
)

// memStore é um TaskStore em memória com a mesma semântica de escopo do
// repositório.
type memStore struct {
	mu       sync.Mutex
	tasks    map[string]models.Task
	seq      int
	listed   int
	dueCalls int
	applied  map[string]float64
	// failCreateAfter > 0 faz falhar as criações depois dessa quantidade
	failCreateAfter int
}

func newMemStore(tasks ...models.Task) *memStore {
	s := &memStore{tasks: map[string]models.Task{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func inScope(t models.Task, scope models.TaskScope) bool {
	if scope.Personal() {
		return t.WorkspaceID == nil && t.CreatedBy == scope.OwnerUID
	}
	return t.WorkspaceID != nil && *t.WorkspaceID == scope.WorkspaceID
}

func (s *memStore) ListTasks(_ context.Context, scope models.TaskScope, f models.ListFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed++
	out := []models.Task{}
	for _, t := range s.tasks {
		if !inScope(t, scope) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	ordering.Sort(out)
	return out, nil
}

func (s *memStore) get(scope models.TaskScope, id string) (models.Task, error) {
	t, ok := s.tasks[id]
	if !ok || !inScope(t, scope) {
		return models.Task{}, models.ErrNotFound
	}
	return t, nil
}

func (s *memStore) GetTask(_ context.Context, scope models.TaskScope, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(scope, id)
}

func (s *memStore) CreateTask(_ context.Context, scope models.TaskScope, createdBy string, in models.CreateTaskInput) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateAfter > 0 && s.seq >= s.failCreateAfter {
		return models.Task{}, errors.New("banco indisponível")
	}
	s.seq++
	t := models.Task{
		ID:        fmt.Sprintf("new-%d", s.seq),
		Title:     in.Title,
		Status:    in.Status,
		Priority:  in.Priority,
		GroupID:   in.GroupID,
		DueDate:   in.DueDate,
		Origin:    in.Origin,
		CreatedBy: createdBy,
	}
	if !scope.Personal() {
		ws := scope.WorkspaceID
		t.WorkspaceID = &ws
	}
	var all []models.Task
	for _, o := range s.tasks {
		if inScope(o, scope) {
			all = append(all, o)
		}
	}
	t.Position = ordering.NextPosition(all)
	if in.Position != nil {
		t.Position = *in.Position
	}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *memStore) UpdateTask(_ context.Context, scope models.TaskScope, id string, p models.TaskPatch) (models.Task, error) {
	if err := p.Validate(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.get(scope, id)
	if err != nil {
		return t, err
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	s.tasks[id] = t
	return t, nil
}

func (s *memStore) MoveTask(_ context.Context, scope models.TaskScope, id string, m models.TaskMove) (models.Task, error) {
	if err := m.Validate(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.get(scope, id)
	if err != nil {
		return t, err
	}
	t = m.ApplyTo(t)
	s.tasks[id] = t
	return t, nil
}

func (s *memStore) ApplyPositions(ctx context.Context, scope models.TaskScope, id string, m models.TaskMove, others map[string]float64) (models.Task, error) {
	moved, err := s.MoveTask(ctx, scope, id, m)
	if err != nil {
		return moved, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = others
	for oid, pos := range others {
		t, err := s.get(scope, oid)
		if err != nil {
			return models.Task{}, err
		}
		t.Position = pos
		s.tasks[oid] = t
	}
	return moved, nil
}

func (s *memStore) DeleteTask(_ context.Context, scope models.TaskScope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(scope, id); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (s *memStore) ListDue(_ context.Context, scope models.TaskScope, from, to time.Time) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dueCalls++
	out := []models.Task{}
	for _, t := range s.tasks {
		if inScope(t, scope) && t.DueDate != nil && !t.DueDate.Before(from) && t.DueDate.Before(to) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}

func (s *memStore) position(id string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id].Position
}

// memWorkspaces guarda papéis por workspace e usuário.
type memWorkspaces struct {
	roles  map[string]map[string]models.Role
	groups []models.TaskGroup
}

func (m *memWorkspaces) MemberRole(_ context.Context, ws, uid string) (models.Role, error) {
	if role, ok := m.roles[ws][uid]; ok {
		return role, nil
	}
	return "", models.ErrForbidden
}

func (m *memWorkspaces) IsMember(ctx context.Context, ws, uid string) (bool, error) {
	_, err := m.MemberRole(ctx, ws, uid)
	return err == nil, nil
}

func (m *memWorkspaces) ListMembers(_ context.Context, ws string) ([]models.WorkspaceMember, error) {
	out := []models.WorkspaceMember{}
	for uid, role := range m.roles[ws] {
		out = append(out, models.WorkspaceMember{UserID: uid, DisplayName: uid, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memWorkspaces) ListGroups(context.Context, string) ([]models.TaskGroup, error) {
	return m.groups, nil
}

func (m *memWorkspaces) CreateGroup(_ context.Context, ws, name, color string) (models.TaskGroup, error) {
	if name == "" {
		return models.TaskGroup{}, &models.ValidationError{Field: "name", Message: "o nome do grupo é obrigatório"}
	}
	g := models.TaskGroup{ID: "g-" + name, Name: name, Color: color, WorkspaceID: ws, Position: float64(len(m.groups)+1) * ordering.Step}
	m.groups = append(m.groups, g)
	return g, nil
}

func (m *memWorkspaces) CreateWorkspace(_ context.Context, owner models.WorkspaceMember, name, description string) (models.Workspace, error) {
	if m.roles == nil {
		m.roles = map[string]map[string]models.Role{}
	}
	m.roles["ws-new"] = map[string]models.Role{owner.UserID: models.RoleOwner}
	return models.Workspace{ID: "ws-new", Name: name, Description: description, OwnerUID: owner.UserID, Members: 1}, nil
}

func (m *memWorkspaces) GetWorkspace(_ context.Context, ws string) (models.Workspace, error) {
	if _, ok := m.roles[ws]; !ok {
		return models.Workspace{}, models.ErrNotFound
	}
	return models.Workspace{ID: ws, Name: "Workspace " + ws, Members: len(m.roles[ws])}, nil
}

// tokens mapeia token -> UID.
type tokens map[string]string

func (t tokens) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	uid, ok := t[token]
	if !ok {
		return nil, errors.New("token expirado")
	}
	return &auth.Token{UID: uid, Claims: map[string]interface{}{"email": uid + "@symples.com", "name": uid}}, nil
}
