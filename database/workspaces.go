package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"symples/models"
	"symples/ordering"
)

type WorkspaceStore interface {
	MemberRole(ctx context.Context, workspaceID, userID string) (models.Role, error)
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
	ListMembers(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error)
	ListGroups(ctx context.Context, workspaceID string) ([]models.TaskGroup, error)
	CreateGroup(ctx context.Context, workspaceID, name, color string) (models.TaskGroup, error)
	CreateWorkspace(ctx context.Context, owner models.WorkspaceMember, name, description string) (models.Workspace, error)
	GetWorkspace(ctx context.Context, workspaceID string) (models.Workspace, error)
}

type WorkspaceRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db, now: time.Now}
}

// MemberRole devolve models.ErrForbidden quando o usuário não participa do workspace.
func (r *WorkspaceRepository) MemberRole(ctx context.Context, workspaceID, userID string) (models.Role, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		"SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2",
		workspaceID, userID).Scan(&role)
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, models.ErrNotFound) {
			return "", models.ErrForbidden
		}
		return "", fmt.Errorf("verificar membro: %w", err)
	}
	return models.Role(role), nil
}

func (r *WorkspaceRepository) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	_, err := r.MemberRole(ctx, workspaceID, userID)
	if errors.Is(err, models.ErrForbidden) {
		return false, nil
	}
	return err == nil, err
}

func (r *WorkspaceRepository) ListMembers(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, display_name, email, role, joined_at FROM workspace_members WHERE workspace_id = $1 ORDER BY joined_at ASC",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listar membros: %w", mapError(err))
	}
	defer rows.Close()

	members := []models.WorkspaceMember{}
	for rows.Next() {
		var m models.WorkspaceMember
		var role string
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.Email, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *WorkspaceRepository) ListGroups(ctx context.Context, workspaceID string) ([]models.TaskGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, color, workspace_id, position FROM task_groups WHERE workspace_id = $1 ORDER BY position ASC, name ASC",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listar grupos: %w", mapError(err))
	}
	defer rows.Close()

	groups := []models.TaskGroup{}
	for rows.Next() {
		var g models.TaskGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Color, &g.WorkspaceID, &g.Position); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreateGroup cria um grupo no fim da lista do workspace.
func (r *WorkspaceRepository) CreateGroup(ctx context.Context, workspaceID, name, color string) (models.TaskGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.TaskGroup{}, &models.ValidationError{Field: "name", Message: "o nome do grupo é obrigatório"}
	}

	var max sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(position) FROM task_groups WHERE workspace_id = $1", workspaceID).Scan(&max); err != nil {
		return models.TaskGroup{}, fmt.Errorf("calcular posição do grupo: %w", mapError(err))
	}
	g := models.TaskGroup{
		ID:          uuid.NewString(),
		Name:        name,
		Color:       color,
		WorkspaceID: workspaceID,
		Position:    ordering.Step,
	}
	if max.Valid {
		g.Position = ordering.AfterMax(max.Float64)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO task_groups (id, workspace_id, name, color, position) VALUES ($1, $2, $3, $4, $5)",
		g.ID, g.WorkspaceID, g.Name, g.Color, g.Position)
	if err != nil {
		return models.TaskGroup{}, fmt.Errorf("criar grupo: %w", mapError(err))
	}
	return g, nil
}

// CreateWorkspace cria o workspace e registra o criador como owner.
func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, owner models.WorkspaceMember, name, description string) (models.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Workspace{}, &models.ValidationError{Field: "name", Message: "o nome do workspace é obrigatório"}
	}

	now := r.now().UTC()
	ws := models.Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		OwnerUID:    owner.UserID,
		CreatedAt:   now,
		Members:     1,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Workspace{}, fmt.Errorf("iniciar transação: %w", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO workspaces (id, name, description, owner_uid, created_at) VALUES ($1, $2, $3, $4, $5)",
		ws.ID, ws.Name, ws.Description, ws.OwnerUID, ws.CreatedAt); err != nil {
		return models.Workspace{}, fmt.Errorf("criar workspace: %w", mapError(err))
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO workspace_members (workspace_id, user_id, display_name, email, role, joined_at) VALUES ($1, $2, $3, $4, $5, $6)",
		ws.ID, owner.UserID, owner.DisplayName, owner.Email, string(models.RoleOwner), now); err != nil {
		return models.Workspace{}, fmt.Errorf("adicionar dono: %w", mapError(err))
	}
	if err := tx.Commit(); err != nil {
		return models.Workspace{}, fmt.Errorf("confirmar workspace: %w", err)
	}
	return ws, nil
}

func (r *WorkspaceRepository) GetWorkspace(ctx context.Context, workspaceID string) (models.Workspace, error) {
	var ws models.Workspace
	err := r.db.QueryRowContext(ctx,
		`SELECT w.id, w.name, w.description, w.owner_uid, w.created_at,
			(SELECT COUNT(*) FROM workspace_members m WHERE m.workspace_id = w.id)
		FROM workspaces w WHERE w.id = $1`, workspaceID).
		Scan(&ws.ID, &ws.Name, &ws.Description, &ws.OwnerUID, &ws.CreatedAt, &ws.Members)
	if err != nil {
		return models.Workspace{}, mapError(err)
	}
	return ws, nil
}
