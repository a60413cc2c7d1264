package models

import "time"

type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerUID    string    `json:"owner_uid"` // Firebase UID do dono
	CreatedAt   time.Time `json:"created_at"`
	Members     int       `json:"members"`
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// CanEdit indica se o papel pode criar, mover ou apagar tarefas.
func (r Role) CanEdit() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

type WorkspaceMember struct {
	UserID      string    `json:"user_id"` // Firebase UID
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// TaskGroup é um agrupamento (etiqueta) definido pelo usuário dentro do workspace.
type TaskGroup struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       string  `json:"color,omitempty"`
	WorkspaceID string  `json:"workspace_id"`
	Position    float64 `json:"position"`
}
