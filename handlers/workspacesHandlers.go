package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"symples/firebase"
	"symples/models"
	"symples/utilities"
)

type workspaceInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateWorkspaceHandler cria o workspace com o usuário autenticado como dono.
func (a *API) CreateWorkspaceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		respondError(w, firebase.ErrInvalidToken, "CreateWorkspaceHandler")
		return
	}

	var in workspaceInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err, "CreateWorkspaceHandler")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		respondError(w, &models.ValidationError{Field: "name", Message: "o nome do workspace é obrigatório"}, "CreateWorkspaceHandler")
		return
	}

	owner := models.WorkspaceMember{UserID: id.UID, DisplayName: id.DisplayName, Email: id.Email, Role: models.RoleOwner}
	ws, err := a.Workspaces.CreateWorkspace(r.Context(), owner, in.Name, in.Description)
	if err != nil {
		respondError(w, err, "CreateWorkspaceHandler: erro ao criar workspace")
		return
	}
	utilities.LogInfo("Workspace %s (%s) criado por %s", ws.Name, ws.ID, id.UID)
	respondJSON(w, http.StatusCreated, ws)
}

// GetWorkspaceInfoHandler busca informações de um workspace do qual o usuário participa
func (a *API) GetWorkspaceInfoHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, err := a.scope(r, false); err != nil {
		respondError(w, err, "GetWorkspaceInfoHandler")
		return
	}
	ws, err := a.Workspaces.GetWorkspace(r.Context(), mux.Vars(r)["workspace_id"])
	if err != nil {
		respondError(w, err, "GetWorkspaceInfoHandler: erro ao buscar workspace")
		return
	}
	respondJSON(w, http.StatusOK, ws)
}

// ListWorkspaceMembersHandler lista membros de um workspace
func (a *API) ListWorkspaceMembersHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, false)
	if err != nil {
		respondError(w, err, "ListWorkspaceMembersHandler")
		return
	}
	members, err := a.Workspaces.ListMembers(r.Context(), scope.WorkspaceID)
	if err != nil {
		respondError(w, err, "ListWorkspaceMembersHandler: erro ao listar membros")
		return
	}
	respondJSON(w, http.StatusOK, members)
}

func (a *API) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, false)
	if err != nil {
		respondError(w, err, "ListGroupsHandler")
		return
	}
	groups, err := a.Workspaces.ListGroups(r.Context(), scope.WorkspaceID)
	if err != nil {
		respondError(w, err, "ListGroupsHandler: erro ao listar grupos")
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

type groupInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateGroupHandler cria um agrupamento no fim da lista do workspace.
func (a *API) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, true)
	if err != nil {
		respondError(w, err, "CreateGroupHandler")
		return
	}
	var in groupInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err, "CreateGroupHandler")
		return
	}
	group, err := a.Workspaces.CreateGroup(r.Context(), scope.WorkspaceID, in.Name, in.Color)
	if err != nil {
		respondError(w, err, "CreateGroupHandler: erro ao criar grupo")
		return
	}
	respondJSON(w, http.StatusCreated, group)
}
