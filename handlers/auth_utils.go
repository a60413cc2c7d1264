package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"symples/ai_services"
	"symples/cache"
	"symples/database"
	"symples/firebase"
	"symples/models"
	"symples/utilities"
)

type contextKey string

const identityKey contextKey = "identity"

// API reúne as dependências dos handlers. Tudo é injetado em main.go.
type API struct {
	Tasks      database.TaskStore
	Workspaces database.WorkspaceStore
	Verifier   firebase.TokenVerifier
	QuickAdd   *ai_services.QuickAddService
	// Calendar guarda as consultas de prazo por escopo e intervalo.
	Calendar *cache.TTLCache[string, []models.Task]
	// Ping verifica o banco no /healthz; nil responde sempre ok.
	Ping func(ctx context.Context) error
}

func NewAPI(tasks database.TaskStore, workspaces database.WorkspaceStore, verifier firebase.TokenVerifier, quickAdd *ai_services.QuickAddService, calendar *cache.TTLCache[string, []models.Task]) *API {
	if calendar == nil {
		calendar = cache.New[string, []models.Task](cache.DefaultSize, cache.DefaultTTL)
	}
	return &API{
		Tasks:      tasks,
		Workspaces: workspaces,
		Verifier:   verifier,
		QuickAdd:   quickAdd,
		Calendar:   calendar,
	}
}

func withIdentity(ctx context.Context, id firebase.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// identityFrom devolve o usuário colocado no contexto pelo AuthMiddleware.
func identityFrom(r *http.Request) (firebase.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(firebase.Identity)
	return id, ok && id.UID != ""
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// scope resolve a coleção da requisição: o workspace da rota ou as tarefas
// pessoais do usuário. Em workspaces verifica a participação e, se mutate,
// que o papel permite editar.
func (a *API) scope(r *http.Request, mutate bool) (models.TaskScope, firebase.Identity, error) {
	id, ok := identityFrom(r)
	if !ok {
		return models.TaskScope{}, id, firebase.ErrInvalidToken
	}
	workspaceID := mux.Vars(r)["workspace_id"]
	if workspaceID == "" {
		return models.TaskScope{OwnerUID: id.UID}, id, nil
	}

	role, err := a.Workspaces.MemberRole(r.Context(), workspaceID, id.UID)
	if err != nil {
		return models.TaskScope{}, id, err
	}
	if mutate && !role.CanEdit() {
		utilities.LogDebug("Usuário %s (%s) sem permissão de edição no workspace %s", id.UID, role, workspaceID)
		return models.TaskScope{}, id, models.ErrForbidden
	}
	return models.TaskScope{WorkspaceID: workspaceID, OwnerUID: id.UID}, id, nil
}
