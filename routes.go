package main

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"symples/handlers"
	"symples/utilities"
)

// NewRouter monta as rotas da API com logging, métricas e CORS.
func NewRouter(api *handlers.API, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()

	// Aplicar o middleware de logging global em todas as rotas
	r.Use(handlers.LoggingMiddleware)

	auth := api.AuthMiddleware

	// --- Rotas públicas ---
	r.HandleFunc("/healthz", api.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// --- Usuário autenticado ---
	r.HandleFunc("/user/info", auth(api.UserHandler)).Methods("GET")

	// --- Tarefas pessoais (sem workspace) ---
	r.HandleFunc("/tasks", auth(api.ListTasksHandler)).Methods("GET")
	r.HandleFunc("/tasks", auth(api.CreateTaskHandler)).Methods("POST")
	r.HandleFunc("/tasks/info/{task_id}", auth(api.GetTaskHandler)).Methods("GET")
	r.HandleFunc("/tasks/update/{task_id}", auth(api.UpdateTaskHandler)).Methods("PUT")
	r.HandleFunc("/tasks/move/{task_id}", auth(api.MoveTaskHandler)).Methods("PATCH")
	r.HandleFunc("/tasks/reorder/{task_id}", auth(api.ReorderTaskHandler)).Methods("POST")
	r.HandleFunc("/tasks/delete/{task_id}", auth(api.DeleteTaskHandler)).Methods("DELETE")
	r.HandleFunc("/tasks/board", auth(api.BoardHandler)).Methods("GET")
	r.HandleFunc("/tasks/calendar", auth(api.CalendarHandler)).Methods("GET")
	r.HandleFunc("/tasks/quick-add", auth(api.QuickAddHandler)).Methods("POST")

	// --- Workspaces ---
	r.HandleFunc("/workspace/create", auth(api.CreateWorkspaceHandler)).Methods("POST")
	r.HandleFunc("/workspace/info/{workspace_id}", auth(api.GetWorkspaceInfoHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/members/list", auth(api.ListWorkspaceMembersHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/groups/list", auth(api.ListGroupsHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/groups/create", auth(api.CreateGroupHandler)).Methods("POST")

	// --- Tarefas do workspace ---
	r.HandleFunc("/workspace/{workspace_id}/task/list", auth(api.ListTasksHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/task/create", auth(api.CreateTaskHandler)).Methods("POST")
	r.HandleFunc("/workspace/{workspace_id}/task/info/{task_id}", auth(api.GetTaskHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/task/update/{task_id}", auth(api.UpdateTaskHandler)).Methods("PUT")
	r.HandleFunc("/workspace/{workspace_id}/task/move/{task_id}", auth(api.MoveTaskHandler)).Methods("PATCH")
	r.HandleFunc("/workspace/{workspace_id}/task/reorder/{task_id}", auth(api.ReorderTaskHandler)).Methods("POST")
	r.HandleFunc("/workspace/{workspace_id}/task/delete/{task_id}", auth(api.DeleteTaskHandler)).Methods("DELETE")
	r.HandleFunc("/workspace/{workspace_id}/board", auth(api.BoardHandler)).Methods("GET")
	r.HandleFunc("/workspace/{workspace_id}/calendar", auth(api.CalendarHandler)).Methods("GET")

	// --- IA ---
	r.HandleFunc("/workspace/{workspace_id}/ai/quick-add", auth(api.QuickAddHandler)).Methods("POST")

	// Configuração do CORS
	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		utilities.LogInfo("CORS_ALLOWED_ORIGINS não definida, permitindo todas as origens ('*'). Defina para maior segurança em produção.")
	}
	origins := gorillahandlers.AllowedOrigins(allowedOrigins)
	utilities.LogInfo("Configurando CORS com origens permitidas: %v", allowedOrigins)

	return gorillahandlers.CORS(headers, methods, origins)(r)
}
