package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"symples/grouping"
	"symples/models"
	"symples/ordering"
	"symples/utilities"
)

// ListTasksHandler lista as tarefas do escopo com os filtros da aba
// (?status=&priority=&group_id=).
func (a *API) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, false)
	if err != nil {
		respondError(w, err, "ListTasksHandler")
		return
	}

	q := r.URL.Query()
	filter := models.ListFilter{
		Status:   models.Status(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
		GroupID:  q.Get("group_id"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(w, &models.ValidationError{Field: "status", Message: fmt.Sprintf("status inválido: %s", filter.Status)}, "ListTasksHandler")
		return
	}
	if !filter.Priority.Valid() {
		respondError(w, &models.ValidationError{Field: "priority", Message: fmt.Sprintf("prioridade inválida: %s", filter.Priority)}, "ListTasksHandler")
		return
	}

	tasks, err := a.Tasks.ListTasks(r.Context(), scope, filter)
	if err != nil {
		respondError(w, err, "ListTasksHandler: erro ao listar tarefas")
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// CreateTaskHandler cria uma tarefa. Sem position no corpo ela vai para o fim.
func (a *API) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	scope, id, err := a.scope(r, true)
	if err != nil {
		respondError(w, err, "CreateTaskHandler")
		return
	}

	var in models.CreateTaskInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err, "CreateTaskHandler")
		return
	}
	if in.Origin.Source == "" {
		in.Origin = models.ManualOrigin()
	}

	task, err := a.Tasks.CreateTask(r.Context(), scope, id.UID, in)
	if err != nil {
		respondError(w, err, "CreateTaskHandler: erro ao criar tarefa")
		return
	}
	a.evictCalendar(scope)
	utilities.LogInfo("Tarefa criada com sucesso: %s (ID: %s)", task.Title, task.ID)
	respondJSON(w, http.StatusCreated, task)
}

func (a *API) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, false)
	if err != nil {
		respondError(w, err, "GetTaskHandler")
		return
	}
	task, err := a.Tasks.GetTask(r.Context(), scope, mux.Vars(r)["task_id"])
	if err != nil {
		respondError(w, err, "GetTaskHandler: erro ao buscar tarefa")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTaskHandler aplica a edição do formulário (apenas campos enviados).
func (a *API) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, true)
	if err != nil {
		respondError(w, err, "UpdateTaskHandler")
		return
	}

	var patch models.TaskPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, err, "UpdateTaskHandler")
		return
	}
	if patch.Empty() {
		respondError(w, &models.ValidationError{Message: "nenhum campo para atualizar"}, "UpdateTaskHandler")
		return
	}

	task, err := a.Tasks.UpdateTask(r.Context(), scope, mux.Vars(r)["task_id"], patch)
	if err != nil {
		respondError(w, err, "UpdateTaskHandler: erro ao atualizar tarefa")
		return
	}
	a.evictCalendar(scope)
	respondJSON(w, http.StatusOK, task)
}

// MoveTaskHandler grava o resultado de um drag-and-drop já calculado pelo
// cliente: posição e, opcionalmente, o novo valor do campo agrupado.
func (a *API) MoveTaskHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, true)
	if err != nil {
		respondError(w, err, "MoveTaskHandler")
		return
	}

	var move models.TaskMove
	if err := decodeJSON(r, &move); err != nil {
		respondError(w, err, "MoveTaskHandler")
		return
	}
	if err := move.Validate(); err != nil {
		respondError(w, err, "MoveTaskHandler")
		return
	}

	task, err := a.Tasks.MoveTask(r.Context(), scope, mux.Vars(r)["task_id"], move)
	if err != nil {
		respondError(w, err, "MoveTaskHandler: erro ao mover tarefa")
		return
	}
	utilities.GetMetrics().MovesTotal.WithLabelValues("move").Inc()
	a.evictCalendar(scope)
	respondJSON(w, http.StatusOK, task)
}

type reorderRequest struct {
	GroupBy string `json:"group_by"`
	// Column vazia mantém a tarefa na coluna atual.
	Column *string `json:"column"`
	Index  int     `json:"index"`
}

type reorderResponse struct {
	Task       models.Task        `json:"task"`
	Positions  map[string]float64 `json:"positions"`
	Renumbered bool               `json:"renumbered"`
}

// ReorderTaskHandler recebe o destino por índice e calcula as posições no
// servidor, renumerando a coluna numa transação quando não há intervalo.
func (a *API) ReorderTaskHandler(w http.ResponseWriter, r *http.Request) {
	scope, _, err := a.scope(r, true)
	if err != nil {
		respondError(w, err, "ReorderTaskHandler")
		return
	}

	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, "ReorderTaskHandler")
		return
	}
	mode, err := grouping.ParseGroupBy(strings.TrimSpace(req.GroupBy))
	if err != nil {
		respondError(w, err, "ReorderTaskHandler")
		return
	}

	ctx := r.Context()
	taskID := mux.Vars(r)["task_id"]
	tasks, err := a.Tasks.ListTasks(ctx, scope, models.ListFilter{})
	if err != nil {
		respondError(w, err, "ReorderTaskHandler: erro ao listar tarefas")
		return
	}
	var moved *models.Task
	for i := range tasks {
		if tasks[i].ID == taskID {
			moved = &tasks[i]
			break
		}
	}
	if moved == nil {
		respondError(w, models.ErrNotFound, "ReorderTaskHandler")
		return
	}

	opts, err := a.groupOptions(r, scope, mode)
	if err != nil {
		respondError(w, err, "ReorderTaskHandler: erro ao carregar colunas")
		return
	}

	from := grouping.KeyFor(*moved, mode, opts)
	to := from
	if req.Column != nil {
		to = *req.Column
	}
	var move models.TaskMove
	if to != from {
		if move, err = grouping.MoveFields(mode, to); err != nil {
			respondError(w, err, "ReorderTaskHandler")
			return
		}
	}

	plan, err := ordering.PlanMove(grouping.Column(tasks, mode, to, opts), *moved, req.Index)
	if err != nil {
		respondError(w, err, "ReorderTaskHandler")
		return
	}
	if to == from && len(plan.Positions) == 0 {
		respondJSON(w, http.StatusOK, reorderResponse{Task: *moved, Positions: plan.Positions})
		return
	}

	move.Position = moved.Position
	if p, ok := plan.Positions[moved.ID]; ok {
		move.Position = p
	}

	var task models.Task
	if plan.Renumbered {
		others := make(map[string]float64, len(plan.Positions))
		for id, p := range plan.Positions {
			if id != moved.ID {
				others[id] = p
			}
		}
		task, err = a.Tasks.ApplyPositions(ctx, scope, moved.ID, move, others)
		if err == nil {
			utilities.GetMetrics().RenumbersTotal.Inc()
			utilities.LogDebug("Coluna %q renumerada ao mover %s (%d tarefas)", to, moved.ID, len(plan.Positions))
		}
	} else {
		task, err = a.Tasks.MoveTask(ctx, scope, moved.ID, move)
	}
	if err != nil {
		respondError(w, err, "ReorderTaskHandler: erro ao gravar posições")
		return
	}

	utilities.GetMetrics().MovesTotal.WithLabelValues("reorder").Inc()
	a.evictCalendar(scope)
	respondJSON(w, http.StatusOK, reorderResponse{Task: task, Positions: plan.Positions, Renumbered: plan.Renumbered})
}

func (a *API) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	scope, id, err := a.scope(r, true)
	if err != nil {
		respondError(w, err, "DeleteTaskHandler")
		return
	}
	taskID := mux.Vars(r)["task_id"]
	if err := a.Tasks.DeleteTask(r.Context(), scope, taskID); err != nil {
		respondError(w, err, "DeleteTaskHandler: erro ao apagar tarefa")
		return
	}
	a.evictCalendar(scope)
	utilities.LogInfo("Tarefa %s apagada pelo usuário %s", taskID, id.UID)
	w.WriteHeader(http.StatusNoContent)
}
