package handlers

import (
	"net/http"

	"symples/models"
	"symples/utilities"
)

// QuickAddHandler reconhece tarefas em texto livre (digitado, transcrito ou
// recebido pelo WhatsApp) e, com create=true, já as cria no escopo.
// Rotas: /workspace/{workspace_id}/ai/quick-add e /tasks/quick-add
func (a *API) QuickAddHandler(w http.ResponseWriter, r *http.Request) {
	var req models.QuickAddRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, "QuickAddHandler")
		return
	}

	scope, id, err := a.scope(r, req.Create)
	if err != nil {
		respondError(w, err, "QuickAddHandler")
		return
	}

	utilities.LogInfo("QuickAddHandler: usuário %s pediu quick-add em %s", id.UID, scope.Key())
	resp, err := a.QuickAdd.Run(r.Context(), scope, id.UID, req)
	if err != nil {
		// parte do lote pode ter sido criada antes da falha
		if req.Create {
			a.evictCalendar(scope)
		}
		respondError(w, err, "QuickAddHandler: erro no quick-add")
		return
	}

	status := http.StatusOK
	if len(resp.Created) > 0 {
		status = http.StatusCreated
		a.evictCalendar(scope)
	}
	respondJSON(w, status, resp)
}
