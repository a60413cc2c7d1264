package handlers

import (
	"context"
	"net/http"
	"time"

	"symples/utilities"
)

// HealthHandler responde 503 quando o banco não responde.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if a.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ping(ctx); err != nil {
			utilities.LogError(err, "HealthHandler: banco indisponível")
			respondMessage(w, http.StatusServiceUnavailable, "banco de dados indisponível", "")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
