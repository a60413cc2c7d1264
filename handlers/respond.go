package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"symples/firebase"
	"symples/models"
	"symples/utilities"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		utilities.LogError(err, "Erro ao codificar resposta")
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: msg, Field: field})
}

// respondError converte os erros de domínio no status HTTP correspondente.
// Erros inesperados são logados e não têm a mensagem exposta.
func respondError(w http.ResponseWriter, err error, op string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respondMessage(w, http.StatusBadRequest, verr.Message, verr.Field)
	case errors.Is(err, firebase.ErrInvalidToken):
		respondMessage(w, http.StatusUnauthorized, "não autenticado", "")
	case errors.Is(err, models.ErrForbidden):
		respondMessage(w, http.StatusForbidden, "acesso não autorizado", "")
	case errors.Is(err, models.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "registro não encontrado", "")
	default:
		utilities.LogError(err, op)
		respondMessage(w, http.StatusInternalServerError, "erro interno", "")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &models.ValidationError{Message: "corpo da requisição inválido"}
	}
	return nil
}
