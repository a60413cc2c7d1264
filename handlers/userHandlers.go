package handlers

import (
	"net/http"

	"symples/firebase"
)

// UserHandler devolve o usuário autenticado. O cadastro e o login ficam no
// Firebase; o backend só conhece o UID e as claims do token.
func (a *API) UserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		respondError(w, firebase.ErrInvalidToken, "UserHandler")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"uid":          id.UID,
		"email":        id.Email,
		"display_name": id.DisplayName,
	})
}
