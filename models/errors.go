package models

import "errors"

var (
	ErrNotFound  = errors.New("registro não encontrado")
	ErrForbidden = errors.New("acesso não autorizado")
)

// ValidationError é exibida ao usuário junto ao campo inválido.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
