package firebase

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

var ErrInvalidToken = errors.New("token inválido ou expirado")

// TokenVerifier é satisfeito por *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Identity é o usuário autenticado extraído do ID token.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

func IdentityFromToken(token *auth.Token) Identity {
	// Recupera dados do token
	email, _ := token.Claims["email"].(string)
	displayName, _ := token.Claims["name"].(string)
	return Identity{UID: token.UID, Email: email, DisplayName: displayName}
}

func VerifyUserToken(ctx context.Context, verifier TokenVerifier, idToken string) (Identity, error) {
	if idToken == "" {
		return Identity{}, ErrInvalidToken
	}
	token, err := verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return IdentityFromToken(token), nil
}
