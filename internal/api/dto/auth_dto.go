package dto

import (
	"time"

	"github.com/educa-pb/demandas-service/internal/domain"
)

// EscolaLoginRequest payload for school logins.
type EscolaLoginRequest struct {
	INEP     domain.INEP `json:"inep"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
}

// SecretariaLoginRequest payload for secretariat logins.
type SecretariaLoginRequest struct {
	CPF      string `json:"cpf"`
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Role      domain.Role `json:"role"`
	INEP      domain.INEP `json:"inep,omitempty"`
}

// NewAuthResponse converts an issued token.
func NewAuthResponse(t domain.Token) AuthResponse {
	return AuthResponse{Token: t.Value, ExpiresAt: t.ExpiresAt, Role: t.Role, INEP: t.INEP}
}
