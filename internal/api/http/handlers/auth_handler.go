package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/educa-pb/demandas-service/internal/api/dto"
	"github.com/educa-pb/demandas-service/internal/service"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// AuthHandler exposes the demo logins.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// LoginEscola POST /auth/escolas/login.
func (h *AuthHandler) LoginEscola(c *fiber.Ctx) error {
	var req dto.EscolaLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	token, err := h.auth.LoginEscola(c.UserContext(), service.EscolaLogin{
		INEP:     req.INEP.String(),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(token))
}

// LoginSecretaria POST /auth/secretaria/login.
func (h *AuthHandler) LoginSecretaria(c *fiber.Ctx) error {
	var req dto.SecretariaLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	token, err := h.auth.LoginSecretaria(c.UserContext(), service.SecretariaLogin{
		CPF:      req.CPF,
		Email:    req.Email,
		Token:    req.Token,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(token))
}
