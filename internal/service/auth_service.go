package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/educa-pb/demandas-service/internal/auth"
	"github.com/educa-pb/demandas-service/internal/config"
	"github.com/educa-pb/demandas-service/internal/domain"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// EscolaLogin is the school login form.
type EscolaLogin struct {
	INEP     string
	Email    string
	Password string
}

// SecretariaLogin is the secretariat login form.
type SecretariaLogin struct {
	CPF      string
	Email    string
	Token    string
	Password string
}

type demoAccount struct {
	email        string
	passwordHash string
}

// AuthService checks the configured demo accounts and issues tokens.
type AuthService struct {
	tokenMgr *auth.TokenManager

	escola     demoAccount
	escolaINEP domain.INEP

	secretaria      demoAccount
	secretariaCPF   string
	secretariaToken string
}

// NewAuthService hashes the demo passwords once at startup.
func NewAuthService(cfg config.AuthConfig, tokens *auth.TokenManager) (*AuthService, error) {
	escolaHash, err := auth.HashPassword(cfg.Escola.Password, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash escola password: %w", err)
	}
	secretariaHash, err := auth.HashPassword(cfg.Secretaria.Password, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash secretaria password: %w", err)
	}
	return &AuthService{
		tokenMgr:        tokens,
		escola:          demoAccount{email: normalizeEmail(cfg.Escola.Email), passwordHash: escolaHash},
		escolaINEP:      domain.NormalizeINEP(cfg.Escola.INEP),
		secretaria:      demoAccount{email: normalizeEmail(cfg.Secretaria.Email), passwordHash: secretariaHash},
		secretariaCPF:   digitsOnly(cfg.Secretaria.CPF),
		secretariaToken: strings.TrimSpace(cfg.Secretaria.Token),
	}, nil
}

// LoginEscola authenticates school staff.
func (s *AuthService) LoginEscola(_ context.Context, in EscolaLogin) (domain.Token, error) {
	if strings.TrimSpace(in.INEP) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return domain.Token{}, apperrors.NewValidationError("inep, email and password are required", nil)
	}
	inep := domain.NormalizeINEP(in.INEP)
	ok := inep != "" && inep == s.escolaINEP
	ok = s.escola.matches(in.Email, in.Password) && ok
	if !ok {
		return domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(domain.Principal{Role: domain.RoleEscola, Email: s.escola.email, INEP: inep})
}

// LoginSecretaria authenticates secretariat staff, which also needs a one-time token.
func (s *AuthService) LoginSecretaria(_ context.Context, in SecretariaLogin) (domain.Token, error) {
	if strings.TrimSpace(in.CPF) == "" || strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Token) == "" || in.Password == "" {
		return domain.Token{}, apperrors.NewValidationError("cpf, email, token and password are required", nil)
	}
	ok := digitsOnly(in.CPF) == s.secretariaCPF
	ok = subtle.ConstantTimeCompare([]byte(strings.TrimSpace(in.Token)), []byte(s.secretariaToken)) == 1 && ok
	ok = s.secretaria.matches(in.Email, in.Password) && ok
	if !ok {
		return domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(domain.Principal{Role: domain.RoleSecretaria, Email: s.secretaria.email})
}

func (s *AuthService) issue(p domain.Principal) (domain.Token, error) {
	token, err := s.tokenMgr.GenerateToken(p)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	return token, nil
}

// matches always runs the bcrypt comparison so timing does not reveal which
// field was wrong.
func (a demoAccount) matches(email, password string) bool {
	passwordOK := auth.ComparePassword(a.passwordHash, password) == nil
	return passwordOK && normalizeEmail(email) == a.email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func digitsOnly(s string) string {
	return domain.NormalizeINEP(s).String()
}
