package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/educa-pb/demandas-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims describes JWT payload.
type Claims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
	INEP  domain.INEP `json:"inep,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the principal.
func (tm *TokenManager) GenerateToken(p domain.Principal) (domain.Token, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Role:  p.Role,
		Email: p.Email,
		INEP:  p.INEP,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{Value: signed, Role: p.Role, INEP: p.INEP, ExpiresAt: expiresAt}, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Role != domain.RoleEscola && claims.Role != domain.RoleSecretaria {
		return nil, errors.New("unknown role")
	}
	return claims, nil
}

// Principal converts claims to the caller identity.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{Role: c.Role, Email: c.Email, INEP: c.INEP}
}
