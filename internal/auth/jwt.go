package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"carepay/config"
	"carepay/internal/domain"
)

// AuthenticatedUser is the identity every handler resolves once and passes
// explicitly into services. Services never reach back into request context
// for the caller.
type AuthenticatedUser struct {
	ExternalID string
	Email      string
	Role       string
}

// IsAdmin reports whether the user can act on any family or provider.
func (u AuthenticatedUser) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

type Claims struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(cfg *config.JWTConfig, externalID, email, role string) (string, error) {
	claims := Claims{
		ExternalID: externalID,
		Email:      email,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.AccessSecret))
}

var ErrInvalidToken = errors.New("invalid token")

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
