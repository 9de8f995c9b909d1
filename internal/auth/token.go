package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mentorhub_backend/internal/config"
	"mentorhub_backend/pkg/apperrors"
)

type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateToken issues an access token for userID. Session issuance proper
// lives in the identity service; this is used by tests and internal tooling.
func GenerateToken(userID, name string) (string, error) {
	cfg := config.GetConfig()

	claims := &Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.JWT.TTL) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ParseToken validates a token and returns its claims. Expired or malformed
// tokens map onto the auth error taxonomy: fatal for the session, no retry.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.GetConfig()

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.CodeTokenExpired, "auth", "Token expired", 401)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidToken, "auth", "Invalid token", 401)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.New(apperrors.CodeInvalidToken, "auth", "Invalid token", 401)
	}
	return claims, nil
}
