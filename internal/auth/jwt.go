// Package auth is the boundary to the external identity provider: it only
// issues and verifies tokens carrying the opaque barber id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saloonq/queue-service/config"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenEmpty   = errors.New("token cannot be empty")
)

type Manager struct {
	secret []byte
	expiry time.Duration
}

func New(cfg config.JWTConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
	}
}

func (m *Manager) IssueBarberToken(barberID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"barber_id": barberID,
		"exp":       now.Add(m.expiry).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, nil
}

// VerifyBarberToken returns the barber id carried by a valid token.
func (m *Manager) VerifyBarberToken(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrTokenEmpty
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsed.Valid {
		return "", ErrTokenInvalid
	}

	barberID, ok := claims["barber_id"].(string)
	if !ok || barberID == "" {
		return "", fmt.Errorf("%w: missing barber_id claim", ErrTokenInvalid)
	}

	return barberID, nil
}
