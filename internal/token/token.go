// Package token issues and verifies single-purpose JWTs used in email
// round-trips (account activation and password reset). These are separate
// from the session tokens issued at login: each carries a purpose claim and
// is rejected when presented for a different purpose.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes.
const (
	PurposeActivate = "activate"
	PurposeReset    = "reset"
)

// Maker signs and verifies purpose-bound tokens.
type Maker struct {
	secret []byte
	ttl    time.Duration
}

// NewMaker returns a Maker signing with the given secret. ttl bounds the
// validity of every issued token.
func NewMaker(secret string, ttl time.Duration) *Maker {
	return &Maker{secret: []byte(secret), ttl: ttl}
}

// Issue creates a token binding the user ID and email to the purpose.
func (m *Maker) Issue(userID uint, email, purpose string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     fmt.Sprintf("%d", userID),
		"user_id": userID,
		"email":   email,
		"purpose": purpose,
		"iat":     now.Unix(),
		"exp":     now.Add(m.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses the token and checks it was issued for the given purpose.
// Returns the user ID and email on success.
func (m *Maker) Verify(tokenString, purpose string) (uint, string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", fmt.Errorf("invalid or expired token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return 0, "", fmt.Errorf("token issued for a different purpose")
	}

	uidFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	email, _ := claims["email"].(string)

	return uint(uidFloat), email, nil
}
