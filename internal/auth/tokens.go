package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/domain"
)

type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies the bearer credentials every connection
// presents, both on HTTP requests and at socket connect time.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   string(user.ID),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("Invalid token")
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, "Invalid or expired token", err)
	}
	return claims, nil
}
