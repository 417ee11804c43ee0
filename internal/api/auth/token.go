package auth

import (
	"errors"
	"time"

	"studio-app/internal/domain/users"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = 24 * time.Hour

// Tokens signs the HS256 session tokens the auth middleware accepts.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Tokens{secret: []byte(secret), now: time.Now}, nil
}

func (t *Tokens) Issue(user users.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     t.now().Add(TokenTTL).Unix(),
	})
	return token.SignedString(t.secret)
}
