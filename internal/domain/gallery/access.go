package gallery

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrExpired          = errors.New("gallery has expired")
	ErrInvalidCode      = errors.New("invalid access code")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
)

// PasswordCost is the bcrypt cost used for gallery passwords.
const PasswordCost = 12

func (g Gallery) IsExpired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

func (g Gallery) RequiresPassword() bool {
	return g.PasswordProtected || (g.PasswordHash != nil && *g.PasswordHash != "")
}

// Authorize checks expiry first, then the access code, then the password.
// The expiry instant itself is still allowed.
func (g Gallery) Authorize(now time.Time, accessCode, password string) error {
	if g.IsExpired(now) {
		return ErrExpired
	}
	if accessCode == "" || accessCode != g.AccessCode {
		return ErrInvalidCode
	}
	if !g.RequiresPassword() {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if g.PasswordHash == nil {
		return ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*g.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
