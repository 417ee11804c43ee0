package users

import (
	"time"

	"studio-app/internal/domain/users"
)

type MeResponse struct {
	User     UserDTO        `json:"user"`
	Activity users.Activity `json:"activity"`
}

type UserDTO struct {
	ID               uint      `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Phone            *string   `json:"phone"`
	Role             string    `json:"role"`
	AuthProvider     string    `json:"authProvider"`
	GoogleLinked     bool      `json:"googleLinked"`
	MarketingConsent bool      `json:"marketingConsent"`
	CreatedAt        time.Time `json:"createdAt"`
}

func buildUserDTO(u users.User) UserDTO {
	return UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            stringPtrIfNotEmpty(u.Phone),
		Role:             u.Role,
		AuthProvider:     u.AuthProvider,
		GoogleLinked:     u.GoogleSub != nil,
		MarketingConsent: u.MarketingConsent,
		CreatedAt:        u.CreatedAt,
	}
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
