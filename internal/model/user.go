package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in the access token's role claim.
const (
	RoleAdmin  = "Admin"
	RoleClient = "Client"
)

type User struct {
	ID                           uuid.UUID  `json:"id"`
	Username                     string     `json:"username"`
	Email                        string     `json:"email"`
	IsEmailConfirmed             bool       `json:"isEmailConfirmed"`
	EmailConfirmationToken       *string    `json:"-"`
	EmailConfirmationTokenExpiry *time.Time `json:"-"`
	EmailConfirmedAt             *time.Time `json:"emailConfirmedAt,omitempty"`
	PasswordResetToken           *string    `json:"-"`
	PasswordResetTokenExpiry     *time.Time `json:"-"`
	FirstName                    *string    `json:"firstName,omitempty"`
	LastName                     *string    `json:"lastName,omitempty"`
	PreferredName                *string    `json:"preferredName,omitempty"`
	Role                         string     `json:"role"`
	PasswordHash                 string     `json:"-"`
	IsDeleted                    bool       `json:"isDeleted"`
	IsActive                     bool       `json:"isActive"`
	CreatedAt                    time.Time  `json:"createdAt"`
	UpdatedAt                    time.Time  `json:"updatedAt"`
}

// DisplayName returns the name used when addressing the user in email.
func (u *User) DisplayName() string {
	if u.PreferredName != nil && *u.PreferredName != "" {
		return *u.PreferredName
	}
	return u.Username
}
