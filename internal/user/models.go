package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by a user and its access tokens.
type Role string

const (
	// RoleUser is assigned on registration.
	RoleUser Role = "USER"
	// RoleAdmin grants access to management operations.
	RoleAdmin Role = "ADMIN"
)

// DefaultRole is the role given to newly registered users.
const DefaultRole = RoleUser

// ParseRole validates a role name, accepting any letter case.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User represents an application user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInput carries the fields of a new user.
type CreateInput struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// UpdateInput carries optional profile changes.
type UpdateInput struct {
	Name  *string
	Email *string
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
