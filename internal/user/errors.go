package user

import "github.com/abduss/goshop/internal/apperr"

var (
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = apperr.New(apperr.ErrNotFound, "User not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = apperr.New(apperr.ErrConflict, "User already exists")
	// ErrInvalidRole is returned for role names outside USER and ADMIN.
	ErrInvalidRole = apperr.New(apperr.ErrInvalidInput, "Invalid role")
	// ErrInvalidID is returned for malformed user identifiers.
	ErrInvalidID = apperr.New(apperr.ErrInvalidInput, "Invalid user id")
)
