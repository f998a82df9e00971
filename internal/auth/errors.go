package auth

import (
	"errors"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/abduss/goshop/internal/user"
)

var (
	// ErrUserExists is returned when registering an email that is already taken.
	ErrUserExists = user.ErrEmailTaken
	// ErrInvalidCredentials is returned when login fails, whichever check failed.
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "Invalid credentials")
	// ErrInvalidRefreshToken covers unknown, expired and already consumed refresh tokens.
	ErrInvalidRefreshToken = apperr.New(apperr.ErrUnauthorized, "Invalid or expired refresh token")
	// ErrInvalidTokenPayload is returned for access tokens lacking sub/role or carrying a stale role.
	ErrInvalidTokenPayload = apperr.New(apperr.ErrUnauthorized, "Invalid token payload")
	// ErrUserNotFound is returned when the token subject no longer exists.
	ErrUserNotFound = apperr.New(apperr.ErrUnauthorized, "User not found")
	// ErrNotAuthenticated is returned by the roles check when no principal is attached.
	ErrNotAuthenticated = apperr.New(apperr.ErrUnauthorized, "User not authenticated")
	// ErrUnauthorized represents missing, malformed, expired or forged bearer tokens.
	ErrUnauthorized = apperr.New(apperr.ErrUnauthorized, "Unauthorized")
	// ErrForbidden is returned when the principal lacks every required role.
	ErrForbidden = apperr.New(apperr.ErrForbidden, "You do not have permission to access this resource")

	// ErrInvalidToken is the token codec failure for bad signatures, malformed or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRefreshTokenNotFound is returned by the store when no record matches.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)
