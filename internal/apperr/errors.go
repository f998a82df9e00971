// Package apperr holds the error taxonomy shared by the API packages and
// its mapping onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	// ErrConflict marks duplicate resources.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks missing, invalid or revoked credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks an authenticated caller lacking permission.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a request rejected by validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Error is a classified error with a message that is safe to return to clients.
type Error struct {
	kind    error
	message string
}

// New builds an Error of the given kind.
func New(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }

// Unwrap exposes the kind so errors.Is works against the sentinels above.
func (e *Error) Unwrap() error { return e.kind }

// Message returns the client-facing message.
func (e *Error) Message() string { return e.message }

// Status maps err onto an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message a client may see for err.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.message
	}
	switch Status(err) {
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}

// Respond writes err as a JSON error body.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": PublicMessage(err)})
}

// Abort writes err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": PublicMessage(err)})
}
