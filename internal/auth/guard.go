package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/abduss/goshop/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "bearer "

type authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// Guard enforces resolved policies on requests.
type Guard struct {
	auth   authenticator
	logger *zap.Logger
}

// NewGuard constructs a Guard backed by a.
func NewGuard(a authenticator, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{auth: a, logger: logger}
}

// CheckAuthentication attaches a principal to req, or skips when the policy is public.
func (g *Guard) CheckAuthentication(ctx context.Context, req Request, policy Policy) error {
	if policy.Public {
		return nil
	}

	token, ok := bearerToken(req.Header("Authorization"))
	if !ok {
		return ErrUnauthorized
	}

	p, err := g.auth.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	req.SetPrincipal(p)
	return nil
}

// CheckAuthorization passes when the policy names no roles or the principal holds any of them.
func CheckAuthorization(req Request, policy Policy) error {
	required := normalizeRoles(policy.Roles...)
	if len(required) == 0 {
		return nil
	}

	p, ok := req.Principal()
	if !ok {
		return ErrNotAuthenticated
	}
	held := p.Roles()
	if len(held) == 0 {
		return ErrForbidden
	}
	for _, want := range required {
		for _, have := range held {
			if want == have {
				return nil
			}
		}
	}
	return ErrForbidden
}

// Authenticate returns gin middleware running CheckAuthentication.
func (g *Guard) Authenticate(policy Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.CheckAuthentication(c.Request.Context(), FromGin(c), policy); err != nil {
			g.reject(c, "authn", err)
			return
		}
		c.Next()
	}
}

// Authorize returns gin middleware running CheckAuthorization.
func (g *Guard) Authorize(policy Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := CheckAuthorization(FromGin(c), policy); err != nil {
			g.reject(c, "authz", err)
			return
		}
		c.Next()
	}
}

func (g *Guard) reject(c *gin.Context, guard string, err error) {
	metrics.GuardRejected(guard, rejectionReason(err))
	if apperr.Status(err) >= 500 {
		g.logger.Error("guard failure", zap.String("guard", guard), zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		g.logger.Debug("request rejected", zap.String("guard", guard), zap.String("path", c.FullPath()), zap.Error(err))
	}
	apperr.Abort(c, err)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTokenPayload):
		return "invalid_payload"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthorized):
		return "invalid_token"
	default:
		return "error"
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
