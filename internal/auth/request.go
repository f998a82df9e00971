package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

const principalKey = "goshopPrincipal"

type principalCtxKey struct{}

// Request is the view of an inbound call that the guards need. It keeps the
// guards independent of the HTTP framework.
type Request interface {
	Header(name string) string
	SetPrincipal(p Principal)
	Principal() (Principal, bool)
}

type ginRequest struct {
	c *gin.Context
}

// FromGin adapts a gin context to Request.
func FromGin(c *gin.Context) Request {
	return ginRequest{c: c}
}

func (r ginRequest) Header(name string) string {
	return r.c.GetHeader(name)
}

func (r ginRequest) SetPrincipal(p Principal) {
	r.c.Set(principalKey, p)
	r.c.Request = r.c.Request.WithContext(ContextWithPrincipal(r.c.Request.Context(), p))
}

func (r ginRequest) Principal() (Principal, bool) {
	return CurrentPrincipal(r.c)
}

// CurrentPrincipal returns the principal attached by the authentication guard.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the principal stored by ContextWithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}
