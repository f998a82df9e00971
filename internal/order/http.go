package order

import (
	"net/http"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/abduss/goshop/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the caller's orders over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Place handles POST /orders.
func (h *Handler) Place(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	o, err := h.service.Place(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// List handles GET /orders.
func (h *Handler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	orders, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Get handles GET /orders/:id.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Respond(c, ErrInvalidID)
		return
	}
	o, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, auth.ErrNotAuthenticated)
		return uuid.Nil, false
	}
	id, err := p.UserID()
	if err != nil {
		apperr.Respond(c, auth.ErrInvalidTokenPayload)
		return uuid.Nil, false
	}
	return id, true
}
