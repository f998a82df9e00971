package cart

import (
	"net/http"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/abduss/goshop/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the caller's cart over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// Get handles GET /cart.
func (h *Handler) Get(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	cart, err := h.service.Get(c.Request.Context(), owner)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem handles POST /cart/items.
func (h *Handler) AddItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		apperr.Respond(c, ErrInvalidID)
		return
	}

	cart, err := h.service.AddItem(c.Request.Context(), owner, productID, req.Quantity)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/:productID.
func (h *Handler) RemoveItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productID"))
	if err != nil {
		apperr.Respond(c, ErrInvalidID)
		return
	}

	cart, err := h.service.RemoveItem(c.Request.Context(), owner, productID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// Clear handles DELETE /cart.
func (h *Handler) Clear(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	if err := h.service.Clear(c.Request.Context(), owner); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, newCart(nil))
}

func cartOwner(c *gin.Context) (string, bool) {
	p, ok := auth.CurrentPrincipal(c)
	if !ok || p.Sub == "" {
		apperr.Respond(c, auth.ErrNotAuthenticated)
		return "", false
	}
	return p.Sub, true
}
