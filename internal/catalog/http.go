package catalog

import (
	"net/http"
	"strconv"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the catalog over HTTP. Access policy is applied by the router.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createProductRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	PriceCents  *int64 `json:"price_cents" binding:"required,min=0"`
	Category    string `json:"category"`
	Active      *bool  `json:"active"`
}

type updateProductRequest struct {
	Slug        *string `json:"slug"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents" binding:"omitempty,min=0"`
	Category    *string `json:"category"`
	Active      *bool   `json:"active"`
}

// List handles GET /products.
func (h *Handler) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parseListQuery(c *gin.Context) (ListQuery, error) {
	q := ListQuery{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
	}

	var err error
	if q.Skip, err = intParam(c, "skip"); err != nil {
		return q, err
	}
	if q.Take, err = intParam(c, "take"); err != nil {
		return q, err
	}
	if q.Min, err = centsParam(c, "min"); err != nil {
		return q, err
	}
	if q.Max, err = centsParam(c, "max"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.ErrInvalidInput, name+" must be an integer")
	}
	return n, nil
}

func centsParam(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return nil, apperr.New(apperr.ErrInvalidInput, name+" must be a non-negative integer")
	}
	return &n, nil
}

// Get handles GET /products/:slug.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create handles POST /products.
func (h *Handler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Create(c.Request.Context(), CreateInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  *req.PriceCents,
		Category:    req.Category,
		Active:      req.Active,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update handles PATCH /products/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, UpdateInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    req.Category,
		Active:      req.Active,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /products/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UploadImage handles PUT /products/:id/image with a multipart "file" field.
func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	img, err := h.service.UploadImage(c.Request.Context(), id, fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Respond(c, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
