package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Sort orders for product listings.
const (
	SortTitleAsc  = "title_asc"
	SortTitleDesc = "title_desc"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

const (
	defaultTake = 20
	maxTake     = 100
)

// Product is a catalog entry.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Category    string    `json:"category"`
	Active      bool      `json:"active"`
	ImageObject *string   `json:"-"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput carries data for a new product.
type CreateInput struct {
	Slug        string
	Title       string
	Description string
	PriceCents  int64
	Category    string
	Active      *bool
}

// UpdateInput carries the fields to change. Nil fields are left alone.
type UpdateInput struct {
	Slug        *string
	Title       *string
	Description *string
	PriceCents  *int64
	Category    *string
	Active      *bool
}

// ListQuery filters and pages the active catalog.
type ListQuery struct {
	Q        string
	Category string
	Min      *int64
	Max      *int64
	Skip     int
	Take     int
	Sort     string
}

// Page is one page of a listing.
type Page struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Skip  int       `json:"skip"`
	Take  int       `json:"take"`
}

// Image describes an uploaded product image.
type Image struct {
	ProductID uuid.UUID `json:"product_id"`
	Object    string    `json:"object"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
