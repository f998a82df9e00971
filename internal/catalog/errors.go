package catalog

import "github.com/abduss/goshop/internal/apperr"

var (
	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = apperr.New(apperr.ErrNotFound, "Product not found")
	// ErrSlugTaken indicates another product already uses the slug.
	ErrSlugTaken = apperr.New(apperr.ErrConflict, "Product with this slug already exists")
	// ErrProductInUse indicates orders still reference the product.
	ErrProductInUse = apperr.New(apperr.ErrConflict, "Product is referenced by existing orders")
	// ErrInvalidProduct is returned for rejected create or update payloads.
	ErrInvalidProduct = apperr.New(apperr.ErrInvalidInput, "invalid product")
	// ErrInvalidQuery is returned for malformed listing parameters.
	ErrInvalidQuery = apperr.New(apperr.ErrInvalidInput, "invalid query")
	// ErrImageTooLarge is returned when an upload exceeds the size limit.
	ErrImageTooLarge = apperr.New(apperr.ErrInvalidInput, "image too large")
	// ErrUnsupportedImage is returned for uploads that are not images.
	ErrUnsupportedImage = apperr.New(apperr.ErrInvalidInput, "unsupported image type")
	// ErrInvalidID is returned for malformed product identifiers.
	ErrInvalidID = apperr.New(apperr.ErrInvalidInput, "invalid product id")
)
