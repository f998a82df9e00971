package cart

import "github.com/abduss/goshop/internal/apperr"

var (
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = apperr.New(apperr.ErrInvalidInput, "quantity must be at least 1")
	// ErrProductNotFound is returned when adding a product that does not exist or is inactive.
	ErrProductNotFound = apperr.New(apperr.ErrNotFound, "Product not found")
	// ErrInvalidID is returned for malformed product identifiers.
	ErrInvalidID = apperr.New(apperr.ErrInvalidInput, "invalid product id")
)
