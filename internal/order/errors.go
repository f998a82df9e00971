package order

import "github.com/abduss/goshop/internal/apperr"

var (
	// ErrEmptyCart is returned when placing an order from an empty cart.
	ErrEmptyCart = apperr.New(apperr.ErrInvalidInput, "Cart is empty")
	// ErrProductUnavailable is returned when a cart line refers to a removed or inactive product.
	ErrProductUnavailable = apperr.New(apperr.ErrConflict, "A product in the cart is no longer available")
	// ErrOrderNotFound indicates the order does not exist or belongs to someone else.
	ErrOrderNotFound = apperr.New(apperr.ErrNotFound, "Order not found")
	// ErrInvalidID is returned for malformed order identifiers.
	ErrInvalidID = apperr.New(apperr.ErrInvalidInput, "invalid order id")
)
