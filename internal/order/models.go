package order

import (
	"time"

	"github.com/google/uuid"
)

// StatusPending is the status of a newly placed order.
const StatusPending = "PENDING"

// Order is a placed order with its lines.
type Order struct {
	ID         uuid.UUID `json:"id"`
	Number     string    `json:"number"`
	UserID     uuid.UUID `json:"user_id"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
	Items      []Item    `json:"items"`
}

// Item is one order line priced at placement time.
type Item struct {
	ProductID  uuid.UUID `json:"product_id"`
	Title      string    `json:"title"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
}

// Total sums price times quantity over items.
func Total(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.PriceCents * int64(it.Quantity)
	}
	return total
}
