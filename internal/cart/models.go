package cart

import "github.com/google/uuid"

// Item is one cart line. Title and price are captured when the line is first added.
type Item struct {
	ProductID  uuid.UUID `json:"product_id"`
	Title      string    `json:"title"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
}

// Cart is the caller's cart with its running total.
type Cart struct {
	Items      []Item `json:"items"`
	TotalCents int64  `json:"total_cents"`
}

func newCart(items []Item) Cart {
	c := Cart{Items: items}
	if c.Items == nil {
		c.Items = []Item{}
	}
	for _, it := range c.Items {
		c.TotalCents += it.PriceCents * int64(it.Quantity)
	}
	return c
}
