package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/goshop/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultQueryTimeout = 5 * time.Second

const orderColumns = `id, number, user_id, status, total_cents, created_at`

type conn interface {
	Conn(ctx context.Context) storage.Querier
}

// Repository provides database access for orders.
type Repository struct {
	db conn
}

// NewRepository constructs a new Repository.
func NewRepository(db conn) *Repository {
	return &Repository{db: db}
}

// Create inserts the order and its items. Run it inside a transaction.
func (r *Repository) Create(ctx context.Context, o Order) (Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	q := r.db.Conn(ctx)
	query := `
INSERT INTO orders (number, user_id, status, total_cents)
VALUES ($1, $2, $3, $4)
RETURNING ` + orderColumns + `;`

	created, err := scanOrder(q.QueryRow(ctx, query, o.Number, o.UserID, o.Status, o.TotalCents))
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err := q.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, title, price_cents, quantity)
VALUES ($1, $2, $3, $4, $5);`, created.ID, it.ProductID, it.Title, it.PriceCents, it.Quantity)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	created.Items = append([]Item(nil), o.Items...)
	return created, nil
}

// ListByUser returns the orders of userID, newest first, with their items.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	rows, err := r.db.Conn(ctx).Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, number DESC;`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	index := make(map[uuid.UUID]int)
	ids := make([]string, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = []Item{}
		index[o.ID] = len(orders)
		ids = append(ids, o.ID.String())
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	itemRows, err := r.db.Conn(ctx).Query(ctx, `
SELECT order_id, product_id, title, price_cents, quantity
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY title;`, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID uuid.UUID
		var it Item
		if err := itemRows.Scan(&orderID, &it.ProductID, &it.Title, &it.PriceCents, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return orders, nil
}

// FindByID returns one order of userID.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	o, err := scanOrder(r.db.Conn(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2;`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("find order: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, `
SELECT product_id, title, price_cents, quantity
FROM order_items
WHERE order_id = $1
ORDER BY title;`, id)
	if err != nil {
		return Order{}, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	o.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Title, &it.PriceCents, &it.Quantity); err != nil {
			return Order{}, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, fmt.Errorf("iterate order items: %w", err)
	}
	return o, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt)
	return o, err
}
