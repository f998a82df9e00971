package order

import (
	"context"
	"errors"
	"time"

	"github.com/abduss/goshop/internal/cart"
	"github.com/abduss/goshop/internal/catalog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (Order, error)
}

type carts interface {
	Items(ctx context.Context, userID string) ([]cart.Item, error)
	Clear(ctx context.Context, userID string) error
}

type products interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service places and lists orders.
type Service struct {
	repo     repository
	carts    carts
	products products
	tx       transactor
	logger   *zap.Logger
	nowFunc  func() time.Time
}

// NewService constructs an order Service.
func NewService(repo repository, carts carts, products products, tx transactor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, carts: carts, products: products, tx: tx, logger: logger, nowFunc: time.Now}
}

// Place turns the cart of userID into an order priced at current product
// prices, then empties the cart.
func (s *Service) Place(ctx context.Context, userID uuid.UUID) (Order, error) {
	owner := userID.String()
	lines, err := s.carts.Items(ctx, owner)
	if err != nil {
		return Order{}, err
	}
	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}

	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		p, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return Order{}, ErrProductUnavailable
			}
			return Order{}, err
		}
		if !p.Active {
			return Order{}, ErrProductUnavailable
		}
		items = append(items, Item{ProductID: p.ID, Title: p.Title, PriceCents: p.PriceCents, Quantity: line.Quantity})
	}

	pending := Order{
		Number:     NewNumber(s.nowFunc()),
		UserID:     userID,
		Status:     StatusPending,
		TotalCents: Total(items),
		Items:      items,
	}

	var placed Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.repo.Create(ctx, pending)
		if err != nil {
			return err
		}
		placed = created
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if err := s.carts.Clear(ctx, owner); err != nil {
		s.logger.Error("clear cart after order", zap.String("order", placed.Number), zap.Error(err))
	}
	s.logger.Info("order placed",
		zap.String("order", placed.Number),
		zap.String("user_id", owner),
		zap.Int64("total_cents", placed.TotalCents),
	)
	return placed, nil
}

// List returns the orders of userID.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one order of userID.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (Order, error) {
	return s.repo.FindByID(ctx, userID, id)
}
