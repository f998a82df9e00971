package cart

import (
	"context"
	"errors"

	"github.com/abduss/goshop/internal/catalog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type store interface {
	Items(ctx context.Context, userID string) ([]Item, error)
	Add(ctx context.Context, userID string, item Item) ([]Item, error)
	Remove(ctx context.Context, userID string, productID uuid.UUID) ([]Item, error)
	Clear(ctx context.Context, userID string) error
}

type products interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

// Service implements the shopping cart.
type Service struct {
	store    store
	products products
	logger   *zap.Logger
}

// NewService constructs a cart Service.
func NewService(store store, products products, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, products: products, logger: logger}
}

// Get returns the cart of userID.
func (s *Service) Get(ctx context.Context, userID string) (Cart, error) {
	items, err := s.store.Items(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	return newCart(items), nil
}

// Items returns the raw lines of the cart of userID.
func (s *Service) Items(ctx context.Context, userID string) ([]Item, error) {
	return s.store.Items(ctx, userID)
}

// AddItem puts quantity units of productID into the cart.
func (s *Service) AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (Cart, error) {
	if quantity < 1 {
		return Cart{}, ErrInvalidQuantity
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return Cart{}, ErrProductNotFound
		}
		return Cart{}, err
	}
	if !p.Active {
		return Cart{}, ErrProductNotFound
	}

	items, err := s.store.Add(ctx, userID, Item{
		ProductID:  p.ID,
		Title:      p.Title,
		PriceCents: p.PriceCents,
		Quantity:   quantity,
	})
	if err != nil {
		return Cart{}, err
	}
	s.logger.Debug("cart item added", zap.String("user_id", userID), zap.String("product_id", productID.String()), zap.Int("quantity", quantity))
	return newCart(items), nil
}

// RemoveItem drops the line for productID.
func (s *Service) RemoveItem(ctx context.Context, userID string, productID uuid.UUID) (Cart, error) {
	items, err := s.store.Remove(ctx, userID, productID)
	if err != nil {
		return Cart{}, err
	}
	return newCart(items), nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}
