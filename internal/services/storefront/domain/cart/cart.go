// Package cart keeps anonymous shopping carts keyed by a cookie-held cart ID.
package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/services/storefront/domain"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

// CookieName is the HTTP-only cookie that carries the cart ID.
const CookieName = "sf_cart"

// ErrMissingCart indicates a mutation without a cart ID.
var ErrMissingCart = apperrors.New(apperrors.CodeInvalidInput, "cart id is required")

// Cart is a snapshot of a cart's lines at current catalog prices.
type Cart struct {
	ID    string
	Lines []storage.CartLine
}

// Total is the sum of unit price times quantity, in cents.
func (c Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Product.PriceCents * int64(line.Quantity)
	}
	return total
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Service mutates carts.
type Service struct {
	store storage.CartStore
	now   func() time.Time
	newID func() (string, error)
}

// NewService builds a cart service.
func NewService(store storage.CartStore) *Service {
	return &Service{store: store, now: time.Now, newID: id.NewID}
}

// NewCartID issues an ID for a visitor's first mutation.
func (s *Service) NewCartID() (string, error) {
	cartID, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("generate cart id: %w", err)
	}
	return cartID, nil
}

// Get returns the cart. An unknown or empty ID yields an empty cart.
func (s *Service) Get(ctx context.Context, cartID string) (Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return Cart{}, nil
	}
	lines, err := s.store.ListCartLines(ctx, cartID)
	if err != nil {
		return Cart{}, fmt.Errorf("list cart lines: %w", err)
	}
	return Cart{ID: cartID, Lines: lines}, nil
}

// Add puts one unit of productID in the cart, incrementing an existing line.
func (s *Service) Add(ctx context.Context, cartID, productID string) (Cart, error) {
	cartID, err := requireCart(cartID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.store.IncrementCartLine(ctx, cartID, strings.TrimSpace(productID), 1, s.now().UTC()); err != nil {
		return Cart{}, domain.StorageError(err, "product")
	}
	return s.Get(ctx, cartID)
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) (Cart, error) {
	cartID, err := requireCart(cartID)
	if err != nil {
		return Cart{}, err
	}
	productID = strings.TrimSpace(productID)
	if quantity <= 0 {
		return s.Remove(ctx, cartID, productID)
	}
	if err := s.store.SetCartLineQuantity(ctx, cartID, productID, quantity, s.now().UTC()); err != nil {
		return Cart{}, domain.StorageError(err, "cart line")
	}
	return s.Get(ctx, cartID)
}

// Remove drops a line. Removing an absent line is not an error.
func (s *Service) Remove(ctx context.Context, cartID, productID string) (Cart, error) {
	cartID, err := requireCart(cartID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.store.RemoveCartLine(ctx, cartID, strings.TrimSpace(productID)); err != nil {
		return Cart{}, fmt.Errorf("remove cart line: %w", err)
	}
	return s.Get(ctx, cartID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return nil
	}
	if err := s.store.ClearCart(ctx, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func requireCart(cartID string) (string, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return "", ErrMissingCart
	}
	return cartID, nil
}
