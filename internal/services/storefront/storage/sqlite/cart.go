package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

// ListCartLines returns a cart's lines in the order they were first added.
func (s *Store) ListCartLines(ctx context.Context, cartID string) ([]storage.CartLine, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+productColumnsSQL+`, c.quantity
		   FROM cart_items c
		   JOIN products p ON p.id = c.product_id
		  WHERE c.cart_id = ?
		  ORDER BY c.added_at ASC, c.product_id ASC`,
		strings.TrimSpace(cartID),
	)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var lines []storage.CartLine
	for rows.Next() {
		var line storage.CartLine
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&line.Product.ID,
			&line.Product.Name,
			&line.Product.Description,
			&line.Product.PriceCents,
			&line.Product.ImageURL,
			&line.Product.CategoryID,
			&line.Product.Stock,
			&line.Product.Rating,
			&createdAt,
			&updatedAt,
			&line.Quantity,
		); err != nil {
			return nil, fmt.Errorf("list cart lines: %w", err)
		}
		line.Product.CreatedAt = fromMillis(createdAt)
		line.Product.UpdatedAt = fromMillis(updatedAt)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return lines, nil
}

// IncrementCartLine adds delta to a line, creating it when absent. A missing
// product yields storage.ErrNotFound.
func (s *Store) IncrementCartLine(ctx context.Context, cartID, productID string, delta int, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(cartID) == "" {
		return fmt.Errorf("cart id is required")
	}
	if delta <= 0 {
		return fmt.Errorf("delta must be greater than zero")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO cart_items (cart_id, product_id, quantity, added_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cart_id, product_id) DO UPDATE SET
		   quantity = cart_items.quantity + excluded.quantity,
		   updated_at = excluded.updated_at`,
		cartID,
		productID,
		delta,
		toMillis(at),
		toMillis(at),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("increment cart line: %w", err)
	}
	return nil
}

// SetCartLineQuantity replaces a line quantity. Quantities of zero or less
// remove the line.
func (s *Store) SetCartLineQuantity(ctx context.Context, cartID, productID string, quantity int, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.RemoveCartLine(ctx, cartID, productID)
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ?, updated_at = ?
		  WHERE cart_id = ? AND product_id = ?`,
		quantity,
		toMillis(at),
		cartID,
		productID,
	)
	if err != nil {
		return fmt.Errorf("set cart line quantity: %w", err)
	}
	return requireAffected(result, "set cart line quantity")
}

// RemoveCartLine deletes one line. Removing an absent line is not an error.
func (s *Store) RemoveCartLine(ctx context.Context, cartID, productID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		cartID,
		productID,
	); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

// ClearCart deletes every line in a cart.
func (s *Store) ClearCart(ctx context.Context, cartID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
