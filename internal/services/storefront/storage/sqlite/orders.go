package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/platform/pagination"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

const orderColumnsSQL = `o.id, COALESCE(o.user_id, ''), o.session_id, o.total_cents, o.status,
       o.created_at, o.updated_at, COALESCE(u.email, ''), COALESCE(u.name, '')`

// CreateOrder inserts an order with its items.
func (s *Store) CreateOrder(ctx context.Context, order storage.Order) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("order id is required")
	}
	if strings.TrimSpace(order.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	updatedAt := order.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, user_id, session_id, total_cents, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID,
			nullableString(order.UserID),
			order.SessionID,
			order.TotalCents,
			order.Status,
			toMillis(createdAt),
			toMillis(updatedAt),
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("insert order: %w", err)
		}
		for idx, item := range order.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, position, product_id, name, unit_price_cents, quantity)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				order.ID,
				idx,
				item.ProductID,
				item.Name,
				item.UnitPriceCents,
				item.Quantity,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
}

// GetOrder returns one order with its items.
func (s *Store) GetOrder(ctx context.Context, id string) (storage.Order, error) {
	return s.getOrderWhere(ctx, "o.id = ?", strings.TrimSpace(id))
}

// GetOrderBySession returns the order created for a checkout session.
func (s *Store) GetOrderBySession(ctx context.Context, sessionID string) (storage.Order, error) {
	return s.getOrderWhere(ctx, "o.session_id = ?", strings.TrimSpace(sessionID))
}

func (s *Store) getOrderWhere(ctx context.Context, clause string, arg any) (storage.Order, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Order{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+orderColumnsSQL+" FROM orders o LEFT JOIN users u ON u.id = o.user_id WHERE "+clause,
		arg,
	)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Order{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Order{}, fmt.Errorf("get order: %w", err)
	}
	items, err := s.orderItems(ctx, order.ID)
	if err != nil {
		return storage.Order{}, err
	}
	order.Items = items
	return order, nil
}

func (s *Store) orderItems(ctx context.Context, orderID string) ([]storage.OrderItem, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT product_id, name, unit_price_cents, quantity
		   FROM order_items
		  WHERE order_id = ?
		  ORDER BY position ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	var items []storage.OrderItem
	for rows.Next() {
		var item storage.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPriceCents, &item.Quantity); err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return items, nil
}

// UpdateOrderStatus sets an order's status.
func (s *Store) UpdateOrderStatus(ctx context.Context, id, status string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		toMillis(at),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return requireAffected(result, "update order status")
}

// OrderStats counts orders in statuses and returns the most recent ones.
func (s *Store) OrderStats(ctx context.Context, statuses []string, recent int) (storage.OrderStats, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OrderStats{}, err
	}
	stats := storage.OrderStats{ByStatus: make(map[string]int, len(statuses))}
	for _, status := range statuses {
		stats.ByStatus[status] = 0
	}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		params := make([]any, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			params[i] = status
		}
		rows, err := s.sqlDB.QueryContext(ctx,
			`SELECT status, COUNT(*) FROM orders
			  WHERE status IN (`+strings.Join(placeholders, ", ")+`)
			  GROUP BY status`,
			params...,
		)
		if err != nil {
			return storage.OrderStats{}, fmt.Errorf("count orders: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return storage.OrderStats{}, fmt.Errorf("count orders: %w", err)
			}
			stats.ByStatus[status] = count
			stats.Total += count
		}
		if err := rows.Err(); err != nil {
			return storage.OrderStats{}, fmt.Errorf("count orders: %w", err)
		}
	}
	if recent > 0 {
		orders, _, err := s.listOrders(ctx, recent, nil)
		if err != nil {
			return storage.OrderStats{}, err
		}
		stats.Recent = orders
	}
	return stats, nil
}

// ListOrders returns one page of orders, newest first.
func (s *Store) ListOrders(ctx context.Context, pageSize int, pageToken string) ([]storage.Order, string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, "", err
	}
	if pageSize <= 0 {
		return nil, "", fmt.Errorf("page size must be greater than zero")
	}
	keys, err := pagination.DecodeToken(pageToken, 2)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", storage.ErrInvalidPageToken, err)
	}
	return s.listOrders(ctx, pageSize, keys)
}

func (s *Store) listOrders(ctx context.Context, pageSize int, after []string) ([]storage.Order, string, error) {
	statement := "SELECT " + orderColumnsSQL + " FROM orders o LEFT JOIN users u ON u.id = o.user_id"
	var params []any
	if len(after) == 2 {
		createdAt, err := strconv.ParseInt(after[0], 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", storage.ErrInvalidPageToken, err)
		}
		statement += " WHERE (o.created_at < ? OR (o.created_at = ? AND o.id > ?))"
		params = append(params, createdAt, createdAt, after[1])
	}
	statement += " ORDER BY o.created_at DESC, o.id ASC LIMIT ?"
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, "", fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	orders := make([]storage.Order, 0, pageSize)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, "", fmt.Errorf("list orders: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("list orders: %w", err)
	}
	nextToken := ""
	if len(orders) > pageSize {
		last := orders[pageSize-1]
		nextToken = pagination.EncodeToken(strconv.FormatInt(toMillis(last.CreatedAt), 10), last.ID)
		orders = orders[:pageSize]
	}
	return orders, nextToken, nil
}

func scanOrder(row scanner) (storage.Order, error) {
	var order storage.Order
	var createdAt, updatedAt int64
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.SessionID,
		&order.TotalCents,
		&order.Status,
		&createdAt,
		&updatedAt,
		&order.UserEmail,
		&order.UserName,
	); err != nil {
		return storage.Order{}, err
	}
	order.CreatedAt = fromMillis(createdAt)
	order.UpdatedAt = fromMillis(updatedAt)
	return order, nil
}
