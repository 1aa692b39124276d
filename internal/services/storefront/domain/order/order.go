// Package order tracks orders from checkout through delivery.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/platform/pagination"
	"github.com/louisbranch/storefront/internal/services/storefront/domain"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

// Order statuses, in fulfilment order.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
)

// RecentOrders is how many orders the dashboard shows.
const RecentOrders = 5

var statusRank = map[string]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

var pageSizes = pagination.PageSizeConfig{Default: 20, Max: 100}

// Statuses lists every status in fulfilment order.
func Statuses() []string {
	return []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered}
}

// ValidStatus reports whether status is known.
func ValidStatus(status string) bool {
	_, ok := statusRank[status]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. Orders only move forward.
func CanTransition(from, to string) bool {
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	return okFrom && okTo && toRank > fromRank
}

// PendingOrder is an order about to be paid through a hosted checkout session.
type PendingOrder struct {
	UserID    string
	SessionID string
	Items     []storage.OrderItem
}

// Service manages orders.
type Service struct {
	store storage.OrderStore
	now   func() time.Time
	newID func() (string, error)
}

// NewService builds an order service.
func NewService(store storage.OrderStore) *Service {
	return &Service{store: store, now: time.Now, newID: id.NewID}
}

// CreatePending records a pending order for a checkout session.
func (s *Service) CreatePending(ctx context.Context, pending PendingOrder) (storage.Order, error) {
	if strings.TrimSpace(pending.SessionID) == "" {
		return storage.Order{}, apperrors.New(apperrors.CodeInvalidInput, "session id is required")
	}
	orderID, err := s.newID()
	if err != nil {
		return storage.Order{}, fmt.Errorf("generate order id: %w", err)
	}
	var total int64
	for _, item := range pending.Items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	now := s.now().UTC()
	record := storage.Order{
		ID:         orderID,
		UserID:     pending.UserID,
		SessionID:  pending.SessionID,
		TotalCents: total,
		Status:     StatusPending,
		Items:      pending.Items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateOrder(ctx, record); err != nil {
		return storage.Order{}, domain.StorageError(err, "order")
	}
	return record, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, orderID string) (storage.Order, error) {
	record, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return storage.Order{}, domain.StorageError(err, "order")
	}
	return record, nil
}

// GetBySession returns the order created for a checkout session.
func (s *Service) GetBySession(ctx context.Context, sessionID string) (storage.Order, error) {
	record, err := s.store.GetOrderBySession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return storage.Order{}, domain.StorageError(err, "order")
	}
	return record, nil
}

// MarkPaid moves the session's order to processing. Orders already past
// pending are returned unchanged, so webhook redelivery is harmless.
func (s *Service) MarkPaid(ctx context.Context, sessionID string) (storage.Order, error) {
	record, err := s.GetBySession(ctx, sessionID)
	if err != nil {
		return storage.Order{}, err
	}
	if record.Status != StatusPending {
		return record, nil
	}
	return s.setStatus(ctx, record, StatusProcessing)
}

// UpdateStatus moves an order forward to status.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (storage.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ValidStatus(status) {
		return storage.Order{}, apperrors.WithMetadata(apperrors.CodeOrderInvalidStatus, "unknown order status", map[string]string{"Status": status})
	}
	record, err := s.Get(ctx, orderID)
	if err != nil {
		return storage.Order{}, err
	}
	if !CanTransition(record.Status, status) {
		return storage.Order{}, apperrors.WithMetadata(apperrors.CodeOrderInvalidTransition, "order status cannot move backwards",
			map[string]string{"From": record.Status, "To": status})
	}
	return s.setStatus(ctx, record, status)
}

func (s *Service) setStatus(ctx context.Context, record storage.Order, status string) (storage.Order, error) {
	now := s.now().UTC()
	if err := s.store.UpdateOrderStatus(ctx, record.ID, status, now); err != nil {
		return storage.Order{}, domain.StorageError(err, "order")
	}
	record.Status = status
	record.UpdatedAt = now
	return record, nil
}

// Stats returns dashboard counts and the most recent orders.
func (s *Service) Stats(ctx context.Context) (storage.OrderStats, error) {
	stats, err := s.store.OrderStats(ctx, Statuses(), RecentOrders)
	if err != nil {
		return storage.OrderStats{}, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

// List returns one page of orders, newest first.
func (s *Service) List(ctx context.Context, pageSize int, pageToken string) ([]storage.Order, string, error) {
	orders, next, err := s.store.ListOrders(ctx, pagination.ClampPageSize(pageSize, pageSizes), pageToken)
	if errors.Is(err, storage.ErrInvalidPageToken) {
		return nil, "", domain.StorageError(err, "orders")
	}
	if err != nil {
		return nil, "", fmt.Errorf("list orders: %w", err)
	}
	return orders, next, nil
}
