// Package checkout turns carts into hosted payment sessions and pending
// orders, and settles them from provider webhooks.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/cart"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/order"
	"github.com/louisbranch/storefront/internal/services/storefront/payments"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"go.uber.org/zap"
)

// Session metadata keys.
const (
	MetadataCartID = "cart_id"
	MetadataUserID = "user_id"
)

var (
	// ErrNoItems indicates a checkout with neither items nor a cart.
	ErrNoItems = apperrors.New(apperrors.CodeCartEmpty, "no items to purchase")
	// ErrInvalidQuantity indicates a requested quantity below one.
	ErrInvalidQuantity = apperrors.New(apperrors.CodeCartInvalidQuantity, "quantity must be at least 1")
	// ErrNotConfigured indicates no payment gateway is wired.
	ErrNotConfigured = apperrors.New(apperrors.CodeCheckoutNotConfigured, "payment gateway not configured")
)

// Item is one requested product and quantity.
type Item struct {
	ProductID string
	Quantity  int
}

// Request starts a checkout. When Items is empty the cart is used.
type Request struct {
	Items         []Item
	CartID        string
	UserID        string
	CustomerEmail string
	// Origin is the scheme and host the hosted page returns to.
	Origin string
}

// Result is a created session and its pending order.
type Result struct {
	Session payments.Session
	Order   storage.Order
}

// Config wires a Service.
type Config struct {
	Catalog storage.CatalogStore
	Carts   *cart.Service
	Orders  *order.Service
	Gateway payments.Gateway
	Logger  *zap.Logger
}

// Service runs checkouts.
type Service struct {
	catalog storage.CatalogStore
	carts   *cart.Service
	orders  *order.Service
	gateway payments.Gateway
	logger  *zap.Logger
}

// NewService builds a checkout service. A nil gateway makes Start fail with
// ErrNotConfigured.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: cfg.Catalog,
		carts:   cfg.Carts,
		orders:  cfg.Orders,
		gateway: cfg.Gateway,
		logger:  logger,
	}
}

// Start prices the requested items from the catalog, creates a hosted
// session and records a pending order for it.
func (s *Service) Start(ctx context.Context, req Request) (Result, error) {
	if s.gateway == nil {
		return Result{}, ErrNotConfigured
	}
	items, err := s.resolveItems(ctx, req)
	if err != nil {
		return Result{}, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("load products: %w", err)
	}

	lineItems := make([]payments.LineItem, 0, len(items))
	orderItems := make([]storage.OrderItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return Result{}, apperrors.WithMetadata(apperrors.CodeCheckoutProductMissing, "product not found",
				map[string]string{"ProductID": item.ProductID})
		}
		line := payments.LineItem{
			Name:            product.Name,
			Description:     product.Description,
			UnitAmountCents: product.PriceCents,
			Quantity:        item.Quantity,
		}
		if IsHTTPURL(product.ImageURL) {
			line.ImageURL = product.ImageURL
		}
		lineItems = append(lineItems, line)
		orderItems = append(orderItems, storage.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
		})
	}

	origin := strings.TrimRight(req.Origin, "/")
	metadata := map[string]string{}
	if req.CartID != "" {
		metadata[MetadataCartID] = req.CartID
	}
	if req.UserID != "" {
		metadata[MetadataUserID] = req.UserID
	}
	session, err := s.gateway.CreateCheckoutSession(ctx, payments.SessionRequest{
		Items:            lineItems,
		SuccessURL:       origin + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        origin + "/cart",
		CustomerEmail:    req.CustomerEmail,
		AllowedCountries: payments.ShippingCountries(),
		ShippingOptions:  payments.StandardShipping(),
		Metadata:         metadata,
	})
	if err != nil {
		s.logger.Error("create checkout session", zap.Error(err))
		return Result{}, &apperrors.Error{
			Code:     apperrors.CodeCheckoutPaymentFailed,
			Message:  "create checkout session failed",
			Metadata: map[string]string{"Reason": payments.ProviderMessage(err)},
			Cause:    err,
		}
	}

	pending, err := s.orders.CreatePending(ctx, order.PendingOrder{
		UserID:    req.UserID,
		SessionID: session.ID,
		Items:     orderItems,
	})
	if err != nil {
		return Result{}, fmt.Errorf("record pending order: %w", err)
	}
	s.logger.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("order_id", pending.ID),
		zap.Int64("total_cents", pending.TotalCents),
	)
	return Result{Session: session, Order: pending}, nil
}

func (s *Service) resolveItems(ctx context.Context, req Request) ([]Item, error) {
	if len(req.Items) > 0 {
		items := make([]Item, 0, len(req.Items))
		for _, item := range req.Items {
			item.ProductID = strings.TrimSpace(item.ProductID)
			if item.ProductID == "" {
				return nil, apperrors.New(apperrors.CodeInvalidInput, "product id is required")
			}
			if item.Quantity < 1 {
				return nil, ErrInvalidQuantity
			}
			items = append(items, item)
		}
		return items, nil
	}
	if s.carts == nil || strings.TrimSpace(req.CartID) == "" {
		return nil, ErrNoItems
	}
	current, err := s.carts.Get(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	if len(current.Lines) == 0 {
		return nil, ErrNoItems
	}
	items := make([]Item, 0, len(current.Lines))
	for _, line := range current.Lines {
		items = append(items, Item{ProductID: line.Product.ID, Quantity: line.Quantity})
	}
	return items, nil
}

// HandleWebhook verifies a provider event. A completed session moves its
// order to processing and clears the cart it was bought from. Sessions
// without an order are logged and acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrNotConfigured
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidWebhook) {
			return apperrors.Wrap(apperrors.CodeCheckoutWebhookInvalid, "invalid webhook", err)
		}
		return fmt.Errorf("parse webhook: %w", err)
	}
	if event.Type != payments.EventCheckoutCompleted {
		s.logger.Debug("ignoring webhook event", zap.String("type", event.Type), zap.String("event_id", event.ID))
		return nil
	}
	paid, err := s.orders.MarkPaid(ctx, event.SessionID)
	if apperrors.CodeOf(err) == apperrors.CodeNotFound {
		// Acknowledged so the provider stops redelivering it.
		s.logger.Warn("completed session has no order",
			zap.String("session_id", event.SessionID),
			zap.String("event_id", event.ID),
		)
		return nil
	}
	if err != nil {
		return err
	}
	if cartID := event.Metadata[MetadataCartID]; cartID != "" && s.carts != nil {
		if err := s.carts.Clear(ctx, cartID); err != nil {
			return err
		}
	}
	s.logger.Info("checkout completed",
		zap.String("session_id", event.SessionID),
		zap.String("order_id", paid.ID),
	)
	return nil
}

// SessionOrder returns the order created for a session.
func (s *Service) SessionOrder(ctx context.Context, sessionID string) (storage.Order, error) {
	return s.orders.GetBySession(ctx, sessionID)
}

// IsHTTPURL reports whether raw is an absolute http or https URL.
func IsHTTPURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
