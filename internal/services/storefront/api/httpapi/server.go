// Package httpapi serves the storefront JSON API and the admin console API.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/services/storefront/auth"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/account"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/cart"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/catalog"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/checkout"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/contact"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/content"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/order"
	"github.com/louisbranch/storefront/internal/services/storefront/media"
	"go.uber.org/zap"
)

// MediaPrefix is the path media objects are served under.
const MediaPrefix = "/media/"

// Config wires the API to its services.
type Config struct {
	Catalog  *catalog.Service
	Carts    *cart.Service
	Checkout *checkout.Service
	Orders   *order.Service
	Content  *content.Service
	Contact  *contact.Service
	Accounts *account.Service
	Sessions *auth.Sessions
	Media    *media.Store
	// SecureCookies marks the cart cookie HTTPS-only.
	SecureCookies bool
	// TrustedProxies are the peers whose X-Forwarded-For header names the
	// client address used for contact rate limiting.
	TrustedProxies httpx.TrustedProxies
	Logger         *zap.Logger
}

type handlers struct {
	catalog       *catalog.Service
	carts         *cart.Service
	checkout      *checkout.Service
	orders        *order.Service
	content       *content.Service
	contact       *contact.Service
	accounts      *account.Service
	sessions      *auth.Sessions
	media         *media.Store
	secureCookies bool
	proxies       httpx.TrustedProxies
	logger        *zap.Logger
}

// NewHandler builds the full API handler with its middleware chain.
func NewHandler(cfg Config) (http.Handler, error) {
	switch {
	case cfg.Catalog == nil, cfg.Carts == nil, cfg.Checkout == nil, cfg.Orders == nil:
		return nil, errors.New("catalog, cart, checkout and order services are required")
	case cfg.Content == nil, cfg.Contact == nil, cfg.Accounts == nil:
		return nil, errors.New("content, contact and account services are required")
	case cfg.Sessions == nil || cfg.Media == nil:
		return nil, errors.New("sessions and media store are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := handlers{
		catalog:       cfg.Catalog,
		carts:         cfg.Carts,
		checkout:      cfg.Checkout,
		orders:        cfg.Orders,
		content:       cfg.Content,
		contact:       cfg.Contact,
		accounts:      cfg.Accounts,
		sessions:      cfg.Sessions,
		media:         cfg.Media,
		secureCookies: cfg.SecureCookies,
		proxies:       cfg.TrustedProxies,
		logger:        logger,
	}

	mux := http.NewServeMux()
	h.registerPublicRoutes(mux)

	admin := http.NewServeMux()
	h.registerAdminRoutes(admin)
	mux.Handle("/api/admin/", auth.RequireAdmin(h.accounts)(admin))

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.RecoverPanic(logger),
		httpx.RequestLogger(logger),
		httpx.Locale(),
		h.sessions.Middleware(logger),
	), nil
}

func (h handlers) registerPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", h.handleListCategories)
	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)
	mux.Handle("POST /api/products/{id}/reviews", auth.RequireUser(http.HandlerFunc(h.handleSubmitReview)))

	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("DELETE /api/cart", h.handleClearCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{productID}", h.handleUpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{productID}", h.handleRemoveCartItem)

	mux.HandleFunc("POST /api/checkout", h.handleCheckout)
	mux.HandleFunc("POST /api/checkout/webhook", h.handleCheckoutWebhook)
	mux.HandleFunc("GET /api/checkout/sessions/{id}", h.handleCheckoutSession)

	mux.HandleFunc("GET /api/faqs", h.handleListFAQs)
	mux.HandleFunc("GET /api/settings", h.handleListSettings)
	mux.HandleFunc("POST /api/contact", h.handleContact)

	mux.HandleFunc("POST /api/auth/signup", h.handleSignup)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.Handle("GET /api/auth/me", auth.RequireUser(http.HandlerFunc(h.handleMe)))

	mux.Handle("GET "+MediaPrefix+"{key...}", h.media.Handler(MediaPrefix))
}

func (h handlers) registerAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/dashboard", h.handleDashboard)

	mux.HandleFunc("GET /api/admin/products", h.handleListProducts)
	mux.HandleFunc("POST /api/admin/products", h.handleCreateProduct)
	mux.HandleFunc("PUT /api/admin/products/{id}", h.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/admin/products/{id}", h.handleDeleteProduct)

	mux.HandleFunc("GET /api/admin/categories", h.handleListCategories)
	mux.HandleFunc("POST /api/admin/categories", h.handleCreateCategory)
	mux.HandleFunc("PUT /api/admin/categories/{id}", h.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/admin/categories/{id}", h.handleDeleteCategory)

	mux.HandleFunc("GET /api/admin/faqs", h.handleListFAQs)
	mux.HandleFunc("POST /api/admin/faqs", h.handleCreateFAQ)
	mux.HandleFunc("PUT /api/admin/faqs/{id}", h.handleUpdateFAQ)
	mux.HandleFunc("DELETE /api/admin/faqs/{id}", h.handleDeleteFAQ)

	mux.HandleFunc("GET /api/admin/settings", h.handleListSettings)
	mux.HandleFunc("POST /api/admin/settings", h.handleCreateSetting)
	mux.HandleFunc("PUT /api/admin/settings/{key}", h.handleUpdateSetting)
	mux.HandleFunc("DELETE /api/admin/settings/{key}", h.handleDeleteSetting)

	mux.HandleFunc("GET /api/admin/users", h.handleListUsers)
	mux.HandleFunc("PUT /api/admin/users/{id}/role", h.handleSetUserRole)

	mux.HandleFunc("GET /api/admin/messages", h.handleListMessages)
	mux.HandleFunc("POST /api/admin/messages/{id}/read", h.handleMarkMessageRead)
	mux.HandleFunc("DELETE /api/admin/messages/{id}", h.handleDeleteMessage)

	mux.HandleFunc("GET /api/admin/orders", h.handleListOrders)
	mux.HandleFunc("PUT /api/admin/orders/{id}/status", h.handleUpdateOrderStatus)

	mux.HandleFunc("POST /api/admin/images", h.handleUploadImage)
	mux.HandleFunc("DELETE /api/admin/images", h.handleDeleteImage)
}

func (h handlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		h.logger.Warn("write json response", zap.Error(err))
	}
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	httpx.WriteError(w, r, err)
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, name+" must be an integer", err)
	}
	return value, nil
}
