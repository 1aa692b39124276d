// Package app composes the storefront process: the HTTP API, the contact
// delivery loop and the gRPC health endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/platform/config"
	platformgrpc "github.com/louisbranch/storefront/internal/platform/grpc"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/timeouts"
	"github.com/louisbranch/storefront/internal/services/storefront/api/httpapi"
	"github.com/louisbranch/storefront/internal/services/storefront/auth"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/account"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/cart"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/catalog"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/checkout"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/contact"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/content"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/order"
	"github.com/louisbranch/storefront/internal/services/storefront/media"
	"github.com/louisbranch/storefront/internal/services/storefront/payments"
	"github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite"
	workerapp "github.com/louisbranch/storefront/internal/services/worker/app"
	workerdomain "github.com/louisbranch/storefront/internal/services/worker/domain"
	"github.com/louisbranch/storefront/internal/services/worker/mail"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HealthService is the gRPC health service name reported by the process.
const HealthService = "storefront"

// RuntimeConfig holds everything the process needs to start.
type RuntimeConfig struct {
	HTTPAddr   string
	HealthAddr string
	DBPath     string

	SessionSecret string
	SessionIssuer string
	SessionTTL    time.Duration
	SecureCookies bool
	// TrustedProxies are CIDR prefixes or addresses allowed to set
	// X-Forwarded-For. Empty trusts no one.
	TrustedProxies []string

	MediaBucketURL     string
	MediaPublicBaseURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeBackendURL    string

	SMTP             mail.SMTPConfig
	MailLocale       string
	MailPollInterval time.Duration
	MailMaxAttempts  int

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Validate reports the first missing required setting.
func (c RuntimeConfig) Validate() error {
	if err := config.RequireNonEmpty(map[string]string{
		"STOREFRONT_HTTP_ADDR":             c.HTTPAddr,
		"STOREFRONT_DB_PATH":               c.DBPath,
		"STOREFRONT_SESSION_SECRET":        c.SessionSecret,
		"STOREFRONT_MEDIA_BUCKET_URL":      c.MediaBucketURL,
		"STOREFRONT_STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STOREFRONT_STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
		"STOREFRONT_SMTP_HOST":             c.SMTP.Host,
		"STOREFRONT_SMTP_USER":             c.SMTP.Username,
		"STOREFRONT_SMTP_PASS":             c.SMTP.Password,
	}); err != nil {
		return err
	}
	if len(c.SessionSecret) < auth.MinSecretLength {
		return fmt.Errorf("STOREFRONT_SESSION_SECRET must be at least %d bytes", auth.MinSecretLength)
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("STOREFRONT_TRUSTED_PROXIES: %w", err)
	}
	return nil
}

// Server owns the process resources.
type Server struct {
	httpServer   *http.Server
	httpListener net.Listener
	health       *platformgrpc.HealthServer
	delivery     *workerapp.Loop
	store        *sqlite.Store
	media        *media.Store
	logger       *zap.Logger
}

// New opens storage and media, binds listeners and wires every service.
func New(ctx context.Context, cfg RuntimeConfig, logger *zap.Logger) (srv *Server, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var closers []func() error
	defer func() {
		if err == nil {
			return
		}
		for idx := len(closers) - 1; idx >= 0; idx-- {
			_ = closers[idx]()
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	closers = append(closers, store.Close)

	publicBase := strings.TrimSpace(cfg.MediaPublicBaseURL)
	if publicBase == "" {
		publicBase = strings.TrimRight(httpapi.MediaPrefix, "/")
	}
	mediaStore, err := media.Open(ctx, cfg.MediaBucketURL, publicBase)
	if err != nil {
		return nil, fmt.Errorf("open media bucket: %w", err)
	}
	closers = append(closers, mediaStore.Close)

	gateway, err := payments.NewStripeGateway(payments.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		BackendURL:    cfg.StripeBackendURL,
	})
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w", err)
	}
	sender, err := mail.NewSMTPSender(cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("smtp sender: %w", err)
	}
	sessions, err := auth.NewSessions(auth.Config{
		Secret: []byte(cfg.SessionSecret),
		Issuer: cfg.SessionIssuer,
		TTL:    cfg.SessionTTL,
		Secure: cfg.SecureCookies,
	})
	if err != nil {
		return nil, err
	}

	delivery := workerapp.New(store,
		workerdomain.NewContactEmailHandler(sender, cfg.MailLocale),
		workerapp.Config{PollInterval: cfg.MailPollInterval, MaxAttempts: cfg.MailMaxAttempts},
		logger.Named("delivery"),
	)

	carts := cart.NewService(store)
	orders := order.NewService(store)
	contents := content.NewService(store)
	accounts := account.NewService(store, cfg.BcryptCost)
	proxies, err := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	handler, err := httpapi.NewHandler(httpapi.Config{
		Catalog: catalog.NewService(store, mediaStore, logger.Named("catalog")),
		Carts:   carts,
		Checkout: checkout.NewService(checkout.Config{
			Catalog: store,
			Carts:   carts,
			Orders:  orders,
			Gateway: gateway,
			Logger:  logger.Named("checkout"),
		}),
		Orders:  orders,
		Content: contents,
		Contact: contact.NewService(contact.Config{
			Store:    store,
			Settings: contents,
			Limiter:  contact.NewLimiter(contact.DefaultWindow),
			Notifier: delivery,
			Logger:   logger.Named("contact"),
		}),
		Accounts:       accounts,
		Sessions:       sessions,
		Media:          mediaStore,
		SecureCookies:  cfg.SecureCookies,
		TrustedProxies: proxies,
		Logger:         logger.Named("http"),
	})
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	closers = append(closers, listener.Close)

	var health *platformgrpc.HealthServer
	if strings.TrimSpace(cfg.HealthAddr) != "" {
		health, err = platformgrpc.NewHealthServer(cfg.HealthAddr, logger.Named("health"))
		if err != nil {
			return nil, err
		}
	}

	return &Server{
		httpServer: &http.Server{
			Handler:           otelhttp.NewHandler(handler, "storefront"),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		httpListener: listener,
		health:       health,
		delivery:     delivery,
		store:        store,
		media:        mediaStore,
		logger:       logger,
	}, nil
}

// Addr returns the bound HTTP address.
func (s *Server) Addr() string {
	return s.httpListener.Addr().String()
}

// Run serves until ctx ends, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", s.Addr()))
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return s.delivery.Run(groupCtx)
	})
	if s.health != nil {
		s.health.SetServing("", true)
		s.health.SetServing(HealthService, true)
		group.Go(func() error {
			return s.health.Serve(groupCtx)
		})
	}
	return group.Wait()
}

// Close releases storage and media handles.
func (s *Server) Close() error {
	return errors.Join(s.media.Close(), s.store.Close())
}

// Run builds a Server from cfg and serves until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig, logger *zap.Logger) error {
	server, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := server.Close(); err != nil && logger != nil {
			logger.Warn("close storefront", zap.Error(err))
		}
	}()
	return server.Run(ctx)
}
