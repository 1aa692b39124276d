// Package storefront parses storefront command flags and launches the
// storefront runtime.
package storefront

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/storefront/internal/platform/cmd"
	"github.com/louisbranch/storefront/internal/platform/logging"
	"github.com/louisbranch/storefront/internal/platform/otel"
	"github.com/louisbranch/storefront/internal/services/storefront/app"
	"github.com/louisbranch/storefront/internal/services/worker/mail"
	"go.uber.org/zap"
)

// Config holds storefront command configuration.
type Config struct {
	HTTPAddr   string `env:"STOREFRONT_HTTP_ADDR" envDefault:":8080"`
	HealthAddr string `env:"STOREFRONT_HEALTH_ADDR" envDefault:":8081"`
	DBPath     string `env:"STOREFRONT_DB_PATH" envDefault:"data/storefront.db"`

	SessionSecret string        `env:"STOREFRONT_SESSION_SECRET"`
	SessionIssuer string        `env:"STOREFRONT_SESSION_ISSUER" envDefault:"storefront"`
	SessionTTL    time.Duration `env:"STOREFRONT_SESSION_TTL" envDefault:"168h"`
	SecureCookies bool          `env:"STOREFRONT_SECURE_COOKIES" envDefault:"true"`

	TrustedProxies []string `env:"STOREFRONT_TRUSTED_PROXIES" envSeparator:","`

	MediaBucketURL     string `env:"STOREFRONT_MEDIA_BUCKET_URL" envDefault:"file:///var/lib/storefront/media"`
	MediaPublicBaseURL string `env:"STOREFRONT_MEDIA_PUBLIC_BASE_URL"`

	StripeSecretKey     string `env:"STOREFRONT_STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STOREFRONT_STRIPE_WEBHOOK_SECRET"`

	SMTPHost     string `env:"STOREFRONT_SMTP_HOST"`
	SMTPPort     int    `env:"STOREFRONT_SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"STOREFRONT_SMTP_USER"`
	SMTPPass     string `env:"STOREFRONT_SMTP_PASS"`
	SMTPFrom     string `env:"STOREFRONT_SMTP_FROM"`
	SMTPInsecure bool   `env:"STOREFRONT_SMTP_INSECURE"`

	MailLocale       string        `env:"STOREFRONT_MAIL_LOCALE" envDefault:"en-US"`
	MailPollInterval time.Duration `env:"STOREFRONT_MAIL_POLL_INTERVAL" envDefault:"30s"`
	MailMaxAttempts  int           `env:"STOREFRONT_MAIL_MAX_ATTEMPTS" envDefault:"5"`

	Log     logging.Config
	Tracing otel.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP API listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "The gRPC health listen address (empty disables it)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The storefront SQLite database path")
	fs.StringVar(&cfg.MediaBucketURL, "media-bucket", cfg.MediaBucketURL, "The media bucket URL (file:// or mem://)")
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", cfg.SecureCookies, "Mark cookies HTTPS-only")
	fs.DurationVar(&cfg.MailPollInterval, "mail-poll-interval", cfg.MailPollInterval, "Contact email delivery poll interval")
	fs.IntVar(&cfg.MailMaxAttempts, "mail-max-attempts", cfg.MailMaxAttempts, "Maximum contact email delivery attempts")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "Log format (json, console)")
	fs.StringVar(&cfg.Tracing.Endpoint, "otel-endpoint", cfg.Tracing.Endpoint, "OTLP/HTTP trace collector URL (empty disables tracing)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RuntimeConfig maps command configuration onto the runtime.
func (c Config) RuntimeConfig() app.RuntimeConfig {
	return app.RuntimeConfig{
		HTTPAddr:            c.HTTPAddr,
		HealthAddr:          c.HealthAddr,
		DBPath:              c.DBPath,
		SessionSecret:       c.SessionSecret,
		SessionIssuer:       c.SessionIssuer,
		SessionTTL:          c.SessionTTL,
		SecureCookies:       c.SecureCookies,
		TrustedProxies:      c.TrustedProxies,
		MediaBucketURL:      c.MediaBucketURL,
		MediaPublicBaseURL:  c.MediaPublicBaseURL,
		StripeSecretKey:     c.StripeSecretKey,
		StripeWebhookSecret: c.StripeWebhookSecret,
		SMTP: mail.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUser,
			Password: c.SMTPPass,
			From:     c.SMTPFrom,
			Insecure: c.SMTPInsecure,
		},
		MailLocale:       c.MailLocale,
		MailPollInterval: c.MailPollInterval,
		MailMaxAttempts:  c.MailMaxAttempts,
	}
}

// Run starts the storefront runtime.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.Log, entrypoint.ServiceStorefront)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runtimeCfg := cfg.RuntimeConfig()
	if err := runtimeCfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStorefront,
		entrypoint.RunOptions{Tracing: cfg.Tracing, Logger: logger},
		func(ctx context.Context) error {
			return app.Run(ctx, runtimeCfg, logger)
		})
}
