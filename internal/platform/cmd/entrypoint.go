// Package cmd holds startup helpers shared by the storefront binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/platform/config"
	"github.com/louisbranch/storefront/internal/platform/otel"
	"go.uber.org/zap"
)

const defaultTraceFlushTimeout = 5 * time.Second

// Service names used for telemetry resources and log fields.
const (
	ServiceStorefront = "storefront"
	ServiceCtl        = "storefrontctl"
)

// RunOptions configures RunWithTelemetry.
type RunOptions struct {
	Tracing otel.Config
	// FlushTimeout bounds the final span export on exit.
	FlushTimeout time.Duration
	Logger       *zap.Logger
}

// ParseConfig fills cfg from STOREFRONT_* environment variables.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses flags registered on fs. Flags override env defaults
// because they are registered with the env-loaded values.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag set is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs tracing for service, calls run, then flushes
// pending spans.
func RunWithTelemetry(ctx context.Context, service string, opts RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return errors.New("service name is required")
	case run == nil:
		return errors.New("run function is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	shutdown, err := otel.Setup(ctx, service, opts.Tracing)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		timeout := opts.FlushTimeout
		if timeout <= 0 {
			timeout = defaultTraceFlushTimeout
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("flush traces", zap.String("service", service), zap.Error(err))
		}
	}()
	if opts.Tracing.Active() {
		logger.Info("tracing enabled", zap.String("endpoint", opts.Tracing.Endpoint))
	}
	return run(ctx)
}
