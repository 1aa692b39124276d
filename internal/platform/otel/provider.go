// Package otel wires OpenTelemetry tracing for storefront commands.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects the trace exporter. An empty Endpoint leaves tracing off.
type Config struct {
	Endpoint    string  `env:"STOREFRONT_OTEL_ENDPOINT"`
	Enabled     bool    `env:"STOREFRONT_OTEL_ENABLED" envDefault:"true"`
	SampleRatio float64 `env:"STOREFRONT_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Active reports whether Setup would install a provider.
func (c Config) Active() bool {
	return c.Enabled && c.Endpoint != ""
}

// Setup installs a global tracer provider exporting to cfg.Endpoint over
// OTLP/HTTP. When tracing is inactive the returned shutdown does nothing.
func Setup(ctx context.Context, serviceName string, cfg Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Active() {
		return noop, nil
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return noop, fmt.Errorf("sample ratio %v outside [0, 1]", cfg.SampleRatio)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider.Shutdown, nil
}
