// Package otel wires OpenTelemetry tracing for the sheet binaries.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/swnsheet/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// EnvEndpoint names the OTLP/HTTP collector URL.
	EnvEndpoint = "SWN_SHEET_OTEL_ENDPOINT"
	// EnvEnabled disables tracing when set to "false".
	EnvEnabled = "SWN_SHEET_OTEL_ENABLED"
	// EnvSampleRatio sets the fraction of root traces kept.
	EnvSampleRatio = "SWN_SHEET_OTEL_SAMPLE_RATIO"
)

type settings struct {
	Endpoint    string  `env:"SWN_SHEET_OTEL_ENDPOINT"`
	Enabled     string  `env:"SWN_SHEET_OTEL_ENABLED"`
	SampleRatio float64 `env:"SWN_SHEET_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (s settings) active() bool {
	return strings.TrimSpace(s.Endpoint) != "" && !strings.EqualFold(strings.TrimSpace(s.Enabled), "false")
}

// Setup installs the W3C trace-context propagator and, when an endpoint is
// configured, a batching OTLP/HTTP tracer provider for serviceName.
// Without an endpoint the returned shutdown is a no-op.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	otel.SetTextMapPropagator(propagation.TraceContext{})

	var cfg settings
	if err := config.ParseEnv(&cfg); err != nil {
		return noop, fmt.Errorf("otel settings: %w", err)
	}
	if !cfg.active() {
		return noop, nil
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return noop, fmt.Errorf("%s must be within [0, 1], got %v", EnvSampleRatio, cfg.SampleRatio)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(strings.TrimSpace(cfg.Endpoint)))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
