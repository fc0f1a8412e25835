// Package tracing wires OpenTelemetry tracing for the launcher core.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Provider manages the OpenTelemetry trace provider lifecycle.
type Provider struct {
	tp     *sdktrace.TracerProvider
	logger *slog.Logger
}

// Config holds configuration for trace provider initialization.
type Config struct {
	Enabled     bool
	Exporter    string  // otlp-grpc | stdout
	Endpoint    string  // exporter endpoint for otlp-grpc
	SampleRate  float64 // 0.0-1.0 (default 1.0)
	ServiceName string
	Version     string
}

// NewProvider creates and installs a trace provider. When disabled, a
// noop tracer is installed and Shutdown is a no-op.
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		logger.Debug("Distributed tracing disabled")
		return &Provider{logger: logger}, nil
	}

	logger.Info("Initializing distributed tracing",
		slog.String("exporter", cfg.Exporter),
		slog.String("endpoint", cfg.Endpoint),
		slog.Float64("sample_rate", cfg.SampleRate),
		slog.String("service", cfg.ServiceName))

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	version := cfg.Version
	if version == "" {
		version = "unknown"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, logger: logger}, nil
}

// Shutdown flushes and stops the trace provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace provider shutdown: %w", err)
	}
	return nil
}

// Tracer returns a tracer from the installed provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func createExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp-grpc", "":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	default:
		return nil, fmt.Errorf("unknown trace exporter: %s", cfg.Exporter)
	}
}
