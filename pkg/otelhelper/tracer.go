// Package otelhelper provides tracing setup and span helpers.
package otelhelper

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// Common attribute keys.
	WorkflowIDKey     = "arcflow.workflow.id"
	WorkflowNameKey   = "arcflow.workflow.name"
	WorkflowStatusKey = "arcflow.workflow.status"
	NodeCountKey      = "arcflow.node.count"
	EventTypeKey      = "arcflow.event.type"
)

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(ctx context.Context) error

type tracerConfig struct {
	exporter sdktrace.SpanExporter
	sampler  sdktrace.Sampler
	version  string
}

// TracerOption customizes NewTracer.
type TracerOption func(*tracerConfig)

// WithExporter replaces the OTLP/HTTP exporter.
func WithExporter(exporter sdktrace.SpanExporter) TracerOption {
	return func(c *tracerConfig) { c.exporter = exporter }
}

// WithSampler replaces the parent-based always-on sampler.
func WithSampler(sampler sdktrace.Sampler) TracerOption {
	return func(c *tracerConfig) { c.sampler = sampler }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) TracerOption {
	return func(c *tracerConfig) { c.version = version }
}

// NewTracer installs a batching tracer provider as the global one. Unless
// WithExporter is given, spans go to an OTLP/HTTP exporter configured by the
// standard OTEL_EXPORTER_OTLP_* environment variables.
//
// nolint:ireturn
func NewTracer(ctx context.Context, serviceName string, opts ...TracerOption) (trace.Tracer, ShutdownFunc, error) {
	cfg := tracerConfig{sampler: sdktrace.ParentBased(sdktrace.AlwaysSample())}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.exporter == nil {
		exporter, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

		cfg.exporter = exporter
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if cfg.version != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.version))
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(cfg.exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Tracer(serviceName), provider.Shutdown, nil
}

// NoopTracer returns a tracer that records nothing.
//
// nolint:ireturn
func NoopTracer(serviceName string) trace.Tracer {
	return noop.NewTracerProvider().Tracer(serviceName)
}

// StartSpan starts a span named name carrying attrs.
//
// nolint:ireturn,spancheck
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
