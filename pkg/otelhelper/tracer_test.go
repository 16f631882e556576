package otelhelper_test

import (
	"context"
	"testing"

	"github.com/arcsuite/arcflow/pkg/otelhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// keepSpans holds exported spans across provider shutdown, which would
// otherwise reset the in-memory exporter.
type keepSpans struct {
	*tracetest.InMemoryExporter
}

func (keepSpans) Shutdown(context.Context) error { return nil }

func TestNewTracer_WithExporter(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	tracer, shutdown, err := otelhelper.NewTracer(ctx, "arcflow-test",
		otelhelper.WithExporter(keepSpans{exporter}),
		otelhelper.WithServiceVersion("1.2.3"))
	require.NoError(t, err)

	_, span := otelhelper.StartSpan(ctx, tracer, "workflow.create",
		attribute.String(otelhelper.WorkflowNameKey, "Onboarding"))
	span.End()

	require.NoError(t, shutdown(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "workflow.create", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String(otelhelper.WorkflowNameKey, "Onboarding"))

	resourceAttrs := spans[0].Resource.Attributes()
	assert.Contains(t, resourceAttrs, semconv.ServiceName("arcflow-test"))
	assert.Contains(t, resourceAttrs, semconv.ServiceVersion("1.2.3"))
}
