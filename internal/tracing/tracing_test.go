package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitRegistersGlobalTracerProvider(t *testing.T) {
	shutdown, err := Init(context.Background())
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.NotNil(t, otel.GetTracerProvider())
}

func TestTracerReturnsNonNilSpans(t *testing.T) {
	shutdown, err := Init(context.Background())
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := Tracer().Start(context.Background(), "test-span")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}
