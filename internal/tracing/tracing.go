// Package tracing wires a process-wide tracer for the Indexing Pipeline
// and Reanalyzer's extract/index/reanalyze steps, grounded on
// allaspectsdev-tokenman/internal/tracing/tracer.go's Init/Tracer split —
// simplified to the stdout exporter alone (SPEC_FULL.md's domain stack
// scopes tracing to "local debugging", so the OTLP gRPC/HTTP exporters
// tokenman also supports have no consumer here and are left unwired).
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "screenlog"

// Tracer returns the global tracer for screenlog instrumentation.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Init registers a stdout-exporting TracerProvider and returns a shutdown
// function the caller must defer.
func Init(ctx context.Context) (shutdown func(context.Context) error, err error) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("tracing: creating stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
