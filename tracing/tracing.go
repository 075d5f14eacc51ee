package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/meridianhq/meridian-go"

var tracer = otel.GetTracerProvider().Tracer(
	instrumentationName,
	trace.WithSchemaURL(semconv.SchemaURL),
)

func Tracer() trace.Tracer {
	return tracer
}

// RecordError marks the span in ctx as failed and records err on it. Safe to
// call with a nil error or outside of any span.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
