package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "deskhive"

// StartEngineSpan creates a span for lifecycle engine operations.
func StartEngineSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, "engine."+operation, trace.WithAttributes(attrs...))
}

// StartInstanceSpan creates a span for operations on one instance.
func StartInstanceSpan(ctx context.Context, instanceID, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	attrs = append(attrs,
		attribute.String("instance.id", instanceID),
		attribute.String("instance.operation", operation),
	)
	return tracer.Start(ctx, "instance."+operation, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span.
func RecordError(span trace.Span, err error, description string) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(
		attribute.String("error.description", description),
	))
	span.SetStatus(codes.Error, description)
}

// RecordSuccess marks the span as successful.
func RecordSuccess(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
