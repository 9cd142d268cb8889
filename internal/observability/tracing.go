// Package observability wraps OpenTelemetry tracing and metrics for tool
// calls and evaluations. Both use the global providers; install real ones
// with otel.SetTracerProvider / otel.SetMeterProvider before use.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rendis/logictree/pkg/schema"
)

const instrumentationName = "logictree"

var tracer = otel.Tracer(instrumentationName)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartToolSpan starts a span for one MCP tool call.
	StartToolSpan(ctx context.Context, tool, workspaceID string) (context.Context, trace.Span)

	// StartEvaluateSpan starts a span for evaluating a tree.
	StartEvaluateSpan(ctx context.Context, workspaceID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, recording err and its code if set.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartToolSpan(ctx context.Context, tool, workspaceID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("tool.name", tool)}
	if workspaceID != "" {
		attrs = append(attrs, attribute.String("workspace.id", workspaceID))
	}
	return tracer.Start(ctx, "logictree.tool."+tool,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

func (m *otelSpanManager) StartEvaluateSpan(ctx context.Context, workspaceID string) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	if workspaceID != "" {
		attrs = append(attrs, attribute.String("workspace.id", workspaceID))
	}
	return tracer.Start(ctx, "logictree.evaluate",
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		if code := schema.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String("error.code", code))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
