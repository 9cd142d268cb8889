package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rendis/logictree/pkg/schema"
)

// MetricsRecorder records logictree metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordToolCall records one MCP tool call with its duration and outcome.
	RecordToolCall(ctx context.Context, tool string, duration time.Duration, err error)

	// RecordEvaluation records one tree evaluation.
	RecordEvaluation(ctx context.Context, duration time.Duration, err error)
}

type otelMetrics struct {
	toolCalls   metric.Int64Counter
	toolLatency metric.Float64Histogram
	toolErrors  metric.Int64Counter
	evaluations metric.Int64Counter
	evalLatency metric.Float64Histogram
	evalErrors  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter(instrumentationName)

	toolCalls, err := meter.Int64Counter("logictree.tool.calls",
		metric.WithDescription("Number of tool calls"),
	)
	if err != nil {
		return nil, err
	}

	toolLatency, err := meter.Float64Histogram("logictree.tool.latency_ms",
		metric.WithDescription("Tool call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	toolErrors, err := meter.Int64Counter("logictree.tool.errors",
		metric.WithDescription("Number of failed tool calls by tool and error code"),
	)
	if err != nil {
		return nil, err
	}

	evaluations, err := meter.Int64Counter("logictree.evaluations",
		metric.WithDescription("Number of tree evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("logictree.evaluation.latency_ms",
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("logictree.evaluation.errors",
		metric.WithDescription("Number of failed evaluations by error code"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		toolCalls:   toolCalls,
		toolLatency: toolLatency,
		toolErrors:  toolErrors,
		evaluations: evaluations,
		evalLatency: evalLatency,
		evalErrors:  evalErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordToolCall(ctx context.Context, tool string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))

	m.toolCalls.Add(ctx, 1, attrs)
	m.toolLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.toolErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("code", errorCode(err)),
		))
	}
}

func (m *otelMetrics) RecordEvaluation(ctx context.Context, duration time.Duration, err error) {
	m.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
	m.evalLatency.Record(ctx, float64(duration.Microseconds())/1000)
	if err != nil {
		m.evalErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", errorCode(err))))
	}
}

func errorCode(err error) string {
	if code := schema.CodeOf(err); code != "" {
		return code
	}
	return schema.ErrCodeExecution
}
