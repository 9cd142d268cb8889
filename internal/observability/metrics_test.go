package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/rendis/logictree/pkg/schema"
)

func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumTotal(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestRecordToolCall(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordToolCall(ctx, "logic.add", 2*time.Millisecond, nil)
	m.RecordToolCall(ctx, "logic.add", time.Millisecond, errors.New("x"))
	m.RecordToolCall(ctx, "logic.update", time.Millisecond, schema.NewError(schema.ErrCodeNotFound, "gone"))
	m.RecordToolCall(ctx, "logic.export", time.Millisecond, nil)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(4), sumTotal(t, findMetric(rm, "logictree.tool.calls")))

	errs := findMetric(rm, "logictree.tool.errors")
	assert.Equal(t, int64(2), sumTotal(t, errs))
	byTool := map[string]string{}
	for _, dp := range errs.Data.(metricdata.Sum[int64]).DataPoints {
		tool, _ := dp.Attributes.Value(attribute.Key("tool"))
		code, _ := dp.Attributes.Value(attribute.Key("code"))
		byTool[tool.AsString()] = code.AsString()
	}
	assert.Equal(t, map[string]string{
		"logic.add":    schema.ErrCodeExecution,
		"logic.update": schema.ErrCodeNotFound,
	}, byTool)

	latency := findMetric(rm, "logictree.tool.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(4), count)
}

func TestRecordEvaluation(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEvaluation(ctx, time.Millisecond, nil)
	m.RecordEvaluation(ctx, time.Millisecond, schema.NewError(schema.ErrCodeDivisionByZero, "division by zero"))
	m.RecordEvaluation(ctx, time.Millisecond, errors.New("plain"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(3), sumTotal(t, findMetric(rm, "logictree.evaluations")))

	errs := findMetric(rm, "logictree.evaluation.errors")
	assert.Equal(t, int64(2), sumTotal(t, errs))

	codes := map[string]int64{}
	for _, dp := range errs.Data.(metricdata.Sum[int64]).DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("code"))
		codes[v.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		schema.ErrCodeDivisionByZero: 1,
		schema.ErrCodeExecution:      1,
	}, codes)
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordToolCall(context.Background(), "logic.new", time.Millisecond, nil)
		m.RecordEvaluation(context.Background(), 0, errors.New("x"))
	})
}
