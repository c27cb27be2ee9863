package workflows

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return NewMetricsWithMeter(mp.Meter(instrumentationName), nil), reader
}

func sumOf(t *testing.T, reader *metric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.recordRun(ctx, "cleanup_test_data", 2*time.Second)
	m.recordCreated(ctx, "patient")
	m.recordCreated(ctx, "product")
	m.recordDeleted(ctx, "patient")
	m.recordFailed(ctx, "appointment")
	m.recordRateLimited(ctx)

	assert.Equal(t, int64(1), sumOf(t, reader, "mcp_cliniko.workflow.executions"))
	assert.Equal(t, int64(2), sumOf(t, reader, "mcp_cliniko.workflow.records_created"))
	assert.Equal(t, int64(1), sumOf(t, reader, "mcp_cliniko.workflow.records_deleted"))
	assert.Equal(t, int64(1), sumOf(t, reader, "mcp_cliniko.workflow.step_errors"))
	assert.Equal(t, int64(1), sumOf(t, reader, "mcp_cliniko.workflow.rate_limit_pauses"))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.recordRun(ctx, "generate_test_data", time.Second)
		m.recordCreated(ctx, "patient")
		m.recordDeleted(ctx, "patient")
		m.recordFailed(ctx, "patient")
		m.recordRateLimited(ctx)
	})
}
