package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig(), nil)
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.Nil(t, tel.LoggerProvider())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	assert.NotNil(t, tel.Tracer("test"))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Protocol = "udp"

	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "invalid telemetry config")
}

func TestNew_EnabledWithExporters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	spans := tracetest.NewInMemoryExporter()
	logger := logging.NewTestLogger()

	tel, err := New(context.Background(), cfg, logger.Logger,
		WithTraceExporter(spans),
		WithMetricExporter(noopMetricExporter{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	assert.True(t, tel.IsEnabled())
	assert.False(t, tel.Health().Degraded)
	assert.NotNil(t, tel.LoggerProvider())
	logger.AssertLogged(t, zapcore.InfoLevel, "telemetry initialized")

	_, span := tel.Tracer("test").Start(context.Background(), "list_patients")
	span.End()
	require.NoError(t, tel.ForceFlush(context.Background()))

	got := spans.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "list_patients", got[0].Name)
}

func TestShutdown_MarksUnhealthy(t *testing.T) {
	tt := NewTestTelemetry()
	require.True(t, tt.IsEnabled())

	require.NoError(t, tt.Shutdown(context.Background()))
	assert.False(t, tt.Health().Healthy)
	assert.False(t, tt.IsEnabled())
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.Equal(t, HealthStatus{Healthy: false, Degraded: true}, tel.Health())
}

func TestTestTelemetry_RecordsSpansAndMetrics(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("test").Start(ctx, "tool get_patient")
	span.SetAttributes(attribute.String("mcp.tool", "get_patient"))
	span.End()
	tt.AssertSpanExists(t, "tool get_patient")
	tt.AssertSpanAttribute(t, "tool get_patient", "mcp.tool", "get_patient")

	counter, err := tt.Meter("test").Int64Counter("cliniko.calls")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	rm, err := tt.Collect(ctx)
	require.NoError(t, err)
	_, ok := MetricByName(rm, "cliniko.calls")
	assert.True(t, ok)
}

// noopMetricExporter discards everything the periodic reader hands it.
type noopMetricExporter struct{}

func (noopMetricExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return cumulative(k)
}

func (noopMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (noopMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }
func (noopMetricExporter) ForceFlush(context.Context) error                          { return nil }
func (noopMetricExporter) Shutdown(context.Context) error                            { return nil }
