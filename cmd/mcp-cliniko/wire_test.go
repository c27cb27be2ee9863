package main

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/config"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/telemetry"
)

type closingSpanExporter struct {
	closed atomic.Bool
}

func (e *closingSpanExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	return nil
}

func (e *closingSpanExporter) Shutdown(context.Context) error {
	e.closed.Store(true)
	return nil
}

type closingMetricExporter struct {
	closed atomic.Bool
}

func (e *closingMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (e *closingMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e *closingMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error {
	return nil
}

func (e *closingMetricExporter) ForceFlush(context.Context) error {
	return nil
}

func (e *closingMetricExporter) Shutdown(context.Context) error {
	e.closed.Store(true)
	return nil
}

func telemetryConfig() *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
		Telemetry: config.TelemetryConfig{
			Enabled:  true,
			Endpoint: "localhost:4317",
			Insecure: true,
		},
	}
}

func TestNewApp_FailureShutsDownTelemetry(t *testing.T) {
	spans := &closingSpanExporter{}
	metrics := &closingMetricExporter{}

	// no API key, so the client cannot be built
	_, err := newApp(context.Background(), telemetryConfig(),
		telemetry.WithTraceExporter(spans),
		telemetry.WithMetricExporter(metrics),
	)
	require.Error(t, err)
	assert.True(t, spans.closed.Load(), "span exporter left running")
	assert.True(t, metrics.closed.Load(), "metric exporter left running")
}

func TestNewApp_SuccessKeepsTelemetryRunning(t *testing.T) {
	spans := &closingSpanExporter{}
	metrics := &closingMetricExporter{}
	cfg := telemetryConfig()
	cfg.Cliniko.APIKey = config.Secret("test-key")

	a, err := newApp(context.Background(), cfg,
		telemetry.WithTraceExporter(spans),
		telemetry.WithMetricExporter(metrics),
	)
	require.NoError(t, err)
	assert.False(t, spans.closed.Load())
	assert.True(t, a.telemetry.IsEnabled())

	a.close(context.Background())
	assert.True(t, spans.closed.Load())
	assert.True(t, metrics.closed.Load())
}
