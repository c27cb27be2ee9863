package workflows

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/mcp-cliniko/internal/workflows"

// Metrics holds the workflow instruments. A nil *Metrics records nothing.
type Metrics struct {
	runs        metric.Int64Counter
	duration    metric.Float64Histogram
	created     metric.Int64Counter
	deleted     metric.Int64Counter
	failed      metric.Int64Counter
	rateLimited metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics(logger *logging.Logger) *Metrics {
	return NewMetricsWithMeter(otel.Meter(instrumentationName), logger)
}

// NewMetricsWithMeter creates the instruments on meter. Instruments that
// fail to register are logged and left nil.
func NewMetricsWithMeter(meter metric.Meter, logger *logging.Logger) *Metrics {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx := context.Background()
	m := &Metrics{}
	var err error

	m.runs, err = meter.Int64Counter(
		"mcp_cliniko.workflow.executions",
		metric.WithDescription("Total number of workflow executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create workflow executions counter", zap.Error(err))
	}

	m.duration, err = meter.Float64Histogram(
		"mcp_cliniko.workflow.duration",
		metric.WithDescription("Duration of workflow executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create workflow duration histogram", zap.Error(err))
	}

	m.created, err = meter.Int64Counter(
		"mcp_cliniko.workflow.records_created",
		metric.WithDescription("Records created by workflows"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create records created counter", zap.Error(err))
	}

	m.deleted, err = meter.Int64Counter(
		"mcp_cliniko.workflow.records_deleted",
		metric.WithDescription("Records deleted by workflows"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create records deleted counter", zap.Error(err))
	}

	m.failed, err = meter.Int64Counter(
		"mcp_cliniko.workflow.step_errors",
		metric.WithDescription("Workflow steps that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create step errors counter", zap.Error(err))
	}

	m.rateLimited, err = meter.Int64Counter(
		"mcp_cliniko.workflow.rate_limit_pauses",
		metric.WithDescription("Cooldown pauses taken after a rate-limited response"),
		metric.WithUnit("{pause}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create rate limit counter", zap.Error(err))
	}

	return m
}

func (m *Metrics) recordRun(ctx context.Context, workflow string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("workflow", workflow))
	if m.runs != nil {
		m.runs.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds(), attrs)
	}
}

func (m *Metrics) recordCreated(ctx context.Context, kind string) {
	if m != nil && m.created != nil {
		m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *Metrics) recordDeleted(ctx context.Context, kind string) {
	if m != nil && m.deleted != nil {
		m.deleted.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *Metrics) recordFailed(ctx context.Context, kind string) {
	if m != nil && m.failed != nil {
		m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *Metrics) recordRateLimited(ctx context.Context) {
	if m != nil && m.rateLimited != nil {
		m.rateLimited.Add(ctx, 1)
	}
}
