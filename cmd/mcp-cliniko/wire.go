package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/config"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/telemetry"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/tools"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/workflows"
)

const instrumentationName = "github.com/fyrsmithlabs/mcp-cliniko"

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg        *config.Config
	logger     *logging.Logger
	telemetry  *telemetry.Telemetry
	registry   *mcp.Registry
	dispatcher *mcp.Dispatcher
	prom       *prometheus.Registry
}

// newLogger builds the stderr logger. stdout belongs to the protocol.
func newLogger(cfg config.LoggingConfig, tel *telemetry.Telemetry) (*logging.Logger, error) {
	lc := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}
	lc.Level = level
	lc.Format = cfg.Format

	provider := tel.LoggerProvider()
	lc.Output.OTEL = provider != nil
	return logging.NewLogger(lc, provider)
}

// newApp wires the Cliniko client, workflow runner, registry and dispatcher.
// Callers must call close. On error telemetry is already shut down.
func newApp(ctx context.Context, cfg *config.Config, telOpts ...telemetry.ProviderOption) (_ *app, err error) {
	bootstrap, err := newLogger(cfg.Logging, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry, version), bootstrap, telOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if serr := tel.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			bootstrap.Warn(ctx, "telemetry shutdown failed", zap.Error(serr))
		}
	}()
	logger := bootstrap
	if tel.IsEnabled() {
		if logger, err = newLogger(cfg.Logging, tel); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	prom := prometheus.NewRegistry()
	prom.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	client, err := cliniko.NewClient(cfg.Cliniko.APIKey.Value(),
		cliniko.WithBaseURL(cfg.Cliniko.BaseURL),
		cliniko.WithUserAgent(cfg.Cliniko.UserAgent),
		cliniko.WithTimeout(cfg.Cliniko.Timeout.Duration()),
		cliniko.WithLogger(logger.Named("cliniko")),
		cliniko.WithMetrics(cliniko.NewMetrics(prom)),
	)
	if err != nil {
		return nil, err
	}

	meter := tel.Meter(instrumentationName)
	runner := workflows.NewRunner(client, workflows.Config{
		RequestInterval:   cfg.Workflow.RequestInterval.Duration(),
		DeleteInterval:    cfg.Workflow.DeleteInterval.Duration(),
		RateLimitCooldown: cfg.Workflow.RateLimitCooldown.Duration(),
		TestDomain:        cfg.Workflow.TestDomain,
	},
		workflows.WithLogger(logger.Named("workflows")),
		workflows.WithMetrics(workflows.NewMetricsWithMeter(meter, logger)),
	)

	reg, err := tools.Build(client, tools.Options{Runner: runner, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}

	d := mcp.NewDispatcher(reg,
		mcp.WithLogger(logger.Named("mcp")),
		mcp.WithMetrics(mcp.NewMetricsWithMeter(meter, logger)),
		mcp.WithTracer(tel.Tracer(instrumentationName)),
	)

	logger.Debug(ctx, "application wired",
		zap.String("base_url", cfg.Cliniko.BaseURL),
		zap.Int("tools", reg.Count()),
		zap.Int("resources", len(reg.Resources())),
		zap.Bool("telemetry", tel.IsEnabled()),
	)

	return &app{
		cfg:        cfg,
		logger:     logger,
		telemetry:  tel,
		registry:   reg,
		dispatcher: d,
		prom:       prom,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
