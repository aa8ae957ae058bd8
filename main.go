package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/api/rest"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/config"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/telemetry"
	"github.com/MP2EZ/being-sub003/internal/metrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("BEING_CONFIG"), "Path to a YAML config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Emergency resources must be served even when the configuration is
	// broken, so a load failure only disables the engine.
	cfg, loadErr := config.Load(*configPath)
	if loadErr != nil {
		slog.Error("failed to load configuration, starting with defaults and the crisis engine disabled", "error", loadErr)
		cfg = config.Defaults()
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
	} else {
		slog.SetDefault(logger)
	}

	if err := run(ctx, cfg, loadErr); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, loadErr error) error {
	slog.Info("starting crisis engine",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"port", cfg.Server.Port)

	logger, err := telemetry.NewZapLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		slog.Error("failed to build service logger, service logs are discarded", "error", err)
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	provider := initTelemetry(ctx, cfg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	registry, gatherer := newMetrics()

	app, err := startEngine(ctx, cfg, loadErr, logger, registry)
	if err != nil {
		slog.Error("crisis engine unavailable, serving emergency resources only", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		app.close(shutdownCtx, logger)
	}()

	router := rest.NewRouter(app.engine, rest.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Gatherer:          gatherer,
	}, logger)

	err = rest.NewServer(cfg.Server, router, slog.Default()).Run(ctx)
	logger.Info("shutting down gracefully", zap.Error(err))
	return err
}

// initTelemetry falls back to a no-op tracer provider when the exporter
// cannot be set up.
func initTelemetry(ctx context.Context, cfg *config.Config) *telemetry.Provider {
	tcfg := &telemetry.Config{
		ServiceName:    "being-crisis-engine",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	}
	provider, err := telemetry.InitializeOpenTelemetry(ctx, tcfg)
	if err == nil {
		return provider
	}
	slog.Error("failed to initialize tracing, continuing without it", "error", err)
	tcfg.Enabled = false
	provider, _ = telemetry.InitializeOpenTelemetry(ctx, tcfg)
	return provider
}

// newMetrics registers collectors on the default registry. If that fails
// they go to a private registry so /metrics still answers.
func newMetrics() (*metrics.Registry, prometheus.Gatherer) {
	registry, err := metrics.NewRegistry(prometheus.DefaultRegisterer)
	if err == nil {
		return registry, prometheus.DefaultGatherer
	}
	slog.Error("failed to register metrics on the default registry", "error", err)
	private := prometheus.NewRegistry()
	registry, err = metrics.NewRegistry(private)
	if err != nil {
		slog.Error("failed to register metrics", "error", err)
		return nil, private
	}
	return registry, private
}
