package main

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/infrastructure/cache"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/config"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/database"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/directory"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/encryption"
	"github.com/MP2EZ/being-sub003/internal/metrics"
	"github.com/MP2EZ/being-sub003/internal/service"
	"github.com/MP2EZ/being-sub003/internal/service/audit"
	"github.com/MP2EZ/being-sub003/internal/service/detection"
	"github.com/MP2EZ/being-sub003/internal/service/session"
)

// application holds the engine and everything that must be closed with it.
// closers run in reverse order.
type application struct {
	engine  *service.Engine
	closers []func(context.Context) error
}

func (a *application) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *application) close(ctx context.Context, logger *zap.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// startEngine skips the engine entirely when the configuration failed to
// load, since defaults are not a safe substitute for the operator's settings.
func startEngine(ctx context.Context, cfg *config.Config, loadErr error, logger *zap.Logger, registry *metrics.Registry) (*application, error) {
	if loadErr != nil {
		return &application{}, fmt.Errorf("configuration: %w", loadErr)
	}
	return bootstrap(ctx, cfg, logger, registry)
}

// bootstrap always returns a usable application. On error its engine is nil
// and whatever was opened before the failure has already been released.
func bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger, registry *metrics.Registry) (*application, error) {
	app := &application{}
	if err := app.build(ctx, cfg, logger, registry); err != nil {
		app.close(ctx, logger)
		app.engine = nil
		return app, err
	}
	return app, nil
}

func (a *application) build(ctx context.Context, cfg *config.Config, logger *zap.Logger, registry *metrics.Registry) error {
	store, err := a.openStore(cfg, logger)
	if err != nil {
		return err
	}

	enc, err := newEncryptor(cfg, logger)
	if err != nil {
		return err
	}

	repo, query, err := a.openAuditRepository(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	recorder, err := audit.NewRecorder(ctx, audit.RecorderConfig{
		BufferSize:   cfg.Audit.BufferSize,
		BatchSize:    cfg.Audit.BatchSize,
		BatchTimeout: cfg.Audit.BatchTimeout,
		MaxRetries:   cfg.Audit.MaxRetries,
		RetryBackoff: cfg.Audit.RetryBackoff,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, logger, repo, audit.WithEncryptor(enc), audit.WithMetrics(registry))
	if err != nil {
		return fmt.Errorf("audit recorder: %w", err)
	}
	a.onClose(recorder.Close)

	dir := directory.New(store, logger, nil, cfg.Crisis.ContactsRefresh)
	a.onClose(func(context.Context) error { dir.Wait(); return nil })

	manager, err := session.NewManager(session.Config{
		Enabled:           cfg.Crisis.Enabled,
		GraceWindow:       cfg.Crisis.GraceWindow,
		SweepInterval:     cfg.Crisis.SweepInterval,
		PerformanceBudget: cfg.Crisis.PerformanceBudget,
	}, logger,
		session.WithMetrics(registry),
		session.WithRecorder(recorder),
		session.WithDirectory(dir),
		session.WithPersistence(store, enc),
		session.WithNotifier(a.escalationNotifier(cfg, enc, logger)))
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}
	a.onClose(manager.Close)

	restored, err := manager.Restore(ctx)
	if err != nil {
		logger.Warn("failed to restore crisis sessions", zap.Error(err))
	} else if restored > 0 {
		logger.Info("crisis sessions restored", zap.Int("count", restored))
	}

	engine, err := service.NewEngine(service.Dependencies{
		Sessions:  manager,
		Detection: detection.NewService(logger, recorder, registry, nil),
		Directory: dir,
		Verifier:  audit.NewIntegrityChecker(query, logger),
	}, logger)
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

// openStore connects to Redis when configured and falls back to the
// in-process store otherwise.
func (a *application) openStore(cfg *config.Config, logger *zap.Logger) (cache.Store, error) {
	if cfg.Redis.URL == "" {
		logger.Info("redis not configured, using in-process store")
		return cache.NewMemoryStore(nil), nil
	}
	rs, err := cache.NewRedisStore(&cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	a.onClose(func(context.Context) error { return rs.Close() })
	return rs, nil
}

// escalationNotifier publishes to RabbitMQ when configured. Escalation
// delivery is best effort, so a broker that cannot be reached degrades to
// logging instead of failing startup.
func (a *application) escalationNotifier(cfg *config.Config, enc *encryption.Service, logger *zap.Logger) session.EscalationNotifier {
	if cfg.Notifier.AMQPURL == "" {
		return session.NewLogNotifier(logger)
	}
	conn, err := amqp.Dial(cfg.Notifier.AMQPURL)
	if err != nil {
		logger.Warn("rabbitmq unreachable, escalations will only be logged", zap.Error(err))
		return session.NewLogNotifier(logger)
	}
	notifier, err := session.NewAMQPNotifier(conn, cfg.Notifier.Queue, enc, logger)
	if err != nil {
		_ = conn.Close()
		logger.Warn("escalation queue unavailable, escalations will only be logged", zap.Error(err))
		return session.NewLogNotifier(logger)
	}
	a.onClose(func(context.Context) error { return conn.Close() })
	return notifier
}

type auditRepository interface {
	audit.Repository
	audit.QueryRepository
}

func (a *application) openAuditRepository(ctx context.Context, cfg *config.Config, store cache.Store, logger *zap.Logger) (audit.Repository, audit.QueryRepository, error) {
	if cfg.Database.URL == "" {
		logger.Info("database not configured, audit trail kept in the key-value store")
		repo := audit.NewStoreRepository(store)
		return repo, repo, nil
	}
	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database.URL, logger); err != nil {
			return nil, nil, err
		}
	}
	pool, err := database.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	a.onClose(func(context.Context) error { pool.Close(); return nil })

	var repo auditRepository = database.NewAuditRepository(pool)
	return repo, repo, nil
}

// newEncryptor uses the configured master key. Outside production a missing
// key gets an ephemeral one, which makes snapshots and sealed metadata
// unreadable after a restart.
func newEncryptor(cfg *config.Config, logger *zap.Logger) (*encryption.Service, error) {
	if cfg.Encryption.MasterKey != "" {
		key, err := cfg.Encryption.Key()
		if err != nil {
			return nil, err
		}
		return encryption.NewService(key)
	}
	if cfg.Environment == "production" {
		return nil, fmt.Errorf("encryption.master_key is required in production")
	}
	logger.Warn("encryption.master_key not set, using an ephemeral key")
	key, err := encryption.GenerateKey()
	if err != nil {
		return nil, err
	}
	return encryption.NewService(key)
}
