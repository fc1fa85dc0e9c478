package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/bridge"
	"github.com/GriffinCanCode/playground/internal/domain/console"
	"github.com/GriffinCanCode/playground/internal/domain/export"
	"github.com/GriffinCanCode/playground/internal/domain/playground"
	"github.com/GriffinCanCode/playground/internal/domain/source"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/infrastructure/persistence"
	"github.com/GriffinCanCode/playground/internal/providers/browser/sandbox"
)

// Core is the playground with its storage and sandbox, shared by the HTTP
// server and the CLI commands
type Core struct {
	Playground *playground.Playground
	Store      *source.Store
	Storage    *persistence.Guard
	Pool       *sandbox.Pool // nil in browser mode
	Metrics    *monitoring.Metrics

	logger *zap.Logger
}

// NewCore opens the configured storage, restores the fragments and builds
// the playground. The playground is not started.
func NewCore(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *monitoring.Metrics) (*Core, error) {
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}

	backend, err := persistence.Open(ctx, persistence.Options{
		Backend:       cfg.Storage.Backend,
		Path:          cfg.Storage.Path,
		Key:           cfg.Storage.Key,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		RedisPrefix:   cfg.Storage.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	storageLog := logger.Named("storage")
	metrics.SetBreakerState(persistence.StateClosed.String())
	guard := persistence.NewGuard(backend, persistence.GuardSettings{
		OnStateChange: func(from, to persistence.BreakerState) {
			storageLog.Warn("Storage circuit breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.SetBreakerState(to.String())
		},
	})

	seed, err := source.LoadSeed(cfg.Storage.SeedPath)
	if err != nil {
		guard.Close()
		return nil, fmt.Errorf("failed to load seed: %w", err)
	}

	store := source.NewStore(ctx, instrumented{next: guard, metrics: metrics},
		source.WithSeed(seed),
		source.WithLogger(storageLog),
		source.WithSaveTimeout(cfg.Storage.SaveTimeout),
		source.WithErrorHook(func(op string, _ error) {
			metrics.PersistenceError(op)
		}),
	)

	core := &Core{
		Store:   store,
		Storage: guard,
		Metrics: metrics,
		logger:  logger,
	}

	opts := []playground.Option{
		playground.WithLogger(logger.Named("playground")),
		playground.WithMetrics(metrics),
		playground.WithConsole(console.NewBuffer(cfg.Console.MaxLines)),
		playground.WithBridge(bridge.New(
			bridge.WithLogger(logger.Named("bridge")),
			bridge.WithDropHook(metrics.BridgeDrop),
		)),
		playground.WithExporter(export.NewGenerator(
			export.WithFilename(cfg.Export.Filename),
			export.WithDefaultTitle(cfg.Export.DefaultTitle),
		)),
	}

	if cfg.Sandbox.Mode == config.SandboxHeadless {
		sbConfig := sandbox.DefaultConfig()
		sbConfig.Timeout = cfg.Sandbox.Timeout
		sbConfig.MaxCallStackSize = cfg.Sandbox.MaxCallStackSize
		sbConfig.MaxTimerTasks = cfg.Sandbox.MaxTimerTasks

		pool, err := sandbox.NewPool(sbConfig, cfg.Sandbox.PoolSize)
		if err != nil {
			guard.Close()
			return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
		}
		core.Pool = pool
		opts = append(opts, playground.WithExecutor(pool))
	}

	core.Playground = playground.New(store, opts...)

	logger.Info("Playground initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("sandbox", cfg.Sandbox.Mode),
		zap.Int("console_max_lines", cfg.Console.MaxLines))

	return core, nil
}

// Close stops the playground and releases the sandbox pool and storage
func (c *Core) Close() error {
	c.Playground.Stop()
	c.Store.Flush()

	var firstErr error
	if c.Pool != nil {
		if err := c.Pool.Close(); err != nil {
			c.logger.Error("Failed to close sandbox pool", zap.Error(err))
			firstErr = err
		}
	}
	if err := c.Storage.Close(); err != nil {
		c.logger.Error("Failed to close storage", zap.Error(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return firstErr
}

// instrumented times every storage call
type instrumented struct {
	next    source.Persister
	metrics *monitoring.Metrics
}

func (i instrumented) Load(ctx context.Context) (*source.State, error) {
	timer := monitoring.NewTimer(i.metrics, "load")
	state, err := i.next.Load(ctx)
	timer.Stop(err)
	return state, err
}

func (i instrumented) Save(ctx context.Context, state source.State) error {
	timer := monitoring.NewTimer(i.metrics, "save")
	err := i.next.Save(ctx, state)
	timer.Stop(err)
	return err
}
