package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/metrics"
)

// Application is the global runtime state container.
// It holds config and the core services that are shared across modules
// (orchestrator, logger, metrics). Pass Application into modules that need
// access to the global state rather than using package-level variables.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Orch    *Orchestrator

	syncLog func() error
}

// NewLogger builds the logger selected by cfg. The returned func flushes
// buffered output and is never nil.
func NewLogger(cfg LogConfig) (logging.Logger, func() error, error) {
	level := logging.ParseLevel(cfg.Level)
	switch cfg.Backend {
	case "zap":
		z, err := logging.NewZapLogger("linkscout", level)
		if err != nil {
			return nil, nil, fmt.Errorf("new zap logger: %w", err)
		}
		return z, z.Sync, nil
	case "stdout", "":
		// stdout carries command output, so log lines go to stderr.
		return logging.NewWriterLogger("linkscout", level, os.Stderr), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}

// NewApplication builds the logger, metrics, components and orchestrator
// described by cfg.
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger, syncLog, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	comps, err := NewComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	return &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Orch:    NewOrchestrator(cfg, comps, m, logger),
		syncLog: syncLog,
	}, nil
}

// Shutdown stops running scans and releases every component. It gives up
// waiting when ctx is done.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	done := make(chan error, 1)
	go func() { done <- a.Orch.Close() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("shutdown: %w", ctx.Err())
	}
	if a.syncLog != nil {
		_ = a.syncLog()
	}
	return err
}
