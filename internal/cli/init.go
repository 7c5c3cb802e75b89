// Package cli provides the initialization steps shared by cmd/risparmi and
// cmd/projection-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"risparmi/internal/config"
	"risparmi/internal/core"
	"risparmi/internal/log"
	"risparmi/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Component: component,
		Format:    cfg.LogFormat,
		Output:    os.Stderr,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", "value", cfg.LogLevel)
	}
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EngineConfig merges the optional TOML tunables over the built-in
// defaults.
func EngineConfig(path string) (services.EngineConfig, error) {
	cfg := services.DefaultEngineConfig()
	file, err := config.LoadEngineFile(path)
	if err != nil {
		return cfg, err
	}

	if len(file.PeriodsPerMonth) > 0 {
		factors := make(map[core.Frequency]decimal.Decimal, len(file.PeriodsPerMonth))
		for name, v := range file.PeriodsPerMonth {
			factors[core.Frequency(name)] = decimal.NewFromFloat(v)
		}
		cfg.Periods = cfg.Periods.Override(factors)
	}
	if file.BreakdownTolerance != nil {
		cfg.BreakdownTolerance = core.FromDecimal(decimal.NewFromFloat(*file.BreakdownTolerance))
	}
	return cfg, nil
}

// NewEngine builds the engine from the configured tunables file.
func NewEngine(cfg *config.Config) (*services.Engine, error) {
	ec, err := EngineConfig(cfg.EngineConfigFile)
	if err != nil {
		return nil, err
	}
	engine, err := services.NewEngine(ec)
	if err != nil {
		return nil, fmt.Errorf("engine config %s: %w", cfg.EngineConfigFile, err)
	}
	return engine, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
