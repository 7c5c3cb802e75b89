package main

import (
	"context"
	"errors"
	"os"
	"time"

	"risparmi/internal/amqp"
	"risparmi/internal/backend"
	"risparmi/internal/cache"
	"risparmi/internal/cli"
	"risparmi/internal/log"
	"risparmi/internal/services"
	"risparmi/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting projection-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the projection worker")
		os.Exit(1)
	}

	engine, err := cli.NewEngine(cfg)
	if err != nil {
		logger.Error("Invalid engine configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	// The worker only consumes; the store is opened without a publisher.
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	bcfg.AMQPURL = ""

	result, err := backend.NewFactory(logger, engine).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldBackend, string(bcfg.Type), log.FieldError, err.Error())
		os.Exit(1)
	}
	finance := services.NewFinanceService(result.Store, engine, nil, logger)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		_ = result.Cleanup()
		os.Exit(1)
	}

	cleanup := func() {
		if err := errors.Join(client.Close(), result.Cleanup()); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err.Error())
		}
	}
	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, cleanup)

	w := worker.NewProjectionWorker(finance, logger)
	go cache.NewSweeper(logger, w.SeenEvents()).Run(ctx, 10*time.Minute)

	// Projections may be stale if events were lost while the worker was down.
	if cfg.DefaultOwner != "" {
		if err := w.Refresh(ctx, cfg.DefaultOwner, ""); err != nil {
			logger.Failure(ctx, "Startup projection refresh failed", err, log.FieldOwner, cfg.DefaultOwner)
		}
	}

	go func() {
		err := client.ConsumeIncomeApplied(ctx, w.HandleIncomeApplied)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Failure(ctx, "Message consumption stopped", err, log.FieldOperation, log.OpConsume)
			cleanup()
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
