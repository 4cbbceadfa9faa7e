package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"freshlife/internal/amqp"
	"freshlife/internal/cli"
	"freshlife/internal/config"
	"freshlife/internal/log"
	"freshlife/internal/services"
	"freshlife/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info", log.ComponentWorker).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting freshlife-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to this process; the worker will not see records created by the server")
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open data backend", log.FieldError, err)
		os.Exit(1)
	}
	defer be.Cleanup()

	ledger, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	opts, err := cli.ServiceOptions(cfg, nil)
	if err != nil {
		logger.Error("Invalid service configuration", log.FieldError, err)
		os.Exit(1)
	}
	w := worker.NewLedgerWorker(
		services.NewExpenseAggregator(be.Store, opts...),
		services.NewTaskManager(be.Store, opts...),
		services.NewBudgetResolver(be.Store, opts...),
		ledger.Ledger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, w.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
