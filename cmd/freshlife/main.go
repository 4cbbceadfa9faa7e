package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"freshlife/internal/cache"
	"freshlife/internal/cli"
	"freshlife/internal/core"
	apphttp "freshlife/internal/http"
	"freshlife/internal/log"
	"freshlife/internal/services"
)

const cacheSweepInterval = time.Minute

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info", log.ComponentApp).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", log.FieldError, err)
		}
	}()

	publisher := cli.ConnectAMQP(logger, cfg)
	if publisher != nil {
		defer publisher.Close()
	}

	opts, err := cli.ServiceOptions(cfg, publisher)
	if err != nil {
		logger.Error("Invalid service configuration", log.FieldError, err)
		os.Exit(1)
	}

	budgetCache := cache.NewLRUCache[core.BudgetStatus](cfg.BudgetCacheSize, cfg.BudgetCacheTTL)
	caches := cache.NewManager()
	caches.Register(budgetCache)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Budgets:  services.NewBudgetResolver(be.Store, opts...).WithCache(budgetCache),
		Expenses: services.NewExpenseAggregator(be.Store, opts...),
		Tasks:    services.NewTaskManager(be.Store, opts...),
		Overview: services.NewOverviewCounter(be.Store, opts...),
		Store:    be.Store,
	}, apphttp.Options{
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	srv.ReadTimeout = cfg.RequestTimeout
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting freshlife server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, cacheSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
