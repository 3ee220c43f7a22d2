package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/warungpos/warungpos/internal/config"
	"github.com/warungpos/warungpos/internal/connectivity"
	"github.com/warungpos/warungpos/internal/http"
	"github.com/warungpos/warungpos/internal/log"
	"github.com/warungpos/warungpos/internal/remote"
	"github.com/warungpos/warungpos/internal/service"
	"github.com/warungpos/warungpos/internal/store"
	syncsvc "github.com/warungpos/warungpos/internal/sync"
	"github.com/warungpos/warungpos/internal/telemetry"
	"github.com/warungpos/warungpos/pkg/cmdutil"
	"github.com/warungpos/warungpos/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running pos terminal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Local    config.Local
		Sync     config.Sync
		HTTP     config.HTTP
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	deviceID := cfg.Local.DeviceID
	if deviceID == "" {
		deviceID, _ = os.Hostname()
	}

	logger := log.NewSlogLogger(cfg.Log, deviceID)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	localStore, err := store.Open(cfg.Local.Path)
	if err != nil {
		return fmt.Errorf("error opening local store: %w", err)
	}
	defer localStore.Close()

	// The pool connects lazily: the terminal must boot while offline.
	pgxPool, err := remote.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	remoteStore := remote.NewPgStore(pgxPool)

	monitor := connectivity.NewMonitor(cfg.Sync, logger, remoteStore)
	orchestrator := syncsvc.NewOrchestrator(
		logger, localStore, remoteStore, monitor.Online,
		syncsvc.LastWriterWins, cfg.Sync.Retention,
	)

	scheduler := syncsvc.NewScheduler(cfg.Sync, logger, nil, orchestrator.FullSync)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	monitor.Notify(func(t connectivity.Trigger) {
		switch t {
		case connectivity.TriggerOnline:
			scheduler.TriggerOnline()
		case connectivity.TriggerForeground:
			scheduler.TriggerForeground()
		}
	})

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	productService := service.NewProductService(logger, localStore, remoteStore, monitor.Online, nil)
	checkoutService := service.NewCheckoutService(logger, localStore, monitor.Online, orchestrator.FullSync, nil)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		cleanup := monitor.Run(ctx)
		logger.InfoContext(ctx, "connectivity monitor started")

		<-interruptChan

		logger.InfoContext(ctx, "connectivity monitor is shutting down")
		cleanup()

		logger.InfoContext(ctx, "connectivity monitor is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, v, productService, checkoutService, orchestrator, monitor, localStore.Ping)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Wait()

	return nil
}
