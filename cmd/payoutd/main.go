package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/movaware/payout-engine/internal/adapters/gateway"
	"github.com/movaware/payout-engine/internal/adapters/handler"
	"github.com/movaware/payout-engine/internal/adapters/postgres"
	"github.com/movaware/payout-engine/internal/config"
	"github.com/movaware/payout-engine/internal/core/service"
	"github.com/movaware/payout-engine/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payout engine",
		"port", cfg.Server.Port,
		"window_size", cfg.Dispatch.WindowSize,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	transactionRepo := postgres.NewTransactionRepository(db)
	gatewayClient := gateway.NewGatewayClient(cfg.Gateway)

	dispatchService := service.NewDispatchService(
		transactionRepo,
		gatewayClient,
		cfg.Dispatch.WindowSize,
		cfg.Dispatch.InterWindowDelay,
		logger,
	)
	retryService := service.NewRetryService(
		transactionRepo,
		gatewayClient,
		cfg.Retry.BaseDelay,
		cfg.Retry.MaxAttempts,
		logger,
	)
	settlementService := service.NewSettlementService(transactionRepo, logger)
	reportService := service.NewReportService(transactionRepo)
	queryService := service.NewQueryService(transactionRepo)

	h := handler.NewHandlers(
		dispatchService,
		retryService,
		settlementService,
		reportService,
		queryService,
		logger,
	)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      h.NewRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	reconciler := worker.NewReconciler(
		transactionRepo,
		gatewayClient,
		settlementService,
		cfg.Worker.Interval,
		cfg.Worker.StaleAfter,
		cfg.Worker.BatchSize,
		logger,
	)

	retryWorker := worker.NewRetryWorker(
		transactionRepo,
		retryService,
		cfg.Worker.Interval,
		cfg.Retry.MaxAttempts,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go reconciler.Start(workerCtx)
	go retryWorker.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
