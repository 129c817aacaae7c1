package main

import (
	"context"
	"os"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/cli"
	applog "carteira/internal/log"
	"carteira/internal/services"
	gsheet "carteira/internal/sheets/google"
	"carteira/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker, nil)
	logger.Info("Starting carteira-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the sync worker")
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Error("Google Sheets is not configured, nothing to sync to")
		os.Exit(1)
	}

	res := cli.InitStore(context.Background(), cfg, logger)
	defer res.Close()

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	dashboard := services.NewDashboardService(res.Store, logger)
	procCfg := services.DefaultSyncProcessorConfig()
	procCfg.BatchSize = cfg.SyncBatchSize
	processor := services.NewSyncProcessor(res.Store, sheetsClient, procCfg, logger).
		WithReports(sheetsClient, dashboard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The periodic pass re-exports rows whose message never arrived.
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", applog.FieldError, err)
		os.Exit(1)
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- worker.NewSyncWorker(processor, logger).Run(ctx, amqpClient)
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		cancel()
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Sync processor did not stop cleanly", applog.FieldError, err)
		}
	})

	select {
	case err := <-consumeErr:
		if err != nil {
			logger.Error("Message consumption failed", applog.FieldError, err)
			_ = processor.Stop(context.Background())
			os.Exit(1)
		}
		logger.Info("Consumer stopped")
	case <-shutdownCtx.Done():
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker shutdown complete")
}
