package main

import (
	"context"
	"os"
	"time"

	"carteira/internal/cli"
	applog "carteira/internal/log"
	"carteira/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentBackup, nil)
	logger.Info("Starting backup-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.InitStore(context.Background(), cfg, logger)
	defer res.Close()

	backups := services.NewBackupService(res.Store, logger)
	scheduler := services.NewBackupScheduler(res.Store, backups, cfg.BackupCheckInterval, logger)

	if err := scheduler.Start(context.Background()); err != nil {
		logger.Error("Failed to start backup scheduler", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Backup scheduler running", "interval", cfg.BackupCheckInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Backup scheduler did not stop cleanly", applog.FieldError, err)
		}
	})
	cli.WaitForShutdown(ctx, done)
}
