package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"carteira/internal/cli"
	"carteira/internal/core"
	applog "carteira/internal/log"
)

var (
	userID  string
	rootCmd = &cobra.Command{
		Use:   "carteira-cli",
		Short: "Operate a carteira installation from the shell",
		Long: `carteira-cli runs maintenance and reporting tasks against the configured
backend: schema migrations, dashboards, reports, projections and backups.

Configuration is read from the environment (and .env) exactly like the server.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id the command acts for")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(backupCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads configuration, opens the backend and runs fn against the
// wired services. Logs go to stderr so stdout stays machine readable.
func withApp(ctx context.Context, fn func(ctx context.Context, app *cli.App) error) error {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentCLI, os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitStore(ctx, cfg, logger)
	app := cli.NewApp(ctx, cfg, res, logger, cli.AppOptions{})
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Failed to release resources", applog.FieldError, err)
		}
	}()
	return fn(ctx, app)
}

// withUser is withApp for commands scoped to --user.
func withUser(ctx context.Context, fn func(ctx context.Context, app *cli.App, user core.CurrentUser) error) error {
	if userID == "" {
		return fmt.Errorf("--user is required")
	}
	return withApp(ctx, func(ctx context.Context, app *cli.App) error {
		user, err := app.Services.Accounts.Resolve(ctx, userID)
		if err != nil {
			return fmt.Errorf("resolve user %q: %w", userID, err)
		}
		return fn(ctx, app, user)
	})
}
