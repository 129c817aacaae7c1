package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"carteira/internal/cli"
	"carteira/internal/config"
	"carteira/internal/core"
	"carteira/internal/export"
	applog "carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Apply every pending schema migration for the sqlite or postgres backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			logger := cli.SetupLogger(applog.ComponentCLI, os.Stderr)
			cfg := cli.LoadAndValidateConfig(logger)

			var err error
			switch cfg.DataBackend {
			case config.BackendSQLite:
				err = storage.RunMigrations(storage.SQLite, cfg.SQLiteDBPath)
			case config.BackendPostgres:
				err = storage.RunMigrations(storage.Postgres, cfg.DatabaseURL)
			default:
				return fmt.Errorf("backend %q has no schema to migrate", cfg.DataBackend)
			}
			if err != nil {
				return err
			}
			logger.Info("Migrations applied", "backend", cfg.DataBackend)
			return nil
		},
	}
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
				users, err := app.Services.Accounts.Users(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tNAME\tCREATED")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.DisplayName, u.CreatedAt.Format(time.DateOnly))
				}
				return w.Flush()
			})
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard summary of --user as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, app *cli.App, user core.CurrentUser) error {
				summary, err := app.Services.Dashboard.Summary(ctx, user)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}

func reportCmd() *cobra.Command {
	var (
		year, month int
		format      string
	)
	now := time.Now()
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly report of --user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unknown format %q, expected json or csv", format)
			}
			return withUser(cmd.Context(), func(ctx context.Context, app *cli.App, user core.CurrentUser) error {
				report, err := app.Services.Dashboard.MonthlyReport(ctx, user, year, month)
				if err != nil {
					return err
				}
				if format == "csv" {
					return export.WriteReportCSV(cmd.OutOrStdout(), report)
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", now.Year(), "report year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "report month (1-12)")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, csv)")
	return cmd
}

func projectCmd() *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project balances for the coming months of --user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, app *cli.App, user core.CurrentUser) error {
				projections, err := app.Services.Dashboard.Projection(ctx, user, months)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE\tBALANCE\t")
				for _, p := range projections {
					fmt.Fprintf(w, "%s/%d\t%s\t%s\t%s\t\n", p.Month, p.Year, p.EstimatedIncome, p.EstimatedExpense, p.EstimatedBalance)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&months, "months", 3, "number of months to project (1-60)")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every transaction of --user as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, app *cli.App, user core.CurrentUser) error {
				var incomes, expenses []core.Transaction
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) {
					incomes, err = app.Services.Transactions.List(gctx, user, core.KindIncome, services.ListFilter{})
					return err
				})
				g.Go(func() (err error) {
					expenses, err = app.Services.Transactions.List(gctx, user, core.KindExpense, services.ListFilter{})
					return err
				})
				if err := g.Wait(); err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
					return export.WriteTransactionsCSV(w, append(incomes, expenses...))
				})
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func backupCmd() *cobra.Command {
	var (
		out   string
		store bool
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON backup of --user",
		Long: `Write a JSON snapshot of every transaction, category and setting of --user.
With --store the snapshot is also recorded in the backend like a scheduled backup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(cmd.Context(), func(ctx context.Context, app *cli.App, user core.CurrentUser) error {
				if store {
					info, err := app.Services.Backups.Create(ctx, user.ID)
					if err != nil {
						return err
					}
					app.Logger.Info("Backup stored", applog.FieldBackupID, info.ID)
				}
				backup, err := app.Services.Backups.Snapshot(ctx, user.ID)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
					return export.WriteBackupJSON(w, backup)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&store, "store", false, "also record the backup in the backend")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
