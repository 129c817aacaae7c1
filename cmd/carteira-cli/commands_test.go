package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
	"carteira/internal/export"
	"carteira/internal/storage"
)

// seedSQLite points the environment at a fresh sqlite file holding one user
// with a single expense.
func seedSQLite(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carteira.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", path)
	t.Setenv("LOG_LEVEL", "error")

	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.CreateUser(ctx, core.User{ID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.NewExpense("u1", core.Cents(4200), "groceries", "Alimentação", core.NewDate(2024, 3, 5), core.PaymentDebit))
	require.NoError(t, err)

	userID = ""
	t.Cleanup(func() { userID = "" })
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	seedSQLite(t)
	_, err := run(t, migrateCmd())
	assert.NoError(t, err)
}

func TestMigrate_MemoryBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	_, err := run(t, migrateCmd())
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	seedSQLite(t)
	out, err := run(t, usersCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "u1@example.com")
}

func TestSummary_RequiresUser(t *testing.T) {
	seedSQLite(t)
	_, err := run(t, summaryCmd())
	assert.EqualError(t, err, "--user is required")
}

func TestSummary(t *testing.T) {
	seedSQLite(t)
	userID = "u1"

	out, err := run(t, summaryCmd())
	require.NoError(t, err)

	var summary core.FinancialSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, core.Cents(4200), summary.TotalExpense)
	assert.Equal(t, core.Cents(-4200), summary.CurrentBalance)
}

func TestReport(t *testing.T) {
	seedSQLite(t)
	userID = "u1"

	out, err := run(t, reportCmd(), "--year", "2024", "--month", "3", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Alimentação")

	_, err = run(t, reportCmd(), "--format", "xml")
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	seedSQLite(t)
	userID = "u1"

	out, err := run(t, projectCmd(), "--months", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "BALANCE")

	_, err = run(t, projectCmd(), "--months", "61")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	seedSQLite(t)
	userID = "u1"

	out, err := run(t, exportCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "groceries")
}

func TestBackup(t *testing.T) {
	seedSQLite(t)
	userID = "u1"
	path := filepath.Join(t.TempDir(), "backup.json")

	_, err := run(t, backupCmd(), "--out", path, "--store")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	backup, err := export.ReadBackupJSON(f)
	require.NoError(t, err)
	assert.Equal(t, "u1", backup.UserID)
	assert.Len(t, backup.Data.Expenses, 1)
}

func TestUnknownUser(t *testing.T) {
	seedSQLite(t)
	userID = "nobody"
	_, err := run(t, summaryCmd())
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}
