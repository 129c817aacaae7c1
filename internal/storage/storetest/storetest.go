// Package storetest holds behaviour checks shared by every ports.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
	"carteira/internal/ports"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) ports.Store

// Run exercises the gateway contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("transaction update", func(t *testing.T) { testTransactionUpdate(t, newStore(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("users and settings", func(t *testing.T) { testUsersAndSettings(t, newStore(t)) })
	t.Run("backups", func(t *testing.T) { testBackups(t, newStore(t)) })
	t.Run("sync tracking", func(t *testing.T) { testSync(t, newStore(t)) })
}

func mustCreate(t *testing.T, s ports.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	created, err := s.CreateTransaction(context.Background(), tx)
	require.NoError(t, err)
	return created
}

func testTransactions(t *testing.T, s ports.Store) {
	ctx := context.Background()

	salary := mustCreate(t, s, core.NewIncome("u1", core.Cents(500000), "Salário", "Salário", core.NewDate(2024, 3, 5)).
		WithRecurrence(core.RecurrenceMonthly))
	first := mustCreate(t, s, core.NewExpense("u1", core.Cents(1000), "Pão", "Alimentação", core.NewDate(2024, 3, 1), core.PaymentCash))
	last := mustCreate(t, s, core.NewExpense("u1", core.Cents(2000), "TV", "Lazer", core.NewDate(2024, 3, 31), core.PaymentCredit).
		WithInstallment(2, 10))
	mustCreate(t, s, core.NewExpense("u1", core.Cents(3000), "Aluguel", "Moradia", core.NewDate(2024, 4, 1), core.PaymentPix))
	mustCreate(t, s, core.NewExpense("u2", core.Cents(9999), "other user", "Lazer", core.NewDate(2024, 3, 10), core.PaymentPix))

	assert.NotEmpty(t, salary.ID)
	assert.False(t, salary.CreatedAt.IsZero())
	assert.Equal(t, salary.CreatedAt, salary.UpdatedAt)

	march := core.MonthRange(2024, 3)
	expenses, err := s.ListTransactions(ctx, "u1", core.KindExpense, &march)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, last.ID, expenses[0].ID)
	assert.Equal(t, first.ID, expenses[1].ID)
	require.NotNil(t, expenses[0].ExpenseDetails)
	require.NotNil(t, expenses[0].Installment)
	assert.Equal(t, core.Installment{Current: 2, Total: 10}, *expenses[0].Installment)
	assert.Equal(t, core.PaymentCash, expenses[1].PaymentMethod)

	all, err := s.ListTransactions(ctx, "u1", core.KindExpense, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	incomes, err := s.ListTransactions(ctx, "u1", core.KindIncome, nil)
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Nil(t, incomes[0].ExpenseDetails)
	assert.True(t, incomes[0].IsRecurring)
	assert.Equal(t, core.RecurrenceMonthly, incomes[0].RecurrenceType)
	assert.Equal(t, core.NewDate(2024, 3, 5), incomes[0].Date)

	byCat, err := s.ListTransactionsByCategory(ctx, "u1", core.KindExpense, "Lazer")
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, last.ID, byCat[0].ID)

	got, err := s.GetTransaction(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Amount, got.Amount)

	_, err = s.GetTransaction(ctx, "u2", first.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	deleted, err := s.DeleteTransaction(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, deleted.ID)
	_, err = s.DeleteTransaction(ctx, "u1", first.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.CreateTransaction(ctx, core.NewIncome("u1", core.Cents(-1), "x", "y", core.NewDate(2024, 1, 1)))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func testTransactionUpdate(t *testing.T, s ports.Store) {
	ctx := context.Background()
	tx := mustCreate(t, s, core.NewExpense("u1", core.Cents(1000), "Cinema", "Lazer", core.NewDate(2024, 3, 1), core.PaymentDebit))

	time.Sleep(2 * time.Millisecond)
	amount := core.Cents(1500)
	category := "Outros"
	updated, err := s.UpdateTransaction(ctx, "u1", tx.ID, core.TransactionPatch{Amount: &amount, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), updated.Amount.Cents)
	assert.Equal(t, "Outros", updated.Category)
	assert.Equal(t, "Cinema", updated.Description)
	assert.Equal(t, tx.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	reloaded, err := s.GetTransaction(ctx, "u1", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), reloaded.Amount.Cents)

	neg := core.Cents(-5)
	_, err = s.UpdateTransaction(ctx, "u1", tx.ID, core.TransactionPatch{Amount: &neg})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = s.UpdateTransaction(ctx, "u2", tx.ID, core.TransactionPatch{Amount: &amount})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testCategories(t *testing.T, s ports.Store) {
	ctx := context.Background()
	for _, c := range core.DefaultCategories("u1") {
		_, err := s.CreateCategory(ctx, c)
		require.NoError(t, err)
	}

	expense, err := s.ListCategories(ctx, "u1", core.KindExpense)
	require.NoError(t, err)
	require.Len(t, expense, 8)
	assert.Equal(t, "Alimentação", expense[0].Name)
	require.NotNil(t, expense[0].Budget)

	income, err := s.ListCategories(ctx, "u1", core.KindIncome)
	require.NoError(t, err)
	assert.Len(t, income, 4)

	// "Outros" exists in both collections without clashing
	_, err = s.GetCategory(ctx, "u1", core.KindIncome, "u1_Outros")
	require.NoError(t, err)
	_, err = s.GetCategory(ctx, "u1", core.KindExpense, "u1_Outros")
	require.NoError(t, err)

	_, err = s.CreateCategory(ctx, core.NewCategory("u1", core.KindIncome, "Outros"))
	assert.ErrorIs(t, err, core.ErrConflict)

	food, err := s.GetCategory(ctx, "u1", core.KindExpense, "u1_Alimentação")
	require.NoError(t, err)
	budget := core.Cents(80000)
	food.Budget = &budget
	food.Color = "#ff0000"
	_, err = s.UpdateCategory(ctx, food)
	require.NoError(t, err)

	food, err = s.GetCategory(ctx, "u1", core.KindExpense, "u1_Alimentação")
	require.NoError(t, err)
	assert.Equal(t, int64(80000), food.BudgetCents())
	assert.Equal(t, "#ff0000", food.Color)

	require.NoError(t, s.DeleteCategory(ctx, "u1", core.KindExpense, "u1_Alimentação"))
	assert.ErrorIs(t, s.DeleteCategory(ctx, "u1", core.KindExpense, "u1_Alimentação"), core.ErrNotFound)
	_, err = s.UpdateCategory(ctx, food)
	assert.ErrorIs(t, err, core.ErrNotFound)

	others, err := s.ListCategories(ctx, "u2", core.KindExpense)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func testUsersAndSettings(t *testing.T, s ports.Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, core.User{ID: "u1", Email: "ana@example.com", DisplayName: "Ana"})
	require.NoError(t, err)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.CreateUser(ctx, core.User{ID: "u1", Email: "ana@example.com"})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = s.CreateUser(ctx, core.User{ID: "u0", Email: "zed@example.com"})
	require.NoError(t, err)

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.DisplayName)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u0", users[0].ID)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.GetSettings(ctx, "u1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	settings := core.DefaultSettings("u1")
	require.NoError(t, s.SaveSettings(ctx, settings))

	settings.Theme = core.ThemeDark
	settings.Notifications = false
	when := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	settings.LastBackupDate = &when
	require.NoError(t, s.SaveSettings(ctx, settings))

	loaded, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.ThemeDark, loaded.Theme)
	assert.False(t, loaded.Notifications)
	require.NotNil(t, loaded.LastBackupDate)
	assert.True(t, when.Equal(*loaded.LastBackupDate))
}

func testBackups(t *testing.T, s ports.Store) {
	ctx := context.Background()
	older := core.Backup{
		ID: "b1", UserID: "u1", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Data: core.BackupData{IncomeCategories: core.DefaultCategories("u1")[:4]},
	}
	newer := core.Backup{
		ID: "b2", UserID: "u1", CreatedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Data: core.BackupData{Incomes: []core.Transaction{
			core.NewIncome("u1", core.Cents(100), "x", "Outros", core.NewDate(2024, 3, 1)),
		}},
	}
	require.NoError(t, s.SaveBackup(ctx, older))
	require.NoError(t, s.SaveBackup(ctx, newer))

	list, err := s.ListBackups(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b2", list[0].ID)
	assert.Equal(t, 1, list[0].Transactions)
	assert.Equal(t, 4, list[1].Categories)

	got, err := s.GetBackup(ctx, "u1", "b2")
	require.NoError(t, err)
	require.Len(t, got.Data.Incomes, 1)
	assert.Equal(t, int64(100), got.Data.Incomes[0].Amount.Cents)

	_, err = s.GetBackup(ctx, "u2", "b2")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testSync(t *testing.T, s ports.Store) {
	ctx := context.Background()
	a := mustCreate(t, s, core.NewIncome("u1", core.Cents(1), "a", "Outros", core.NewDate(2024, 3, 1)))
	time.Sleep(2 * time.Millisecond)
	b := mustCreate(t, s, core.NewIncome("u1", core.Cents(2), "b", "Outros", core.NewDate(2024, 3, 2)))

	pending, err := s.ListPendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)

	require.NoError(t, s.MarkSynced(ctx, a.ID))
	require.NoError(t, s.MarkSyncError(ctx, b.ID))
	pending, err = s.ListPendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	desc := "a2"
	_, err = s.UpdateTransaction(ctx, "u1", a.ID, core.TransactionPatch{Description: &desc})
	require.NoError(t, err)
	pending, err = s.ListPendingSync(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	assert.ErrorIs(t, s.MarkSynced(ctx, "missing"), core.ErrNotFound)
}
