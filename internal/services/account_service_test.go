package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
	applog "carteira/internal/log"
)

func TestAccountService_Register(t *testing.T) {
	store := newTestStore()
	svc := NewAccountService(store, applog.Discard())
	ctx := context.Background()

	u, err := svc.Register(ctx, core.User{ID: " u1 ", Email: "ana@example.com", DisplayName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	incomes, err := store.ListCategories(ctx, "u1", core.KindIncome)
	require.NoError(t, err)
	assert.Len(t, incomes, 4)

	expenses, err := store.ListCategories(ctx, "u1", core.KindExpense)
	require.NoError(t, err)
	assert.Len(t, expenses, 8)
	for _, c := range expenses {
		require.NotNil(t, c.Budget)
		assert.True(t, c.Budget.IsZero())
	}

	st, err := store.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultSettings("u1"), st)

	_, err = svc.Register(ctx, core.User{ID: "u1", Email: "ana@example.com"})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.Register(ctx, core.User{ID: "u2", Email: "not-an-email"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestAccountService_Resolve(t *testing.T) {
	svc := NewAccountService(newTestStore(), applog.Discard())
	ctx := context.Background()
	_, err := svc.Register(ctx, core.User{ID: "u1", Email: "ana@example.com"})
	require.NoError(t, err)

	user, err := svc.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.CurrentUser{ID: "u1", Email: "ana@example.com"}, user)

	for _, id := range []string{"", "  ", "ghost"} {
		_, err := svc.Resolve(ctx, id)
		assert.ErrorIs(t, err, core.ErrUnauthenticated, "id %q", id)
	}
}

func TestAccountService_Settings(t *testing.T) {
	store := newTestStore()
	svc := NewAccountService(store, applog.Discard())
	ctx := context.Background()

	st, err := svc.Settings(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, core.ThemeSystem, st.Theme, "defaults when nothing saved")

	dark := core.ThemeDark
	weekly := core.BackupWeekly
	updated, err := svc.UpdateSettings(ctx, testUser, core.SettingsPatch{Theme: &dark, BackupFrequency: &weekly})
	require.NoError(t, err)
	assert.Equal(t, core.ThemeDark, updated.Theme)
	assert.Equal(t, "BRL", updated.Currency)

	saved, err := store.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, updated, saved)

	neon := core.ThemePreference("neon")
	_, err = svc.UpdateSettings(ctx, testUser, core.SettingsPatch{Theme: &neon})
	assert.ErrorIs(t, err, core.ErrInvalidTheme)
}

func TestCategoryService(t *testing.T) {
	inv := &fakeInvalidator{}
	svc := NewCategoryService(newTestStore(), inv, applog.Discard())
	ctx := context.Background()

	budget := core.Cents(30000)
	created, err := svc.Create(ctx, testUser, NewCategoryInput{Type: core.KindExpense, Name: " Pets ", Budget: &budget})
	require.NoError(t, err)
	assert.Equal(t, "u1_Pets", created.ID)

	_, err = svc.Create(ctx, testUser, NewCategoryInput{Type: core.KindExpense, Name: "Pets"})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.Create(ctx, testUser, NewCategoryInput{Type: core.KindIncome, Name: "Pets"})
	assert.NoError(t, err, "income and expense collections are separate")

	_, err = svc.Create(ctx, testUser, NewCategoryInput{Type: core.KindIncome, Name: "Bonus", Budget: &budget})
	assert.ErrorIs(t, err, core.ErrInvalidBudget)

	color := "#ff0000"
	updated, err := svc.Update(ctx, testUser, core.KindExpense, created.ID, core.CategoryPatch{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", updated.Color)
	assert.Equal(t, int64(30000), updated.BudgetCents())

	all, err := svc.List(ctx, testUser, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, core.KindIncome, all[0].Type)

	require.NoError(t, svc.Delete(ctx, testUser, core.KindExpense, created.ID))
	err = svc.Delete(ctx, testUser, core.KindExpense, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.List(ctx, testUser, "savings")
	assert.ErrorIs(t, err, core.ErrInvalidKind)

	assert.Len(t, inv.users, 4)
}
