package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
	"carteira/internal/ports"
	"carteira/internal/storage/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) ports.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx, err := s.CreateTransaction(ctx, core.NewExpense("u1", core.Cents(100), "x", "Lazer", core.NewDate(2024, 3, 1), core.PaymentPix).
		WithInstallment(1, 2))
	require.NoError(t, err)

	tx.Installment.Current = 2
	got, err := s.GetTransaction(ctx, "u1", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Installment.Current)
}

func TestStore_Clock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return fixed }))

	tx, err := s.CreateTransaction(context.Background(), core.NewIncome("u1", core.Cents(1), "x", "Outros", core.NewDate(2024, 5, 1)))
	require.NoError(t, err)
	assert.Equal(t, fixed, tx.CreatedAt)
	assert.Equal(t, fixed, tx.UpdatedAt)
}
