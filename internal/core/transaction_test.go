package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExpense() Transaction {
	return NewExpense("u1", Cents(1500), "Mercado", "Alimentação", NewDate(2024, 3, 10), PaymentPix)
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr error
	}{
		{"valid expense", validExpense(), nil},
		{"valid income", NewIncome("u1", Cents(500000), "Salário março", "Salário", NewDate(2024, 3, 5)), nil},
		{"zero amount allowed", NewIncome("u1", Cents(0), "x", "Outros", NewDate(2024, 3, 5)), nil},
		{"amount above maximum", NewIncome("u1", Cents(MaxAmountCents+1), "x", "Outros", NewDate(2024, 3, 5)), ErrInvalidAmount},
		{"valid recurring", validExpense().WithRecurrence(RecurrenceBiweekly), nil},
		{"valid installment", validExpense().WithInstallment(3, 10), nil},
		{"negative amount", NewIncome("u1", Cents(-1), "x", "Outros", NewDate(2024, 3, 5)), ErrInvalidAmount},
		{"missing user", NewIncome("", Cents(1), "x", "Outros", NewDate(2024, 3, 5)), ErrEmptyUserID},
		{"empty description", NewIncome("u1", Cents(1), " ", "Outros", NewDate(2024, 3, 5)), ErrEmptyDescription},
		{"empty category", NewIncome("u1", Cents(1), "x", "", NewDate(2024, 3, 5)), ErrEmptyCategory},
		{"zero date", NewIncome("u1", Cents(1), "x", "Outros", Date{}), ErrInvalidDate},
		{"bad payment method", NewExpense("u1", Cents(1), "x", "Lazer", NewDate(2024, 3, 5), "cheque"), ErrInvalidPaymentMethod},
		{"installment current above total", validExpense().WithInstallment(11, 10), ErrInvalidInstallment},
		{"installment zero", validExpense().WithInstallment(0, 10), ErrInvalidInstallment},
		{"recurring without type", func() Transaction { tx := validExpense(); tx.IsRecurring = true; return tx }(), ErrInvalidRecurrence},
		{"type without recurring", func() Transaction { tx := validExpense(); tx.RecurrenceType = RecurrenceMonthly; return tx }(), ErrInvalidRecurrence},
		{"unknown recurrence", validExpense().WithRecurrence("yearly"), ErrInvalidRecurrence},
		{
			"income with expense fields",
			func() Transaction {
				tx := NewIncome("u1", Cents(1), "x", "Outros", NewDate(2024, 3, 5))
				tx.ExpenseDetails = &ExpenseDetails{PaymentMethod: PaymentCash}
				return tx
			}(),
			ErrIncomeHasExpenseField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTransaction_IncomeOnWithInstallmentIsNoop(t *testing.T) {
	tx := NewIncome("u1", Cents(1), "x", "Outros", NewDate(2024, 3, 5)).WithInstallment(1, 2)
	assert.Nil(t, tx.ExpenseDetails)
	assert.Equal(t, PaymentMethod(""), tx.PaymentMethodOrEmpty())
}

func TestTransaction_JSONShape(t *testing.T) {
	exp := validExpense().WithInstallment(1, 3)
	exp.ID = "e1"
	b, err := json.Marshal(exp)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "expense", raw["type"])
	assert.Equal(t, "pix", raw["paymentMethod"])
	assert.Equal(t, "2024-03-10", raw["date"])
	assert.Equal(t, 15.0, raw["amount"])
	assert.NotContains(t, raw, "recurrenceType")

	inc := NewIncome("u1", Cents(1), "x", "Outros", NewDate(2024, 3, 5))
	b, err = json.Marshal(inc)
	require.NoError(t, err)
	raw = map[string]any{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.NotContains(t, raw, "paymentMethod")
	assert.NotContains(t, raw, "installment")

	var decoded Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"type":"expense","amount":"10,50","description":"x","category":"Lazer","date":"2024-03-01","paymentMethod":"cash"}`), &decoded))
	require.NotNil(t, decoded.ExpenseDetails)
	assert.Equal(t, PaymentCash, decoded.PaymentMethod)
	assert.Equal(t, int64(1050), decoded.Amount.Cents)
}

func TestTransactionPatch_Apply(t *testing.T) {
	base := validExpense().WithInstallment(1, 2).WithRecurrence(RecurrenceMonthly)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		amount := Cents(999)
		out, err := TransactionPatch{Amount: &amount}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, int64(999), out.Amount.Cents)
		assert.Equal(t, base.Description, out.Description)
		assert.Equal(t, 1, out.Installment.Current)
	})

	t.Run("turning recurrence off clears type", func(t *testing.T) {
		off := false
		out, err := TransactionPatch{IsRecurring: &off}.Apply(base)
		require.NoError(t, err)
		assert.False(t, out.IsRecurring)
		assert.Empty(t, out.RecurrenceType)
	})

	t.Run("clear installment does not alias original", func(t *testing.T) {
		out, err := TransactionPatch{ClearInstallment: true}.Apply(base)
		require.NoError(t, err)
		assert.Nil(t, out.Installment)
		assert.NotNil(t, base.Installment)
	})

	t.Run("expense fields rejected on income", func(t *testing.T) {
		pm := PaymentCash
		inc := NewIncome("u1", Cents(1), "x", "Outros", NewDate(2024, 3, 5))
		_, err := TransactionPatch{PaymentMethod: &pm}.Apply(inc)
		assert.ErrorIs(t, err, ErrIncomeHasExpenseField)
	})

	t.Run("invalid result rejected", func(t *testing.T) {
		neg := Cents(-5)
		_, err := TransactionPatch{Amount: &neg}.Apply(base)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	assert.True(t, TransactionPatch{}.IsEmpty())
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories("u1")
	require.Len(t, cats, 12)

	seen := map[string]bool{}
	for _, c := range cats {
		require.NoError(t, c.Validate(), c.Name)
		assert.Equal(t, "u1_"+c.Name, c.ID)
		seen[string(c.Type)+":"+c.Name] = true
		if c.Type == KindExpense {
			require.NotNil(t, c.Budget)
			assert.Zero(t, c.BudgetCents())
		} else {
			assert.Nil(t, c.Budget)
		}
	}
	assert.True(t, seen["income:Salário"])
	assert.True(t, seen["income:Outros"])
	assert.True(t, seen["expense:Outros"])
	assert.True(t, seen["expense:Serviços"])
}

func TestSettingsPatch_Apply(t *testing.T) {
	s := DefaultSettings("u1")
	require.NoError(t, s.Validate())

	dark := ThemeDark
	out, err := SettingsPatch{Theme: &dark}.Apply(s)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, out.Theme)
	assert.Equal(t, "BRL", out.Currency)

	bad := ThemePreference("neon")
	_, err = SettingsPatch{Theme: &bad}.Apply(s)
	assert.ErrorIs(t, err, ErrInvalidTheme)

	cur := "brl"
	_, err = SettingsPatch{Currency: &cur}.Apply(s)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRetrievalError(t *testing.T) {
	cause := assert.AnError
	err := NewRetrievalError("incomes", cause)
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "retrieve incomes")
	assert.NoError(t, NewRetrievalError("x", nil))
}
