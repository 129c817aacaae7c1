package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
)

func TestWriteTransactionsCSV(t *testing.T) {
	rent := core.NewExpense("u1", core.Cents(150000), "Rent", "Moradia", core.NewDate(2024, 3, 10), core.PaymentPix).
		WithRecurrence(core.RecurrenceMonthly)
	rent.ID = "b"
	tv := core.NewExpense("u1", core.Cents(12050), `TV "55"`, "Lazer", core.NewDate(2024, 3, 10), core.PaymentCredit).
		WithInstallment(2, 10)
	tv.ID = "a"
	salary := core.NewIncome("u1", core.Cents(500000), "Salary, March", "Salário", core.NewDate(2024, 3, 5))
	salary.ID = "c"

	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, []core.Transaction{rent, tv, salary}))

	want := strings.Join([]string{
		"id,date,type,description,category,amount,payment_method,installment,recurrence",
		`c,2024-03-05,income,"Salary, March",Salário,5000.00,,,`,
		`a,2024-03-10,expense,"TV ""55""",Lazer,120.50,credit,2/10,`,
		"b,2024-03-10,expense,Rent,Moradia,1500.00,pix,,monthly",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReportCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportCSV(&buf, core.MonthlyReport{Year: 2024, Month: 2}))
	assert.Equal(t, strings.Join(CSVHeader, ",")+"\n", buf.String())
	assert.Equal(t, "report_2024-02.csv", ReportFileName(2024, 2))
}

func TestBackupJSON(t *testing.T) {
	b := core.Backup{
		ID:        "bk-1",
		UserID:    "u1",
		CreatedAt: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
		Data: core.BackupData{
			Incomes: []core.Transaction{core.NewIncome("u1", core.Cents(100), "a", "Outros", core.NewDate(2024, 3, 1))},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBackupJSON(&buf, b))
	assert.Contains(t, buf.String(), `"userId": "u1"`)
	assert.Contains(t, buf.String(), `"incomeCategories": null`)

	got, err := ReadBackupJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.True(t, b.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Data.Incomes, 1)
	assert.Equal(t, int64(100), got.Data.Incomes[0].Amount.Cents)

	_, err = ReadBackupJSON(strings.NewReader(`{"id":"x"}`))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = ReadBackupJSON(strings.NewReader(`{`))
	assert.Error(t, err)
}
