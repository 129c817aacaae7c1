package analytics

import (
	"time"

	"carteira/internal/core"
)

// ProjectionInput holds every transaction of the user. The current month's
// actual balance and the recurring baseline are both derived from it.
type ProjectionInput struct {
	Now      time.Time
	Horizon  int
	Incomes  []core.Transaction
	Expenses []core.Transaction
}

// Project estimates the balance of the Horizon months following Now.
//
// Only recurring transactions form the monthly baseline, and a biweekly
// amount counts as exactly twice per month. Every projected month reports
// the same baseline income and expense; the balance starts from the actual
// balance of the current month and accumulates the baseline net each month.
func Project(in ProjectionInput) ([]core.Projection, error) {
	if in.Horizon < 1 || in.Horizon > core.MaxProjectionHorizon {
		return nil, core.ErrInvalidHorizon
	}

	window := CurrentMonthWindow(in.Now)
	balance := total(within(in.Incomes, window)).Sub(total(within(in.Expenses, window)))

	monthlyIncome := recurringBaseline(in.Incomes)
	monthlyExpense := recurringBaseline(in.Expenses)
	net := monthlyIncome.Sub(monthlyExpense)

	y, m, _ := in.Now.Date()
	out := make([]core.Projection, 0, in.Horizon)
	for i := 1; i <= in.Horizon; i++ {
		month := time.Date(y, m+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		balance = balance.Add(net)
		out = append(out, core.Projection{
			Month:            month.Format("January 2006"),
			Year:             month.Year(),
			MonthNumber:      int(month.Month()),
			EstimatedIncome:  monthlyIncome,
			EstimatedExpense: monthlyExpense,
			EstimatedBalance: balance,
		})
	}
	return out, nil
}

func recurringBaseline(txs []core.Transaction) core.Money {
	var sum core.Money
	for _, tx := range txs {
		if !tx.IsRecurring {
			continue
		}
		sum = sum.Add(tx.Amount.Mul(tx.RecurrenceType.MonthlyFactor()))
	}
	return sum
}
