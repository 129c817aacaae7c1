package analytics

import (
	"fmt"

	"carteira/internal/core"
)

// BuildMonthlyReport aggregates month (1-12) of year. Transactions dated
// outside that month are ignored.
func BuildMonthlyReport(year, month int, incomes, expenses []core.Transaction) (core.MonthlyReport, error) {
	window, err := MonthWindow(year, month)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	incomes = within(incomes, window)
	expenses = within(expenses, window)

	totalIncome := total(incomes)
	totalExpense := total(expenses)

	byMethod := make(map[core.PaymentMethod]core.Money)
	for _, tx := range expenses {
		m := tx.PaymentMethodOrEmpty()
		if m == "" {
			m = core.PaymentOther
		}
		byMethod[m] = byMethod[m].Add(tx.Amount)
	}

	return core.MonthlyReport{
		Year:                    year,
		Month:                   month,
		TotalIncome:             totalIncome,
		TotalExpense:            totalExpense,
		Balance:                 totalIncome.Sub(totalExpense),
		IncomesByCategory:       byCategory(incomes),
		ExpensesByCategory:      byCategory(expenses),
		ExpensesByPaymentMethod: byMethod,
		ExpensesByDay:           byDay(year, month, expenses),
		IncomesByDay:            byDay(year, month, incomes),
		Incomes:                 incomes,
		Expenses:                expenses,
	}, nil
}

// DayKey is the zero padded day-of-month key used by the per-day maps.
func DayKey(day int) string {
	return fmt.Sprintf("%02d", day)
}

func byDay(year, month int, txs []core.Transaction) map[string]core.Money {
	days := core.DaysIn(year, month)
	out := make(map[string]core.Money, days)
	for d := 1; d <= days; d++ {
		out[DayKey(d)] = core.Money{}
	}
	for _, tx := range txs {
		key := DayKey(tx.Date.Day())
		out[key] = out[key].Add(tx.Amount)
	}
	return out
}
