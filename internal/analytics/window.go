// Package analytics derives dashboard summaries, monthly reports and balance
// projections from already fetched transactions. Every function is pure:
// identical inputs produce identical outputs and nothing here performs I/O.
package analytics

import (
	"time"

	"carteira/internal/core"
)

// CurrentMonthWindow returns the closed date range of the month containing
// now, evaluated in now's location.
func CurrentMonthWindow(now time.Time) core.DateRange {
	y, m, _ := now.Date()
	return core.MonthRange(y, int(m))
}

// MonthWindow returns the closed date range of month (1-12) in year.
func MonthWindow(year, month int) (core.DateRange, error) {
	if err := ValidatePeriod(year, month); err != nil {
		return core.DateRange{}, err
	}
	return core.MonthRange(year, month), nil
}

// ValidatePeriod checks a 1-indexed month and a four digit year.
func ValidatePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return core.ErrInvalidMonth
	}
	if year < 1900 || year > 9999 {
		return core.ErrInvalidYear
	}
	return nil
}

func within(txs []core.Transaction, r core.DateRange) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if r.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}

func total(txs []core.Transaction) core.Money {
	var sum core.Money
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// byCategory sums amounts per category name. Only names that occur are
// present.
func byCategory(txs []core.Transaction) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, tx := range txs {
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	return out
}
