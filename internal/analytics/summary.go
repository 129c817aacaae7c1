package analytics

import (
	"sort"
	"time"

	"carteira/internal/core"
)

// SummaryInput is the snapshot the dashboard summary is computed from.
// Transactions outside the month containing Now are ignored.
type SummaryInput struct {
	Now        time.Time
	Incomes    []core.Transaction
	Expenses   []core.Transaction
	Categories []core.Category
}

// Summarize builds the current month's FinancialSummary.
func Summarize(in SummaryInput) core.FinancialSummary {
	window := CurrentMonthWindow(in.Now)
	incomes := within(in.Incomes, window)
	expenses := within(in.Expenses, window)

	totalIncome := total(incomes)
	totalExpense := total(expenses)
	balance := totalIncome.Sub(totalExpense)
	expensesByCategory := byCategory(expenses)

	return core.FinancialSummary{
		CurrentBalance:     balance,
		TotalIncome:        totalIncome,
		TotalExpense:       totalExpense,
		SavingsRate:        core.Percent(balance, totalIncome),
		ExpensesByCategory: expensesByCategory,
		IncomesByCategory:  byCategory(incomes),
		RecentTransactions: recent(incomes, expenses, core.RecentTransactionsLimit),
		BudgetAlerts:       budgetAlerts(in.Categories, expensesByCategory),
	}
}

// recent concatenates incomes and expenses, stable sorts them by date
// descending and keeps the first limit.
func recent(incomes, expenses []core.Transaction, limit int) []core.Transaction {
	all := make([]core.Transaction, 0, len(incomes)+len(expenses))
	all = append(all, incomes...)
	all = append(all, expenses...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// budgetAlerts reports expense categories with a positive budget whose
// spending reached the alert threshold, highest utilization first.
func budgetAlerts(categories []core.Category, spentByCategory map[string]core.Money) []core.BudgetAlert {
	alerts := make([]core.BudgetAlert, 0)
	for _, c := range categories {
		if c.Type != core.KindExpense || c.BudgetCents() <= 0 {
			continue
		}
		budget := *c.Budget
		spent := spentByCategory[c.Name]
		// spent/budget*100 >= 80, kept in integers
		if spent.Cents*100 < budget.Cents*int64(core.BudgetAlertThreshold) {
			continue
		}
		alerts = append(alerts, core.BudgetAlert{
			Category:   c.Name,
			Budget:     budget,
			Spent:      spent,
			Percentage: core.Percent(spent, budget),
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Percentage > alerts[j].Percentage
	})
	return alerts
}
