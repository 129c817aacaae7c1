package core

// FinancialSummary is the dashboard view of the current month.
type FinancialSummary struct {
	CurrentBalance     Money            `json:"currentBalance"`
	TotalIncome        Money            `json:"totalIncome"`
	TotalExpense       Money            `json:"totalExpense"`
	SavingsRate        float64          `json:"savingsRate"`
	ExpensesByCategory map[string]Money `json:"expensesByCategory"`
	IncomesByCategory  map[string]Money `json:"incomesByCategory"`
	RecentTransactions []Transaction    `json:"recentTransactions"`
	BudgetAlerts       []BudgetAlert    `json:"budgetAlerts"`
}

// BudgetAlert flags an expense category that consumed at least
// BudgetAlertThreshold percent of its budget.
type BudgetAlert struct {
	Category   string  `json:"category"`
	Budget     Money   `json:"budget"`
	Spent      Money   `json:"spent"`
	Percentage float64 `json:"percentage"`
}

// BudgetAlertThreshold is the consumption percentage that raises an alert.
const BudgetAlertThreshold = 80.0

// RecentTransactionsLimit caps FinancialSummary.RecentTransactions.
const RecentTransactionsLimit = 5

// MonthlyReport aggregates one calendar month.
type MonthlyReport struct {
	Year                    int                     `json:"year"`
	Month                   int                     `json:"month"`
	TotalIncome             Money                   `json:"totalIncome"`
	TotalExpense            Money                   `json:"totalExpense"`
	Balance                 Money                   `json:"balance"`
	IncomesByCategory       map[string]Money        `json:"incomesByCategory"`
	ExpensesByCategory      map[string]Money        `json:"expensesByCategory"`
	ExpensesByPaymentMethod map[PaymentMethod]Money `json:"expensesByPaymentMethod"`
	// Day keys are zero padded ("01".."31") and every day of the month is
	// present.
	ExpensesByDay map[string]Money `json:"expensesByDay"`
	IncomesByDay  map[string]Money `json:"incomesByDay"`
	Incomes       []Transaction    `json:"incomes"`
	Expenses      []Transaction    `json:"expenses"`
}

// Projection is the estimated outcome of one future month.
type Projection struct {
	Month            string `json:"month"`
	Year             int    `json:"year"`
	MonthNumber      int    `json:"monthNumber"`
	EstimatedIncome  Money  `json:"estimatedIncome"`
	EstimatedExpense Money  `json:"estimatedExpense"`
	EstimatedBalance Money  `json:"estimatedBalance"`
}

// DefaultProjectionHorizon is the number of months projected when the caller
// does not choose.
const DefaultProjectionHorizon = 3

// MaxProjectionHorizon bounds the projection length.
const MaxProjectionHorizon = 60
