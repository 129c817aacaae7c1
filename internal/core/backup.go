package core

import "time"

// Backup is a full snapshot of a user's data.
type Backup struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	Data      BackupData `json:"data"`
}

type BackupData struct {
	Incomes           []Transaction `json:"incomes"`
	Expenses          []Transaction `json:"expenses"`
	IncomeCategories  []Category    `json:"incomeCategories"`
	ExpenseCategories []Category    `json:"expenseCategories"`
}

// BackupInfo is the listing view of a backup without its payload.
type BackupInfo struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	Transactions int       `json:"transactions"`
	Categories   int       `json:"categories"`
}

func (b Backup) Info() BackupInfo {
	return BackupInfo{
		ID:           b.ID,
		UserID:       b.UserID,
		CreatedAt:    b.CreatedAt,
		Transactions: len(b.Data.Incomes) + len(b.Data.Expenses),
		Categories:   len(b.Data.IncomeCategories) + len(b.Data.ExpenseCategories),
	}
}

// FileName is the download name of the backup, e.g.
// personalfinance_backup_2024-03-15.json.
func (b Backup) FileName() string {
	return "personalfinance_backup_" + b.CreatedAt.UTC().Format("2006-01-02") + ".json"
}
