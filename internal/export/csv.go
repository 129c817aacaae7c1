// Package export renders transactions and backups as downloadable
// documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"carteira/internal/core"
)

// CSVHeader is the first row of every transaction export.
var CSVHeader = []string{
	"id", "date", "type", "description", "category", "amount",
	"payment_method", "installment", "recurrence",
}

// WriteTransactionsCSV writes a header followed by one row per transaction,
// sorted by date then id.
func WriteTransactionsCSV(w io.Writer, txs []core.Transaction) error {
	rows := make([]core.Transaction, len(txs))
	copy(rows, txs)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].ID < rows[j].ID
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range rows {
		if err := cw.Write(csvRecord(tx)); err != nil {
			return fmt.Errorf("write csv row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReportCSV writes the transactions of a monthly report.
func WriteReportCSV(w io.Writer, r core.MonthlyReport) error {
	all := make([]core.Transaction, 0, len(r.Incomes)+len(r.Expenses))
	all = append(all, r.Incomes...)
	all = append(all, r.Expenses...)
	return WriteTransactionsCSV(w, all)
}

// ReportFileName is the download name of a monthly report export.
func ReportFileName(year, month int) string {
	return fmt.Sprintf("report_%04d-%02d.csv", year, month)
}

func csvRecord(tx core.Transaction) []string {
	installment := ""
	if tx.ExpenseDetails != nil && tx.Installment != nil {
		installment = strconv.Itoa(tx.Installment.Current) + "/" + strconv.Itoa(tx.Installment.Total)
	}
	recurrence := ""
	if tx.IsRecurring {
		recurrence = string(tx.RecurrenceType)
	}
	return []string{
		tx.ID,
		tx.Date.String(),
		string(tx.Kind),
		tx.Description,
		tx.Category,
		tx.Amount.String(),
		string(tx.PaymentMethodOrEmpty()),
		installment,
		recurrence,
	}
}
