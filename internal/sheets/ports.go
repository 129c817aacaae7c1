// Package sheets declares the spreadsheet export ports. The Google
// implementation lives in internal/sheets/google.
package sheets

import (
	"context"

	"carteira/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter mirrors transactions as spreadsheet rows keyed by
	// transaction id.
	TransactionExporter interface {
		// UpsertTransaction writes the row for tx, replacing an existing one.
		UpsertTransaction(ctx context.Context, tx core.Transaction) error
		// DeleteTransaction removes the row for tx. A missing row is not an error.
		DeleteTransaction(ctx context.Context, tx core.Transaction) error
	}

	// ReportWriter stores monthly report totals.
	ReportWriter interface {
		WriteMonthlyReport(ctx context.Context, userID string, r core.MonthlyReport) error
	}
)
