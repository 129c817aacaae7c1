package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
	ports "carteira/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultTransactionsSheet = "Transactions"
	defaultReportsSheet      = "Reports"
)

// Column layout of the transactions sheet (A..K).
var transactionHeader = []any{
	"ID", "User", "Type", "Date", "Description", "Category", "Amount",
	"Payment method", "Installment", "Recurrence", "Updated at",
}

// Column layout of the reports sheet (A..F).
var reportHeader = []any{"Key", "User", "Period", "Income", "Expense", "Balance"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base names without year; the transaction year is prefixed, e.g.
	// "2024 Transactions".
	transactionsBase string
	reportsBase      string
	logger           *applog.Logger
}

// Ensure interface conformance
var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.ReportWriter        = (*Client)(nil)
)

// Options configure New. Exactly one of CredentialsJSON or CredentialsFile
// is required.
type Options struct {
	SpreadsheetID     string
	CredentialsJSON   string
	CredentialsFile   string
	TransactionsSheet string
	ReportsSheet      string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *applog.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	credentials, err := credentialsJSON(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	c := &Client{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		transactionsBase: orDefault(opts.TransactionsSheet, defaultTransactionsSheet),
		reportsBase:      orDefault(opts.ReportsSheet, defaultReportsSheet),
		logger:           logger.WithComponent(applog.ComponentSheets),
	}
	c.logger.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"credentials_size", len(credentials))
	return c, nil
}

func credentialsJSON(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// UpsertTransaction implements ports.TransactionExporter.
func (c *Client) UpsertTransaction(ctx context.Context, tx core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if tx.ID == "" {
		return errors.New("transaction without id cannot be exported")
	}

	sheet := yearPrefixedName(c.transactionsBase, tx.Date.Year())
	ids, err := c.readIDs(ctx, sheet)
	if err != nil {
		return err
	}

	row := transactionRow(tx)
	if n := findRow(ids, tx.ID); n > 0 {
		rng := fmt.Sprintf("%s!A%d:K%d", sheet, n, n)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	values := [][]any{row}
	if len(ids) == 0 {
		values = [][]any{transactionHeader, row}
	}
	rng := fmt.Sprintf("%s!A:K", sheet)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

// DeleteTransaction implements ports.TransactionExporter.
func (c *Client) DeleteTransaction(ctx context.Context, tx core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.transactionsBase, tx.Date.Year())
	ids, err := c.readIDs(ctx, sheet)
	if err != nil {
		return err
	}
	n := findRow(ids, tx.ID)
	if n == 0 {
		c.logger.DebugContext(ctx, "Row already absent", applog.FieldTxID, tx.ID, "sheet", sheet)
		return nil
	}

	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(n - 1),
					EndIndex:   int64(n),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", n, sheet, err)
	}
	return nil
}

// WriteMonthlyReport implements ports.ReportWriter. One row per user and
// month, keyed by "<user>:<yyyy-mm>".
func (c *Client) WriteMonthlyReport(ctx context.Context, userID string, r core.MonthlyReport) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.reportsBase, r.Year)
	keys, err := c.readIDs(ctx, sheet)
	if err != nil {
		return err
	}

	row := reportRow(userID, r)
	key := row[0].(string)
	if n := findRow(keys, key); n > 0 {
		rng := fmt.Sprintf("%s!A%d:F%d", sheet, n, n)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	values := [][]any{row}
	if len(keys) == 0 {
		values = [][]any{reportHeader, row}
	}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:F", &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) readIDs(ctx context.Context, sheet string) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return firstColumn(resp.Values), nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}

func transactionRow(tx core.Transaction) []any {
	installment := ""
	if tx.ExpenseDetails != nil && tx.Installment != nil {
		installment = fmt.Sprintf("%d/%d", tx.Installment.Current, tx.Installment.Total)
	}
	recurrence := ""
	if tx.IsRecurring {
		recurrence = string(tx.RecurrenceType)
	}
	return []any{
		tx.ID,
		tx.UserID,
		string(tx.Kind),
		tx.Date.String(),
		tx.Description,
		tx.Category,
		tx.Amount.String(),
		string(tx.PaymentMethodOrEmpty()),
		installment,
		recurrence,
		tx.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func reportRow(userID string, r core.MonthlyReport) []any {
	period := fmt.Sprintf("%04d-%02d", r.Year, r.Month)
	return []any{
		userID + ":" + period,
		userID,
		period,
		r.TotalIncome.String(),
		r.TotalExpense.String(),
		r.Balance.String(),
	}
}

func firstColumn(values [][]any) []string {
	out := make([]string, len(values))
	for i, row := range values {
		if len(row) > 0 {
			out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return out
}

// findRow returns the 1-based sheet row holding key, or 0.
func findRow(column []string, key string) int {
	for i, v := range column {
		if v == key {
			return i + 1
		}
	}
	return 0
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
