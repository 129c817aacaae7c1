// Package storage is the SQL implementation of ports.Store for SQLite and
// PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
	"carteira/internal/ports"
)

var _ ports.Store = (*Repository)(nil)

const (
	syncPending = "pending"
	syncDone    = "synced"
	syncError   = "error"
)

type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to the database, applies migrations and returns the
// repository. For SQLite the dsn is a file path.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Repository, error) {
	if dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: dialect, now: time.Now}, nil
}

// NewSQLiteRepository opens a SQLite database at path.
func NewSQLiteRepository(ctx context.Context, path string) (*Repository, error) {
	return Open(ctx, SQLite, path)
}

// NewPostgresRepository opens a PostgreSQL database from a connection URL.
func NewPostgresRepository(ctx context.Context, url string) (*Repository, error) {
	return Open(ctx, Postgres, url)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.dialect.rebind(q), args...)
}

func (r *Repository) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
}

func (r *Repository) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.dialect.rebind(q), args...)
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// ---- transactions

const txColumns = `id, user_id, kind, amount_cents, description, category, date,
	is_recurring, recurrence_type, payment_method, installment_current, installment_total,
	created_at, updated_at`

const txOrder = ` ORDER BY date DESC, created_at DESC, id ASC`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		kind, date           string
		recurrence, method   string
		instCur, instTot     sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := s.Scan(&tx.ID, &tx.UserID, &kind, &tx.Amount.Cents, &tx.Description, &tx.Category, &date,
		&tx.IsRecurring, &recurrence, &method, &instCur, &instTot, &createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: stored date %q: %w", tx.ID, date, err)
	}
	tx.Kind = core.Kind(kind)
	tx.Date = d
	tx.RecurrenceType = core.RecurrenceType(recurrence)
	tx.CreatedAt = fromMicros(createdAt)
	tx.UpdatedAt = fromMicros(updatedAt)
	if tx.Kind == core.KindExpense {
		tx.ExpenseDetails = &core.ExpenseDetails{PaymentMethod: core.PaymentMethod(method)}
		if instCur.Valid && instTot.Valid {
			tx.Installment = &core.Installment{Current: int(instCur.Int64), Total: int(instTot.Int64)}
		}
	}
	return tx, nil
}

func (r *Repository) listTransactions(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, kind core.Kind, period *core.DateRange) ([]core.Transaction, error) {
	if period == nil {
		txs, err := r.listTransactions(ctx, `SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND kind = ?`+txOrder, userID, string(kind))
		if err != nil {
			return nil, fmt.Errorf("list %s transactions: %w", kind, err)
		}
		return txs, nil
	}
	txs, err := r.listTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND kind = ? AND date >= ? AND date <= ?`+txOrder,
		userID, string(kind), period.From.String(), period.To.String())
	if err != nil {
		return nil, fmt.Errorf("list %s transactions between %s and %s: %w", kind, period.From, period.To, err)
	}
	return txs, nil
}

func (r *Repository) ListTransactionsByCategory(ctx context.Context, userID string, kind core.Kind, category string) ([]core.Transaction, error) {
	txs, err := r.listTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND kind = ? AND category = ?`+txOrder,
		userID, string(kind), category)
	if err != nil {
		return nil, fmt.Errorf("list %s transactions in %s: %w", kind, category, err)
	}
	return txs, nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := scanTransaction(r.queryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

func transactionArgs(tx core.Transaction) (method string, instCur, instTot sql.NullInt64) {
	if tx.ExpenseDetails == nil {
		return "", sql.NullInt64{}, sql.NullInt64{}
	}
	method = string(tx.PaymentMethod)
	if tx.Installment != nil {
		cur, tot := int64(tx.Installment.Current), int64(tx.Installment.Total)
		return method, nullInt(&cur), nullInt(&tot)
	}
	return method, sql.NullInt64{}, sql.NullInt64{}
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx = tx.Clone()
	tx.ID = uuid.NewString()
	tx.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	tx.UpdatedAt = tx.CreatedAt

	method, instCur, instTot := transactionArgs(tx)
	_, err := r.exec(ctx, `INSERT INTO transactions (`+txColumns+`, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, string(tx.Kind), tx.Amount.Cents, tx.Description, tx.Category, tx.Date.String(),
		tx.IsRecurring, string(tx.RecurrenceType), method, instCur, instTot,
		toMicros(tx.CreatedAt), toMicros(tx.UpdatedAt), syncPending)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer dbtx.Rollback()

	current, err := scanTransaction(dbtx.QueryRowContext(ctx,
		r.dialect.rebind(`SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction %s: %w", id, err)
	}

	updated, err := patch.Apply(current)
	if err != nil {
		return core.Transaction{}, err
	}
	updated.UpdatedAt = r.now().UTC().Truncate(time.Microsecond)
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}

	method, instCur, instTot := transactionArgs(updated)
	_, err = dbtx.ExecContext(ctx, r.dialect.rebind(`UPDATE transactions SET
		amount_cents = ?, description = ?, category = ?, date = ?, is_recurring = ?, recurrence_type = ?,
		payment_method = ?, installment_current = ?, installment_total = ?, updated_at = ?, sync_status = ?
		WHERE id = ? AND user_id = ?`),
		updated.Amount.Cents, updated.Description, updated.Category, updated.Date.String(),
		updated.IsRecurring, string(updated.RecurrenceType), method, instCur, instTot,
		toMicros(updated.UpdatedAt), syncPending, id, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if err := dbtx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := r.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	res, err := r.exec(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

// ---- sync tracking

func (r *Repository) setSyncStatus(ctx context.Context, id, status string) error {
	res, err := r.exec(ctx, `UPDATE transactions SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) MarkSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, syncDone)
}

func (r *Repository) MarkSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, syncError)
}

func (r *Repository) ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	txs, err := r.listTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE sync_status = ? ORDER BY updated_at ASC, id ASC LIMIT ?`,
		syncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	return txs, nil
}

// ---- categories

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c      core.Category
		kind   string
		budget sql.NullInt64
	)
	if err := s.Scan(&c.UserID, &kind, &c.ID, &c.Name, &c.Color, &c.Icon, &budget); err != nil {
		return core.Category{}, err
	}
	c.Type = core.Kind(kind)
	if budget.Valid {
		b := core.Cents(budget.Int64)
		c.Budget = &b
	}
	return c, nil
}

const categoryColumns = `user_id, type, id, name, color, icon, budget_cents`

func budgetArg(c core.Category) sql.NullInt64 {
	if c.Budget == nil {
		return sql.NullInt64{}
	}
	return nullInt(&c.Budget.Cents)
}

func (r *Repository) ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error) {
	rows, err := r.query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND type = ? ORDER BY name`, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", kind, err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, userID string, kind core.Kind, id string) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND type = ? AND id = ?`, userID, string(kind), id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	res, err := r.exec(ctx, `INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, type, id) DO NOTHING`,
		c.UserID, string(c.Type), c.ID, c.Name, c.Color, c.Icon, budgetArg(c))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, core.ErrConflict
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	res, err := r.exec(ctx, `UPDATE categories SET color = ?, icon = ?, budget_cents = ? WHERE user_id = ? AND type = ? AND id = ?`,
		c.Color, c.Icon, budgetArg(c), c.UserID, string(c.Type), c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, userID string, kind core.Kind, id string) error {
	res, err := r.exec(ctx, `DELETE FROM categories WHERE user_id = ? AND type = ? AND id = ?`, userID, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- users and settings

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	res, err := r.exec(ctx, `INSERT INTO users (id, email, display_name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`, u.ID, u.Email, u.DisplayName, toMicros(u.CreatedAt))
	if err != nil {
		return core.User{}, fmt.Errorf("create user %s: %w", u.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.User{}, core.ErrConflict
	}
	return u, nil
}

func scanUser(s rowScanner) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.Email, &u.DisplayName, &createdAt); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = fromMicros(createdAt)
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := scanUser(r.queryRow(ctx, `SELECT id, email, display_name, created_at FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.query(ctx, `SELECT id, email, display_name, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]core.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	var (
		s          core.Settings
		theme, bf  string
		lastBackup sql.NullInt64
	)
	err := r.queryRow(ctx, `SELECT user_id, theme, currency, language, notifications, backup_frequency, last_backup_at
		FROM settings WHERE user_id = ?`, userID).
		Scan(&s.UserID, &theme, &s.Currency, &s.Language, &s.Notifications, &bf, &lastBackup)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, core.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings for %s: %w", userID, err)
	}
	s.Theme = core.ThemePreference(theme)
	s.BackupFrequency = core.BackupFrequency(bf)
	if lastBackup.Valid {
		t := fromMicros(lastBackup.Int64)
		s.LastBackupDate = &t
	}
	return s, nil
}

func (r *Repository) SaveSettings(ctx context.Context, s core.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	var lastBackup sql.NullInt64
	if s.LastBackupDate != nil {
		v := toMicros(*s.LastBackupDate)
		lastBackup = nullInt(&v)
	}
	_, err := r.exec(ctx, `INSERT INTO settings (user_id, theme, currency, language, notifications, backup_frequency, last_backup_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			theme = excluded.theme,
			currency = excluded.currency,
			language = excluded.language,
			notifications = excluded.notifications,
			backup_frequency = excluded.backup_frequency,
			last_backup_at = excluded.last_backup_at`,
		s.UserID, string(s.Theme), s.Currency, s.Language, s.Notifications, string(s.BackupFrequency), lastBackup)
	if err != nil {
		return fmt.Errorf("save settings for %s: %w", s.UserID, err)
	}
	return nil
}

// ---- backups

func (r *Repository) SaveBackup(ctx context.Context, b core.Backup) error {
	if b.ID == "" || b.UserID == "" {
		return core.NewValidationError("backup", "id and userId are required")
	}
	payload, err := json.Marshal(b.Data)
	if err != nil {
		return fmt.Errorf("encode backup %s: %w", b.ID, err)
	}
	info := b.Info()
	_, err = r.exec(ctx, `INSERT INTO backups (id, user_id, created_at, transactions, categories, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, toMicros(b.CreatedAt), info.Transactions, info.Categories, string(payload))
	if err != nil {
		return fmt.Errorf("save backup %s: %w", b.ID, err)
	}
	return nil
}

func (r *Repository) GetBackup(ctx context.Context, userID, id string) (core.Backup, error) {
	var (
		b         core.Backup
		createdAt int64
		payload   string
	)
	err := r.queryRow(ctx, `SELECT id, user_id, created_at, payload FROM backups WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&b.ID, &b.UserID, &createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Backup{}, core.ErrNotFound
	}
	if err != nil {
		return core.Backup{}, fmt.Errorf("get backup %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(payload), &b.Data); err != nil {
		return core.Backup{}, fmt.Errorf("decode backup %s: %w", id, err)
	}
	b.CreatedAt = fromMicros(createdAt)
	return b, nil
}

func (r *Repository) ListBackups(ctx context.Context, userID string) ([]core.BackupInfo, error) {
	rows, err := r.query(ctx, `SELECT id, user_id, created_at, transactions, categories FROM backups
		WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	out := make([]core.BackupInfo, 0)
	for rows.Next() {
		var (
			info      core.BackupInfo
			createdAt int64
		)
		if err := rows.Scan(&info.ID, &info.UserID, &createdAt, &info.Transactions, &info.Categories); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		info.CreatedAt = fromMicros(createdAt)
		out = append(out, info)
	}
	return out, rows.Err()
}
