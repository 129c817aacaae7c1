// Package ports declares the persistence gateway consumed by the services.
// Implementations live in internal/storage (SQL) and internal/storage/memory.
package ports

import (
	"context"

	"carteira/internal/core"
)

type (
	// TransactionReader lists a user's transactions. Results are ordered by
	// date descending, then creation time descending.
	TransactionReader interface {
		// ListTransactions returns transactions of kind; a nil period means all
		// of them. The period is closed at both ends.
		ListTransactions(ctx context.Context, userID string, kind core.Kind, period *core.DateRange) ([]core.Transaction, error)
		ListTransactionsByCategory(ctx context.Context, userID string, kind core.Kind, category string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	}

	// TransactionWriter mutates transactions. The store assigns ID, CreatedAt
	// and UpdatedAt.
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error)
		// DeleteTransaction removes the transaction and returns what was removed.
		DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	}

	// CategoryStore persists categories. Income and expense categories are
	// separate collections keyed by (user, type, id).
	CategoryStore interface {
		ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error)
		GetCategory(ctx context.Context, userID string, kind core.Kind, id string) (core.Category, error)
		// CreateCategory fails with core.ErrConflict when the id is taken.
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, userID string, kind core.Kind, id string) error
	}

	UserStore interface {
		// CreateUser fails with core.ErrConflict when the user exists.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	SettingsStore interface {
		GetSettings(ctx context.Context, userID string) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	BackupStore interface {
		SaveBackup(ctx context.Context, b core.Backup) error
		GetBackup(ctx context.Context, userID, id string) (core.Backup, error)
		// ListBackups returns backups newest first.
		ListBackups(ctx context.Context, userID string) ([]core.BackupInfo, error)
	}

	// SyncTracker records the export state of transactions mirrored to an
	// external spreadsheet.
	SyncTracker interface {
		MarkSynced(ctx context.Context, id string) error
		MarkSyncError(ctx context.Context, id string) error
		ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	}

	// Store is the full gateway implemented by every backend.
	Store interface {
		TransactionReader
		TransactionWriter
		CategoryStore
		UserStore
		SettingsStore
		BackupStore
		SyncTracker
		Ping(ctx context.Context) error
		Close() error
	}
)
