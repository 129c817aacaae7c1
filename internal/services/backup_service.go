package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/ports"
)

// BackupStore is the persistence the backup service needs.
type BackupStore interface {
	ports.TransactionReader
	ports.BackupStore
	ports.SettingsStore
	ListCategories(ctx context.Context, userID string, kind core.Kind) ([]core.Category, error)
}

// BackupService snapshots a user's data.
type BackupService struct {
	store  BackupStore
	logger *applog.Logger
	now    Clock
}

func NewBackupService(store BackupStore, logger *applog.Logger) *BackupService {
	return &BackupService{
		store:  store,
		logger: logger.WithComponent(applog.ComponentBackup),
		now:    time.Now,
	}
}

// Snapshot reads every transaction and category of the user without
// persisting anything.
func (s *BackupService) Snapshot(ctx context.Context, userID string) (core.Backup, error) {
	var data core.BackupData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.Incomes, err = s.store.ListTransactions(gctx, userID, core.KindIncome, nil)
		return core.NewRetrievalError("incomes", err)
	})
	g.Go(func() (err error) {
		data.Expenses, err = s.store.ListTransactions(gctx, userID, core.KindExpense, nil)
		return core.NewRetrievalError("expenses", err)
	})
	g.Go(func() (err error) {
		data.IncomeCategories, err = s.store.ListCategories(gctx, userID, core.KindIncome)
		return core.NewRetrievalError("income categories", err)
	})
	g.Go(func() (err error) {
		data.ExpenseCategories, err = s.store.ListCategories(gctx, userID, core.KindExpense)
		return core.NewRetrievalError("expense categories", err)
	})
	if err := g.Wait(); err != nil {
		return core.Backup{}, err
	}

	return core.Backup{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
		Data:      data,
	}, nil
}

// Create stores a snapshot and records it as the user's last backup.
func (s *BackupService) Create(ctx context.Context, userID string) (core.BackupInfo, error) {
	b, err := s.Snapshot(ctx, userID)
	if err != nil {
		return core.BackupInfo{}, err
	}
	if err := s.store.SaveBackup(ctx, b); err != nil {
		return core.BackupInfo{}, storeErr("save backup", err)
	}

	st, err := s.store.GetSettings(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		st, err = core.DefaultSettings(userID), nil
	}
	if err != nil {
		return core.BackupInfo{}, storeErr("settings", err)
	}
	created := b.CreatedAt
	st.LastBackupDate = &created
	if err := s.store.SaveSettings(ctx, st); err != nil {
		return core.BackupInfo{}, storeErr("save settings", err)
	}

	info := b.Info()
	s.logger.InfoContext(ctx, "Backup created",
		applog.FieldUserID, userID, applog.FieldBackupID, b.ID,
		"transactions", info.Transactions, "categories", info.Categories)
	return info, nil
}

func (s *BackupService) List(ctx context.Context, userID string) ([]core.BackupInfo, error) {
	out, err := s.store.ListBackups(ctx, userID)
	return out, storeErr("backups", err)
}

func (s *BackupService) Get(ctx context.Context, userID, id string) (core.Backup, error) {
	b, err := s.store.GetBackup(ctx, userID, id)
	return b, storeErr("backup", err)
}
