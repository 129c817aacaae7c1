package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
)

// SchedulerStore lists users and their settings.
type SchedulerStore interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	GetSettings(ctx context.Context, userID string) (core.Settings, error)
}

// BackupScheduler periodically creates the automatic backups that are due
// according to each user's backup frequency.
type BackupScheduler struct {
	store    SchedulerStore
	backups  *BackupService
	interval time.Duration
	logger   *applog.Logger

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopping bool // stopCh already closed
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewBackupScheduler(store SchedulerStore, backups *BackupService, interval time.Duration, logger *applog.Logger) *BackupScheduler {
	return &BackupScheduler{
		store:    store,
		backups:  backups,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentBackup),
	}
}

// ProcessDue creates a backup for every user whose backup is due at now
// and returns how many were created. Failures of single users are logged
// and skipped.
func (s *BackupScheduler) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if s.store == nil || s.backups == nil {
		return 0, fmt.Errorf("scheduler not properly initialized")
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, core.NewRetrievalError("users", err)
	}

	processed := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		due, err := s.isDue(ctx, u.ID, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to check backup dueness",
				applog.FieldUserID, u.ID, applog.FieldError, err)
			continue
		}
		if !due {
			continue
		}

		info, err := s.backups.Create(ctx, u.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to create scheduled backup",
				applog.FieldUserID, u.ID, applog.FieldError, err)
			continue
		}
		processed++
		s.logger.InfoContext(ctx, "Created scheduled backup",
			applog.FieldUserID, u.ID, applog.FieldBackupID, info.ID)
	}

	s.logger.InfoContext(ctx, "Backup scheduling pass complete",
		"processed", processed, "total_checked", len(users))
	return processed, nil
}

func (s *BackupScheduler) isDue(ctx context.Context, userID string, now time.Time) (bool, error) {
	st, err := s.store.GetSettings(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		st = core.DefaultSettings(userID)
	} else if err != nil {
		return false, fmt.Errorf("get settings: %w", err)
	}

	checker, err := GetDuenessChecker(st.BackupFrequency)
	if err != nil {
		return false, err
	}
	var last time.Time
	if st.LastBackupDate != nil {
		last = *st.LastBackupDate
	}
	return checker.IsDue(last, now), nil
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("backup scheduler is already running")
	}
	s.running = true
	s.stopping = false
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.logger.InfoContext(ctx, "Backup scheduler started", "interval", s.interval.String())
	return nil
}

// Stop gracefully stops the scheduler and waits for the current pass.
func (s *BackupScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	if !s.stopping {
		s.stopping = true
		close(s.stopCh)
	}
	done := s.doneCh
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.InfoContext(ctx, "Backup scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Backup scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *BackupScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *BackupScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Process immediately on startup
	s.runOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupScheduler) runOnce(ctx context.Context) {
	if _, err := s.ProcessDue(ctx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.ErrorContext(ctx, "Backup scheduling pass failed", applog.FieldError, err)
	}
}
