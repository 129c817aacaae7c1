package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/ports"
	"carteira/internal/sheets"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending rows (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of rows exported per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the number of failed exports before a row is marked as
	// a sync error (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
		MaxRetries:   3,
	}
}

// SyncStore is the persistence the sync processor needs.
type SyncStore interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ports.SyncTracker
}

// ReportSource builds the monthly report mirrored next to the rows.
type ReportSource interface {
	MonthlyReport(ctx context.Context, user core.CurrentUser, year, month int) (core.MonthlyReport, error)
}

// SyncProcessor mirrors transactions to a spreadsheet. It serves the queue
// consumer (SyncTransaction, RemoveTransaction) and a polling loop that
// re-exports rows whose message was lost.
type SyncProcessor struct {
	store    SyncStore
	exporter sheets.TransactionExporter
	reports  sheets.ReportWriter
	source   ReportSource
	config   SyncProcessorConfig
	logger   *applog.Logger

	attemptsMu sync.Mutex
	attempts   map[string]int

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopping bool // stopCh already closed
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(store SyncStore, exporter sheets.TransactionExporter, config SyncProcessorConfig, logger *applog.Logger) *SyncProcessor {
	return &SyncProcessor{
		store:    store,
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(applog.ComponentWorker),
		attempts: make(map[string]int),
	}
}

// WithReports refreshes the monthly report row of the affected month after
// every export.
func (p *SyncProcessor) WithReports(writer sheets.ReportWriter, source ReportSource) *SyncProcessor {
	p.reports = writer
	p.source = source
	return p
}

// SyncTransaction exports the current state of a transaction. A transaction
// deleted in the meantime is skipped; its delete message follows.
func (p *SyncProcessor) SyncTransaction(ctx context.Context, userID, id string) error {
	tx, err := p.store.GetTransaction(ctx, userID, id)
	if errors.Is(err, core.ErrNotFound) {
		p.logger.DebugContext(ctx, "Transaction gone before export", applog.FieldTxID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}
	return p.export(ctx, tx)
}

func (p *SyncProcessor) export(ctx context.Context, tx core.Transaction) error {
	if err := p.exporter.UpsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("export transaction %s: %w", tx.ID, err)
	}

	if err := p.store.MarkSynced(ctx, tx.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
		p.logger.WarnContext(ctx, "Failed to mark transaction as synced",
			applog.FieldTxID, tx.ID, applog.FieldError, err)
		// Don't fail - the export actually succeeded
	}

	p.logger.InfoContext(ctx, "Synced transaction to Google Sheets",
		applog.FieldTxID, tx.ID, applog.FieldUserID, tx.UserID)
	p.refreshReport(ctx, tx)
	return nil
}

// RemoveTransaction deletes the exported row of a deleted transaction.
func (p *SyncProcessor) RemoveTransaction(ctx context.Context, tx core.Transaction) error {
	if err := p.exporter.DeleteTransaction(ctx, tx); err != nil {
		return fmt.Errorf("delete exported transaction %s: %w", tx.ID, err)
	}
	p.logger.InfoContext(ctx, "Deleted transaction from Google Sheets",
		applog.FieldTxID, tx.ID, applog.FieldUserID, tx.UserID)
	p.refreshReport(ctx, tx)
	return nil
}

func (p *SyncProcessor) refreshReport(ctx context.Context, tx core.Transaction) {
	if p.reports == nil || p.source == nil {
		return
	}
	report, err := p.source.MonthlyReport(ctx, core.CurrentUser{ID: tx.UserID}, tx.Date.Year(), tx.Date.Month())
	if err == nil {
		err = p.reports.WriteMonthlyReport(ctx, tx.UserID, report)
	}
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to refresh monthly report",
			applog.FieldUserID, tx.UserID, applog.FieldYear, tx.Date.Year(), applog.FieldMonth, tx.Date.Month(), applog.FieldError, err)
	}
}

// ProcessPending exports one batch of pending rows and returns how many
// were exported.
func (p *SyncProcessor) ProcessPending(ctx context.Context) (int, error) {
	items, err := p.store.ListPendingSync(ctx, p.config.BatchSize)
	if err != nil {
		return 0, core.NewRetrievalError("pending sync", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	p.logger.DebugContext(ctx, "Processing sync batch", applog.FieldCount, len(items))

	synced := 0
	for _, tx := range items {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if err := p.export(ctx, tx); err != nil {
			p.handleFailure(ctx, tx, err)
			continue
		}
		p.clearAttempts(tx.ID)
		synced++
	}
	return synced, nil
}

// handleFailure counts a failed export and gives up after MaxRetries.
func (p *SyncProcessor) handleFailure(ctx context.Context, tx core.Transaction, exportErr error) {
	p.attemptsMu.Lock()
	p.attempts[tx.ID]++
	attempt := p.attempts[tx.ID]
	p.attemptsMu.Unlock()

	p.logger.WarnContext(ctx, "Sync export failed",
		applog.FieldTxID, tx.ID, "attempt", attempt, applog.FieldError, exportErr)

	if attempt < p.config.MaxRetries {
		return
	}
	p.clearAttempts(tx.ID)
	if err := p.store.MarkSyncError(ctx, tx.ID); err != nil {
		p.logger.ErrorContext(ctx, "Failed to mark sync error", applog.FieldTxID, tx.ID, applog.FieldError, err)
	}
	p.logger.ErrorContext(ctx, "Sync failed permanently after max retries",
		applog.FieldTxID, tx.ID, "attempts", attempt)
}

func (p *SyncProcessor) clearAttempts(id string) {
	p.attemptsMu.Lock()
	delete(p.attempts, id)
	p.attemptsMu.Unlock()
}

// Start begins the polling loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopping = false
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval.String(),
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	if !p.stopping {
		p.stopping = true
		close(p.stopCh)
	}
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	p.poll(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *SyncProcessor) poll(ctx context.Context) {
	if _, err := p.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.ErrorContext(ctx, "Failed to process pending sync batch", applog.FieldError, err)
	}
}
