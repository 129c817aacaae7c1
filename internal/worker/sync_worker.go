// Package worker hosts the queue consumer that mirrors transaction changes
// to Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	applog "carteira/internal/log"
)

// Syncer performs the actual export. services.SyncProcessor implements it.
type Syncer interface {
	SyncTransaction(ctx context.Context, userID, id string) error
	RemoveTransaction(ctx context.Context, tx core.Transaction) error
	ProcessPending(ctx context.Context) (int, error)
}

// Consumer delivers sync messages until ctx is cancelled.
type Consumer interface {
	ConsumeTransactionSync(ctx context.Context, handler amqp.Handler) error
}

// SyncWorker handles synchronization of transactions to Google Sheets
type SyncWorker struct {
	syncer Syncer
	logger *applog.Logger
}

func NewSyncWorker(syncer Syncer, logger *applog.Logger) *SyncWorker {
	return &SyncWorker{
		syncer: syncer,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleMessage processes a single transaction sync message from AMQP.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	start := time.Now()
	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldTxID, msg.ID,
		applog.FieldUserID, msg.UserID,
		"action", msg.Action)

	var err error
	switch msg.Action {
	case amqp.ActionUpsert:
		err = w.syncer.SyncTransaction(ctx, msg.UserID, msg.ID)
	case amqp.ActionDelete:
		if msg.Deleted == nil {
			return fmt.Errorf("delete message %s without snapshot", msg.ID)
		}
		err = w.syncer.RemoveTransaction(ctx, *msg.Deleted)
	default:
		return fmt.Errorf("unknown sync action %q", msg.Action)
	}
	if err != nil {
		return fmt.Errorf("%s transaction %s: %w", msg.Action, msg.ID, err)
	}

	w.logger.DebugContext(ctx, "Sync message processed",
		applog.FieldTxID, msg.ID, applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Run exports rows left pending by lost messages, then consumes messages
// until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer) error {
	if n, err := w.syncer.ProcessPending(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup sync pass failed", applog.FieldError, err)
	} else if n > 0 {
		w.logger.InfoContext(ctx, "Startup sync pass exported pending transactions", applog.FieldCount, n)
	}

	err := consumer.ConsumeTransactionSync(ctx, w.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
