package services

import (
	"context"
	"fmt"
	"strings"

	"carteira/internal/amqp"
	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/ports"
)

// TransactionStore is the persistence the transaction service needs.
type TransactionStore interface {
	ports.TransactionReader
	ports.TransactionWriter
}

// ListFilter narrows a transaction listing. Zero values mean no filter.
type ListFilter struct {
	From     *core.Date
	To       *core.Date
	Category string
}

// TransactionService orchestrates transaction mutations across the store,
// the dashboard cache and the sync queue. Publishing is best effort: a
// saved transaction is never rolled back because the broker is down.
type TransactionService struct {
	store       TransactionStore
	publisher   Publisher
	invalidator Invalidator
	logger      *applog.Logger
}

func NewTransactionService(store TransactionStore, publisher Publisher, invalidator Invalidator, logger *applog.Logger) *TransactionService {
	return &TransactionService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger.WithComponent(applog.ComponentTransaction),
	}
}

// List returns the user's transactions of kind, newest first.
func (s *TransactionService) List(ctx context.Context, user core.CurrentUser, kind core.Kind, f ListFilter) ([]core.Transaction, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}

	if f.Category != "" {
		txs, err := s.store.ListTransactionsByCategory(ctx, user.ID, kind, f.Category)
		if err != nil {
			return nil, storeErr("transactions", err)
		}
		return filterDates(txs, f.From, f.To), nil
	}

	var period *core.DateRange
	if f.From != nil || f.To != nil {
		r := core.DateRange{From: core.NewDate(1900, 1, 1), To: core.NewDate(9999, 12, 31)}
		if f.From != nil {
			r.From = *f.From
		}
		if f.To != nil {
			r.To = *f.To
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		period = &r
	}

	txs, err := s.store.ListTransactions(ctx, user.ID, kind, period)
	if err != nil {
		return nil, storeErr("transactions", err)
	}
	return txs, nil
}

func filterDates(txs []core.Transaction, from, to *core.Date) []core.Transaction {
	if from == nil && to == nil {
		return txs
	}
	out := txs[:0]
	for _, tx := range txs {
		if from != nil && tx.Date.Before(*from) {
			continue
		}
		if to != nil && tx.Date.After(*to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// Get returns one transaction; a transaction of another kind is not found.
func (s *TransactionService) Get(ctx context.Context, user core.CurrentUser, kind core.Kind, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, user.ID, id)
	if err != nil {
		return core.Transaction{}, storeErr("transaction", err)
	}
	if tx.Kind != kind {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

// Create validates and stores tx on behalf of user.
func (s *TransactionService) Create(ctx context.Context, user core.CurrentUser, tx core.Transaction) (core.Transaction, error) {
	tx.UserID = user.ID
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Category = strings.TrimSpace(tx.Category)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, storeErr("create transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.NewFields().
			WithUser(user.ID).
			WithTransaction(created.ID, string(created.Kind), created.Category, created.Amount.Cents).
			ToSlice()...)

	s.afterMutation(ctx, user.ID, amqp.NewUpsertMessage(created))
	return created, nil
}

// Update applies patch to the transaction id of kind.
func (s *TransactionService) Update(ctx context.Context, user core.CurrentUser, kind core.Kind, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if _, err := s.Get(ctx, user, kind, id); err != nil {
		return core.Transaction{}, err
	}
	if patch.Description != nil {
		d := strings.TrimSpace(*patch.Description)
		patch.Description = &d
	}

	updated, err := s.store.UpdateTransaction(ctx, user.ID, id, patch)
	if err != nil {
		return core.Transaction{}, storeErr("update transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		applog.FieldUserID, user.ID, applog.FieldTxID, id, applog.FieldKind, kind)

	s.afterMutation(ctx, user.ID, amqp.NewUpsertMessage(updated))
	return updated, nil
}

// Delete removes the transaction id of kind.
func (s *TransactionService) Delete(ctx context.Context, user core.CurrentUser, kind core.Kind, id string) error {
	if _, err := s.Get(ctx, user, kind, id); err != nil {
		return err
	}

	deleted, err := s.store.DeleteTransaction(ctx, user.ID, id)
	if err != nil {
		return storeErr("delete transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldUserID, user.ID, applog.FieldTxID, id, applog.FieldKind, kind)

	s.afterMutation(ctx, user.ID, amqp.NewDeleteMessage(deleted))
	return nil
}

func (s *TransactionService) afterMutation(ctx context.Context, userID string, msg *amqp.TransactionSyncMessage) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, userID)
	}
	if err := s.publish(ctx, msg); err != nil {
		// Don't fail the request - the row stays pending and the sync
		// processor picks it up later.
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			applog.FieldTxID, msg.ID, "action", msg.Action, applog.FieldError, err)
	}
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping sync message", applog.FieldTxID, msg.ID)
		return nil
	}
	if err := s.publisher.PublishTransactionSync(ctx, msg); err != nil {
		return fmt.Errorf("publish %s %s: %w", msg.Action, msg.ID, err)
	}
	return nil
}
