package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/storage/memory"
)

var (
	testNow  = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	testUser = core.CurrentUser{ID: "u1", Email: "ana@example.com"}
	errBoom  = errors.New("boom")
)

func fixedClock() time.Time { return testNow }

func newTestStore() *memory.Store {
	return memory.New(memory.WithClock(fixedClock))
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TransactionSyncMessage
	err  error
}

func (p *fakePublisher) PublishTransactionSync(_ context.Context, msg *amqp.TransactionSyncMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) actions() []amqp.SyncAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.SyncAction, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Action
	}
	return out
}

type fakeInvalidator struct {
	users []string
}

func (f *fakeInvalidator) InvalidateUser(_ context.Context, userID string) {
	f.users = append(f.users, userID)
}

type fakeExporter struct {
	mu        sync.Mutex
	upserted  []string
	deleted   []string
	upsertErr error
}

func (f *fakeExporter) UpsertTransaction(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, tx.ID)
	return nil
}

func (f *fakeExporter) DeleteTransaction(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, tx.ID)
	return nil
}

type fakeReportWriter struct {
	reports []core.MonthlyReport
}

func (f *fakeReportWriter) WriteMonthlyReport(_ context.Context, _ string, r core.MonthlyReport) error {
	f.reports = append(f.reports, r)
	return nil
}

// failingStore fails every transaction listing.
type failingStore struct {
	*memory.Store
}

func (failingStore) ListTransactions(context.Context, string, core.Kind, *core.DateRange) ([]core.Transaction, error) {
	return nil, errBoom
}

func mustCreate(s *memory.Store, tx core.Transaction) core.Transaction {
	created, err := s.CreateTransaction(context.Background(), tx)
	if err != nil {
		panic(err)
	}
	return created
}
