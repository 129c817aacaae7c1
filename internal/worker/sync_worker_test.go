package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/amqp"
	"carteira/internal/core"
	applog "carteira/internal/log"
)

type fakeSyncer struct {
	synced     []string
	removed    []string
	pendingRun int
	err        error
}

func (f *fakeSyncer) SyncTransaction(_ context.Context, _, id string) error {
	f.synced = append(f.synced, id)
	return f.err
}

func (f *fakeSyncer) RemoveTransaction(_ context.Context, tx core.Transaction) error {
	f.removed = append(f.removed, tx.ID)
	return f.err
}

func (f *fakeSyncer) ProcessPending(context.Context) (int, error) {
	f.pendingRun++
	return 0, nil
}

type fakeConsumer struct {
	msgs []*amqp.TransactionSyncMessage
	errs []error
}

func (c *fakeConsumer) ConsumeTransactionSync(ctx context.Context, handler amqp.Handler) error {
	for _, m := range c.msgs {
		c.errs = append(c.errs, handler(ctx, m))
	}
	return context.Canceled
}

func TestSyncWorker_HandleMessage(t *testing.T) {
	syncer := &fakeSyncer{}
	w := NewSyncWorker(syncer, applog.Discard())
	ctx := context.Background()
	tx := core.Transaction{ID: "tx-1", UserID: "u1", Kind: core.KindIncome}

	require.NoError(t, w.HandleMessage(ctx, amqp.NewUpsertMessage(tx)))
	require.NoError(t, w.HandleMessage(ctx, amqp.NewDeleteMessage(tx)))
	assert.Equal(t, []string{"tx-1"}, syncer.synced)
	assert.Equal(t, []string{"tx-1"}, syncer.removed)

	err := w.HandleMessage(ctx, &amqp.TransactionSyncMessage{ID: "x", Action: "archive"})
	assert.Error(t, err)

	err = w.HandleMessage(ctx, &amqp.TransactionSyncMessage{ID: "x", Action: amqp.ActionDelete})
	assert.Error(t, err)
}

func TestSyncWorker_HandleMessageWrapsErrors(t *testing.T) {
	boom := errors.New("sheets down")
	w := NewSyncWorker(&fakeSyncer{err: boom}, applog.Discard())

	err := w.HandleMessage(context.Background(), amqp.NewUpsertMessage(core.Transaction{ID: "tx-1", UserID: "u1"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upsert transaction tx-1")
}

func TestSyncWorker_Run(t *testing.T) {
	syncer := &fakeSyncer{}
	w := NewSyncWorker(syncer, applog.Discard())
	consumer := &fakeConsumer{msgs: []*amqp.TransactionSyncMessage{
		amqp.NewUpsertMessage(core.Transaction{ID: "a", UserID: "u1"}),
		amqp.NewUpsertMessage(core.Transaction{ID: "b", UserID: "u1"}),
	}}

	require.NoError(t, w.Run(context.Background(), consumer), "cancellation is a clean shutdown")
	assert.Equal(t, 1, syncer.pendingRun)
	assert.Equal(t, []string{"a", "b"}, syncer.synced)
	assert.Equal(t, []error{nil, nil}, consumer.errs)
}
