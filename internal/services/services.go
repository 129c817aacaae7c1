// Package services provides business logic and orchestration services. The
// HTTP handlers, the workers and the CLI all go through these types; none of
// them talk to a store directly.
package services

import (
	"context"
	"errors"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
)

// Publisher announces transaction changes to the sync queue.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, msg *amqp.TransactionSyncMessage) error
}

// Invalidator drops cached aggregates of a user after a mutation.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

// storeErr passes domain outcomes through and wraps everything else as a
// retrieval failure of op.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrConflict) || errors.Is(err, core.ErrValidation) {
		return err
	}
	return core.NewRetrievalError(op, err)
}
