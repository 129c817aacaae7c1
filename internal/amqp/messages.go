package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"carteira/internal/core"
)

// SyncAction tells the consumer what happened to a transaction.
type SyncAction string

const (
	ActionUpsert SyncAction = "upsert"
	ActionDelete SyncAction = "delete"
)

// TransactionSyncMessage announces a transaction change. Upserts carry only
// identifiers and the worker reloads the row; deletes carry the removed
// transaction because the row no longer exists.
type TransactionSyncMessage struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Kind      core.Kind         `json:"kind"`
	Action    SyncAction        `json:"action"`
	Deleted   *core.Transaction `json:"deleted,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewUpsertMessage announces a created or updated transaction.
func NewUpsertMessage(tx core.Transaction) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        tx.ID,
		UserID:    tx.UserID,
		Kind:      tx.Kind,
		Action:    ActionUpsert,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeleteMessage announces a deleted transaction.
func NewDeleteMessage(tx core.Transaction) *TransactionSyncMessage {
	deleted := tx.Clone()
	return &TransactionSyncMessage{
		ID:        tx.ID,
		UserID:    tx.UserID,
		Kind:      tx.Kind,
		Action:    ActionDelete,
		Deleted:   &deleted,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON decodes and validates a message.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.UserID == "" {
		return nil, fmt.Errorf("sync message missing id or userId")
	}
	switch msg.Action {
	case ActionUpsert:
	case ActionDelete:
		if msg.Deleted == nil {
			return nil, fmt.Errorf("delete message %s missing transaction snapshot", msg.ID)
		}
	default:
		return nil, fmt.Errorf("unknown sync action %q", msg.Action)
	}
	return &msg, nil
}
