// Package memory is an in-process implementation of ports.Store. It is the
// default backend for local development and backs the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
	"carteira/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type syncState int

const (
	syncPending syncState = iota
	syncDone
	syncFailed
)

type categoryKey struct {
	userID string
	kind   core.Kind
	id     string
}

type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	txs        map[string]core.Transaction
	syncState  map[string]syncState
	categories map[categoryKey]core.Category
	users      map[string]core.User
	settings   map[string]core.Settings
	backups    map[string]core.Backup
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		txs:        make(map[string]core.Transaction),
		syncState:  make(map[string]syncState),
		categories: make(map[categoryKey]core.Category),
		users:      make(map[string]core.User),
		settings:   make(map[string]core.Settings),
		backups:    make(map[string]core.Backup),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListTransactions(_ context.Context, userID string, kind core.Kind, period *core.DateRange) ([]core.Transaction, error) {
	return s.filter(func(tx core.Transaction) bool {
		return tx.UserID == userID && tx.Kind == kind && (period == nil || period.Contains(tx.Date))
	}), nil
}

func (s *Store) ListTransactionsByCategory(_ context.Context, userID string, kind core.Kind, category string) ([]core.Transaction, error) {
	return s.filter(func(tx core.Transaction) bool {
		return tx.UserID == userID && tx.Kind == kind && tx.Category == category
	}), nil
}

func (s *Store) filter(keep func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.txs {
		if keep(tx) {
			out = append(out, tx.Clone())
		}
	}
	sortTransactions(out)
	return out
}

func sortTransactions(txs []core.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx.Clone(), nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx = tx.Clone()
	tx.ID = uuid.NewString()
	tx.CreatedAt = s.now().UTC()
	tx.UpdatedAt = tx.CreatedAt
	s.txs[tx.ID] = tx
	s.syncState[tx.ID] = syncPending
	return tx.Clone(), nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	updated, err := patch.Apply(tx)
	if err != nil {
		return core.Transaction{}, err
	}
	updated.UpdatedAt = s.now().UTC()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}
	s.txs[id] = updated
	s.syncState[id] = syncPending
	return updated.Clone(), nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	delete(s.txs, id)
	delete(s.syncState, id)
	return tx, nil
}

func (s *Store) ListCategories(_ context.Context, userID string, kind core.Kind) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for k, c := range s.categories {
		if k.userID == userID && k.kind == kind {
			out = append(out, cloneCategory(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, userID string, kind core.Kind, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryKey{userID, kind, id}]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return cloneCategory(c), nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := categoryKey{c.UserID, c.Type, c.ID}
	if _, exists := s.categories[key]; exists {
		return core.Category{}, core.ErrConflict
	}
	s.categories[key] = cloneCategory(c)
	return cloneCategory(c), nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := categoryKey{c.UserID, c.Type, c.ID}
	if _, exists := s.categories[key]; !exists {
		return core.Category{}, core.ErrNotFound
	}
	s.categories[key] = cloneCategory(c)
	return cloneCategory(c), nil
}

func (s *Store) DeleteCategory(_ context.Context, userID string, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := categoryKey{userID, kind, id}
	if _, exists := s.categories[key]; !exists {
		return core.ErrNotFound
	}
	delete(s.categories, key)
	return nil
}

func cloneCategory(c core.Category) core.Category {
	if c.Budget != nil {
		b := *c.Budget
		c.Budget = &b
	}
	return c
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return core.User{}, core.ErrConflict
	}
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return core.Settings{}, core.ErrNotFound
	}
	return st, nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.UserID] = st
	return nil
}

func (s *Store) SaveBackup(_ context.Context, b core.Backup) error {
	if b.ID == "" || b.UserID == "" {
		return core.NewValidationError("backup", "id and userId are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backups[b.ID] = b
	return nil
}

func (s *Store) GetBackup(_ context.Context, userID, id string) (core.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.backups[id]
	if !ok || b.UserID != userID {
		return core.Backup{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBackups(_ context.Context, userID string) ([]core.BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.BackupInfo, 0)
	for _, b := range s.backups {
		if b.UserID == userID {
			out = append(out, b.Info())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string) error {
	return s.setSync(id, syncDone)
}

func (s *Store) MarkSyncError(_ context.Context, id string) error {
	return s.setSync(id, syncFailed)
}

func (s *Store) setSync(id string, state syncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return core.ErrNotFound
	}
	s.syncState[id] = state
	return nil
}

// ListPendingSync returns transactions never exported or changed since the
// last export, oldest update first.
func (s *Store) ListPendingSync(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for id, st := range s.syncState {
		if st == syncPending {
			out = append(out, s.txs[id].Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
