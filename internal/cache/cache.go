// Package cache provides the read-through caches used for dashboard
// aggregates: an in-process LRU with TTL and a Redis backed variant shared
// between server replicas.
package cache

import (
	"context"
	"time"

	applog "carteira/internal/log"
)

// Cache defines a generic cache interface. Backend failures are treated as
// misses by implementations; a cache never fails the caller.
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) (T, bool)

	// Set stores a value in the cache
	Set(ctx context.Context, key string, data T)

	// Delete removes keys from the cache
	Delete(ctx context.Context, keys ...string)

	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string)
}

// Manager runs periodic expiry for the in-process caches and reports their
// counters.
type Manager struct {
	caches      []namedCleaner
	logger      *applog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner is a cache that can drop expired entries on demand.
type Cleaner interface {
	CleanExpired() int
	Stats() Stats
}

type namedCleaner struct {
	name string
	Cleaner
}

// NewManager creates a new cache manager
func NewManager(logger *applog.Logger) *Manager {
	return &Manager{
		logger:      logger.WithComponent(applog.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the cleanup pass. name labels its log lines.
func (m *Manager) Register(name string, cache Cleaner) {
	m.caches = append(m.caches, namedCleaner{name: name, Cleaner: cache})
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Expired cache entries removed", applog.FieldCount, n)
			}
			m.logStats()
		case <-m.stopCleanup:
			return
		}
	}
}

// CleanNow runs one cleanup pass over every registered cache.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) logStats() {
	for _, c := range m.caches {
		st := c.Stats()
		m.logger.Debug("Cache stats",
			"cache", c.name,
			"size", st.Size,
			"hits", st.Hits,
			"misses", st.Misses,
			"evictions", st.Evictions,
			"expired", st.Expired)
	}
}

// Stop ends the cleanup goroutine. It must only be called after
// StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
