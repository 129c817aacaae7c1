package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	applog "carteira/internal/log"
)

// Generations tracks a per-owner counter bumped on every invalidation.
// Readers embed the counter in their cache keys, so a value computed before
// an invalidation is written under a key no later reader asks for.
type Generations interface {
	Current(ctx context.Context, owner string) uint64
	Bump(ctx context.Context, owner string)
}

var (
	_ Generations = (*LocalGenerations)(nil)
	_ Generations = (*RedisGenerations)(nil)
)

// LocalGenerations keeps the counters in process memory.
type LocalGenerations struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func NewLocalGenerations() *LocalGenerations {
	return &LocalGenerations{gens: make(map[string]uint64)}
}

func (g *LocalGenerations) Current(_ context.Context, owner string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[owner]
}

func (g *LocalGenerations) Bump(_ context.Context, owner string) {
	g.mu.Lock()
	g.gens[owner]++
	g.mu.Unlock()
}

// RedisGenerations keeps the counters in Redis so every replica sees the
// same generation.
type RedisGenerations struct {
	client    redis.UniversalClient
	namespace string
	logger    *applog.Logger
}

func NewRedisGenerations(client redis.UniversalClient, namespace string, logger *applog.Logger) *RedisGenerations {
	return &RedisGenerations{
		client:    client,
		namespace: namespace,
		logger:    logger.WithComponent(applog.ComponentCache),
	}
}

func (g *RedisGenerations) key(owner string) string {
	return g.namespace + ":" + owner
}

// Current returns 0 for owners never bumped. On Redis errors it also returns
// 0; the cache calls that follow fail the same way and count as misses.
func (g *RedisGenerations) Current(ctx context.Context, owner string) uint64 {
	n, err := g.client.Get(ctx, g.key(owner)).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		g.logger.WarnContext(ctx, "Redis generation read failed", "owner", owner, applog.FieldError, err)
	}
	return n
}

func (g *RedisGenerations) Bump(ctx context.Context, owner string) {
	if err := g.client.Incr(ctx, g.key(owner)).Err(); err != nil {
		g.logger.WarnContext(ctx, "Redis generation bump failed", "owner", owner, applog.FieldError, err)
	}
}
