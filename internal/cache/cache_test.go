package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "carteira/internal/log"
)

type report struct {
	Total int64 `json:"total"`
}

func TestLRUCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[report](2, time.Minute)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	c.Set(ctx, "a", report{Total: 1})
	c.Set(ctx, "b", report{Total: 2})
	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Total)

	// "b" is now least recently used
	c.Set(ctx, "c", report{Total: 3})
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())

	c.Set(ctx, "a", report{Total: 10})
	got, _ = c.Get(ctx, "a")
	assert.Equal(t, int64(10), got.Total)
}

func TestLRUCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	now = now.Add(30 * time.Second)
	c.Set(ctx, "c", 3)

	now = now.Add(45 * time.Second)
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
	v, ok := c.Get(ctx, "c")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](10, time.Minute)
	c.Set(ctx, "report:u1:2024-03", 1)
	c.Set(ctx, "report:u1:2024-04", 2)
	c.Set(ctx, "report:u2:2024-03", 3)
	c.Set(ctx, "summary:u1", 4)

	c.DeletePrefix(ctx, "report:u1:")
	assert.Equal(t, 2, c.Size())
	_, ok := c.Get(ctx, "report:u2:2024-03")
	assert.True(t, ok)

	c.Delete(ctx, "summary:u1", "missing")
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_Stats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](2, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1)
	c.Get(ctx, "a")
	c.Get(ctx, "missing")
	c.Set(ctx, "b", 2)
	c.Set(ctx, "c", 3) // evicts "a"
	now = now.Add(2 * time.Minute)
	c.Get(ctx, "b")

	st := c.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
	assert.Equal(t, int64(1), st.Evictions)
	assert.Equal(t, int64(1), st.Expired)
	assert.Equal(t, 1, st.Size)
}

func TestManager_CleanNow(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	a := NewLRUCache[int](10, time.Second)
	a.now = func() time.Time { return now }
	a.Set(ctx, "x", 1)
	now = now.Add(2 * time.Second)

	m := NewManager(applog.Discard())
	m.Register("test", a)
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
}

// Runs against a real server when CARTEIRA_TEST_REDIS_URL is set, e.g.
// redis://localhost:6379/15
func TestRedisCache(t *testing.T) {
	url := os.Getenv("CARTEIRA_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CARTEIRA_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	c := NewRedisCache[report](client, "carteira-test-"+time.Now().Format("150405.000000"), time.Minute, applog.Discard())

	c.Set(ctx, "report:u1:2024-03", report{Total: 42})
	c.Set(ctx, "report:u1:2024-04", report{Total: 43})
	got, ok := c.Get(ctx, "report:u1:2024-03")
	require.True(t, ok)
	assert.Equal(t, int64(42), got.Total)

	c.DeletePrefix(ctx, "report:u1:")
	_, ok = c.Get(ctx, "report:u1:2024-04")
	assert.False(t, ok)

	// glob characters in the prefix match literally
	c.Set(ctx, "report:u1:2024-05", report{Total: 44})
	c.DeletePrefix(ctx, "report:u?:")
	c.DeletePrefix(ctx, "report:*")
	_, ok = c.Get(ctx, "report:u1:2024-05")
	assert.True(t, ok)

	c.Set(ctx, "k", report{Total: 1})
	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"carteira:summary:u1:", "carteira:summary:u1:"},
		{"u*", `u\*`},
		{"u?", `u\?`},
		{"[ab]", `\[ab\]`},
		{`a\b`, `a\\b`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeGlob(tt.in), tt.in)
	}
}

func TestLocalGenerations(t *testing.T) {
	ctx := context.Background()
	g := NewLocalGenerations()

	assert.Equal(t, uint64(0), g.Current(ctx, "u1"))
	g.Bump(ctx, "u1")
	g.Bump(ctx, "u1")
	assert.Equal(t, uint64(2), g.Current(ctx, "u1"))
	assert.Equal(t, uint64(0), g.Current(ctx, "u2"))
}
