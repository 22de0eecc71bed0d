package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v1", 0))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	require.NoError(t, m.Set(ctx, "k", "v2", 0))
	got, _ = m.Get(ctx, "k")
	assert.Equal(t, "v2", got)

	require.NoError(t, m.Del(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiredGetKeepsFreshSet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	var during func()
	m.now = func() time.Time {
		if f := during; f != nil {
			during = nil
			f()
		}
		return now
	}

	require.NoError(t, m.Set(ctx, "k", "v1", time.Minute))
	now = now.Add(2 * time.Minute)

	// a writer lands between the stale read and the expiry delete
	during = func() { require.NoError(t, m.Set(ctx, "k", "v2", time.Minute)) }
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	got, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestMemorySetSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "short", "v", time.Minute))
	require.NoError(t, m.Set(ctx, "forever", "v", 0))
	require.NoError(t, m.Set(ctx, "long", "v", time.Hour))

	now = now.Add(2 * time.Minute)
	require.NoError(t, m.Set(ctx, "fresh", "v", time.Minute))

	assert.Len(t, m.entries, 3)
	assert.NotContains(t, m.entries, "short")

	// sweeps are spaced out
	now = now.Add(30 * time.Second)
	require.NoError(t, m.Set(ctx, "other", "v", time.Second))
	now = now.Add(2 * time.Second)
	require.NoError(t, m.Set(ctx, "another", "v", 0))
	assert.Contains(t, m.entries, "other")
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart:local:u-1", CartKey("u-1"))
	assert.Equal(t, "cart:local:anonymous", CartKey(""))
}
