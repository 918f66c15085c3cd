package memcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/pkg/errors"
)

func TestCache_SetGet(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, 0))

	var got map[string]int
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, 1, got["a"])

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), errors.ErrNotFound)
}

func TestCache_Expiry(t *testing.T) {
	c := New()
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "token", true, time.Minute))
	ok, err := c.Exists(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = c.Exists(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)

	var v bool
	assert.ErrorIs(t, c.Get(ctx, "token", &v), errors.ErrNotFound)
}

func TestCache_EvictsExpiredEntries(t *testing.T) {
	c := New()
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "read", 1, time.Second))
	require.NoError(t, c.Set(ctx, "unread", 2, time.Second))
	require.NoError(t, c.Set(ctx, "forever", 3, 0))
	assert.Equal(t, 3, c.size())

	now = now.Add(2 * time.Second)
	var v int
	assert.ErrorIs(t, c.Get(ctx, "read", &v), errors.ErrNotFound)
	assert.Equal(t, 2, c.size())

	now = now.Add(sweepEvery)
	require.NoError(t, c.Set(ctx, "fresh", 4, time.Minute))
	assert.Equal(t, 2, c.size())

	require.NoError(t, c.Get(ctx, "forever", &v))
	assert.Equal(t, 3, v)
}
