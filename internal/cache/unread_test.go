package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T) (*UnreadCounter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUnreadCounter(client, 30*time.Second), mr
}

func TestUnreadCounter_MissThenHit(t *testing.T) {
	c, mr := newTestCounter(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, gen)

	require.NoError(t, c.Set(ctx, "u1", 4, gen))
	assert.Equal(t, 30*time.Second, mr.TTL("notifications:unread:u1"))

	n, _, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, n)
}

func TestUnreadCounter_Expires(t *testing.T) {
	c, mr := newTestCounter(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u1", 2, 0))
	mr.FastForward(31 * time.Second)

	_, _, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnreadCounter_Invalidate(t *testing.T) {
	c, mr := newTestCounter(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u1", 1, 0))
	require.NoError(t, c.Set(ctx, "u2", 2, 0))
	require.NoError(t, c.Set(ctx, "u3", 3, 0))

	require.NoError(t, c.Invalidate(ctx, "u1", "u2"))
	assert.False(t, mr.Exists("notifications:unread:u1"))
	assert.False(t, mr.Exists("notifications:unread:u2"))
	assert.True(t, mr.Exists("notifications:unread:u3"))
	assert.Equal(t, generationTTL, mr.TTL("notifications:unread_gen:u1"))

	_, gen, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)

	assert.NoError(t, c.Invalidate(ctx))
}

func TestUnreadCounter_SetAfterInvalidateIsDropped(t *testing.T) {
	c, mr := newTestCounter(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)

	// A write lands between the database count and the cache fill.
	require.NoError(t, c.Invalidate(ctx, "u1"))
	require.NoError(t, c.Set(ctx, "u1", 0, gen))
	assert.False(t, mr.Exists("notifications:unread:u1"))

	_, gen, _, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "u1", 1, gen))

	n, _, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestUnreadCounter_CorruptValue(t *testing.T) {
	c, mr := newTestCounter(t)
	require.NoError(t, mr.Set("notifications:unread:u1", "many"))

	_, _, ok, err := c.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestUnreadCounter_RedisDown(t *testing.T) {
	c, mr := newTestCounter(t)
	mr.Close()

	_, _, _, err := c.Get(context.Background(), "u1")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "u1", 1, 0))
	assert.Error(t, c.Invalidate(context.Background(), "u1"))
}
