package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracker := NewTrackerFromRedis(client)
	t.Cleanup(func() { tracker.Close() })
	return tracker, mr
}

func TestJoinAndLeave(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	n, err := tracker.Join(ctx, "room-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = tracker.Join(ctx, "room-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Rejoining is idempotent.
	n, err = tracker.Join(ctx, "room-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = tracker.Leave(ctx, "room-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	members, err := tracker.Members(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, members)
}

func TestCountPerRoom(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.Join(ctx, "room-1", "alice")
	require.NoError(t, err)
	_, err = tracker.Join(ctx, "room-2", "alice")
	require.NoError(t, err)
	_, err = tracker.Join(ctx, "room-2", "bob")
	require.NoError(t, err)

	n, err := tracker.Count(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = tracker.Count(ctx, "room-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = tracker.Count(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLastSeenExpires(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.Join(ctx, "room-1", "alice")
	require.NoError(t, err)

	require.True(t, mr.Exists("presence:seen:room-1"))
	ttl := mr.TTL("presence:seen:room-1")
	assert.Positive(t, ttl)
}
