// Package presence provides Redis-backed per-room subscriber presence.
//
// Designed for multiple hub instances writing concurrently.
//
// Redis Key Structure:
//
//	presence:room:{room_id}          - Set of user IDs currently subscribed
//	presence:seen:{room_id}          - Hash of user ID -> last join timestamp (expires 24h)
package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker records and reports room presence.
type Tracker struct {
	redis *redis.Client
}

// NewTracker connects to Redis and verifies the connection.
func NewTracker(redisURL string) (*Tracker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Tracker{redis: client}, nil
}

// NewTrackerFromRedis wraps an existing Redis connection. Used by tests with
// miniredis.
func NewTrackerFromRedis(client *redis.Client) *Tracker {
	return &Tracker{redis: client}
}

// Join records that userID subscribed to roomID and returns the new
// subscriber count.
func (t *Tracker) Join(ctx context.Context, roomID, userID string) (int64, error) {
	roomKey := roomSetKey(roomID)
	seenKey := seenKey(roomID)
	now := strconv.FormatInt(time.Now().Unix(), 10)

	pipe := t.redis.Pipeline()
	pipe.SAdd(ctx, roomKey, userID)
	pipe.HSet(ctx, seenKey, userID, now)
	pipe.Expire(ctx, seenKey, 24*time.Hour)
	card := pipe.SCard(ctx, roomKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record join: %w", err)
	}

	return card.Val(), nil
}

// Leave records that userID unsubscribed from roomID and returns the
// remaining subscriber count.
func (t *Tracker) Leave(ctx context.Context, roomID, userID string) (int64, error) {
	roomKey := roomSetKey(roomID)

	pipe := t.redis.Pipeline()
	pipe.SRem(ctx, roomKey, userID)
	card := pipe.SCard(ctx, roomKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record leave: %w", err)
	}

	return card.Val(), nil
}

// Count returns the current subscriber count for a room.
func (t *Tracker) Count(ctx context.Context, roomID string) (int64, error) {
	n, err := t.redis.SCard(ctx, roomSetKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count presence: %w", err)
	}
	return n, nil
}

// Members returns the user IDs currently subscribed to a room.
func (t *Tracker) Members(ctx context.Context, roomID string) ([]string, error) {
	members, err := t.redis.SMembers(ctx, roomSetKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}
	return members, nil
}

// Close releases the Redis connection.
func (t *Tracker) Close() error {
	return t.redis.Close()
}

func roomSetKey(roomID string) string {
	return "presence:room:" + roomID
}

func seenKey(roomID string) string {
	return "presence:seen:" + roomID
}
