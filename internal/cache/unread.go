package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	unreadKeyPrefix     = "notifications:unread:"
	generationKeyPrefix = "notifications:unread_gen:"

	// generationTTL outlives any read that started before an invalidation.
	generationTTL = 24 * time.Hour
)

// setIfGeneration stores the count only while the user's generation still
// matches the one observed on the cache miss.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// UnreadCounter caches per-user unread counts in Redis.
//
// Every invalidation bumps a per-user generation. A count read from the
// database is only stored if no invalidation happened since the miss that
// triggered the read, so a write racing a reader cannot leave a stale count
// behind.
type UnreadCounter struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewUnreadCounter(client redis.Cmdable, ttl time.Duration) *UnreadCounter {
	return &UnreadCounter{client: client, ttl: ttl}
}

func unreadKey(userID string) string {
	return unreadKeyPrefix + userID
}

func generationKey(userID string) string {
	return generationKeyPrefix + userID
}

// Get returns the cached count. On a miss ok is false and gen is the user's
// current generation, to be handed back to Set.
func (c *UnreadCounter) Get(ctx context.Context, userID string) (count int, gen int64, ok bool, err error) {
	vals, err := c.client.MGet(ctx, unreadKey(userID), generationKey(userID)).Result()
	if err != nil {
		return 0, 0, false, fmt.Errorf("get unread count for %s: %w", userID, err)
	}

	if raw, present := vals[1].(string); present {
		gen, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, false, fmt.Errorf("decode unread generation %q: %w", raw, err)
		}
	}

	raw, present := vals[0].(string)
	if !present {
		return 0, gen, false, nil
	}
	count, err = strconv.Atoi(raw)
	if err != nil {
		return 0, 0, false, fmt.Errorf("decode unread count %q: %w", raw, err)
	}
	return count, gen, true, nil
}

// Set stores count unless the user was invalidated after the Get that
// returned gen. A skipped write is not an error.
func (c *UnreadCounter) Set(ctx context.Context, userID string, count int, gen int64) error {
	err := setIfGeneration.Run(ctx, c.client,
		[]string{unreadKey(userID), generationKey(userID)},
		strconv.FormatInt(gen, 10), count, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("set unread count for %s: %w", userID, err)
	}
	return nil
}

// Invalidate drops the cached counts of every given user and bumps their
// generations.
func (c *UnreadCounter) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Expire(ctx, generationKey(id), generationTTL)
			pipe.Del(ctx, unreadKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate unread counts: %w", err)
	}
	return nil
}
