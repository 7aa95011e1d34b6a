package window

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementWithExpiryScript atomically increments a bucket key and sets its
// expiry on first write, so buckets self-delete after the window closes.
// KEYS[1] = bucket key
// ARGV[1] = expiration in seconds
var incrementWithExpiryScript = redis.NewScript(`
	local current = redis.call('INCRBY', KEYS[1], 1)
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// RedisCounter implements Counter using Redis.
type RedisCounter struct {
	client redis.Cmdable
	prefix string
}

var _ Counter = (*RedisCounter)(nil)

func NewRedisCounter(client redis.Cmdable, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "guard:window:"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) bucketKey(subjectKey, resourceKey string, g Granularity, start time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s:%d", c.prefix, subjectKey, resourceKey, g.Key(), start.UnixMilli())
}

func (c *RedisCounter) Increment(ctx context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateBucketKey(subjectKey, resourceKey, g); err != nil {
		return 0, err
	}

	start := g.StartOf(now)
	key := c.bucketKey(subjectKey, resourceKey, g, start)

	expirySecs := int64(g.ExpiresAt(start).Sub(now).Seconds())
	if expirySecs < 1 {
		expirySecs = 1
	}

	result, err := incrementWithExpiryScript.Run(ctx, c.client, []string{key}, expirySecs).Result()
	if err != nil {
		return 0, WrapError(err, ErrorTypeInternal, "failed to increment window bucket")
	}

	count, ok := result.(int64)
	if !ok {
		return 0, NewError(ErrorTypeInternal, fmt.Sprintf("bucket script returned unexpected type %T", result))
	}
	return count, nil
}

func (c *RedisCounter) Peek(ctx context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateBucketKey(subjectKey, resourceKey, g); err != nil {
		return 0, err
	}

	key := c.bucketKey(subjectKey, resourceKey, g, g.StartOf(now))

	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, WrapError(err, ErrorTypeInternal, "failed to read window bucket")
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, WrapError(err, ErrorTypeInternal, "failed to parse window bucket count")
	}
	return count, nil
}
