package window

import (
	"context"
	"sync"
	"time"
)

type memoryBucket struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter implements Counter with an in-process map. It honors the same
// contract as the store-backed adapters, including bucket expiry, and exists
// for tests and single-process deployments.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

var _ Counter = (*MemoryCounter)(nil)

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{buckets: make(map[string]*memoryBucket)}
}

func memoryBucketKey(subjectKey, resourceKey string, g Granularity, start time.Time) string {
	return subjectKey + "#" + resourceKey + "#" + g.Key() + "#" + start.UTC().Format(time.RFC3339Nano)
}

func (c *MemoryCounter) Increment(_ context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error) {
	if err := validateBucketKey(subjectKey, resourceKey, g); err != nil {
		return 0, err
	}

	start := g.StartOf(now)
	key := memoryBucketKey(subjectKey, resourceKey, g, start)

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.buckets[key]
	if !ok || !now.Before(bucket.expiresAt) {
		bucket = &memoryBucket{expiresAt: g.ExpiresAt(start)}
		c.buckets[key] = bucket
	}
	bucket.count++
	return bucket.count, nil
}

func (c *MemoryCounter) Peek(_ context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error) {
	if err := validateBucketKey(subjectKey, resourceKey, g); err != nil {
		return 0, err
	}

	key := memoryBucketKey(subjectKey, resourceKey, g, g.StartOf(now))

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.buckets[key]
	if !ok || !now.Before(bucket.expiresAt) {
		return 0, nil
	}
	return bucket.count, nil
}
