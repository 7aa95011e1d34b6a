package window

import (
	"context"
	"time"

	tablecore "github.com/theory-cloud/tabletheory/pkg/core"
	tableerrors "github.com/theory-cloud/tabletheory/pkg/errors"
)

// DynamoCounter implements Counter using DynamoDB via TableTheory.
//
// Increment is a single upsert: ADD on Count with SetIfNotExists for the
// bucket attributes, so the first writer and a racing second writer both
// resolve to the same row without a separate create step.
type DynamoCounter struct {
	db tablecore.DB
}

var _ Counter = (*DynamoCounter)(nil)

func NewDynamoCounter(db tablecore.DB) *DynamoCounter {
	return &DynamoCounter{db: db}
}

func (c *DynamoCounter) Increment(ctx context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateBucketKey(subjectKey, resourceKey, g); err != nil {
		return 0, err
	}

	start := g.StartOf(now)
	entry := newBucketEntry(subjectKey, resourceKey, g, start)

	var result BucketEntry
	err := c.db.Model(&BucketEntry{}).
		WithContext(ctx).
		Where("PK", "=", entry.PK).
		Where("SK", "=", entry.SK).
		UpdateBuilder().
		Add("Count", int64(1)).
		SetIfNotExists("SubjectKey", nil, subjectKey).
		SetIfNotExists("ResourceKey", nil, resourceKey).
		SetIfNotExists("WindowKey", nil, entry.WindowKey).
		SetIfNotExists("WindowStart", nil, entry.WindowStart).
		SetIfNotExists("TTL", nil, g.ExpiresAt(start).Unix()).
		SetIfNotExists("CreatedAt", nil, now).
		Set("UpdatedAt", now).
		ExecuteWithResult(&result)
	if err != nil {
		return 0, WrapError(err, ErrorTypeInternal, "failed to increment window bucket")
	}

	return result.Count, nil
}

func (c *DynamoCounter) Peek(ctx context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateBucketKey(subjectKey, resourceKey, g); err != nil {
		return 0, err
	}

	entry := newBucketEntry(subjectKey, resourceKey, g, g.StartOf(now))

	var record BucketEntry
	err := c.db.Model(&BucketEntry{}).
		WithContext(ctx).
		Where("PK", "=", entry.PK).
		Where("SK", "=", entry.SK).
		First(&record)
	if err != nil {
		if tableerrors.IsNotFound(err) {
			return 0, nil
		}
		return 0, WrapError(err, ErrorTypeInternal, "failed to read window bucket")
	}

	return record.Count, nil
}
