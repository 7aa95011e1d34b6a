package window

import (
	"fmt"
	"os"
	"time"
)

// BucketEntry tracks one fixed-window usage bucket in DynamoDB.
//
// Storage key shape:
//   - PK: {subject_key}#{granularity}#{window_start_unix_ms}
//   - SK: {resource_key}
type BucketEntry struct {
	PK string `theorydb:"pk" json:"pk"`
	SK string `theorydb:"sk" json:"sk"`

	SubjectKey  string `json:"subject_key"`
	ResourceKey string `json:"resource_key"`

	WindowKey   string `json:"window_key"`
	WindowStart int64  `json:"window_start"`

	Count int64 `json:"count"`

	TTL int64 `theorydb:"ttl" json:"ttl"`

	CreatedAt time.Time `theorydb:"created_at" json:"created_at"`
	UpdatedAt time.Time `theorydb:"updated_at" json:"updated_at"`
}

func (b *BucketEntry) SetKeys() {
	b.PK = fmt.Sprintf("%s#%s#%d", b.SubjectKey, b.WindowKey, b.WindowStart)
	b.SK = b.ResourceKey
}

func (BucketEntry) TableName() string {
	if name := os.Getenv("GUARDTHEORY_WINDOW_TABLE_NAME"); name != "" {
		return name
	}
	return "guard-window-buckets"
}

func newBucketEntry(subjectKey, resourceKey string, g Granularity, start time.Time) *BucketEntry {
	entry := &BucketEntry{
		SubjectKey:  subjectKey,
		ResourceKey: resourceKey,
		WindowKey:   g.Key(),
		WindowStart: start.UnixMilli(),
	}
	entry.SetKeys()
	return entry
}
