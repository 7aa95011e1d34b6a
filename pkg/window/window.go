// Package window provides the shared fixed-window counter primitive used by
// rate limiting and quota enforcement.
//
// Windows are epoch-aligned, not sliding: duration-based granularities floor
// the clock to a multiple of the window length, calendar granularities align
// to UTC day/week/month boundaries. Counters are backed by atomic
// increment-or-create store operations and self-expire, so no sweeper runs.
package window

import (
	"fmt"
	"time"
)

// Granularity identifies how window boundaries are derived from wall-clock
// time. The zero value is invalid.
type Granularity struct {
	name string
	step time.Duration // 0 for calendar-aligned granularities
}

var (
	Minute = Granularity{name: "minute", step: time.Minute}
	Hour   = Granularity{name: "hour", step: time.Hour}
	Day    = Granularity{name: "day"}
	Week   = Granularity{name: "week"}
	Month  = Granularity{name: "month"}
)

// Custom returns a duration-based granularity, for per-route rate limit
// windows expressed in milliseconds.
func Custom(d time.Duration) Granularity {
	return Granularity{name: fmt.Sprintf("custom_%dms", d.Milliseconds()), step: d}
}

// ParseGranularity maps the closed set of quota window names.
func ParseGranularity(name string) (Granularity, error) {
	switch name {
	case "minute":
		return Minute, nil
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	default:
		return Granularity{}, fmt.Errorf("unknown window granularity %q", name)
	}
}

// Key returns the stable identifier persisted with each bucket.
func (g Granularity) Key() string {
	return g.name
}

func (g Granularity) IsZero() bool {
	return g.name == ""
}

// StartOf returns the canonical window start containing now.
//
// Duration granularities floor UnixNano to a multiple of the window length.
// Day/week/month align to UTC calendar boundaries; weeks start Monday 00:00
// UTC.
func (g Granularity) StartOf(now time.Time) time.Time {
	switch g.name {
	case "day":
		utc := now.UTC()
		return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	case "week":
		utc := now.UTC()
		midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(midnight.Weekday()) + 6) % 7 // Monday-based
		return midnight.AddDate(0, 0, -offset)
	case "month":
		utc := now.UTC()
		return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		if g.step <= 0 {
			return now
		}
		stepNanos := g.step.Nanoseconds()
		startNanos := (now.UnixNano() / stepNanos) * stepNanos
		return time.Unix(0, startNanos).UTC()
	}
}

// EndOf returns the exclusive end of the window starting at start.
func (g Granularity) EndOf(start time.Time) time.Time {
	switch g.name {
	case "day":
		return start.AddDate(0, 0, 1)
	case "week":
		return start.AddDate(0, 0, 7)
	case "month":
		return start.AddDate(0, 1, 0)
	default:
		return start.Add(g.step)
	}
}

// expiryBuffer keeps buckets around comfortably past the window end so
// in-flight increments never race bucket expiry.
const expiryBuffer = time.Hour

// ExpiresAt returns when a bucket for the window starting at start may be
// reclaimed by the store.
func (g Granularity) ExpiresAt(start time.Time) time.Time {
	return g.EndOf(start).Add(expiryBuffer)
}
