package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores serialized derived artifacts keyed by entity. Each entry
// carries the marker of the source state it was derived from: a lookup with a
// different marker is a miss, so a stale artifact can never be served for a
// mutated entity even before its invalidation lands.
type Cache interface {
	Get(ctx context.Context, key string, marker string) ([]byte, bool)
	Put(ctx context.Context, key string, marker string, artifact []byte) error
	Invalidate(ctx context.Context, key string) error
}

// JobKey is the cache key for one job's derived analytics.
func JobKey(jobID int64) string {
	return fmt.Sprintf("job:%d", jobID)
}

// DayKey is the cache key for a daily summary. Day summaries are cached
// without a marker and invalidated coarsely whenever a job closing on that
// day mutates.
func DayKey(date time.Time) string {
	return fmt.Sprintf("day:%s", date.UTC().Format("2006-01-02"))
}

// NoMarker marks entries whose freshness is guaranteed by invalidation
// alone, such as daily summaries.
const NoMarker = ""
