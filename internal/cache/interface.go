package cache

import (
	"context"
	"time"
)

// EventDeduper remembers webhook event ids so redeliveries are handled once.
type EventDeduper interface {
	// MarkSeen records id and reports whether this is its first sighting.
	MarkSeen(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Close() error
}
