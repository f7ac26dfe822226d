// Package cache provides a Redis-backed cache for rendered session
// attendance views.  The cache is best-effort: when Redis is down or
// unconfigured every lookup is a miss and the services read straight
// from the database.
package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttendanceViews caches marshaled session attendance views under a
// short TTL and supports invalidation by session id after writes.
type AttendanceViews struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAttendanceViews builds the cache.  rdb may be nil, in which case
// every operation is a no-op.
func NewAttendanceViews(rdb *redis.Client, ttl time.Duration) *AttendanceViews {
	return &AttendanceViews{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID uint64) string {
	return fmt.Sprintf("attendance:view:session:%d", sessionID)
}

// GetSession returns the cached payload for a session view, if present.
func (c *AttendanceViews) GetSession(ctx context.Context, sessionID uint64) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get session %d: %v", sessionID, err)
		}
		return nil, false
	}
	return payload, true
}

// SetSession stores a rendered session view under the configured TTL.
func (c *AttendanceViews) SetSession(ctx context.Context, sessionID uint64, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, sessionKey(sessionID), payload, c.ttl).Err(); err != nil {
		log.Printf("cache: set session %d: %v", sessionID, err)
	}
}

// InvalidateSession drops the cached view after an attendance write so
// the next read reflects the new record.
func (c *AttendanceViews) InvalidateSession(ctx context.Context, sessionID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		log.Printf("cache: invalidate session %d: %v", sessionID, err)
	}
}
