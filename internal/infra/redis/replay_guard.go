package redis

import (
	"context"
	"time"

	"telegram-course-store/internal/domain/ports/adapter"
)

var _ adapter.ReplayGuard = (*ReplayGuard)(nil)

// ReplayGuard deduplicates single-use init-data hashes with SETNX + TTL.
// Living in Redis, the guard survives process restarts, unlike an
// in-process map with manual sweeping.
type ReplayGuard struct {
	client RedisClient
}

func NewReplayGuard(client RedisClient) *ReplayGuard {
	return &ReplayGuard{client: client}
}

func (g *ReplayGuard) FirstUse(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return g.client.SetNX(ctx, "initdata:"+key, 1, ttl)
}
