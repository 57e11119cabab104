package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const statusCacheKey = "ledger:generation-status"

// StatusCache keeps a short-lived copy of the generation-status read model so
// UI polling does not hammer the database. Every mutation invalidates it.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache constructs a StatusCache. A zero ttl defaults to 30 seconds.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatusCache{client: client, ttl: ttl}
}

// Get returns the cached status and whether it was present. A nil cache or
// any redis error reads as a miss.
func (c *StatusCache) Get(ctx context.Context) (GenerationStatus, bool) {
	if c == nil || c.client == nil {
		return GenerationStatus{}, false
	}
	data, err := c.client.Get(ctx, statusCacheKey).Bytes()
	if err != nil {
		return GenerationStatus{}, false
	}
	var status GenerationStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return GenerationStatus{}, false
	}
	return status, true
}

// Set stores the status for the cache TTL. Errors are ignored: the cache is
// an optimisation, never a source of truth.
func (c *StatusCache) Set(ctx context.Context, status GenerationStatus) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, statusCacheKey, data, c.ttl).Err()
}

// Invalidate drops the cached status.
func (c *StatusCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, statusCacheKey).Err()
}
