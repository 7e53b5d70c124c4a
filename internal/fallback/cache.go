// Package fallback makes REST-sourced baseline data resilient to upstream
// failure: a persisted read-through cache with a validity window, backed
// by a static last-resort asset list so consumers never render empty.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"coinpulse/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable means every tier failed: no fresh cache, no live fetch,
// no stale cache.
var ErrUnavailable = errors.New("fallback: no data available")

// Tier reports which tier satisfied a read-through.
type Tier int

const (
	TierCache Tier = iota // persisted entry within its validity window
	TierLive              // fresh upstream fetch
	TierStale             // persisted entry past its validity window
)

func (t Tier) String() string {
	switch t {
	case TierCache:
		return "cache"
	case TierLive:
		return "live"
	case TierStale:
		return "stale"
	default:
		return "unknown"
	}
}

// entry is the persisted shape: payload plus its write time in epoch ms.
type entry struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// RedisClient is the slice of the redis API the cache needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Cache is a read-through cache over a persisted store. Entries survive
// process restarts; staleness past the TTL is a degraded mode, not a
// failure, so entries are kept well beyond it.
type Cache struct {
	redis RedisClient
	ttl   time.Duration
	now   func() time.Time
}

// retention bounds how long a stale entry stays usable as a last resort.
const retention = 7 * 24 * time.Hour

func NewCache(redisClient RedisClient, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &Cache{redis: redisClient, ttl: ttl, now: time.Now}
}

// Read returns the entry payload and its age. ok is false on a miss or an
// undecodable entry; age beyond the TTL does not make ok false.
func (c *Cache) Read(ctx context.Context, key string) (json.RawMessage, time.Duration, bool) {
	if c.redis == nil {
		return nil, 0, false
	}

	raw, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, 0, false
	}
	if err != nil {
		log.Printf("fallback: cache read error for %s: %v", key, err)
		return nil, 0, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		log.Printf("fallback: corrupt cache entry for %s: %v", key, err)
		return nil, 0, false
	}
	age := c.now().Sub(time.UnixMilli(e.Timestamp))
	return e.Data, age, true
}

// Write persists a payload under key, stamped with the current time.
func (c *Cache) Write(ctx context.Context, key string, data []byte) error {
	if c.redis == nil {
		return nil
	}

	e := entry{Timestamp: c.now().UnixMilli(), Data: data}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, key, raw, retention).Err()
}

// ReadThrough serves key with the three-tier policy: fresh cache without a
// network call; otherwise fetch and persist; on fetch failure any cached
// entry regardless of age. Only a miss on every tier returns an error.
func (c *Cache) ReadThrough(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, Tier, error) {
	data, age, ok := c.Read(ctx, key)
	if ok && age < c.ttl {
		return data, TierCache, nil
	}

	fresh, err := fetch(ctx)
	if err == nil {
		if werr := c.Write(ctx, key, fresh); werr != nil {
			log.Printf("fallback: cache write error for %s: %v", key, werr)
		}
		return fresh, TierLive, nil
	}
	log.Printf("fallback: fetch failed for %s, falling back: %v", key, err)

	if ok {
		return data, TierStale, nil
	}
	return nil, 0, fmt.Errorf("%w: %s", ErrUnavailable, key)
}

// StaticSnapshots is the last-resort asset list: zero-priced snapshots for
// every well-known asset, so a cold start with no network still renders a
// populated asset table.
func StaticSnapshots() []domain.AssetSnapshot {
	snaps := make([]domain.AssetSnapshot, 0, len(domain.SupportedAssets))
	for _, assetID := range domain.SupportedAssets {
		snaps = append(snaps, domain.AssetSnapshot{
			AssetID: assetID,
			Source:  domain.SourceFallback,
		})
	}
	return snaps
}
