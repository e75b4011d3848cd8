// Tiered cache (L0 in-flight / L1 memory / L2 durable) sitting in front of
// the provider call. Built on the internal/infra/redis.go client and the
// same TTL/Expire usage as internal/modules/matching/store.go, here applied
// to candidate-list caching instead of dispatch bookkeeping.
package places

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"platefinder/internal/search"
)

// TieredCache implements the L0/L1/L2 lookup-then-populate sequence: check
// L0 -> L1 -> L2 in order; on a miss, Fetch calls the supplied load function
// itself and writes the result back to L2 and then L1.
type TieredCache struct {
	l0     singleflight.Group
	l1     *l1Cache
	redis  *redis.Client
	logger *zap.Logger

	l2TTL           time.Duration
	l2OpenNowTTL    time.Duration
}

// NewTieredCache constructs the cache. redisClient may be nil, in which case
// L2 is skipped silently and every miss falls through to L1-only caching.
func NewTieredCache(redisClient *redis.Client, l1Capacity int, l1TTL, l2TTL, l2OpenNowTTL time.Duration, logger *zap.Logger) *TieredCache {
	return &TieredCache{
		l1:           newL1Cache(l1Capacity, l1TTL),
		redis:        redisClient,
		logger:       logger,
		l2TTL:        l2TTL,
		l2OpenNowTTL: l2OpenNowTTL,
	}
}

// Fetch returns cached candidates for params, or calls load() on a miss.
// Concurrent identical requests coalesce through L0 (golang.org/x/sync/singleflight).
func (c *TieredCache) Fetch(ctx context.Context, params search.ProviderParameters, load func(context.Context) ([]search.PlaceCandidate, error)) ([]search.PlaceCandidate, error) {
	key := deriveCacheKey(params)

	c.logger.Info("place_cache", zap.String("event", "wrap_enter"), zap.String("keyHash", key.Hash()))
	start := time.Now()
	v, err, shared := c.l0.Do(key.Full(), func() (any, error) {
		if candidates, ok := c.readL1(key); ok {
			c.logger.Info("place_cache", zap.String("event", "hit"), zap.String("tier", "L1"), zap.String("keyHash", key.Hash()))
			return candidates, nil
		}
		if candidates, ok := c.readL2(ctx, key); ok {
			c.logger.Info("place_cache", zap.String("event", "hit"), zap.String("tier", "L2"), zap.String("keyHash", key.Hash()))
			c.l1.set(key.Full(), mustMarshal(candidates))
			return candidates, nil
		}
		c.logger.Info("place_cache", zap.String("event", "miss"), zap.String("keyHash", key.Hash()))
		candidates, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, params, candidates)
		return candidates, nil
	})
	c.logger.Info("place_cache", zap.String("event", "wrap_exit"), zap.String("keyHash", key.Hash()),
		zap.Int64("elapsedMs", time.Since(start).Milliseconds()), zap.Bool("l0Shared", shared), zap.Bool("error", err != nil))
	if err != nil {
		return nil, err
	}
	return v.([]search.PlaceCandidate), nil
}

func (c *TieredCache) readL1(key CacheKey) ([]search.PlaceCandidate, bool) {
	raw, ok := c.l1.get(key.Full())
	if !ok {
		return nil, false
	}
	var out []search.PlaceCandidate
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *TieredCache) readL2(ctx context.Context, key CacheKey) ([]search.PlaceCandidate, bool) {
	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, l2RedisKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []search.PlaceCandidate
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

// store writes L2 then L1, best-effort: a failed L2 write is logged and the
// request continues with in-memory caching only.
func (c *TieredCache) store(ctx context.Context, key CacheKey, params search.ProviderParameters, candidates []search.PlaceCandidate) {
	payload := mustMarshal(candidates)

	if c.redis != nil {
		ttl := c.l2TTL
		if params.OpenNow {
			ttl = c.l2OpenNowTTL
		}
		if err := c.redis.Set(ctx, l2RedisKey(key), payload, ttl).Err(); err != nil {
			c.logger.Warn("place_cache", zap.String("event", "store_failed"), zap.String("tier", "L2"), zap.String("keyHash", key.Hash()), zap.Error(err))
		} else {
			c.logger.Info("place_cache", zap.String("event", "store"), zap.String("tier", "L2"), zap.String("keyHash", key.Hash()))
		}
	}
	c.l1.set(key.Full(), payload)
}

func l2RedisKey(key CacheKey) string {
	return "places:l2:" + key.Full()
}

func mustMarshal(v []search.PlaceCandidate) []byte {
	b, _ := json.Marshal(v)
	return b
}
