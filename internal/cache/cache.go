package cache

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"promogen-go/internal/monitoring"
)

// KV is the key/value store backing the cache. Writes are whole-value
// replacements; expiry is the store's concern.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache memoizes idempotent, side-effect-free operations under a
// fingerprint key. Concurrent identical requests are not collapsed; both
// compute and the cache converges on whichever write lands last.
type Cache struct {
	kv  KV
	ttl time.Duration
}

func New(kv KV, ttl time.Duration) *Cache {
	return &Cache{kv: kv, ttl: ttl}
}

// GetOrCompute returns the cached value for fingerprint, or runs compute
// and stores its result. Failed computations are never stored, so a
// transient provider error cannot poison future identical requests. The
// second return reports whether the value came from the cache.
func (c *Cache) GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if v, ok, err := c.kv.Get(ctx, fingerprint); err != nil {
		// A broken cache must not fail the request; fall through to compute.
		log.WithError(err).WithField("fingerprint", fingerprint).Warn("cache get failed")
	} else if ok {
		monitoring.CacheHitsTotal.Inc()
		return v, true, nil
	}
	monitoring.CacheMissesTotal.Inc()

	v, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := c.kv.Set(ctx, fingerprint, v, c.ttl); err != nil {
		log.WithError(err).WithField("fingerprint", fingerprint).Warn("cache set failed")
	}
	return v, false, nil
}
