package enhance

import (
	"context"
	"time"

	"github.com/slizzai/slizzai/pkg/cache"
	"github.com/slizzai/slizzai/pkg/observability"
)

const cacheKeyType = "enhance"

// Cached wraps an Enhancer with a result cache. Identical raw tiles are
// enhanced once. Cache failures are ignored; they only cost a call.
type Cached struct {
	inner Enhancer
	cache cache.Cache
	keyer cache.Keyer
	opts  cache.EnhanceKeyOpts
	ttl   time.Duration
	hooks observability.CacheHooks
}

// NewCached wraps inner. A nil cache disables caching, a nil keyer uses
// cache.DefaultKeyer, a zero ttl uses cache.TTLEnhanced and nil hooks are
// no-ops. opts must identify the enhancer so results from different
// services never mix.
func NewCached(inner Enhancer, c cache.Cache, keyer cache.Keyer, opts cache.EnhanceKeyOpts, ttl time.Duration, hooks observability.CacheHooks) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.TTLEnhanced
	}
	if hooks == nil {
		hooks = observability.NoopCacheHooks{}
	}
	return &Cached{inner: inner, cache: c, keyer: keyer, opts: opts, ttl: ttl, hooks: hooks}
}

// Enhance returns the cached result for image or computes and stores it.
func (c *Cached) Enhance(ctx context.Context, image []byte) ([]byte, error) {
	key := c.keyer.EnhanceKey(cache.Hash(image), c.opts)

	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		c.hooks.OnCacheHit(ctx, cacheKeyType)
		return data, nil
	}
	c.hooks.OnCacheMiss(ctx, cacheKeyType)

	out, err := c.inner.Enhance(ctx, image)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, out, c.ttl); err == nil {
		c.hooks.OnCacheSet(ctx, cacheKeyType, len(out))
	}
	return out, nil
}
