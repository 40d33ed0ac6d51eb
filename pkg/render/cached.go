package render

import (
	"context"
	"time"

	"github.com/slizzai/slizzai/pkg/cache"
	"github.com/slizzai/slizzai/pkg/observability"
	"github.com/slizzai/slizzai/pkg/scheduler"
)

const cacheKeyType = "render"

// Source renders the raw image of a tile.
type Source interface {
	RenderTile(ctx context.Context, uv scheduler.UV) ([]byte, error)
}

// Cached wraps a Source with a cache keyed by coordinate and renderer
// settings.
type Cached struct {
	inner Source
	cache cache.Cache
	keyer cache.Keyer
	opts  cache.RenderKeyOpts
	ttl   time.Duration
	hooks observability.CacheHooks
}

// NewCached wraps inner. Nil arguments fall back to a null cache, the
// default keyer and no-op hooks; a zero ttl uses cache.TTLRender.
func NewCached(inner Source, c cache.Cache, keyer cache.Keyer, opts cache.RenderKeyOpts, ttl time.Duration, hooks observability.CacheHooks) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.TTLRender
	}
	if hooks == nil {
		hooks = observability.NoopCacheHooks{}
	}
	return &Cached{inner: inner, cache: c, keyer: keyer, opts: opts, ttl: ttl, hooks: hooks}
}

func (c *Cached) RenderTile(ctx context.Context, uv scheduler.UV) ([]byte, error) {
	key := c.keyer.RenderKey(uv.U, uv.V, c.opts)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		c.hooks.OnCacheHit(ctx, cacheKeyType)
		return data, nil
	}
	c.hooks.OnCacheMiss(ctx, cacheKeyType)

	out, err := c.inner.RenderTile(ctx, uv)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, out, c.ttl); err == nil {
		c.hooks.OnCacheSet(ctx, cacheKeyType, len(out))
	}
	return out, nil
}
