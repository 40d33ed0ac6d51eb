package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/slizzai/slizzai/pkg/observability"
)

// cacheCounter counts cache hits and misses for the run summary.
type cacheCounter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *cacheCounter) OnCacheHit(context.Context, string)      { c.hits.Add(1) }
func (c *cacheCounter) OnCacheMiss(context.Context, string)     { c.misses.Add(1) }
func (c *cacheCounter) OnCacheSet(context.Context, string, int) {}

// logHTTPHooks writes sampler traffic to the debug log.
type logHTTPHooks struct {
	logger *log.Logger
}

func (h logHTTPHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("sampler request", "method", method, "host", host, "path", path)
}

func (h logHTTPHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("sampler response", "method", method, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h logHTTPHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("sampler error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ observability.CacheHooks = (*cacheCounter)(nil)
	_ observability.HTTPHooks  = logHTTPHooks{}
)
