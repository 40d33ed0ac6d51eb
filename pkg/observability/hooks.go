// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and backend-agnostic: components accept hook
// interfaces and call them at well-defined points, and the host decides
// what to do with the events (log them, record them in a [Diagnostics]
// file, drive a progress view, export metrics).
//
// # Architecture
//
// There is no process-wide registry. Hooks are bundled in a [Hooks] value
// that the host builds once per run and passes to the pipeline and the
// enhancement client at construction:
//
//	diag := observability.NewDiagnostics()
//	opts := pipeline.Options{Hooks: observability.MultiPipeline(diag, progress)}
//	orch, err := pipeline.New(opts, collab)
//
// Every interface has a no-op implementation so components can call hooks
// unconditionally.
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from a tile run.
type PipelineHooks interface {
	// Run events
	OnRunStart(ctx context.Context, runID string, tiles int)
	OnRunComplete(ctx context.Context, runID, state string, completed int, duration time.Duration, err error)

	// Tile events
	OnTileStart(ctx context.Context, tile int, u, v float64)
	OnTileComplete(ctx context.Context, tile int, duration time.Duration, err error)

	// OnRetry records a failed attempt of an external call that will be retried.
	OnRetry(ctx context.Context, tile int, stage string, attempt int, err error)

	// OnBudget records the ledger after a tile's usage was charged.
	OnBudget(ctx context.Context, tile int, used, limit float64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnTileStart(context.Context, int, float64, float64)        {}
func (NoopPipelineHooks) OnTileComplete(context.Context, int, time.Duration, error) {}
func (NoopPipelineHooks) OnRetry(context.Context, int, string, int, error)          {}
func (NoopPipelineHooks) OnBudget(context.Context, int, float64, float64)           {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Bundles
// =============================================================================

// Hooks bundles the hooks for one run. Nil members mean "no-op".
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

// WithDefaults returns a copy with nil members replaced by no-ops.
func (h Hooks) WithDefaults() Hooks {
	if h.Pipeline == nil {
		h.Pipeline = NoopPipelineHooks{}
	}
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
	if h.HTTP == nil {
		h.HTTP = NoopHTTPHooks{}
	}
	return h
}

// MultiPipeline fans pipeline events out to several receivers in order.
// Nil receivers are skipped.
func MultiPipeline(hooks ...PipelineHooks) PipelineHooks {
	var m multiPipeline
	for _, h := range hooks {
		if h != nil {
			m = append(m, h)
		}
	}
	switch len(m) {
	case 0:
		return NoopPipelineHooks{}
	case 1:
		return m[0]
	}
	return m
}

type multiPipeline []PipelineHooks

func (m multiPipeline) OnRunStart(ctx context.Context, runID string, tiles int) {
	for _, h := range m {
		h.OnRunStart(ctx, runID, tiles)
	}
}

func (m multiPipeline) OnRunComplete(ctx context.Context, runID, state string, completed int, d time.Duration, err error) {
	for _, h := range m {
		h.OnRunComplete(ctx, runID, state, completed, d, err)
	}
}

func (m multiPipeline) OnTileStart(ctx context.Context, tile int, u, v float64) {
	for _, h := range m {
		h.OnTileStart(ctx, tile, u, v)
	}
}

func (m multiPipeline) OnTileComplete(ctx context.Context, tile int, d time.Duration, err error) {
	for _, h := range m {
		h.OnTileComplete(ctx, tile, d, err)
	}
}

func (m multiPipeline) OnRetry(ctx context.Context, tile int, stage string, attempt int, err error) {
	for _, h := range m {
		h.OnRetry(ctx, tile, stage, attempt, err)
	}
}

func (m multiPipeline) OnBudget(ctx context.Context, tile int, used, limit float64) {
	for _, h := range m {
		h.OnBudget(ctx, tile, used, limit)
	}
}
