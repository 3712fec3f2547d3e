// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about browser lifecycle, batch rendering, cache operations,
// and asset fetches.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRendererHooks(&myRendererHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Renderer().OnBatchStart(ctx, len(diagrams))
//	// ... render ...
//	observability.Renderer().OnBatchComplete(ctx, len(diagrams), rejected, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Renderer Hooks
// =============================================================================

// RendererHooks receives events from the diagram renderer.
type RendererHooks interface {
	// Browser lifecycle events
	OnBrowserLaunch(ctx context.Context, duration time.Duration, err error)
	OnBrowserClose(ctx context.Context)

	// Page session events
	OnPageOpen(ctx context.Context, err error)
	OnPageClose(ctx context.Context)

	// Batch events. rejected counts per-diagram failures inside a
	// fulfilled call; err is non-nil only for setup failures.
	OnBatchStart(ctx context.Context, diagrams int)
	OnBatchComplete(ctx context.Context, diagrams, rejected int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations (asset fetches).
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

// NoopRendererHooks is a no-op implementation of RendererHooks.
type NoopRendererHooks struct{}

func (NoopRendererHooks) OnBrowserLaunch(context.Context, time.Duration, error)           {}
func (NoopRendererHooks) OnBrowserClose(context.Context)                                  {}
func (NoopRendererHooks) OnPageOpen(context.Context, error)                               {}
func (NoopRendererHooks) OnPageClose(context.Context)                                     {}
func (NoopRendererHooks) OnBatchStart(context.Context, int)                               {}
func (NoopRendererHooks) OnBatchComplete(context.Context, int, int, time.Duration, error) {}

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
// Global Hook Registry
// =============================================================================

var (
	rendererHooks RendererHooks = NoopRendererHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetRendererHooks registers custom renderer hooks.
// This should be called once at application startup before any render calls.
func SetRendererHooks(h RendererHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		rendererHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Renderer returns the registered renderer hooks.
func Renderer() RendererHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return rendererHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	rendererHooks = NoopRendererHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
