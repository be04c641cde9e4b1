// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in forgemap emit events through package-level hook registries
// without depending on any metrics backend. The binary registers concrete
// implementations at startup (see the metrics subpackage for Prometheus);
// until then every hook is a no-op.
//
// Register hooks at application startup:
//
//	func main() {
//	    m := metrics.New(prometheus.NewRegistry())
//	    observability.SetHTTPHooks(m)
//	    observability.SetExploreHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Explore().OnExpandStart(ctx, "project-42", "relations")
//	// ... fetch neighbours ...
//	observability.Explore().OnExpandComplete(ctx, "project-42", "relations", added, time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// ExploreHooks receives events from graph exploration.
type ExploreHooks interface {
	// Expansion of one node's neighbours.
	OnExpandStart(ctx context.Context, node, mode string)
	OnExpandComplete(ctx context.Context, node, mode string, added int, duration time.Duration, err error)

	// OnSearchComplete records a finished search. Superseded searches are
	// reported with superseded set and their results discarded.
	OnSearchComplete(ctx context.Context, kind string, results int, duration time.Duration, superseded bool)

	// OnRestoreComplete records a finished shared-link restore.
	OnRestoreComplete(ctx context.Context, nodes int, duration time.Duration, err error)

	// OnHideComplete records a hide over the selection. Skipped nodes had
	// no resolvable entity.
	OnHideComplete(ctx context.Context, removed, skipped int)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, namespace string)
	OnCacheMiss(ctx context.Context, namespace string)
	OnCacheSet(ctx context.Context, namespace string, size int)
}

// HTTPHooks receives events from forge API calls.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a request that got no response at all.
	OnError(ctx context.Context, method, host, path string, err error)
}

// Noop implements every hook interface and does nothing.
type Noop struct{}

func (Noop) OnExpandStart(context.Context, string, string)                              {}
func (Noop) OnExpandComplete(context.Context, string, string, int, time.Duration, error) {}
func (Noop) OnSearchComplete(context.Context, string, int, time.Duration, bool)          {}
func (Noop) OnRestoreComplete(context.Context, int, time.Duration, error)                {}
func (Noop) OnHideComplete(context.Context, int, int)                                    {}
func (Noop) OnCacheHit(context.Context, string)                                          {}
func (Noop) OnCacheMiss(context.Context, string)                                         {}
func (Noop) OnCacheSet(context.Context, string, int)                                     {}
func (Noop) OnRequest(context.Context, string, string, string)                           {}
func (Noop) OnResponse(context.Context, string, string, string, int, time.Duration)      {}
func (Noop) OnError(context.Context, string, string, string, error)                      {}

// registry is replaced as a whole on every Set call so readers never lock.
type registry struct {
	explore ExploreHooks
	cache   CacheHooks
	http    HTTPHooks
}

var current atomic.Pointer[registry]

func init() { Reset() }

func update(fn func(*registry)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetExploreHooks registers exploration hooks. Nil is ignored.
func SetExploreHooks(h ExploreHooks) {
	if h != nil {
		update(func(r *registry) { r.explore = h })
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks registers forge HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

func Explore() ExploreHooks { return current.Load().explore }
func Cache() CacheHooks     { return current.Load().cache }
func HTTP() HTTPHooks       { return current.Load().http }

// Reset restores the no-op hooks.
func Reset() {
	current.Store(&registry{explore: Noop{}, cache: Noop{}, http: Noop{}})
}
