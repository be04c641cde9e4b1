// Package metrics implements the observability hooks with Prometheus
// collectors.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/forgemap/pkg/observability"
)

// Metrics holds every forgemap collector. It satisfies all three hook
// interfaces so a single value can be registered for each.
type Metrics struct {
	reg prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec

	cacheEvents *prometheus.CounterVec
	cacheBytes  prometheus.Counter

	expansions      *prometheus.CounterVec
	expandDuration  *prometheus.HistogramVec
	nodesAdded      prometheus.Counter
	searches        *prometheus.CounterVec
	restoreDuration prometheus.Histogram
	restoreErrors   prometheus.Counter
	hidden          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "forge_requests_total",
			Help:      "Forge API responses by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forgemap",
			Name:      "forge_request_duration_seconds",
			Help:      "Forge API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "forge_request_errors_total",
			Help:      "Forge API transport failures.",
		}, []string{"method"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes by namespace and result.",
		}, []string{"namespace", "result"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the response cache.",
		}),
		expansions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "expansions_total",
			Help:      "Node expansions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		expandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forgemap",
			Name:      "expansion_duration_seconds",
			Help:      "Time to fetch and materialize a node's neighbours.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		nodesAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "expansion_nodes_added_total",
			Help:      "Nodes materialized by expansions.",
		}),
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "searches_total",
			Help:      "Completed searches by kind and whether they were superseded.",
		}, []string{"kind", "superseded"}),
		restoreDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forgemap",
			Name:      "restore_duration_seconds",
			Help:      "Time to restore a shared selection.",
			Buckets:   prometheus.DefBuckets,
		}),
		restoreErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "restore_errors_total",
			Help:      "Restores that completed with at least one failed fetch.",
		}),
		hidden: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forgemap",
			Name:      "hidden_nodes_total",
			Help:      "Selected nodes handled by hide, by result.",
		}, []string{"result"}),
	}
	m.reg = reg
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Register installs m as the global HTTP, cache and explore hooks.
func (m *Metrics) Register() {
	observability.SetHTTPHooks(m)
	observability.SetCacheHooks(m)
	observability.SetExploreHooks(m)
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, _, _ string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, method, _, _ string, _ error) {
	m.httpErrors.WithLabelValues(method).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, ns string) {
	m.cacheEvents.WithLabelValues(ns, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, ns string) {
	m.cacheEvents.WithLabelValues(ns, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, ns string, size int) {
	m.cacheEvents.WithLabelValues(ns, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

func (m *Metrics) OnExpandStart(context.Context, string, string) {}

func (m *Metrics) OnExpandComplete(_ context.Context, _, mode string, added int, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.expansions.WithLabelValues(mode, outcome).Inc()
	m.expandDuration.WithLabelValues(mode).Observe(d.Seconds())
	m.nodesAdded.Add(float64(added))
}

func (m *Metrics) OnSearchComplete(_ context.Context, kind string, _ int, _ time.Duration, superseded bool) {
	m.searches.WithLabelValues(kind, strconv.FormatBool(superseded)).Inc()
}

func (m *Metrics) OnRestoreComplete(_ context.Context, _ int, d time.Duration, err error) {
	m.restoreDuration.Observe(d.Seconds())
	if err != nil {
		m.restoreErrors.Inc()
	}
}

func (m *Metrics) OnHideComplete(_ context.Context, removed, skipped int) {
	m.hidden.WithLabelValues("removed").Add(float64(removed))
	m.hidden.WithLabelValues("skipped").Add(float64(skipped))
}

var (
	_ observability.HTTPHooks    = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
	_ observability.ExploreHooks = (*Metrics)(nil)
)
