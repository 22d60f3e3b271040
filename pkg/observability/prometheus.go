package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

const namespace = "flowguide"

// Prometheus implements every hook interface on top of Prometheus collectors.
type Prometheus struct {
	transitions        *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	intents            *prometheus.CounterVec

	formatDuration prometheus.Histogram
	formatNodes    prometheus.Histogram
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
// Passing nil registers them with the default registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Prometheus{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "transitions_total",
			Help:      "Navigation events processed, by event kind and outcome",
		}, []string{"event", "outcome"}),
		transitionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "transition_duration_seconds",
			Help:      "Time spent computing a navigation transition",
			Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"event"}),
		intents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "intents_total",
			Help:      "Side effects requested from the shell, by kind",
		}, []string{"kind"}),

		formatDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "format_duration_seconds",
			Help:      "Time spent formatting a view",
			Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05},
		}),
		formatNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "view_nodes",
			Help:      "Number of nodes in formatted views",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "renders_total",
			Help:      "Artifact renders, by format and status",
		}, []string{"format", "status"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering artifacts",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2},
		}, []string{"format"}),

		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Artifact cache operations, by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the artifact cache",
		}, []string{"key_type"}),

		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP responses, by method, route and status code",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		requestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP requests that failed with an internal error",
		}, []string{"method", "route"}),
	}
}

// Install registers p as the global hook implementation for every category.
func (p *Prometheus) Install() {
	SetNavigationHooks(p)
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func (p *Prometheus) OnTransition(_ context.Context, event, outcome string, d time.Duration) {
	p.transitions.WithLabelValues(event, outcome).Inc()
	p.transitionDuration.WithLabelValues(event).Observe(d.Seconds())
}

func (p *Prometheus) OnIntent(_ context.Context, kind string) {
	p.intents.WithLabelValues(kind).Inc()
}

func (p *Prometheus) OnFormatComplete(_ context.Context, nodeCount int, d time.Duration) {
	p.formatDuration.Observe(d.Seconds())
	p.formatNodes.Observe(float64(nodeCount))
}

func (p *Prometheus) OnRenderStart(context.Context, string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.renders.WithLabelValues(format, status).Inc()
	p.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, method, route string, _ error) {
	p.requestErrors.WithLabelValues(method, route).Inc()
}
