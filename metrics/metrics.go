package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subastas"

// Metrics holds every collector the service exports. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	fallbackTiers    *prometheus.CounterVec
	syncProperties   *prometheus.CounterVec
	syncRuns         *prometheus.CounterVec
	syncDuration     prometheus.Summary
	lastSyncTS       *prometheus.GaugeVec
	syncRunning      prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	mirroredImages   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests to external data providers by endpoint and outcome",
	}, []string{"source", "endpoint", "outcome"})
	m.fallbackTiers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attom_tier_served_total",
		Help:      "Foreclosure pages served per fallback tier",
	}, []string{"tier"})
	m.syncProperties = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_properties_total",
		Help:      "Properties handled by the sync by state and outcome",
	}, []string{"state", "outcome"})
	m.syncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Finished sync runs by type and status",
	}, []string{"type", "status"})
	m.syncDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Wall time of sync runs",
	})
	m.lastSyncTS = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_last_finished_timestamp_seconds",
		Help:      "Unix timestamp of the last finished sync run",
	}, []string{"type"})
	m.syncRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_running",
		Help:      "1 while a sync run is in progress",
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	m.mirroredImages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_mirrored_total",
		Help:      "Street View images copied to object storage by outcome",
	}, []string{"outcome"})

	m.registry.MustRegister(
		m.upstreamRequests, m.fallbackTiers,
		m.syncProperties, m.syncRuns, m.syncDuration, m.lastSyncTS, m.syncRunning,
		m.httpRequests, m.httpDuration, m.mirroredImages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) UpstreamRequest(source, endpoint, outcome string) {
	m.upstreamRequests.WithLabelValues(source, endpoint, outcome).Inc()
}

func (m *Metrics) FallbackTier(tier string) {
	m.fallbackTiers.WithLabelValues(tier).Inc()
}

func (m *Metrics) SyncProperty(state, outcome string) {
	m.syncProperties.WithLabelValues(state, outcome).Inc()
}

func (m *Metrics) SyncStarted() {
	m.syncRunning.Set(1)
}

func (m *Metrics) SyncFinished(syncType, status string, d time.Duration) {
	m.syncRunning.Set(0)
	m.syncRuns.WithLabelValues(syncType, status).Inc()
	m.syncDuration.Observe(d.Seconds())
	m.lastSyncTS.WithLabelValues(syncType).Set(float64(time.Now().Unix()))
}

func (m *Metrics) ImageMirrored(outcome string) {
	m.mirroredImages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
