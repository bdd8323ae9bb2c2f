package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "staycal"

// Metrics holds the Prometheus collectors of the service. It satisfies both the bus
// instrumentation recorder and the sync observer.
type Metrics struct {
	registry *prometheus.Registry

	messages        *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	syncs           *prometheus.CounterVec
	blocksCreated   *prometheus.CounterVec
	cleanupDeleted  *prometheus.CounterVec
	conflicts       prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Commands and queries dispatched through the buses.",
		}, []string{"kind", "key", "status"}),
		messageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_duration_seconds",
			Help:      "Bus dispatch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "key"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		syncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Calendar sync runs by source and outcome.",
		}, []string{"source", "outcome"}),
		blocksCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "blocks_created_total",
			Help:      "Blocks inserted by calendar sync.",
		}, []string{"source"}),
		cleanupDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "blocks_deleted_total",
			Help:      "Blocks removed by maintenance actions.",
		}, []string{"action"}),
		conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because a date was unavailable.",
		}),
	}
}

func (m *Metrics) ObserveMessage(kind, key string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.messages.WithLabelValues(kind, key, status).Inc()
	m.messageDuration.WithLabelValues(kind, key).Observe(took.Seconds())
}

func (m *Metrics) ObserveSync(source, outcome string, created int) {
	m.syncs.WithLabelValues(source, outcome).Inc()
	if created > 0 {
		m.blocksCreated.WithLabelValues(source).Add(float64(created))
	}
}

func (m *Metrics) ObserveCleanup(action string, deleted int) {
	if deleted > 0 {
		m.cleanupDeleted.WithLabelValues(action).Add(float64(deleted))
	}
}

func (m *Metrics) ObserveConflict() {
	m.conflicts.Inc()
}

func (m *Metrics) observeHTTP(method, route, code string, took time.Duration) {
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and for collectors owned by other packages.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
