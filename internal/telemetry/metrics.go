package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency across every route.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "origin",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

var IngestRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "ingest",
		Name:      "requests_total",
		Help:      "Total number of ingest requests by decision outcome.",
	},
	[]string{"decision"},
)

var IngestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "origin",
		Subsystem: "ingest",
		Name:      "duration_seconds",
		Help:      "End-to-end ingest request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"decision"},
)

var LedgerAppendsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "ledger",
		Name:      "appends_total",
		Help:      "Total number of ledger events appended.",
	},
)

var LedgerVerifyFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "ledger",
		Name:      "verify_failures_total",
		Help:      "Total number of ledger chain verification failures detected.",
	},
)

var WebhookDeliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "webhook",
		Name:      "deliveries_total",
		Help:      "Total number of webhook delivery attempts by outcome.",
	},
	[]string{"outcome"},
)

var WebhookDeadLetteredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "webhook",
		Name:      "dead_lettered_total",
		Help:      "Total number of webhook deliveries exhausted without success.",
	},
)

var RateLimitDeniedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "ratelimit",
		Name:      "denied_total",
		Help:      "Total number of requests denied by the rate limiter, by tenant.",
	},
	[]string{"tenant_id"},
)

var IPDeniedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "ipallow",
		Name:      "denied_total",
		Help:      "Total number of requests denied by the IP allowlist, by tenant.",
	},
	[]string{"tenant_id"},
)

var EvidencePackTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "evidence",
		Name:      "transitions_total",
		Help:      "Total number of evidence pack state transitions.",
	},
	[]string{"to_state"},
)

var EvidencePackRequeuedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "origin",
		Subsystem: "evidence",
		Name:      "requeued_total",
		Help:      "Total number of evidence pack tasks requeued by the stuck-pending sweep.",
	},
)

// All returns every ORIGIN-specific metric for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestDuration,
		IngestRequestsTotal,
		IngestDuration,
		LedgerAppendsTotal,
		LedgerVerifyFailuresTotal,
		WebhookDeliveriesTotal,
		WebhookDeadLetteredTotal,
		RateLimitDeniedTotal,
		IPDeniedTotal,
		EvidencePackTransitionsTotal,
		EvidencePackRequeuedTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process
// collectors plus every ORIGIN-specific collector.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
