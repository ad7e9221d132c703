package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// MQ consume latency (milliseconds).
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// Phase transition counter.
	PhaseTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phase_transition_count",
			Help: "Total number of project phase transitions",
		},
		[]string{"transition"}, // transition: start, complete, advance
	)

	// Search task counter.
	SearchTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_task_count",
			Help: "Total number of idea validation search tasks processed",
		},
		[]string{"status"}, // status: success, failed
	)

	// Emails sent counter.
	EmailSentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_sent_count",
			Help: "Total number of emails sent",
		},
		[]string{"kind", "status"}, // kind: confirmation, invitation, reset, results, bulk
	)

	// Slow query counter.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of database queries slower than the threshold",
		},
	)

	// External call latency (milliseconds): search API, LLM API.
	ExternalCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_latency_ms",
			Help:    "External service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"service", "status"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func IncrementPhaseTransition(transition string) {
	PhaseTransitionCount.WithLabelValues(transition).Inc()
}

func IncrementSearchTask(status string) {
	SearchTaskCount.WithLabelValues(status).Inc()
}

func IncrementEmailSent(kind, status string) {
	EmailSentCount.WithLabelValues(kind, status).Inc()
}

func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

func RecordExternalCallLatency(service, status string, duration time.Duration) {
	ExternalCallLatency.WithLabelValues(service, status).Observe(float64(duration.Milliseconds()))
}
