package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plc_commands_total",
			Help: "Gateway command invocations by terminal outcome.",
		},
		[]string{"status"},
	)

	CommandDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plc_command_duration_seconds",
			Help:    "End-to-end gateway latency for successful commands.",
			Buckets: prometheus.DefBuckets,
		},
	)

	AuditAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plc_audit_appends_total",
			Help: "Audit event appends by delivery outcome.",
		},
		[]string{"outcome"},
	)
)

// Init registers the metrics with the default registry. Called once from main.
func Init() {
	prometheus.MustRegister(CommandsTotal, CommandDuration, AuditAppendsTotal)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
