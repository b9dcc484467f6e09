package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_http_requests_total",
			Help: "Number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rb_http_latency_seconds",
			Help:    "HTTP latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	SummaryDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_summary_decisions_total",
			Help: "Database summary decisions by kind (explicit, eager, counts_only)",
		},
		[]string{"decision"},
	)
	ScanSteps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rb_scan_steps_total",
			Help: "Keyspace scan steps issued",
		},
	)
	ScannedKeys = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rb_scanned_keys_total",
			Help: "Keys returned by keyspace scans",
		},
	)
	KeyLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_key_lookups_total",
			Help: "Key detail lookups by result",
		},
		[]string{"result"},
	)
	ConnErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_store_connection_errors_total",
			Help: "Failed store connections by server",
		},
		[]string{"server"},
	)
	ServerUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rb_server_up",
			Help: "1 when the server answered the last poll",
		},
		[]string{"server"},
	)
	ServerMemory = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rb_server_used_memory_bytes",
			Help: "used_memory reported by the server",
		},
		[]string{"server"},
	)
	ServerClients = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rb_server_connected_clients",
			Help: "connected_clients reported by the server",
		},
		[]string{"server"},
	)
	ServerKeys = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rb_server_keys",
			Help: "Total keys across databases",
		},
		[]string{"server"},
	)
	PolicyReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_policy_reloads_total",
			Help: "Permission policy reloads by result",
		},
		[]string{"result"},
	)
	AuditEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_audit_events_total",
			Help: "Audit log events",
		},
		[]string{"action"},
	)
	AuditErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rb_audit_errors_total",
			Help: "Audit write errors",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPLatency,
		SummaryDecisions,
		ScanSteps,
		ScannedKeys,
		KeyLookups,
		ConnErrors,
		ServerUp,
		ServerMemory,
		ServerClients,
		ServerKeys,
		PolicyReloads,
		AuditEvents,
		AuditErrors,
	)
}
