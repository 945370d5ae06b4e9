package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcash_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcash_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcash_ledger_operations_total",
			Help: "Wallet operations by outcome (ok or the error kind)",
		},
		[]string{"operation", "outcome"},
	)

	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcash_ledger_operation_duration_seconds",
			Help:    "Time spent inside a wallet unit of work",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	LedgerVolumeCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcash_ledger_volume_cents_total",
			Help: "Committed principal moved, in minor units",
		},
		[]string{"operation"},
	)

	LedgerFeesCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcash_ledger_fees_cents_total",
			Help: "Committed fees and commissions, in minor units",
		},
		[]string{"operation"},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mcash_realtime_connections",
			Help: "Open wallet event WebSocket connections on this instance",
		},
	)

	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcash_realtime_events_total",
			Help: "Wallet events delivered to or dropped for local connections",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Ledger implements the wallet engine's metrics sink on the global registry.
type Ledger struct{}

func (Ledger) ObserveOperation(operation, outcome string, d time.Duration) {
	LedgerOperationsTotal.WithLabelValues(operation, outcome).Inc()
	LedgerOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (Ledger) AddVolume(operation string, principal, fees int64) {
	LedgerVolumeCents.WithLabelValues(operation).Add(float64(principal))
	if fees > 0 {
		LedgerFeesCents.WithLabelValues(operation).Add(float64(fees))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
