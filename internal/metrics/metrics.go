package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DeletionOutcomesTotal counts resolved deletion requests by outcome and result.
	DeletionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "addressbook",
			Name:      "deletion_outcomes_total",
			Help:      "Deletion requests by resolver outcome and final result",
		},
		[]string{"outcome", "result"},
	)

	// QueryDuration observes SQLite round trips by operation.
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "addressbook",
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"op"},
	)

	// HTTPRequestDuration observes web requests by route and status.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "addressbook",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path", "status"},
	)

	// ReceiptsTotal counts deletion receipt e-mails by result.
	ReceiptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "addressbook",
			Name:      "receipts_total",
			Help:      "Deletion receipt e-mails by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(DeletionOutcomesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(ReceiptsTotal)
}

// Deletion results.
const (
	ResultDeleted   = "deleted"
	ResultCancelled = "cancelled"
	ResultFailed    = "failed"
)
