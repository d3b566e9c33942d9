package appservice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricResultSuccess      = "success"
	metricResultUnsuccessful = "unsuccessful"
	metricResultNetworkError = "network_error"
	metricResultReadError    = "read_error"
)

var (
	authOutcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appservice_auth_outcomes_total",
			Help: "Total number of authentication outcomes by result and failure kind",
		},
		[]string{"outcome", "kind"},
	)

	endpointRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appservice_auth_endpoint_request_duration_seconds",
			Help:    "Duration of calls to the session introspection endpoint in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
)

func recordOutcome(o Outcome) {
	authOutcomeTotal.WithLabelValues(o.Kind.String(), string(KindOf(o.Err))).Inc()
}
