package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RatesRequestsTotal  prometheus.Counter
	StaleResponsesTotal prometheus.Counter
	RatesErrorsTotal    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers on an explicit registerer so tests can use
// isolated registries.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		RatesRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rates_requests_total",
				Help: "Total number of rates requests",
			},
		),

		StaleResponsesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rates_stale_responses_total",
				Help: "Total number of rates responses served from the stale cache tier",
			},
		),

		RatesErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_errors_total",
				Help: "Total number of failed rates requests",
			},
			[]string{"reason"},
		),
	}
}
