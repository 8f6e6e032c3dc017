package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreLatency is the duration of backend queries.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_store_latency",
			Help: "Duration of store backend queries",
		},
		[]string{"backend", "query"},
	)

	// StoreTotalRequests is the total number of backend requests.
	StoreTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_total_requests",
			Help: "Total number of store backend requests",
		},
		[]string{"backend", "query"},
	)

	// StoreErrors is the total number of failed backend requests.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_errors",
			Help: "Total number of failed store backend requests",
		},
		[]string{"backend", "query"},
	)

	// StoreGuilds is the number of guilds held by the store.
	StoreGuilds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataaccess_store_guilds",
			Help: "Number of guilds with a support configuration",
		},
	)
)

// Observe starts the request counter and latency timer for a backend query. Call the returned function when the
// query has finished.
func Observe(backend, query string) func(err error) {
	StoreTotalRequests.WithLabelValues(backend, query).Inc()
	t := prometheus.NewTimer(StoreLatency.WithLabelValues(backend, query))
	return func(err error) {
		t.ObserveDuration()
		if err != nil {
			StoreErrors.WithLabelValues(backend, query).Inc()
		}
	}
}
