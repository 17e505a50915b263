// Package monitoring exposes Prometheus metrics for the monitor loop.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brickwatch"

// Metrics groups the instrument set for monitoring runs. Use New for
// process metrics; NewWithRegistry keeps tests isolated.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	PagesFetched     prometheus.Counter
	ProductsCurrent  *prometheus.GaugeVec
	ExtractionErrors prometheus.Counter
	PriceChanges     prometheus.Counter
	NewProducts      prometheus.Counter
	RemovedProducts  prometheus.Counter
}

// New registers the metrics on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the metrics on the given registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Monitoring runs by category and outcome.",
		}, []string{"category", "status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full category run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Listing pages downloaded.",
		}),
		ProductsCurrent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "products_current",
			Help:      "Products in the latest snapshot per category.",
		}, []string{"category"}),
		ExtractionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_errors_total",
			Help:      "Product elements skipped due to extraction failures.",
		}),
		PriceChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_changes_total",
			Help:      "Price changes detected above the threshold.",
		}),
		NewProducts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_products_total",
			Help:      "Products detected for the first time.",
		}),
		RemovedProducts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removed_products_total",
			Help:      "Products that disappeared from the catalog.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
