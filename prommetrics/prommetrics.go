// Package prommetrics exports index operations as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	idx, _ := proxgraph.New(128, proxgraph.WithMetricsCollector(prommetrics.New(reg)))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/proxgraph"
)

const namespace = "proxgraph"

const (
	statusOK    = "ok"
	statusError = "error"
)

var _ proxgraph.MetricsCollector = (*Collector)(nil)

// Collector implements proxgraph.MetricsCollector on Prometheus metrics.
type Collector struct {
	inserts         *prometheus.CounterVec
	insertDuration  prometheus.Histogram
	vectors         prometheus.Gauge
	batchItems      *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	searches        *prometheus.CounterVec
	searchDuration  prometheus.Histogram
	searchExpansion prometheus.Histogram
	searchK         prometheus.Histogram
	refines         *prometheus.CounterVec
	refineDuration  prometheus.Histogram
}

// Option configures a Collector.
type Option func(o *options)

type options struct {
	constLabels prometheus.Labels
}

// WithConstLabels attaches constant labels, e.g. an index name, to every
// metric so several indexes can share one registry.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) {
		o.constLabels = labels
	}
}

// New creates a Collector and registers its metrics with reg. A nil reg
// falls back to prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, optFns ...Option) *Collector {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	labels := opts.constLabels

	return &Collector{
		inserts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "inserts_total",
			Help:        "Total number of single inserts, by status.",
			ConstLabels: labels,
		}, []string{"status"}),
		insertDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "insert_duration_seconds",
			Help:        "Duration of single inserts in seconds.",
			Buckets:     prometheus.ExponentialBuckets(1e-5, 4, 10),
			ConstLabels: labels,
		}),
		vectors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "vectors",
			Help:        "Number of vectors inserted through this collector's index.",
			ConstLabels: labels,
		}),
		batchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "batch_insert_items_total",
			Help:        "Total number of batch insert items, by status.",
			ConstLabels: labels,
		}, []string{"status"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "batch_insert_duration_seconds",
			Help:        "Duration of batch inserts in seconds.",
			Buckets:     prometheus.ExponentialBuckets(1e-3, 4, 10),
			ConstLabels: labels,
		}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "searches_total",
			Help:        "Total number of searches, by status.",
			ConstLabels: labels,
		}, []string{"status"}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "search_duration_seconds",
			Help:        "Duration of searches in seconds.",
			Buckets:     prometheus.ExponentialBuckets(1e-5, 4, 10),
			ConstLabels: labels,
		}),
		searchExpansion: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "search_distance_evaluations",
			Help:        "Distance evaluations per search.",
			Buckets:     prometheus.ExponentialBuckets(1, 4, 12),
			ConstLabels: labels,
		}),
		searchK: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "search_k",
			Help:        "Requested neighbors per search.",
			Buckets:     []float64{1, 5, 10, 20, 50, 100, 500},
			ConstLabels: labels,
		}),
		refines: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "refines_total",
			Help:        "Total number of refinement runs, by status.",
			ConstLabels: labels,
		}, []string{"status"}),
		refineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "refine_duration_seconds",
			Help:        "Duration of refinement runs in seconds.",
			Buckets:     prometheus.ExponentialBuckets(0.01, 4, 10),
			ConstLabels: labels,
		}),
	}
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}

// RecordInsert implements proxgraph.MetricsCollector.
func (c *Collector) RecordInsert(duration time.Duration, err error) {
	c.inserts.WithLabelValues(status(err)).Inc()
	c.insertDuration.Observe(duration.Seconds())
	if err == nil {
		c.vectors.Inc()
	}
}

// RecordBatchInsert implements proxgraph.MetricsCollector.
func (c *Collector) RecordBatchInsert(count, failed int, duration time.Duration) {
	c.batchItems.WithLabelValues(statusOK).Add(float64(count - failed))
	c.batchItems.WithLabelValues(statusError).Add(float64(failed))
	c.batchDuration.Observe(duration.Seconds())
	c.vectors.Add(float64(count - failed))
}

// RecordSearch implements proxgraph.MetricsCollector.
func (c *Collector) RecordSearch(k, expansions int, duration time.Duration, err error) {
	c.searches.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.searchDuration.Observe(duration.Seconds())
	c.searchExpansion.Observe(float64(expansions))
	c.searchK.Observe(float64(k))
}

// RecordRefine implements proxgraph.MetricsCollector.
func (c *Collector) RecordRefine(duration time.Duration, err error) {
	c.refines.WithLabelValues(status(err)).Inc()
	c.refineDuration.Observe(duration.Seconds())
}
