// Package prometheus exports vecproof engine metrics to Prometheus.
//
//	c := prometheus.New()
//	c.MustRegister(prom.DefaultRegisterer)
//	eng := vecproof.New(vecproof.WithMetricsCollector(c))
//
// Batch runs that exit before a scrape can dump the registry with
// WriteTextfile for the node_exporter textfile collector.
package prometheus

import (
	"errors"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/vecproof"
)

var _ vecproof.MetricsCollector = (*Collector)(nil)

// Collector implements vecproof.MetricsCollector with Prometheus vectors.
type Collector struct {
	reduceTotal     *prom.CounterVec
	reduceRows      *prom.CounterVec
	reduceRowsSaved *prom.CounterVec
	reduceDuration  *prom.HistogramVec

	clusterTotal    *prom.CounterVec
	clusterRows     prom.Counter
	clusterModes    prom.Gauge
	clusterDuration prom.Histogram

	verifyTotal    *prom.CounterVec
	verifyDuration prom.Histogram
}

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace sets the metric namespace. Default: "vecproof".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithBuckets sets the duration histogram buckets in seconds.
func WithBuckets(b []float64) Option {
	return func(o *options) {
		o.buckets = b
	}
}

// New creates an unregistered Collector.
func New(optFns ...Option) *Collector {
	opts := options{
		namespace: "vecproof",
		buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	ns := opts.namespace

	return &Collector{
		reduceTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "reduce_total",
			Help:      "Total number of lossless reductions",
		}, []string{"mode", "status"}),
		reduceRows: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "reduce_rows_total",
			Help:      "Total input rows of successful reductions",
		}, []string{"mode"}),
		reduceRowsSaved: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "reduce_rows_saved_total",
			Help:      "Total rows removed by successful reductions",
		}, []string{"mode"}),
		reduceDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: ns,
			Name:      "reduce_duration_seconds",
			Help:      "Reduction duration in seconds",
			Buckets:   opts.buckets,
		}, []string{"mode"}),

		clusterTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "cluster_total",
			Help:      "Total number of near-duplicate clusterings",
		}, []string{"status"}),
		clusterRows: prom.NewCounter(prom.CounterOpts{
			Namespace: ns,
			Name:      "cluster_rows_total",
			Help:      "Total input rows of successful clusterings",
		}),
		clusterModes: prom.NewGauge(prom.GaugeOpts{
			Namespace: ns,
			Name:      "cluster_modes",
			Help:      "Number of modes found by the last clustering",
		}),
		clusterDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: ns,
			Name:      "cluster_duration_seconds",
			Help:      "Clustering duration in seconds",
			Buckets:   opts.buckets,
		}),

		verifyTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: ns,
			Name:      "verify_total",
			Help:      "Total verifications by result",
		}, []string{"result"}), // "passed" / "failed" / "error"
		verifyDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: ns,
			Name:      "verify_duration_seconds",
			Help:      "Verification duration in seconds",
			Buckets:   opts.buckets,
		}),
	}
}

func (c *Collector) collectors() []prom.Collector {
	return []prom.Collector{
		c.reduceTotal, c.reduceRows, c.reduceRowsSaved, c.reduceDuration,
		c.clusterTotal, c.clusterRows, c.clusterModes, c.clusterDuration,
		c.verifyTotal, c.verifyDuration,
	}
}

// Register registers all metrics with reg.
func (c *Collector) Register(reg prom.Registerer) error {
	for _, m := range c.collectors() {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Collector) MustRegister(reg prom.Registerer) {
	reg.MustRegister(c.collectors()...)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordReduce implements vecproof.MetricsCollector.
func (c *Collector) RecordReduce(mode string, rows, reducedRows int, duration time.Duration, err error) {
	c.reduceTotal.WithLabelValues(mode, status(err)).Inc()
	c.reduceDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err != nil {
		return
	}
	c.reduceRows.WithLabelValues(mode).Add(float64(rows))
	c.reduceRowsSaved.WithLabelValues(mode).Add(float64(rows - reducedRows))
}

// RecordCluster implements vecproof.MetricsCollector.
func (c *Collector) RecordCluster(rows, modes int, duration time.Duration, err error) {
	c.clusterTotal.WithLabelValues(status(err)).Inc()
	c.clusterDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	c.clusterRows.Add(float64(rows))
	c.clusterModes.Set(float64(modes))
}

// RecordVerify implements vecproof.MetricsCollector.
func (c *Collector) RecordVerify(passed bool, duration time.Duration, err error) {
	result := "passed"
	switch {
	case errors.Is(err, vecproof.ErrVerificationFailed):
		result = "failed"
	case err != nil || !passed:
		result = "error"
	}
	c.verifyTotal.WithLabelValues(result).Inc()
	c.verifyDuration.Observe(duration.Seconds())
}

// WriteTextfile writes every metric gathered by g to path in the Prometheus
// text exposition format.
func WriteTextfile(g prom.Gatherer, path string) error {
	return prom.WriteToTextfile(path, g)
}
