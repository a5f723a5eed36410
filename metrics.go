package vecproof

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordReduce is called after each lossless reduction.
	// mode is "unique" or "consecutive".
	RecordReduce(mode string, rows, reducedRows int, duration time.Duration, err error)

	// RecordCluster is called after each clustering run.
	RecordCluster(rows, modes int, duration time.Duration, err error)

	// RecordVerify is called after each verification. passed is false for
	// both mismatches and hard failures.
	RecordVerify(passed bool, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordReduce(string, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCluster(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordVerify(bool, time.Duration, error)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ReduceCount       atomic.Int64
	ReduceErrors      atomic.Int64
	ReduceRows        atomic.Int64
	ReduceRowsSaved   atomic.Int64
	ReduceTotalNanos  atomic.Int64
	ClusterCount      atomic.Int64
	ClusterErrors     atomic.Int64
	ClusterRows       atomic.Int64
	ClusterModes      atomic.Int64
	ClusterTotalNanos atomic.Int64
	VerifyCount       atomic.Int64
	VerifyFailures    atomic.Int64
}

// RecordReduce implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReduce(_ string, rows, reducedRows int, duration time.Duration, err error) {
	b.ReduceCount.Add(1)
	b.ReduceTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReduceErrors.Add(1)
		return
	}
	b.ReduceRows.Add(int64(rows))
	b.ReduceRowsSaved.Add(int64(rows - reducedRows))
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(rows, modes int, duration time.Duration, err error) {
	b.ClusterCount.Add(1)
	b.ClusterTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClusterErrors.Add(1)
		return
	}
	b.ClusterRows.Add(int64(rows))
	b.ClusterModes.Add(int64(modes))
}

// RecordVerify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVerify(passed bool, _ time.Duration, _ error) {
	b.VerifyCount.Add(1)
	if !passed {
		b.VerifyFailures.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ReduceCount:     b.ReduceCount.Load(),
		ReduceErrors:    b.ReduceErrors.Load(),
		ReduceRows:      b.ReduceRows.Load(),
		ReduceRowsSaved: b.ReduceRowsSaved.Load(),
		ReduceAvgNanos:  avg(b.ReduceTotalNanos.Load(), b.ReduceCount.Load()),
		ClusterCount:    b.ClusterCount.Load(),
		ClusterErrors:   b.ClusterErrors.Load(),
		ClusterRows:     b.ClusterRows.Load(),
		ClusterModes:    b.ClusterModes.Load(),
		ClusterAvgNanos: avg(b.ClusterTotalNanos.Load(), b.ClusterCount.Load()),
		VerifyCount:     b.VerifyCount.Load(),
		VerifyFailures:  b.VerifyFailures.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ReduceCount     int64
	ReduceErrors    int64
	ReduceRows      int64
	ReduceRowsSaved int64
	ReduceAvgNanos  int64
	ClusterCount    int64
	ClusterErrors   int64
	ClusterRows     int64
	ClusterModes    int64
	ClusterAvgNanos int64
	VerifyCount     int64
	VerifyFailures  int64
}
