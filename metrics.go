package proxgraph

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordBatchInsert is called after each batch insert operation.
	// count is the number of items attempted, failed is the number that failed,
	// duration is the total time taken.
	RecordBatchInsert(count, failed int, duration time.Duration)

	// RecordSearch is called after each search operation.
	// k is the number of neighbors requested, expansions the number of
	// distance evaluations performed, err is nil if successful.
	RecordSearch(k, expansions int, duration time.Duration, err error)

	// RecordRefine is called after each refinement run.
	RecordRefine(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration)   {}
func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRefine(time.Duration, error)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount       atomic.Int64
	InsertErrors      atomic.Int64
	InsertTotalNanos  atomic.Int64
	BatchInsertCount  atomic.Int64
	BatchInsertItems  atomic.Int64
	BatchInsertFailed atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
	SearchExpansions  atomic.Int64
	RefineCount       atomic.Int64
	RefineErrors      atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count, failed int, _ time.Duration) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	b.BatchInsertFailed.Add(int64(failed))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, expansions int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchExpansions.Add(int64(expansions))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordRefine implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRefine(_ time.Duration, err error) {
	b.RefineCount.Add(1)
	if err != nil {
		b.RefineErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:       b.InsertCount.Load(),
		InsertErrors:      b.InsertErrors.Load(),
		InsertAvgNanos:    avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BatchInsertCount:  b.BatchInsertCount.Load(),
		BatchInsertItems:  b.BatchInsertItems.Load(),
		BatchInsertFailed: b.BatchInsertFailed.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchAvgNanos:    avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SearchAvgExpanded: avg(b.SearchExpansions.Load(), b.SearchCount.Load()),
		RefineCount:       b.RefineCount.Load(),
		RefineErrors:      b.RefineErrors.Load(),
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
	InsertCount       int64
	InsertErrors      int64
	InsertAvgNanos    int64
	BatchInsertCount  int64
	BatchInsertItems  int64
	BatchInsertFailed int64
	SearchCount       int64
	SearchErrors      int64
	SearchAvgNanos    int64
	SearchAvgExpanded int64
	RefineCount       int64
	RefineErrors      int64
}
