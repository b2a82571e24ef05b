package batch

import (
	"sync"
	"sync/atomic"
	"time"
)

// StatsCollector defines the interface for collecting metrics while items
// are processed. Implementations can store metrics in memory, send to
// monitoring systems, or export to various formats.
// The StatsCollector is optional - if not provided, no statistics are collected.
type StatsCollector interface {
	// RecordItemStart is called when the action is about to be called for an item.
	RecordItemStart()

	// RecordItemComplete is called when the action succeeds.
	// duration is the time spent in the action.
	RecordItemComplete(duration time.Duration)

	// RecordItemError is called when the action fails or panics.
	RecordItemError()

	// RecordItemSkipped is called when an item is rejected by the filter or
	// its start is prevented by a listener.
	RecordItemSkipped()

	// RecordSourceError is called when an iterator entry of the queue fails.
	RecordSourceError()

	// RecordRateLimitWait is called with the time an item spent waiting for
	// rate limit admission.
	RecordRateLimitWait(d time.Duration)

	// GetStats returns a snapshot of the current statistics.
	GetStats() Stats
}

// Stats holds aggregated statistics about item processing.
type Stats struct {
	// ItemsStarted is the number of action calls made.
	ItemsStarted uint64

	// ItemsSucceeded is the number of action calls that returned without error.
	ItemsSucceeded uint64

	// ItemsFailed is the number of action calls that failed.
	ItemsFailed uint64

	// ItemsSkipped is the number of items that never reached the action.
	ItemsSkipped uint64

	// SourceErrors is the total number of errors from queue iterators.
	SourceErrors uint64

	// RateLimitWaits is the number of admissions recorded.
	RateLimitWaits uint64

	// TotalRateLimitWait is the cumulative time spent waiting for admission.
	TotalRateLimitWait time.Duration

	// TotalProcessingTime is the cumulative time spent in successful actions.
	TotalProcessingTime time.Duration

	// MinItemTime is the minimum time taken by a successful action.
	MinItemTime time.Duration

	// MaxItemTime is the maximum time taken by a successful action.
	MaxItemTime time.Duration

	// StartTime is when statistics collection began.
	StartTime time.Time

	// LastUpdateTime is when statistics were last updated.
	LastUpdateTime time.Time
}

// NoOpStatsCollector is a stats collector that discards all metrics.
// This is the default stats collector when none is specified.
type NoOpStatsCollector struct{}

// RecordItemStart implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemStart() {}

// RecordItemComplete implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemComplete(duration time.Duration) {}

// RecordItemError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemError() {}

// RecordItemSkipped implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemSkipped() {}

// RecordSourceError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordSourceError() {}

// RecordRateLimitWait implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordRateLimitWait(d time.Duration) {}

// GetStats implements the StatsCollector interface.
func (n *NoOpStatsCollector) GetStats() Stats {
	return Stats{}
}

// BasicStatsCollector is a simple in-memory implementation of StatsCollector.
// All operations are thread-safe.
type BasicStatsCollector struct {
	mu    sync.RWMutex
	stats Stats

	// Atomic counters for lock-free updates
	itemsStarted   uint64
	itemsSucceeded uint64
	itemsFailed    uint64
	itemsSkipped   uint64
	sourceErrors   uint64
}

// NewBasicStatsCollector creates a new BasicStatsCollector.
func NewBasicStatsCollector() *BasicStatsCollector {
	now := time.Now()
	return &BasicStatsCollector{
		stats: Stats{
			StartTime:      now,
			LastUpdateTime: now,
			MinItemTime:    time.Duration(1<<63 - 1), // Max duration as initial value
		},
	}
}

// RecordItemStart implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemStart() {
	atomic.AddUint64(&b.itemsStarted, 1)
}

// RecordItemComplete implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemComplete(duration time.Duration) {
	atomic.AddUint64(&b.itemsSucceeded, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()
	b.stats.TotalProcessingTime += duration

	if duration < b.stats.MinItemTime {
		b.stats.MinItemTime = duration
	}
	if duration > b.stats.MaxItemTime {
		b.stats.MaxItemTime = duration
	}
}

// RecordItemError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemError() {
	atomic.AddUint64(&b.itemsFailed, 1)
}

// RecordItemSkipped implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemSkipped() {
	atomic.AddUint64(&b.itemsSkipped, 1)
}

// RecordSourceError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordSourceError() {
	atomic.AddUint64(&b.sourceErrors, 1)
}

// RecordRateLimitWait implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordRateLimitWait(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()
	b.stats.RateLimitWaits++
	b.stats.TotalRateLimitWait += d
}

// GetStats implements the StatsCollector interface.
// It returns a snapshot of the current statistics.
func (b *BasicStatsCollector) GetStats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Copy the stats and update atomic values
	stats := b.stats
	stats.ItemsStarted = atomic.LoadUint64(&b.itemsStarted)
	stats.ItemsSucceeded = atomic.LoadUint64(&b.itemsSucceeded)
	stats.ItemsFailed = atomic.LoadUint64(&b.itemsFailed)
	stats.ItemsSkipped = atomic.LoadUint64(&b.itemsSkipped)
	stats.SourceErrors = atomic.LoadUint64(&b.sourceErrors)

	// Fix min item time if nothing succeeded
	if stats.ItemsSucceeded == 0 {
		stats.MinItemTime = 0
	}

	return stats
}

// AverageItemTime returns the average time taken by a successful action.
// Returns 0 if no action has succeeded.
func (s *Stats) AverageItemTime() time.Duration {
	if s.ItemsSucceeded == 0 {
		return 0
	}
	return s.TotalProcessingTime / time.Duration(s.ItemsSucceeded)
}

// AverageRateLimitWait returns the average admission wait.
func (s *Stats) AverageRateLimitWait() time.Duration {
	if s.RateLimitWaits == 0 {
		return 0
	}
	return s.TotalRateLimitWait / time.Duration(s.RateLimitWaits)
}

// ErrorRate returns the percentage of action calls that failed.
// Returns 0 if no items have been processed.
func (s *Stats) ErrorRate() float64 {
	total := s.ItemsSucceeded + s.ItemsFailed
	if total == 0 {
		return 0
	}
	return float64(s.ItemsFailed) / float64(total) * 100
}

// Duration returns the total duration since statistics collection started.
func (s *Stats) Duration() time.Duration {
	return s.LastUpdateTime.Sub(s.StartTime)
}
