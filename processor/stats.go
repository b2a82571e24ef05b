package processor

import (
	"context"
	"time"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Instrument wraps an action and records its calls in stats. A Batch
// already records its own action calls in Options.Stats; Instrument is for
// measuring one stage of a Chain, so give it its own collector.
// If stats is nil, action is returned unchanged.
//
// Example:
//
//	parseStats := batch.NewBasicStatsCollector()
//	action := processor.Chain(processor.Instrument(parse, parseStats), store)
//
//	// Later, get statistics
//	fmt.Println(parseStats.GetStats().AverageItemTime())
func Instrument[T, R any](action batch.Action[T, R], stats batch.StatsCollector) batch.Action[T, R] {
	if stats == nil {
		return action
	}

	return func(ctx context.Context, item T) (R, error) {
		stats.RecordItemStart()
		startTime := time.Now()

		res, err := action(ctx, item)

		if err != nil {
			stats.RecordItemError()
		} else {
			stats.RecordItemComplete(time.Since(startTime))
		}
		return res, err
	}
}
