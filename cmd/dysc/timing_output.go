package main

import (
	"fmt"
	"io"

	"dysc/internal/observ"
	"dysc/internal/pipeline"
)

// printStageTimings writes the per-stage totals over every result.
func printStageTimings(out io.Writer, results []pipeline.Result) {
	if out == nil {
		return
	}
	timers := make([]*observ.Timer, 0, len(results))
	for _, r := range results {
		timers = append(timers, r.Timer)
	}
	merged := observ.Merge(timers...)
	if len(merged.Report().Phases) == 0 {
		return
	}
	fmt.Fprint(out, merged.Summary())
}
