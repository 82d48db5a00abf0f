package main

import (
	"fmt"
	"io"
	"time"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/driver"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/observ"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/pipeline"
)

func printStageTimings(out io.Writer, name string, timings pipeline.Timings) {
	fmt.Fprintf(out, "%s:", name)
	for _, stage := range pipeline.Stages {
		if timings.Has(stage) {
			fmt.Fprintf(out, " %s %.1f ms", stage, toMillis(timings.Duration(stage)))
		}
	}
	fmt.Fprintf(out, " (total %.1f ms)\n", toMillis(timings.Sum()))
}

// printTimings prints one line per bundle followed by the merged phase table.
func printTimings(out io.Writer, results []*driver.BundleResult, wall time.Duration) {
	all := observ.NewTimer()
	for _, res := range results {
		if res == nil {
			continue
		}
		printStageTimings(out, res.Name, res.Timings)
		all.Merge(res.Name, res.Timer)
	}
	all.Record("wall", wall, "")
	fmt.Fprint(out, all.Summary())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
