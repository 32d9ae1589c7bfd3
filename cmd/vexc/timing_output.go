package main

import (
	"fmt"
	"io"
	"time"

	"vexc/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings) {
	if out == nil {
		return
	}
	var printErr error
	if timings.Has(pipeline.StageRead) || timings.Has(pipeline.StageResolve) {
		prepared := timings.Sum(pipeline.StageRead, pipeline.StageResolve)
		_, printErr = fmt.Fprintf(out, "prepared %.1f ms\n", toMillis(prepared))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(pipeline.StageCompile) {
		_, printErr = fmt.Fprintf(out, "compiled %.1f ms\n", toMillis(timings.Duration(pipeline.StageCompile)))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(pipeline.StageWrite) {
		_, printErr = fmt.Fprintf(out, "wrote %.1f ms\n", toMillis(timings.Duration(pipeline.StageWrite)))
		if printErr != nil {
			panic(printErr)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
