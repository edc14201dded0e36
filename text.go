package main

import (
	"fmt"
	"io"
)

// cmdText prints the ranked frame table: inclusive and self samples with
// their share of all samples.
func cmdText(w io.Writer, s *snapshot, byTotal bool, top int) {
	ranked := s.sortedFrames(byTotal)
	ranked = ranked[:truncate(len(ranked), top)]

	fmt.Fprintf(w, "%10s    (pct)  %10s    (pct)     FRAME\n", "TOTAL", "SAMPLES")
	for _, e := range ranked {
		f := e.frame
		fmt.Fprintf(w, "% 10d % 8s  % 10d % 8s     %s\n",
			f.totalSamples, fmt.Sprintf("(%2.1f%%)", percent(f.totalSamples, s.overallSamples)),
			f.samples, fmt.Sprintf("(%2.1f%%)", percent(f.samples, s.overallSamples)),
			f.name)
	}
}
