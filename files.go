package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// cmdFiles ranks source files by the line samples attributed to them.
func cmdFiles(w io.Writer, s *snapshot, top int) {
	ranked := s.sortedFiles()
	if len(ranked) == 0 {
		fmt.Fprintln(w, "no line data in this snapshot")
		return
	}

	sum := 0
	for _, f := range ranked {
		sum += f.samples
	}
	shown := ranked[:truncate(len(ranked), top)]

	fmt.Fprintf(w, "%10s    (pct)     FILE\n", "SAMPLES")
	for _, f := range shown {
		fmt.Fprintf(w, "% 10d % 8s     %s\n", f.samples, fmt.Sprintf("(%2.1f%%)", percent(f.samples, s.overallSamples)), f.file)
	}
	fmt.Fprintf(w, "\n%s line samples in %s files\n", humanize.Comma(int64(sum)), humanize.Comma(int64(len(ranked))))
}
