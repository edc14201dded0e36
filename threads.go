package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
)

// threadSamples counts samples per thread name. The "" key holds samples
// recorded without a thread.
type threadSamples map[string]int

func (ts threadSamples) total() int {
	n := 0
	for _, c := range ts {
		n += c
	}
	return n
}

type threadEntry struct {
	name    string
	samples int
}

// ranked orders the named threads by samples, busiest first.
func (ts threadSamples) ranked() []threadEntry {
	var out []threadEntry
	for name, n := range ts {
		if name != "" {
			out = append(out, threadEntry{name, n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].samples != out[j].samples {
			return out[i].samples > out[j].samples
		}
		return out[i].name < out[j].name
	})
	return out
}

// cmdThreads lists the threads a -t/--thread filter can select.
func cmdThreads(w io.Writer, ts threadSamples, top int) {
	ranked := ts.ranked()
	if len(ranked) == 0 {
		fmt.Fprintln(w, "no thread info in this input")
		return
	}

	total := ts.total()
	fmt.Fprintf(w, "%-30s %9s %7s\n", "THREAD", "SAMPLES", "PCT")
	for _, e := range ranked[:truncate(len(ranked), top)] {
		fmt.Fprintf(w, "%-30s %9d %6.1f%%\n", e.name, e.samples, percent(e.samples, total))
	}
	if unnamed := ts[""]; unnamed > 0 {
		fmt.Fprintf(w, "%-30s %9d %6.1f%%\n", "(no thread info)", unnamed, percent(unnamed, total))
	}
	fmt.Fprintf(w, "\n%s threads, %s samples\n", humanize.Comma(int64(len(ranked))), humanize.Comma(int64(total)))
}
