package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// cmdInfo is the one-shot triage view: sampling setup, hottest frames,
// hottest files and any counts that contradict each other.
func cmdInfo(w io.Writer, s *snapshot, topFrames, topFiles int) {
	fmt.Fprintln(w, "=== SNAPSHOT ===")
	fmt.Fprintf(w, "%-16s %s(%d)\n", "mode:", s.mode, s.interval)
	fmt.Fprintf(w, "%-16s %s\n", "samples:", humanize.Comma(int64(s.overallSamples)))
	fmt.Fprintf(w, "%-16s %s\n", "missed samples:", humanize.Comma(int64(s.missedSamples)))
	fmt.Fprintf(w, "%-16s %s\n", "frames:", humanize.Comma(int64(len(s.frames))))
	if maxSelf, err := s.maxSamples(); err == nil {
		top := s.sortedFrames(false)[0]
		fmt.Fprintf(w, "%-16s %s (%s)\n", "max self:", humanize.Comma(int64(maxSelf)), top.frame.name)
	}

	if len(s.frames) > 0 {
		fmt.Fprintf(w, "\n=== RANK BY SELF TIME (top %d) ===\n", truncate(len(s.frames), topFrames))
		cmdText(w, s, false, topFrames)
		fmt.Fprintf(w, "\n=== RANK BY TOTAL TIME (top %d) ===\n", truncate(len(s.frames), topFrames))
		cmdText(w, s, true, topFrames)
	}

	if files := s.sortedFiles(); len(files) > 0 {
		fmt.Fprintf(w, "\n=== FILES (top %d) ===\n", truncate(len(files), topFiles))
		cmdFiles(w, s, topFiles)
	}

	fmt.Fprintln(w, "\n=== CHECK ===")
	problems := s.check()
	if len(problems) == 0 {
		fmt.Fprintln(w, "ok")
		return
	}
	for _, p := range problems {
		fmt.Fprintln(w, p)
	}
}
