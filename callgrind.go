package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

type callgrindOptions struct {
	creator string
	command string
}

// cmdCallgrind prints the snapshot as a callgrind cost file
// (https://valgrind.org/docs/manual/cl-format.html), one cost center per
// frame and one call block per known callee. A call block is
// "calls=<weight> <caller line>" followed by "<callee line> <weight>"; unknown
// lines are 0.
func cmdCallgrind(w io.Writer, s *snapshot, opts callgrindOptions, log logrus.FieldLogger) {
	log = orDefaultLogger(log)
	if opts.creator == "" {
		opts.creator = "stackprof"
	}
	if opts.command == "" {
		opts.command = "ruby"
	}

	fmt.Fprintln(w, "version: 1")
	fmt.Fprintf(w, "creator: %s\n", opts.creator)
	fmt.Fprintln(w, "pid: 0")
	fmt.Fprintf(w, "cmd: %s\n", opts.command)
	fmt.Fprintln(w, "part: 1")
	fmt.Fprintf(w, "desc: mode: %s(%d)\n", s.mode, s.interval)
	fmt.Fprintf(w, "desc: missed: %d\n", s.missedSamples)
	fmt.Fprintln(w, "positions: line")
	fmt.Fprintln(w, "events: Instructions")
	fmt.Fprintf(w, "summary: %d\n", s.overallSamples)

	for _, e := range s.sortedFrames(false) {
		f := e.frame
		fmt.Fprintf(w, "fl=%s\n", f.file)
		fmt.Fprintf(w, "fn=%s\n", f.name)
		for _, ln := range sortedLines(f) {
			fmt.Fprintf(w, "%d %d\n", ln, f.lines[ln])
		}
		for _, ed := range sortedEdges(f) {
			callee, ok := s.lookup(ed.callee)
			if !ok {
				log.WithFields(logrus.Fields{"frame": e.id, "callee": ed.callee}).
					Warn(errUnknownEdgeTarget.Error())
				continue
			}
			if callee.file != f.file {
				fmt.Fprintf(w, "cfl=%s\n", callee.file)
			}
			fmt.Fprintf(w, "cfn=%s\n", callee.name)
			fmt.Fprintf(w, "calls=%d %d\n", ed.weight, f.line)
			fmt.Fprintf(w, "%d %d\n", callee.line, ed.weight)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "totals: %d\n", s.overallSamples)
}
