package main

import (
	"io"
	"strconv"
)

// toRaw converts the snapshot back into the sampler's record layout.
func (s *snapshot) toRaw() *rawSnapshot {
	total := s.overallSamples
	raw := &rawSnapshot{
		Samples:       &total,
		Interval:      s.interval,
		Mode:          s.mode,
		MissedSamples: s.missedSamples,
		Frames:        make(map[string]rawFrame, len(s.frames)),
	}
	for id, f := range s.frames {
		rf := rawFrame{
			Name:         f.name,
			File:         f.file,
			Line:         f.line,
			Samples:      f.samples,
			TotalSamples: f.totalSamples,
		}
		if f.lines != nil {
			rf.Lines = make(map[string]lineCount, len(f.lines))
			for ln, n := range f.lines {
				rf.Lines[strconv.Itoa(ln)] = lineCount(n)
			}
		}
		if f.edges != nil {
			rf.Edges = make(map[string]int, len(f.edges))
			for callee, w := range f.edges {
				rf.Edges[string(callee)] = w
			}
		}
		raw.Frames[string(id)] = rf
	}
	return raw
}

// cmdDump writes the normalized snapshot as JSON in the sampler's layout, so
// pprof, JFR and collapsed inputs can be converted once and re-read.
func cmdDump(w io.Writer, s *snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.toRaw())
}
