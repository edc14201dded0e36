package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/google/pprof/profile"
)

// parsePprof turns a pprof profile into a frame graph with one frame per
// function. Inlined calls become frames of their own.
func parsePprof(r io.Reader, sampleIndex int) (*rawSnapshot, error) {
	p, err := profile.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if sampleIndex < 0 || sampleIndex >= len(p.SampleType) {
		return nil, fmt.Errorf("sample index %d out of range (profile has %d sample types)", sampleIndex, len(p.SampleType))
	}

	b := newGraphBuilder()
	for _, s := range p.Sample {
		v := s.Value[sampleIndex]
		if v <= 0 {
			continue
		}
		// Locations are leaf-first and so are the lines of one location
		// (Line[0] is the innermost inlined call).
		var frames []stackFrame
		for i := len(s.Location) - 1; i >= 0; i-- {
			loc := s.Location[i]
			if len(loc.Line) == 0 {
				addr := fmt.Sprintf("0x%x", loc.Address)
				frames = append(frames, stackFrame{key: "addr:" + addr, name: addr})
				continue
			}
			for j := len(loc.Line) - 1; j >= 0; j-- {
				ln := loc.Line[j]
				if ln.Function == nil {
					continue
				}
				fn := ln.Function
				frames = append(frames, stackFrame{
					key:  strconv.FormatUint(fn.ID, 10),
					name: fn.Name,
					file: fn.Filename,
					decl: int(fn.StartLine),
					line: int(ln.Line),
				})
			}
		}
		b.add(frames, int(v))
	}
	return b.snapshot(p.SampleType[sampleIndex].Type, int(p.Period)), nil
}
