package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

var (
	errMalformedSnapshot = errors.New("malformed snapshot")
	errEmptySnapshot     = errors.New("empty snapshot")
	errUnknownEdgeTarget = errors.New("unknown edge target")
	errSourceUnavailable = errors.New("source unavailable")
)

// ---------------------------------------------------------------------------
// Raw input record, as the decoders produce it
// ---------------------------------------------------------------------------

// rawSnapshot is the sampler's record. Nil pointer/map fields mean the field
// was absent in the input.
type rawSnapshot struct {
	Samples       *int                `json:"samples"`
	Interval      int                 `json:"interval"`
	Mode          string              `json:"mode"`
	MissedSamples int                 `json:"missed_samples"`
	Frames        map[string]rawFrame `json:"frames"`
}

type rawFrame struct {
	Name         string               `json:"name"`
	File         string               `json:"file,omitempty"`
	Line         int                  `json:"line,omitempty"`
	Samples      int                  `json:"samples"`
	TotalSamples int                  `json:"total_samples"`
	Lines        map[string]lineCount `json:"lines,omitempty"`
	Edges        map[string]int       `json:"edges,omitempty"`
}

// ---------------------------------------------------------------------------
// Canonical model
// ---------------------------------------------------------------------------

// frameID is the canonical frame identifier. See canonicalID.
type frameID string

type frame struct {
	name         string
	file         string // "" when unknown
	line         int    // declaration line, 0 when unknown
	samples      int    // self
	totalSamples int    // inclusive
	lines        map[int]int
	edges        map[frameID]int
}

// snapshot is one profiling result. It must not be modified after normalize
// returns: the derived aggregates are computed once and never invalidated.
type snapshot struct {
	overallSamples int
	interval       int
	mode           string
	missedSamples  int
	frames         map[frameID]*frame

	sortOnce  [2]sync.Once
	sorted    [2][]frameEntry
	maxOnce   sync.Once
	max       int
	filesOnce sync.Once
	files     map[string]map[int]int
	rankOnce  sync.Once
	fileRank  []fileTotal
}

func (s *snapshot) lookup(id frameID) (*frame, bool) {
	f, ok := s.frames[id]
	return f, ok
}

// canonicalID maps numeric addresses (decimal or 0x-hex) to decimal and keeps
// symbolic ids as trimmed strings.
func canonicalID(key string) frameID {
	k := strings.TrimSpace(key)
	if n, err := strconv.ParseUint(k, 10, 64); err == nil {
		return frameID(strconv.FormatUint(n, 10))
	}
	if len(k) > 2 && (k[:2] == "0x" || k[:2] == "0X") {
		if n, err := strconv.ParseUint(k[2:], 16, 64); err == nil {
			return frameID(strconv.FormatUint(n, 10))
		}
	}
	return frameID(k)
}

func normalize(raw *rawSnapshot) (*snapshot, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no record", errMalformedSnapshot)
	}
	if raw.Samples == nil {
		return nil, fmt.Errorf("%w: missing samples", errMalformedSnapshot)
	}
	if raw.Frames == nil {
		return nil, fmt.Errorf("%w: missing frames", errMalformedSnapshot)
	}

	s := &snapshot{
		overallSamples: *raw.Samples,
		interval:       raw.Interval,
		mode:           raw.Mode,
		missedSamples:  raw.MissedSamples,
		frames:         make(map[frameID]*frame, len(raw.Frames)),
	}
	origin := make(map[frameID]string, len(raw.Frames))
	for key, rf := range raw.Frames {
		id := canonicalID(key)
		if prev, dup := origin[id]; dup {
			return nil, fmt.Errorf("%w: frame ids %q and %q both normalize to %q", errMalformedSnapshot, prev, key, id)
		}
		origin[id] = key

		f := &frame{
			name:         rf.Name,
			file:         rf.File,
			line:         rf.Line,
			samples:      rf.Samples,
			totalSamples: rf.TotalSamples,
		}
		if rf.Lines != nil {
			f.lines = make(map[int]int, len(rf.Lines))
			for ln, c := range rf.Lines {
				n, err := strconv.Atoi(strings.TrimSpace(ln))
				if err != nil {
					return nil, fmt.Errorf("%w: frame %s: bad line number %q", errMalformedSnapshot, id, ln)
				}
				f.lines[n] += int(c)
			}
		}
		if rf.Edges != nil {
			f.edges = make(map[frameID]int, len(rf.Edges))
			for callee, w := range rf.Edges {
				f.edges[canonicalID(callee)] += w
			}
		}
		s.frames[id] = f
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Consistency check
// ---------------------------------------------------------------------------

// problem describes one frame whose counts contradict the model invariants.
// normalize accepts such snapshots; info reports them.
type problem struct {
	frame frameID
	msg   string
}

func (p problem) String() string { return fmt.Sprintf("frame %s: %s", p.frame, p.msg) }

func (s *snapshot) check() []problem {
	var out []problem
	for _, e := range s.sortedFrames(false) {
		f := e.frame
		if f.totalSamples < 0 {
			out = append(out, problem{e.id, fmt.Sprintf("negative total samples %d", f.totalSamples)})
		}
		if f.totalSamples < f.samples {
			out = append(out, problem{e.id, fmt.Sprintf("total samples %d < self samples %d", f.totalSamples, f.samples)})
		}
		for _, ed := range sortedEdges(f) {
			if ed.weight > f.totalSamples {
				out = append(out, problem{e.id, fmt.Sprintf("edge to %s weighs %d > total samples %d", ed.callee, ed.weight, f.totalSamples)})
			}
			if _, ok := s.frames[ed.callee]; !ok {
				out = append(out, problem{e.id, fmt.Sprintf("%v %s", errUnknownEdgeTarget, ed.callee)})
			}
		}
	}
	return out
}
