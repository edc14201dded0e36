package main

import (
	"fmt"
	"sort"
)

type frameEntry struct {
	id    frameID
	frame *frame
}

// sortedFrames returns every frame ordered by total samples (byTotal) or self
// samples, descending, ties broken by ascending id. The slice is cached and
// shared between callers; do not modify it.
func (s *snapshot) sortedFrames(byTotal bool) []frameEntry {
	idx := 0
	if byTotal {
		idx = 1
	}
	s.sortOnce[idx].Do(func() {
		entries := make([]frameEntry, 0, len(s.frames))
		for id, f := range s.frames {
			entries = append(entries, frameEntry{id, f})
		}
		weight := func(f *frame) int {
			if byTotal {
				return f.totalSamples
			}
			return f.samples
		}
		sort.Slice(entries, func(i, j int) bool {
			wi, wj := weight(entries[i].frame), weight(entries[j].frame)
			if wi != wj {
				return wi > wj
			}
			return entries[i].id < entries[j].id
		})
		s.sorted[idx] = entries
	})
	return s.sorted[idx]
}

// maxSamples is the largest self sample count of any frame.
func (s *snapshot) maxSamples() (int, error) {
	if len(s.frames) == 0 {
		return 0, fmt.Errorf("max samples: %w", errEmptySnapshot)
	}
	s.maxOnce.Do(func() {
		first := true
		for _, f := range s.frames {
			if first || f.samples > s.max {
				s.max = f.samples
				first = false
			}
		}
	})
	return s.max, nil
}

// fileLineTotals sums per-line samples by source file over all frames that
// carry both a file and line data. The map is cached; treat it as read-only.
func (s *snapshot) fileLineTotals() map[string]map[int]int {
	s.filesOnce.Do(func() {
		files := make(map[string]map[int]int)
		for _, f := range s.frames {
			if f.file == "" || f.lines == nil {
				continue
			}
			lines, ok := files[f.file]
			if !ok {
				lines = make(map[int]int)
				files[f.file] = lines
			}
			for ln, n := range f.lines {
				lines[ln] += n
			}
		}
		s.files = files
	})
	return s.files
}

type fileTotal struct {
	file    string
	samples int
}

// sortedFiles ranks files by their summed line samples, descending, ties by
// file name.
func (s *snapshot) sortedFiles() []fileTotal {
	s.rankOnce.Do(func() {
		files := s.fileLineTotals()
		ranked := make([]fileTotal, 0, len(files))
		for file, lines := range files {
			sum := 0
			for _, n := range lines {
				sum += n
			}
			ranked = append(ranked, fileTotal{file, sum})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].samples != ranked[j].samples {
				return ranked[i].samples > ranked[j].samples
			}
			return ranked[i].file < ranked[j].file
		})
		s.fileRank = ranked
	})
	return s.fileRank
}

type edge struct {
	callee frameID
	weight int
}

// sortedEdges orders a frame's outgoing edges by weight descending, then
// callee id.
func sortedEdges(f *frame) []edge {
	if len(f.edges) == 0 {
		return nil
	}
	out := make([]edge, 0, len(f.edges))
	for id, w := range f.edges {
		out = append(out, edge{id, w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].callee < out[j].callee
	})
	return out
}

func sortedLines(f *frame) []int {
	out := make([]int, 0, len(f.lines))
	for ln := range f.lines {
		out = append(out, ln)
	}
	sort.Ints(out)
	return out
}

// percent is 100*n/total, or 0 for an empty profile.
func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100.0 * float64(n) / float64(total)
}
