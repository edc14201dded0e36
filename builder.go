package main

import "strconv"

// stackFrame is one frame of a decoded stack sample.
type stackFrame struct {
	key  string // identity; samples with equal keys feed the same frame
	name string
	file string
	decl int // declaration line, 0 = unknown
	line int // line executing in this frame, 0 = unknown
}

// graphBuilder folds stack samples into the per-frame record the sampler
// would have produced: self samples on the leaf, inclusive samples, call
// edges and line counts once per distinct frame/edge/line in a stack, so
// recursion does not inflate them.
type graphBuilder struct {
	frames map[string]*rawFrame
	total  int
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{frames: make(map[string]*rawFrame)}
}

type lineKey struct {
	frame string
	line  int
}

type edgeKey struct {
	caller, callee string
}

// add records count samples of a root → leaf stack.
func (b *graphBuilder) add(stack []stackFrame, count int) {
	if len(stack) == 0 || count <= 0 {
		return
	}
	b.total += count

	seenFrame := make(map[string]bool, len(stack))
	seenLine := make(map[lineKey]bool)
	seenEdge := make(map[edgeKey]bool)
	for i, sf := range stack {
		rf := b.frame(sf)
		if !seenFrame[sf.key] {
			rf.TotalSamples += count
			seenFrame[sf.key] = true
		}
		if sf.line > 0 && !seenLine[lineKey{sf.key, sf.line}] {
			if rf.Lines == nil {
				rf.Lines = make(map[string]lineCount)
			}
			rf.Lines[strconv.Itoa(sf.line)] += lineCount(count)
			seenLine[lineKey{sf.key, sf.line}] = true
		}
		if i > 0 {
			caller := stack[i-1].key
			if ek := (edgeKey{caller, sf.key}); !seenEdge[ek] {
				cf := b.frames[caller]
				if cf.Edges == nil {
					cf.Edges = make(map[string]int)
				}
				cf.Edges[sf.key] += count
				seenEdge[ek] = true
			}
		}
	}
	b.frame(stack[len(stack)-1]).Samples += count
}

func (b *graphBuilder) frame(sf stackFrame) *rawFrame {
	rf, ok := b.frames[sf.key]
	if !ok {
		rf = &rawFrame{Name: sf.name, File: sf.file, Line: sf.decl}
		b.frames[sf.key] = rf
	}
	return rf
}

func (b *graphBuilder) snapshot(mode string, interval int) *rawSnapshot {
	total := b.total
	raw := &rawSnapshot{
		Samples:  &total,
		Interval: interval,
		Mode:     mode,
		Frames:   make(map[string]rawFrame, len(b.frames)),
	}
	for k, rf := range b.frames {
		raw.Frames[k] = *rf
	}
	return raw
}
