package main

import (
	"github.com/sirupsen/logrus"
)

const defaultDominance = 1.2

// pruner extracts the part of the call graph that is "owned" by the frames a
// matcher selects.
//
// Expansion from a marked frame follows an edge only when that edge carries
// most of the callee's inclusive cost (callee.total <= weight*dominance; with
// the default 1.2 the edge must account for about 83% of the callee). A full
// reachability closure would pull in the whole graph as soon as a root sits
// near a hub such as a dispatcher; the dominance gate keeps only callees that
// are effectively private to the call site.
type pruner struct {
	dominance float64
	log       logrus.FieldLogger
}

func newPruner(dominance float64, log logrus.FieldLogger) *pruner {
	if dominance <= 0 {
		dominance = defaultDominance
	}
	return &pruner{dominance: dominance, log: orDefaultLogger(log)}
}

// subgraph is the result of one prune. Its frames are copies whose edges only
// point at other retained frames; the snapshot itself is left untouched.
type subgraph struct {
	roots  []frameID
	frames map[frameID]*frame
	order  []frameEntry
}

func (g *subgraph) sorted() []frameEntry { return g.order }

func (p *pruner) prune(s *snapshot, m frameMatcher) *subgraph {
	var stack []frameID
	for _, e := range s.sortedFrames(false) {
		if m.matchFrame(e.id, e.frame) {
			stack = append(stack, e.id)
		}
	}
	g := &subgraph{roots: append([]frameID(nil), stack...)}

	// marks are scoped to this call so repeated or concurrent prunes of one
	// snapshot never see each other's state.
	marked := make(map[frameID]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if marked[id] {
			continue
		}
		f, ok := s.lookup(id)
		if !ok {
			continue
		}
		marked[id] = true
		for _, ed := range sortedEdges(f) {
			callee, ok := s.lookup(ed.callee)
			if !ok {
				p.log.WithFields(logrus.Fields{"frame": id, "callee": ed.callee}).
					Warn(errUnknownEdgeTarget.Error())
				continue
			}
			if marked[ed.callee] {
				continue
			}
			if float64(callee.totalSamples) <= float64(ed.weight)*p.dominance {
				p.log.WithFields(logrus.Fields{"frame": id, "callee": ed.callee, "weight": ed.weight}).
					Debug("expanding dominant edge")
				stack = append(stack, ed.callee)
			}
		}
	}

	g.frames = make(map[frameID]*frame, len(marked))
	for _, e := range s.sortedFrames(false) {
		if !marked[e.id] {
			continue
		}
		cp := *e.frame
		if e.frame.edges != nil {
			cp.edges = make(map[frameID]int, len(e.frame.edges))
			for callee, w := range e.frame.edges {
				if marked[callee] {
					cp.edges[callee] = w
				}
			}
		}
		g.frames[e.id] = &cp
		g.order = append(g.order, frameEntry{e.id, &cp})
	}
	return g
}
