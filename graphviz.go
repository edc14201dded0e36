package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// cmdGraphviz prints the call graph in DOT. With a matcher only the pruned
// subgraph around the matching frames is drawn.
func cmdGraphviz(w io.Writer, s *snapshot, m frameMatcher, p *pruner) error {
	list := s.sortedFrames(false)
	frames := s.frames
	if m != nil {
		g := p.prune(s, m)
		if len(g.roots) == 0 {
			p.log.WithField("filter", m.String()).Warn("no frames match filter")
		}
		list = g.sorted()
		frames = g.frames
	}

	fmt.Fprintln(w, "digraph profile {")
	if len(list) == 0 {
		fmt.Fprintln(w, "}")
		return nil
	}
	maxSamples, err := s.maxSamples()
	if err != nil {
		return err
	}

	for _, e := range list {
		f := e.frame
		var sample strings.Builder
		if f.samples < f.totalSamples {
			fmt.Fprintf(&sample, "%d (%2.1f%%)\\rof ", f.samples, percent(f.samples, s.overallSamples))
		}
		fmt.Fprintf(&sample, "%d (%2.1f%%)\\r", f.totalSamples, percent(f.totalSamples, s.overallSamples))

		fontsize := scale(f.samples, maxSamples, 10, 28)
		size := scale(f.totalSamples, s.overallSamples, 0.5, 2.0)
		node := dotID(e.id)
		fmt.Fprintf(w, "  %s [size=%s] [fontsize=%s] [penwidth=\"%s\"] [shape=box] [label=\"%s\\n%s\"];\n",
			node, dotFloat(size), dotFloat(fontsize), dotFloat(size), dotEscape(f.name), sample.String())

		for _, ed := range sortedEdges(f) {
			if _, ok := frames[ed.callee]; !ok {
				p.log.WithFields(logrus.Fields{"frame": e.id, "callee": ed.callee}).
					Warn(errUnknownEdgeTarget.Error())
				continue
			}
			pen := scale(ed.weight, s.overallSamples, 0.5, 2.0)
			fmt.Fprintf(w, "  %s -> %s [label=\"%d\"] [weight=\"%d\"] [penwidth=\"%s\"];\n",
				node, dotID(ed.callee), ed.weight, ed.weight, dotFloat(pen))
		}
	}
	fmt.Fprintln(w, "}")
	return nil
}

// scale maps n/total in [0,1] onto [base, base+span]; a zero total maps to
// base. The conversion keeps the product rounded before the add, so the
// printed values do not depend on FMA support.
func scale(n, total int, base, span float64) float64 {
	if total == 0 {
		return base
	}
	return float64(float64(n)/float64(total)*span) + base
}

// dotFloat prints the shortest representation, keeping ".0" on integral
// values (10.0, not 10).
func dotFloat(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(out, ".eEnN") {
		out += ".0"
	}
	return out
}

// dotID leaves numeric ids bare and quotes everything else.
func dotID(id frameID) string {
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return string(id)
	}
	return "\"" + dotEscape(string(id)) + "\""
}

func dotEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
