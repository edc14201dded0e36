package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/grafana/jfr-parser/parser"
	"github.com/grafana/jfr-parser/parser/types"
)

// jfrEvent is one stack-carrying JFR event, tagged with the --event kind
// (cpu, wall, alloc, lock) that selects it.
type jfrEvent struct {
	kind   string
	stack  types.StackTraceRef
	thread types.ThreadRef
}

// jfrReader walks the sample events of a recording. Stack and thread
// references are chunk-local: resolve them before the next call to next.
type jfrReader struct {
	p *parser.Parser
}

func newJFRReader(buf []byte) *jfrReader {
	return &jfrReader{p: parser.NewParser(buf, parser.Options{})}
}

// readJFR loads a whole recording; the parser works on an in-memory buffer.
func readJFR(path string) ([]byte, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	buf, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf, nil
}

// next returns the next event of a supported kind, or io.EOF at the end of
// the recording.
func (r *jfrReader) next() (jfrEvent, error) {
	p := r.p
	for {
		typ, err := p.ParseEvent()
		if err != nil {
			return jfrEvent{}, err
		}
		switch typ {
		case p.TypeMap.T_EXECUTION_SAMPLE:
			return jfrEvent{"cpu", p.ExecutionSample.StackTrace, p.ExecutionSample.SampledThread}, nil
		case p.TypeMap.T_WALL_CLOCK_SAMPLE:
			return jfrEvent{"wall", p.WallClockSample.StackTrace, p.WallClockSample.SampledThread}, nil
		case p.TypeMap.T_ALLOC_IN_NEW_TLAB:
			return jfrEvent{"alloc", p.ObjectAllocationInNewTLAB.StackTrace, p.ObjectAllocationInNewTLAB.EventThread}, nil
		case p.TypeMap.T_ALLOC_OUTSIDE_TLAB:
			return jfrEvent{"alloc", p.ObjectAllocationOutsideTLAB.StackTrace, p.ObjectAllocationOutsideTLAB.EventThread}, nil
		case p.TypeMap.T_ALLOC_SAMPLE:
			return jfrEvent{"alloc", p.ObjectAllocationSample.StackTrace, p.ObjectAllocationSample.EventThread}, nil
		case p.TypeMap.T_MONITOR_ENTER:
			return jfrEvent{"lock", p.JavaMonitorEnter.StackTrace, p.JavaMonitorEnter.EventThread}, nil
		}
	}
}

// stack resolves a stack trace to root → leaf frames keyed by method name,
// each carrying the line it was executing.
func (r *jfrReader) stack(ref types.StackTraceRef) []stackFrame {
	st := r.p.GetStacktrace(ref)
	if st == nil {
		return nil
	}
	n := len(st.Frames)
	out := make([]stackFrame, n)
	for i, f := range st.Frames {
		name := r.method(f.Method)
		out[n-1-i] = stackFrame{key: name, name: name, line: int(f.LineNumber)}
	}
	return out
}

// method renders "com.example.App.run"; class paths use dots.
func (r *jfrReader) method(ref types.MethodRef) string {
	m := r.p.GetMethod(ref)
	if m == nil {
		return "<unknown>"
	}
	name := r.p.GetSymbolString(m.Name)
	if class := r.p.GetClass(m.Type); class != nil {
		if cn := r.p.GetSymbolString(class.Name); cn != "" {
			return strings.ReplaceAll(cn, "/", ".") + "." + name
		}
	}
	return name
}

// thread prefers the Java thread name over the OS one; "" if unknown.
func (r *jfrReader) thread(ref types.ThreadRef) string {
	idx, ok := r.p.Threads.IDMap[ref]
	if !ok {
		return ""
	}
	t := &r.p.Threads.Thread[idx]
	if t.JavaName != "" {
		return t.JavaName
	}
	return t.OsName
}

// decodeJFR folds the events of one kind into a frame graph, one sample per
// event. A non-empty thread keeps only events whose thread name contains it.
// The per-thread counts of the kept events come back alongside.
func decodeJFR(buf []byte, event, thread string) (*rawSnapshot, threadSamples, error) {
	r := newJFRReader(buf)
	b := newGraphBuilder()
	ts := make(threadSamples)
	for {
		ev, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse jfr: %w", err)
		}
		if ev.kind != event {
			continue
		}
		name := r.thread(ev.thread)
		if thread != "" && !strings.Contains(name, thread) {
			continue
		}
		frames := r.stack(ev.stack)
		if len(frames) == 0 {
			continue
		}
		b.add(frames, 1)
		ts[name]++
	}
	return b.snapshot(event, 0), ts, nil
}

// countJFREvents counts the events each --event kind would select.
func countJFREvents(buf []byte) (map[string]int, error) {
	r := newJFRReader(buf)
	counts := make(map[string]int)
	for {
		ev, err := r.next()
		if err == io.EOF {
			return counts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse jfr: %w", err)
		}
		counts[ev.kind]++
	}
}
