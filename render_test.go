package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// text
// ---------------------------------------------------------------------------

func TestCmdText(t *testing.T) {
	var buf bytes.Buffer
	cmdText(&buf, twoFrameSnapshot(), false, 0)
	require.Equal(t,
		"     TOTAL    (pct)     SAMPLES    (pct)     FRAME\n"+
			"        60  (60.0%)          60  (60.0%)     B\n"+
			"       100 (100.0%)          40  (40.0%)     A\n",
		buf.String())
}

func TestCmdTextZeroSamples(t *testing.T) {
	var buf bytes.Buffer
	s := makeSnapshot(0, map[frameID]*frame{"1": {name: "Z"}})
	cmdText(&buf, s, true, 0)
	require.Equal(t,
		"     TOTAL    (pct)     SAMPLES    (pct)     FRAME\n"+
			"         0   (0.0%)           0   (0.0%)     Z\n",
		buf.String())
}

func TestCmdTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	cmdText(&buf, makeSnapshot(0, map[frameID]*frame{}), false, 5)
	require.Equal(t, "     TOTAL    (pct)     SAMPLES    (pct)     FRAME\n", buf.String())
}

// ---------------------------------------------------------------------------
// graphviz
// ---------------------------------------------------------------------------

func TestCmdGraphviz(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, cmdGraphviz(&buf, twoFrameSnapshot(), nil, newPruner(0, nil)))
	require.Equal(t, `digraph profile {
  2 [size=1.7] [fontsize=38.0] [penwidth="1.7"] [shape=box] [label="B\n60 (60.0%)\r"];
  1 [size=2.5] [fontsize=28.666666666666664] [penwidth="2.5"] [shape=box] [label="A\n40 (40.0%)\rof 100 (100.0%)\r"];
  1 -> 2 [label="60"] [weight="60"] [penwidth="1.7"];
}
`, buf.String())
}

func TestCmdGraphvizPruned(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, cmdGraphviz(&buf, callTree(), substringMatcher("work"), newPruner(0, nil)))
	require.Equal(t, `digraph profile {
  4 [size=1.5] [fontsize=38.0] [penwidth="1.5"] [shape=box] [label="helper\n50 (50.0%)\r"];
  2 [size=1.9] [fontsize=15.600000000000001] [penwidth="1.9"] [shape=box] [label="work\n10 (10.0%)\rof 70 (70.0%)\r"];
  2 -> 4 [label="50"] [weight="50"] [penwidth="1.5"];
}
`, buf.String())
}

func TestCmdGraphvizEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, cmdGraphviz(&buf, makeSnapshot(0, map[frameID]*frame{}), nil, newPruner(0, nil)))
	require.Equal(t, "digraph profile {\n}\n", buf.String())
}

func TestCmdGraphvizNoMatch(t *testing.T) {
	log, hook := test.NewNullLogger()
	var buf bytes.Buffer
	require.NoError(t, cmdGraphviz(&buf, callTree(), substringMatcher("nothing"), newPruner(0, log)))
	require.Equal(t, "digraph profile {\n}\n", buf.String())
	require.Equal(t, "no frames match filter", hook.LastEntry().Message)
}

func TestCmdGraphvizUnknownEdgeTarget(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := makeSnapshot(10, map[frameID]*frame{
		"1": {name: "a", samples: 10, totalSamples: 10, edges: map[frameID]int{"99": 4}},
	})
	var buf bytes.Buffer
	require.NoError(t, cmdGraphviz(&buf, s, nil, newPruner(0, log)))
	require.NotContains(t, buf.String(), "->")
	require.Len(t, hook.Entries, 1)
	require.Equal(t, errUnknownEdgeTarget.Error(), hook.LastEntry().Message)
}

func TestCmdGraphvizSymbolicIDs(t *testing.T) {
	s := makeSnapshot(4, map[frameID]*frame{
		"Foo#bar":   {name: `Foo#bar "quoted"`, samples: 1, totalSamples: 4, edges: map[frameID]int{"addr:0x10": 3}},
		"addr:0x10": {name: "0x10", samples: 3, totalSamples: 3},
	})
	var buf bytes.Buffer
	require.NoError(t, cmdGraphviz(&buf, s, nil, newPruner(0, nil)))
	out := buf.String()
	require.Contains(t, out, `  "addr:0x10" [size=`)
	require.Contains(t, out, `[label="Foo#bar \"quoted\"\n1 (25.0%)\rof 4 (100.0%)\r"]`)
	require.Contains(t, out, `  "Foo#bar" -> "addr:0x10" [label="3"]`)
}

func TestDotFloat(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{10, "10.0"},
		{0.5, "0.5"},
		{2.5, "2.5"},
		{38, "38.0"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, dotFloat(tt.v))
	}
	require.Equal(t, 0.5, scale(3, 0, 0.5, 2))
}

// ---------------------------------------------------------------------------
// callgrind
// ---------------------------------------------------------------------------

func twoFileSnapshot() *snapshot {
	return makeSnapshot(100, map[frameID]*frame{
		"1": {name: "A", file: "a.rb", line: 10, samples: 40, totalSamples: 100,
			lines: map[int]int{11: 40}, edges: map[frameID]int{"2": 60}},
		"2": {name: "B", file: "b.rb", line: 20, samples: 60, totalSamples: 60,
			lines: map[int]int{21: 60}},
	})
}

func TestCmdCallgrind(t *testing.T) {
	log, _ := test.NewNullLogger()
	var buf bytes.Buffer
	cmdCallgrind(&buf, twoFileSnapshot(), callgrindOptions{}, log)
	require.Equal(t, `version: 1
creator: stackprof
pid: 0
cmd: ruby
part: 1
desc: mode: cpu(1000)
desc: missed: 0
positions: line
events: Instructions
summary: 100
fl=b.rb
fn=B
21 60

fl=a.rb
fn=A
11 40
cfl=b.rb
cfn=B
calls=60 10
20 60

totals: 100
`, buf.String())
}

func TestCmdCallgrindSameFileAndOptions(t *testing.T) {
	s := makeSnapshot(10, map[frameID]*frame{
		"1": {name: "outer", file: "x.rb", line: 1, samples: 5, totalSamples: 10, edges: map[frameID]int{"2": 5, "9": 1}},
		"2": {name: "inner", file: "x.rb", line: 5, samples: 5, totalSamples: 5},
	})
	log, hook := test.NewNullLogger()
	var buf bytes.Buffer
	cmdCallgrind(&buf, s, callgrindOptions{creator: "sp-report", command: "bin/rails"}, log)
	out := buf.String()
	require.Contains(t, out, "creator: sp-report\n")
	require.Contains(t, out, "cmd: bin/rails\n")
	require.NotContains(t, out, "cfl=")
	require.Contains(t, out, "fn=outer\ncfn=inner\ncalls=5 1\n5 5\n")
	require.Equal(t, 1, strings.Count(out, "cfn="))
	require.Len(t, hook.Entries, 1)
}

func TestCmdCallgrindUnknownCalleeNilLogger(t *testing.T) {
	s := makeSnapshot(3, map[frameID]*frame{
		"1": {name: "a", file: "a.rb", samples: 3, totalSamples: 3, edges: map[frameID]int{"99": 2}},
	})
	var buf bytes.Buffer
	require.NotPanics(t, func() { cmdCallgrind(&buf, s, callgrindOptions{}, nil) })
	require.Contains(t, buf.String(), "fl=a.rb\nfn=a\n\ntotals: 3\n")
}

// ---------------------------------------------------------------------------
// files, info
// ---------------------------------------------------------------------------

func TestCmdFiles(t *testing.T) {
	var buf bytes.Buffer
	cmdFiles(&buf, twoFileSnapshot(), 0)
	require.Equal(t,
		"   SAMPLES    (pct)     FILE\n"+
			"        60  (60.0%)     b.rb\n"+
			"        40  (40.0%)     a.rb\n"+
			"\n100 line samples in 2 files\n",
		buf.String())
}

func TestCmdFilesNoLineData(t *testing.T) {
	var buf bytes.Buffer
	cmdFiles(&buf, twoFrameSnapshot(), 0)
	require.Equal(t, "no line data in this snapshot\n", buf.String())
}

func TestCmdInfo(t *testing.T) {
	var buf bytes.Buffer
	cmdInfo(&buf, twoFileSnapshot(), 1, 1)
	out := buf.String()
	require.Contains(t, out, "=== SNAPSHOT ===\n")
	require.Contains(t, out, "mode:            cpu(1000)\n")
	require.Contains(t, out, "max self:        60 (B)\n")
	require.Contains(t, out, "=== RANK BY SELF TIME (top 1) ===\n")
	require.Contains(t, out, "=== RANK BY TOTAL TIME (top 1) ===\n")
	require.Contains(t, out, "=== FILES (top 1) ===\n")
	require.True(t, strings.HasSuffix(out, "=== CHECK ===\nok\n"))
}

func TestCmdInfoReportsProblems(t *testing.T) {
	s := makeSnapshot(10, map[frameID]*frame{
		"1": {name: "a", samples: 10, totalSamples: 5},
	})
	var buf bytes.Buffer
	cmdInfo(&buf, s, 10, 5)
	require.Contains(t, buf.String(), "=== CHECK ===\nframe 1: total samples 5 < self samples 10\n")
}
