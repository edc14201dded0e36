package main

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Collapsed stacks ("[thread];root;...;leaf:line COUNT")
// ---------------------------------------------------------------------------

// stack is one collapsed-stack line: a root → leaf chain seen count times.
// thread is "" when the line has no leading [thread] frame.
type stack struct {
	frames []stackFrame
	count  int
	thread string
}

type stackFile struct {
	stacks       []stack
	totalSamples int
}

// filterByThread keeps the stacks whose thread name contains thread.
func (sf *stackFile) filterByThread(thread string) *stackFile {
	if thread == "" {
		return sf
	}
	out := &stackFile{}
	for _, st := range sf.stacks {
		if strings.Contains(st.thread, thread) {
			out.stacks = append(out.stacks, st)
			out.totalSamples += st.count
		}
	}
	return out
}

func (sf *stackFile) threads() threadSamples {
	ts := make(threadSamples)
	for _, st := range sf.stacks {
		ts[st.thread] += st.count
	}
	return ts
}

func (sf *stackFile) toRaw(mode string) *rawSnapshot {
	b := newGraphBuilder()
	for _, st := range sf.stacks {
		b.add(st.frames, st.count)
	}
	return b.snapshot(mode, 0)
}

func parseCollapsed(r io.Reader) (*stackFile, error) {
	sf := &stackFile{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		st, ok := parseCollapsedLine(sc.Text())
		if !ok {
			continue
		}
		sf.stacks = append(sf.stacks, st)
		sf.totalSamples += st.count
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read collapsed stacks: %w", err)
	}
	return sf, nil
}

// parseCollapsedLine decodes one line. Blank lines, lines without a positive
// trailing count and lines without frames are rejected.
func parseCollapsedLine(line string) (stack, bool) {
	line = strings.TrimRight(line, " \t\r")
	sp := strings.LastIndexAny(line, " \t")
	if sp <= 0 {
		return stack{}, false
	}
	count, err := strconv.Atoi(line[sp+1:])
	if err != nil || count <= 0 {
		return stack{}, false
	}

	st := stack{count: count}
	parts := strings.Split(strings.TrimRight(line[:sp], " \t"), ";")
	if name, ok := threadName(parts[0]); ok {
		st.thread = name
		parts = parts[1:]
	}
	for _, p := range parts {
		if p == "" {
			continue
		}
		name, ln := splitFrameLine(p)
		st.frames = append(st.frames, stackFrame{key: name, name: name, line: ln})
	}
	return st, len(st.frames) > 0
}

// threadName recognizes a "[name]" or "[name tid=N]" thread frame.
func threadName(s string) (string, bool) {
	if len(s) < 3 || s[0] != '[' || s[len(s)-1] != ']' {
		return "", false
	}
	name := s[1 : len(s)-1]
	if i := strings.LastIndex(name, " tid="); i > 0 {
		if _, err := strconv.Atoi(name[i+len(" tid="):]); err == nil {
			name = strings.TrimRight(name[:i], " ")
		}
	}
	return name, true
}

// splitFrameLine splits "Foo.bar:42" (optionally followed by an
// async-profiler "_[j]" type tag) into name and line. Frames without a line
// come back unchanged with line 0.
func splitFrameLine(s string) (string, int) {
	body := s
	if strings.HasSuffix(body, "]") {
		if i := strings.LastIndex(body, "_["); i > 0 {
			body = body[:i]
		}
	}
	i := strings.LastIndexByte(body, ':')
	if i <= 0 {
		return s, 0
	}
	ln, err := strconv.Atoi(body[i+1:])
	if err != nil || ln < 0 {
		return s, 0
	}
	return body[:i], ln
}

// ---------------------------------------------------------------------------
// Input files
// ---------------------------------------------------------------------------

// openReader opens path for reading. "-" is stdin; a .gz suffix is
// decompressed on the fly.
func openReader(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g gzipFile) Close() error {
	zerr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return zerr
}
