package main

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// lineCount accepts both a plain count and the [count, ...] form some
// sampler versions write; only the first element is used.
type lineCount int

func (c *lineCount) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*c = lineCount(n)
		return nil
	}
	var counts []int
	if err := json.Unmarshal(b, &counts); err != nil {
		return fmt.Errorf("line count %s: %w", b, err)
	}
	if len(counts) > 0 {
		*c = lineCount(counts[0])
	}
	return nil
}

func decodeJSON(r io.Reader) (*rawSnapshot, error) {
	var raw rawSnapshot
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &raw, nil
}

// ---------------------------------------------------------------------------
// Unified input: auto-detect the snapshot format
// ---------------------------------------------------------------------------

const (
	inputAuto      = "auto"
	inputJSON      = "json"
	inputPprof     = "pprof"
	inputJFR       = "jfr"
	inputCollapsed = "collapsed"
)

type inputOptions struct {
	format      string
	event       string // jfr
	thread      string // jfr, collapsed
	sampleIndex int    // pprof
}

func isJFRPath(path string) bool {
	if path == "-" {
		return false
	}
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".jfr") || strings.HasSuffix(p, ".jfr.gz")
}

func detectFormat(path string) string {
	if isJFRPath(path) {
		return inputJFR
	}
	p := strings.TrimSuffix(strings.ToLower(path), ".gz")
	switch {
	case path == "-":
		return inputCollapsed
	case strings.HasSuffix(p, ".json"):
		return inputJSON
	case strings.HasSuffix(p, ".pb"), strings.HasSuffix(p, ".pprof"), strings.HasSuffix(p, ".prof"):
		return inputPprof
	}
	return inputCollapsed
}

func openInput(path string, opts inputOptions) (*snapshot, error) {
	format := opts.format
	if format == "" || format == inputAuto {
		format = detectFormat(path)
	}

	var raw *rawSnapshot
	switch format {
	case inputJFR:
		buf, err := readJFR(path)
		if err != nil {
			return nil, err
		}
		if raw, _, err = decodeJFR(buf, opts.event, opts.thread); err != nil {
			return nil, err
		}
	case inputJSON, inputPprof, inputCollapsed:
		rc, err := openReader(path)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		switch format {
		case inputJSON:
			raw, err = decodeJSON(rc)
		case inputPprof:
			raw, err = parsePprof(rc, opts.sampleIndex)
		default:
			var sf *stackFile
			if sf, err = parseCollapsed(rc); err == nil {
				raw = sf.filterByThread(opts.thread).toRaw("collapsed")
			}
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown input format %q (valid: auto, json, pprof, jfr, collapsed)", format)
	}
	return normalize(raw)
}

// loadThreads counts the samples per thread of a JFR or collapsed-stack
// input; the other formats carry no thread names.
func loadThreads(path string, opts inputOptions) (threadSamples, error) {
	format := opts.format
	if format == "" || format == inputAuto {
		format = detectFormat(path)
	}
	switch format {
	case inputJFR:
		buf, err := readJFR(path)
		if err != nil {
			return nil, err
		}
		_, ts, err := decodeJFR(buf, opts.event, "")
		return ts, err
	case inputCollapsed:
		rc, err := openReader(path)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		sf, err := parseCollapsed(rc)
		if err != nil {
			return nil, err
		}
		return sf.threads(), nil
	}
	return nil, fmt.Errorf("%s input has no thread information (need jfr or collapsed)", format)
}
