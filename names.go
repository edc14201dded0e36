package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// matchesMethod reports whether pattern occurs in name, with JVM-style
// "com/example/App" class paths also tried in dotted form.
func matchesMethod(name, pattern string) bool {
	return strings.Contains(name, pattern) || strings.Contains(strings.ReplaceAll(name, "/", "."), pattern)
}

func truncate(n, top int) int {
	if top > 0 && top < n {
		return top
	}
	return n
}

// ---------------------------------------------------------------------------
// Frame matchers (-m, --regex, --where)
// ---------------------------------------------------------------------------

// frameMatcher selects the frames a report starts from: pruning roots for
// graphviz, annotated frames for source.
type frameMatcher interface {
	matchFrame(id frameID, f *frame) bool
	String() string
}

type substringMatcher string

func (m substringMatcher) matchFrame(_ frameID, f *frame) bool {
	return matchesMethod(f.name, string(m))
}

func (m substringMatcher) String() string { return fmt.Sprintf("%q", string(m)) }

type regexpMatcher struct {
	re *regexp.Regexp
}

func (m regexpMatcher) matchFrame(_ frameID, f *frame) bool { return m.re.MatchString(f.name) }

func (m regexpMatcher) String() string { return "/" + m.re.String() + "/" }

// whereMatcher evaluates a Starlark boolean expression per frame, e.g.
//
//	samples > 100 and file.endswith("worker.rb")
//
// Bound names: id, name, file, line, samples, total_samples.
type whereMatcher struct {
	src string
	fn  *starlark.Function
	log logrus.FieldLogger
}

// whereParams are the names bound for a --where expression, in the order
// the compiled predicate takes them.
var whereParams = []string{"id", "name", "file", "line", "samples", "total_samples"}

func newWhereMatcher(src string, log logrus.FieldLogger) (*whereMatcher, error) {
	opts := &syntax.FileOptions{}
	if _, err := opts.ParseExpr("where", src, 0); err != nil {
		return nil, fmt.Errorf("bad --where expression: %w", err)
	}
	// The expression becomes the body of a lambda over the bound names, so
	// it is parsed and resolved once. Unbound names fail here.
	lambda := "lambda " + strings.Join(whereParams, ", ") + ": (" + src + "\n)"
	outer, err := starlark.ExprFuncOptions(opts, "where", lambda, nil)
	if err != nil {
		return nil, fmt.Errorf("bad --where expression: %w", err)
	}
	v, err := starlark.Call(&starlark.Thread{Name: "where"}, outer, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("bad --where expression: %w", err)
	}
	fn, ok := v.(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("bad --where expression: compiled to %s", v.Type())
	}
	return &whereMatcher{src: src, fn: fn, log: orDefaultLogger(log)}, nil
}

func (m *whereMatcher) eval(id frameID, f *frame) (bool, error) {
	args := starlark.Tuple{
		starlark.String(id),
		starlark.String(f.name),
		starlark.String(f.file),
		starlark.MakeInt(f.line),
		starlark.MakeInt(f.samples),
		starlark.MakeInt(f.totalSamples),
	}
	v, err := starlark.Call(&starlark.Thread{Name: "where"}, m.fn, args, nil)
	if err != nil {
		return false, err
	}
	return bool(v.Truth()), nil
}

func (m *whereMatcher) matchFrame(id frameID, f *frame) bool {
	ok, err := m.eval(id, f)
	if err != nil {
		m.log.WithFields(logrus.Fields{"frame": id, "error": err}).Debug("where expression failed")
		return false
	}
	return ok
}

func (m *whereMatcher) String() string { return m.src }

// newMatcher builds the matcher selected on the command line. It returns nil
// when no filter was given.
func newMatcher(pattern string, useRegexp bool, where string, log logrus.FieldLogger) (frameMatcher, error) {
	if where != "" {
		if pattern != "" {
			return nil, fmt.Errorf("-m and --where are mutually exclusive")
		}
		return newWhereMatcher(where, log)
	}
	if pattern == "" {
		return nil, nil
	}
	if useRegexp {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad filter regexp: %w", err)
		}
		return regexpMatcher{re}, nil
	}
	return substringMatcher(pattern), nil
}
