package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// cmdSource prints the source of every matching frame with per-line sample
// counts in the gutter. A frame whose file cannot be read gets a placeholder
// line; the remaining frames are still printed.
func cmdSource(w io.Writer, s *snapshot, m frameMatcher, root string, log logrus.FieldLogger) {
	log = orDefaultLogger(log)
	found := false
	for _, e := range s.sortedFrames(false) {
		f := e.frame
		if !m.matchFrame(e.id, f) {
			continue
		}
		found = true

		decl := f.line
		if decl == 0 {
			decl = 1
		}
		maxLine := decl + 5
		if len(f.lines) > 0 {
			ls := sortedLines(f)
			maxLine = ls[len(ls)-1]
		}

		fmt.Fprintf(w, "%s (%s:%d)\n", f.name, f.file, decl)
		if err := annotateFile(w, s, f, resolveSource(root, f.file), decl, maxLine); err != nil {
			log.WithFields(logrus.Fields{"frame": e.id, "file": f.file, "error": err}).Warn("cannot annotate frame")
			fmt.Fprintf(w, "  [%v]\n", err)
		}
	}
	if !found {
		fmt.Fprintf(w, "no frames matching %s\n", m)
	}
}

func resolveSource(root, file string) string {
	if root == "" || file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(root, file)
}

// annotateFile emits the lines whose 0-based index lies in [decl-1, maxLine].
func annotateFile(w io.Writer, s *snapshot, f *frame, path string, decl, maxLine int) error {
	if path == "" {
		return fmt.Errorf("%w: no file recorded", errSourceUnavailable)
	}
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errSourceUnavailable, err)
	}
	defer src.Close()

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for i := 0; scanner.Scan(); i++ {
		if i > maxLine {
			break
		}
		if i < decl-1 {
			continue
		}
		code := scanner.Text()
		if n, ok := f.lines[i+1]; ok {
			fmt.Fprintf(w, "% 5d % 7s / % 7s  | % 5d  | %s\n", n,
				fmt.Sprintf("(%2.1f%%", percent(n, s.overallSamples)),
				fmt.Sprintf("%2.1f%%)", percent(n, f.samples)),
				i+1, code)
		} else {
			fmt.Fprintf(w, "                         | % 5d  | %s\n", i+1, code)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", errSourceUnavailable, err)
	}
	return nil
}
