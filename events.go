package main

import (
	"fmt"
	"io"
	"sort"
)

// cmdEvents lists how many events of each --event kind a recording holds.
func cmdEvents(w io.Writer, path string) error {
	buf, err := readJFR(path)
	if err != nil {
		return err
	}
	counts, err := countJFREvents(buf)
	if err != nil {
		return err
	}
	printEvents(w, counts)
	return nil
}

func printEvents(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "no supported events found")
		return
	}

	type entry struct {
		name    string
		samples int
	}
	var ranked []entry
	for name, cnt := range counts {
		ranked = append(ranked, entry{name, cnt})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].samples != ranked[j].samples {
			return ranked[i].samples > ranked[j].samples
		}
		return ranked[i].name < ranked[j].name
	})

	fmt.Fprintf(w, "%-10s %9s\n", "EVENT", "SAMPLES")
	for _, e := range ranked {
		fmt.Fprintf(w, "%-10s %9d\n", e.name, e.samples)
	}
}
