// sp-report: render sampling-profiler snapshots as a ranked table, a pruned
// call graph (DOT), a callgrind cost file or annotated source.
//
// Usage:
//
//	sp-report <command> [flags] <file>
//
// Input: .json dumps, pprof profiles (.pb.gz, .pprof, .prof), .jfr/.jfr.gz
// recordings and collapsed-stack text (everything else, and stdin as "-").
//
// Commands: text, graphviz, callgrind, source, files, info, dump, events, threads
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// CLI
// ---------------------------------------------------------------------------

type cliFlags struct {
	configPath  string
	verbose     bool
	input       string
	event       string
	thread      string
	sampleIndex int

	sort      string
	top       int
	method    string
	regex     bool
	where     string
	dominance float64
	root      string
	creator   string
	command   string
}

type app struct {
	flags cliFlags
	cfg   config
	log   *logrus.Logger
	out   io.Writer
}

const longHelp = `sp-report: render sampling-profiler snapshots

Input auto-detection:
  .json / .json.gz                 →  sampler JSON dump
  .pb.gz / .pprof / .prof          →  pprof protobuf (--sample-index)
  .jfr / .jfr.gz                   →  JFR binary (--event, -t)
  everything else, -               →  collapsed-stack text ("a;b;c count")

Filters (graphviz, source):
  -m PATTERN     substring match on frame names (--regex for a regular expression)
  --where EXPR   Starlark expression over id, name, file, line, samples, total_samples

Examples:
  sp-report text profile.json --sort total --top 20
  sp-report graphviz profile.json -m 'Worker#perform' | dot -Tsvg > graph.svg
  sp-report callgrind profile.pb.gz > callgrind.out.1
  sp-report source profile.json -m 'Parser#parse' --root ./app
  sp-report info profile.jfr --event wall -t http-nio
  sp-report graphviz profile.json --where 'samples > 100 and "app/" in file'
`

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "sp-report",
		Short:         "Render sampling-profiler snapshots",
		Long:          longHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "YAML config file (default $SP_REPORT_CONFIG)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug diagnostics on stderr")
	pf.StringVar(&a.flags.input, "input", inputAuto, "input format: auto, json, pprof, jfr, collapsed")
	pf.StringVarP(&a.flags.event, "event", "e", "cpu", "JFR event type: cpu, wall, alloc, lock")
	pf.StringVarP(&a.flags.thread, "thread", "t", "", "keep only stacks of threads matching substring (JFR, collapsed)")
	pf.IntVar(&a.flags.sampleIndex, "sample-index", 0, "pprof sample value to use")

	root.AddCommand(
		a.textCmd(),
		a.graphvizCmd(),
		a.callgrindCmd(),
		a.sourceCmd(),
		a.filesCmd(),
		a.infoCmd(),
		a.dumpCmd(),
		a.eventsCmd(),
		a.threadsCmd(),
	)
	return root
}

// setup layers the config file and the flags given on the command line.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.flags.configPath
	if path == "" {
		path = os.Getenv("SP_REPORT_CONFIG")
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("input", func() { cfg.Input = a.flags.input })
	set("event", func() { cfg.Event = a.flags.event })
	set("thread", func() { cfg.Thread = a.flags.thread })
	set("sample-index", func() { cfg.SampleIndex = a.flags.sampleIndex })
	set("sort", func() { cfg.Sort = a.flags.sort })
	set("top", func() { cfg.Top = a.flags.top })
	set("regex", func() {
		if a.flags.regex {
			cfg.Filter = filterRegexp
		} else {
			cfg.Filter = filterSubstring
		}
	})
	set("dominance", func() { cfg.Dominance = a.flags.dominance })
	set("root", func() { cfg.SourceRoot = a.flags.root })
	set("creator", func() { cfg.Callgrind.Creator = a.flags.creator })
	set("cmd", func() { cfg.Callgrind.Command = a.flags.command })

	if err := cfg.validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.newLogger(a.flags.verbose)
	return nil
}

func (a *app) load(path string) (*snapshot, error) {
	s, err := openInput(path, inputOptions{
		format:      a.cfg.Input,
		event:       a.cfg.Event,
		thread:      a.cfg.Thread,
		sampleIndex: a.cfg.SampleIndex,
	})
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"path": path, "frames": len(s.frames), "samples": s.overallSamples}).
		Debug("snapshot loaded")
	return s, nil
}

func (a *app) matcher() (frameMatcher, error) {
	return newMatcher(a.flags.method, a.cfg.Filter == filterRegexp, a.flags.where, a.log)
}

// render runs fn against a buffered stdout.
func (a *app) render(fn func(w io.Writer) error) error {
	bw := bufio.NewWriter(a.out)
	if err := fn(bw); err != nil {
		bw.Flush()
		return err
	}
	return bw.Flush()
}

func addFilterFlags(cmd *cobra.Command, f *cliFlags) {
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "frame name substring (or regexp with --regex)")
	cmd.Flags().BoolVar(&f.regex, "regex", false, "treat -m as a regular expression")
	cmd.Flags().StringVar(&f.where, "where", "", "Starlark predicate selecting frames")
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (a *app) textCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text FILE",
		Short: "Rank frames by self or total samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			return a.render(func(w io.Writer) error {
				cmdText(w, s, a.cfg.Sort == sortTotal, a.cfg.Top)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&a.flags.sort, "sort", sortSelf, "order rows by: self, total")
	cmd.Flags().IntVar(&a.flags.top, "top", 0, "limit output rows (0 = all)")
	return cmd
}

func (a *app) graphvizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "graphviz FILE",
		Aliases: []string{"dot"},
		Short:   "Call graph in DOT, pruned around matching frames",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.matcher()
			if err != nil {
				return err
			}
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			p := newPruner(a.cfg.Dominance, a.log)
			return a.render(func(w io.Writer) error {
				return cmdGraphviz(w, s, m, p)
			})
		},
	}
	addFilterFlags(cmd, &a.flags)
	cmd.Flags().Float64Var(&a.flags.dominance, "dominance", defaultDominance,
		"follow an edge when callee total <= weight * dominance")
	return cmd
}

func (a *app) callgrindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callgrind FILE",
		Short: "Callgrind cost file (for kcachegrind/qcachegrind)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			opts := callgrindOptions{creator: a.cfg.Callgrind.Creator, command: a.cfg.Callgrind.Command}
			return a.render(func(w io.Writer) error {
				cmdCallgrind(w, s, opts, a.log)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&a.flags.creator, "creator", "stackprof", "creator: header value")
	cmd.Flags().StringVar(&a.flags.command, "cmd", "ruby", "cmd: header value")
	return cmd
}

func (a *app) sourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source FILE",
		Short: "Annotate the source of matching frames with line samples (-m or --where required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.matcher()
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("-m/--method or --where required")
			}
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			return a.render(func(w io.Writer) error {
				cmdSource(w, s, m, a.cfg.SourceRoot, a.log)
				return nil
			})
		},
	}
	addFilterFlags(cmd, &a.flags)
	cmd.Flags().StringVar(&a.flags.root, "root", "", "directory relative source paths are resolved against")
	return cmd
}

func (a *app) filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files FILE",
		Short: "Rank source files by line samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			return a.render(func(w io.Writer) error {
				cmdFiles(w, s, a.cfg.Top)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&a.flags.top, "top", 0, "limit output rows (0 = all)")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	var top, topFiles int
	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "One-shot triage: sampling setup, hot frames, hot files, consistency check",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			return a.render(func(w io.Writer) error {
				cmdInfo(w, s, top, topFiles)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "frames per ranking")
	cmd.Flags().IntVar(&topFiles, "top-files", 5, "files shown")
	return cmd
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump FILE",
		Short: "Write the normalized snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			return a.render(func(w io.Writer) error {
				return cmdDump(w, s)
			})
		},
	}
}

func (a *app) eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events FILE.jfr",
		Short: "List event types in a JFR file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !isJFRPath(args[0]) {
				return fmt.Errorf("events command requires a JFR file")
			}
			return a.render(func(w io.Writer) error {
				return cmdEvents(w, args[0])
			})
		},
	}
}

func (a *app) threadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads FILE",
		Short: "List thread names and their samples (JFR, collapsed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ts, err := loadThreads(args[0], inputOptions{format: a.cfg.Input, event: a.cfg.Event})
			if err != nil {
				return err
			}
			return a.render(func(w io.Writer) error {
				cmdThreads(w, ts, a.cfg.Top)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&a.flags.top, "top", 0, "limit output rows (0 = all)")
	return cmd
}
