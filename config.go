package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// config holds report defaults. It is read from a YAML file (--config or
// $SP_REPORT_CONFIG); flags given on the command line win over the file.
type config struct {
	Input       string  `yaml:"input"`
	Event       string  `yaml:"event"`
	Thread      string  `yaml:"thread"`
	SampleIndex int     `yaml:"sample_index"`
	Sort        string  `yaml:"sort"`
	Top         int     `yaml:"top"`
	Filter      string  `yaml:"filter"`
	Dominance   float64 `yaml:"dominance"`
	SourceRoot  string  `yaml:"source_root"`
	LogLevel    string  `yaml:"log_level"`
	Callgrind   struct {
		Creator string `yaml:"creator"`
		Command string `yaml:"command"`
	} `yaml:"callgrind"`
}

const (
	sortTotal = "total"
	sortSelf  = "self"

	filterSubstring = "substring"
	filterRegexp    = "regexp"
)

func defaultConfig() config {
	cfg := config{
		Input:     inputAuto,
		Event:     "cpu",
		Sort:      sortSelf,
		Filter:    filterSubstring,
		Dominance: defaultDominance,
		LogLevel:  "warning",
	}
	cfg.Callgrind.Creator = "stackprof"
	cfg.Callgrind.Command = "ruby"
	return cfg
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch c.Input {
	case inputAuto, inputJSON, inputPprof, inputJFR, inputCollapsed:
	default:
		return fmt.Errorf("unknown input format %q (valid: auto, json, pprof, jfr, collapsed)", c.Input)
	}
	switch c.Event {
	case "cpu", "wall", "alloc", "lock":
	default:
		return fmt.Errorf("unknown event type %q (valid: cpu, wall, alloc, lock)", c.Event)
	}
	switch c.Sort {
	case sortTotal, sortSelf:
	default:
		return fmt.Errorf("unknown sort %q (valid: total, self)", c.Sort)
	}
	switch c.Filter {
	case filterSubstring, filterRegexp:
	default:
		return fmt.Errorf("unknown filter %q (valid: substring, regexp)", c.Filter)
	}
	if c.Dominance <= 0 {
		return fmt.Errorf("dominance must be positive, got %v", c.Dominance)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c config) newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

// orDefaultLogger returns log, or a stderr logger at warning level when the
// caller passed nil.
func orDefaultLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}
