package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/genc-murat/memscope/pkg/memsize"
	"github.com/genc-murat/memscope/pkg/memtree"
)

// Config drives the memscope inspection tool: which measurement policy
// to apply, how to decorate the rendered tree, and where to write an
// optional report.
type Config struct {
	Measure MeasureConfig `yaml:"measure"`
	Output  OutputConfig  `yaml:"output"`
	Report  ReportConfig  `yaml:"report"`
}

type MeasureConfig struct {
	FollowPointers bool `yaml:"follow_pointers"`
	Capacity       bool `yaml:"capacity"`
}

type OutputConfig struct {
	Humanize bool `yaml:"humanize"`
	Percent  bool `yaml:"percent"`
	Color    bool `yaml:"color"`
	Layout   bool `yaml:"layout"`
	MaxDepth int  `yaml:"max_depth"`
}

type ReportConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Path        string        `yaml:"path"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// Default returns the conservative configuration: logical sizes, plain
// decimal output, unlimited depth, no report.
func Default() *Config {
	return &Config{
		Output: OutputConfig{MaxDepth: -1},
		Report: ReportConfig{
			Path:        "memscope-report.txt",
			LockTimeout: 5 * time.Second,
		},
	}
}

// Load reads a yaml configuration file. Missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// SizeFlags translates the measurement section into engine flags.
func (c *Config) SizeFlags() memsize.Flags {
	var f memsize.Flags
	if c.Measure.FollowPointers {
		f |= memsize.FollowPointers
	}
	if c.Measure.Capacity {
		f |= memsize.Capacity
	}
	return f
}

// RenderFlags translates the output section into render flags.
func (c *Config) RenderFlags() memtree.Flags {
	var f memtree.Flags
	if c.Measure.Capacity {
		f |= memtree.Capacity
	}
	if c.Output.Humanize {
		f |= memtree.Humanize
	}
	if c.Output.Percent {
		f |= memtree.Percent
	}
	if c.Output.Color {
		f |= memtree.Color
	}
	if c.Output.Layout {
		f |= memtree.Layout
	}
	return f
}
