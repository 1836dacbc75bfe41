// Package config handles t10.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/t10/tyck"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "t10.toml"

// Config represents a t10.toml file.
type Config struct {
	Log     Log     `toml:"log"`
	Types   Types   `toml:"types"`
	Bench   Bench   `toml:"bench"`
	Inspect Inspect `toml:"inspect"`

	// Dir is the directory containing the file (set at load time). Relative
	// paths in the file resolve against it.
	Dir string `toml:"-"`
}

// Log configures the commonlog backend.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Types selects the process-wide type comparator.
type Types struct {
	Comparator string `toml:"comparator"`
}

// Bench configures the call benchmark.
type Bench struct {
	Iterations int `toml:"iterations"`
}

// Inspect configures the snapshot store.
type Inspect struct {
	DB string `toml:"db"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{Dir: "."}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Types.Comparator == "" {
		c.Types.Comparator = "exact"
	}
	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = 1_000_000
	}
	if c.Inspect.DB == "" {
		c.Inspect.DB = "t10-snapshots.db"
	}
}

// Load parses the t10.toml file in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a t10.toml file, then loads
// and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, ok := tyck.ByName(c.Types.Comparator); !ok {
		return fmt.Errorf("types.comparator: unknown comparator %q", c.Types.Comparator)
	}
	if c.Bench.Iterations < 0 {
		return fmt.Errorf("bench.iterations: must be positive, got %d", c.Bench.Iterations)
	}
	if c.Log.Verbosity < -4 || c.Log.Verbosity > 2 {
		return fmt.Errorf("log.verbosity: %d out of range -4..2", c.Log.Verbosity)
	}
	return nil
}

// Comparator returns the configured type comparator.
func (c *Config) Comparator() tyck.Comparator {
	cmp, ok := tyck.ByName(c.Types.Comparator)
	if !ok {
		return tyck.Exact
	}
	return cmp
}

// Apply installs the configured comparator process-wide and returns the one
// it replaced.
func (c *Config) Apply() tyck.Comparator {
	return tyck.Use(c.Comparator())
}

// DBPath returns the snapshot database path, resolved against Dir.
func (c *Config) DBPath() string {
	return c.resolve(c.Inspect.DB)
}

// LogPath returns the log file path, or nil to log to stderr.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	p := c.resolve(c.Log.File)
	return &p
}

func (c *Config) resolve(p string) string {
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
