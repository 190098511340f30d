// Package config provides configuration loading for the pipedoc command.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-pipeline-doc/internal/library"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/codec"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete pipedoc configuration.
type Config struct {
	Schema SchemaConfig `yaml:"schema"`
	// Dialect selects the document keywords: default or nirs4all.
	Dialect string `yaml:"dialect"`
	// Markers are bare keywords decoded as marker steps even when the catalog does not list
	// them.
	Markers []string      `yaml:"markers"`
	Library LibraryConfig `yaml:"library"`
	Batch   BatchConfig   `yaml:"batch"`
	Log     LogConfig     `yaml:"log"`
	Output  OutputConfig  `yaml:"output"`
}

// SchemaConfig locates the component catalog.
type SchemaConfig struct {
	// Path is a JSON or YAML catalog file. Empty runs without catalog.
	Path string `yaml:"path"`
}

// LibraryConfig configures the pipeline library.
type LibraryConfig struct {
	Dir      string        `yaml:"dir"`
	Pattern  string        `yaml:"pattern"`
	Debounce time.Duration `yaml:"debounce"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// OutputConfig configures encoded documents.
type OutputConfig struct {
	Format string `yaml:"format"`
	// Indent is the number of spaces per JSON level.
	Indent int `yaml:"indent"`
	// Compact writes JSON on a single line and wins over Indent.
	Compact bool `yaml:"compact"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dialect: string(codec.DialectDefault),
		Library: LibraryConfig{
			Dir:      "pipelines",
			Pattern:  library.DefaultPattern,
			Debounce: library.DefaultDebounce,
		},
		Batch:  BatchConfig{Concurrency: runtime.NumCPU()},
		Log:    LogConfig{Level: "info"},
		Output: OutputConfig{Format: string(document.FormatJSON), Indent: 2},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := codec.KeywordsFor(codec.Dialect(c.Dialect)); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "dialect %q", c.Dialect)
	}
	if _, err := c.SlogLevel(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log.level %q", c.Log.Level)
	}
	if _, err := document.ParseFormat(c.Output.Format); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "output.format %q", c.Output.Format)
	}
	if c.Output.Indent < 0 || c.Output.Indent > 8 {
		return errors.Wrap(ErrInvalidConfig, "output.indent must be between 0 and 8")
	}
	if c.Batch.Concurrency < 1 {
		return errors.Wrap(ErrInvalidConfig, "batch.concurrency must be at least 1")
	}
	if c.Library.Pattern != "" && !doublestar.ValidatePattern(c.Library.Pattern) {
		return errors.Wrapf(ErrInvalidConfig, "library.pattern %q", c.Library.Pattern)
	}
	if c.Library.Debounce < 0 {
		return errors.Wrap(ErrInvalidConfig, "library.debounce must not be negative")
	}

	return nil
}

// SlogLevel parses the log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Log.Level))
	if err != nil {
		return slog.LevelInfo, errors.Wrap(err, "unable to parse log level")
	}

	return level, nil
}

// Keywords returns the document keywords of the configured dialect.
func (c *Config) Keywords() (codec.Keywords, error) {
	return codec.KeywordsFor(codec.Dialect(c.Dialect))
}

// IndentString is the JSON indentation to use for encoded documents.
func (c *Config) IndentString() string {
	if c.Output.Compact {
		return ""
	}

	return strings.Repeat(" ", c.Output.Indent)
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	layer, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	err = cfg.Merge(layer)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// readFile decodes a file without defaults, so that only the values it sets are merged.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := &Config{}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Merge merges other into c. Non-zero values of other take precedence.
func (c *Config) Merge(other *Config) error {
	if other == nil {
		return nil
	}

	err := mergo.Merge(c, other, mergo.WithOverride)
	if err != nil {
		return errors.Wrap(err, "unable to merge configuration")
	}

	return nil
}
