// Package config loads the YAML project file describing where texts and
// entities come from, how records are screened, and where annotations go.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/annotext/annotext/pkg/annotext/internalerr"
)

// Config is the project configuration.
type Config struct {
	Texts       Texts       `yaml:"texts"`
	Entities    Entities    `yaml:"entities"`
	Annotations Annotations `yaml:"annotations"`
	Logging     Logging     `yaml:"logging"`
}

// Texts configures the text corpus input.
type Texts struct {
	Input   Input   `yaml:"input"`
	Filters Filters `yaml:"filters"`
}

// Entities configures the entity dictionary input.
type Entities struct {
	Input    Input    `yaml:"input"`
	Filters  Filters  `yaml:"filters"`
	Excludes Excludes `yaml:"excludes"`
}

// Input points at a CSV file; Filter controls whether the record screens
// run on it.
type Input struct {
	Path   string `yaml:"path"`
	Filter bool   `yaml:"filter"`
}

// Excludes points at the optional exclusion CSV (one entity name per row).
type Excludes struct {
	Path string `yaml:"path"`
}

// Annotations configures the output file and format. Format is one of
// csv, jsonl, spacy, brat, conll.
type Annotations struct {
	Output Output `yaml:"output"`
	Format string `yaml:"format"`
}

// Output is the destination path; the serializer replaces the extension.
type Output struct {
	Path string `yaml:"path"`
}

// Logging selects the log level for the run.
type Logging struct {
	Level string `yaml:"level"`
}

// SlogLevel translates the configured level name.
func (l Logging) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the configuration used when keys are absent.
func Default() *Config {
	return &Config{
		Texts:    Texts{Input: Input{Filter: true}, Filters: DefaultFilters()},
		Entities: Entities{Input: Input{Filter: true}, Filters: DefaultFilters()},
		Annotations: Annotations{
			Format: "jsonl",
			Output: Output{Path: "annotations"},
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads a YAML project file, filling unset keys from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts the run cannot recover from.
func (c *Config) Validate() error {
	switch c.Annotations.Format {
	case "csv", "jsonl", "spacy", "brat", "conll":
	default:
		return fmt.Errorf("unknown annotation format %q: %w", c.Annotations.Format, internalerr.ErrInvalidConfig)
	}
	if c.Texts.Filters.MaxLength > 0 && c.Texts.Filters.MaxLength < c.Texts.Filters.MinLength {
		return fmt.Errorf("texts filter max_length below min_length: %w", internalerr.ErrInvalidConfig)
	}
	if c.Entities.Filters.MaxLength > 0 && c.Entities.Filters.MaxLength < c.Entities.Filters.MinLength {
		return fmt.Errorf("entities filter max_length below min_length: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
