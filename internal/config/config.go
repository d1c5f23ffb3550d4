// Package config loads the YAML configuration of the scimpatch command.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the command configuration. Command line flags override it.
type Config struct {
	Log    Log    `yaml:"log"`
	Patch  Patch  `yaml:"patch"`
	Output Output `yaml:"output"`
}

// Log configures the logger.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Patch configures how patch documents are applied.
type Patch struct {
	// Rollback reverts the applied prefix of a batch when a node fails.
	Rollback *bool `yaml:"rollback"`
	// Lenient names the lenient payload conversions to allow, such as
	// textual-bool for clients sending "False".
	Lenient []string `yaml:"lenient,omitempty"`
}

// Output configures what the command prints.
type Output struct {
	// Format of printed resources: json or yaml.
	Format string `yaml:"format"`
	// Color is auto, always or never.
	Color string `yaml:"color"`
	// Diff prints a before/after diff of the resource.
	Diff bool `yaml:"diff"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config

	applyDefaults(&c)

	return &c
}

// LoadFile loads and parses a YAML configuration file from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Config.
func Parse(data []byte) (*Config, error) {
	var c Config

	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = FormatText
	}

	if c.Patch.Rollback == nil {
		rollback := true
		c.Patch.Rollback = &rollback
	}

	if c.Output.Format == "" {
		c.Output.Format = FormatJSON
	}

	if c.Output.Color == "" {
		c.Output.Color = ColorAuto
	}

	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Output.Format = strings.ToLower(c.Output.Format)
	c.Output.Color = strings.ToLower(c.Output.Color)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	if err := oneOf("log.format", c.Log.Format, FormatText, FormatJSON); err != nil {
		return err
	}

	if err := oneOf("output.format", c.Output.Format, FormatJSON, FormatYAML); err != nil {
		return err
	}

	return oneOf("output.color", c.Output.Color, ColorAuto, ColorAlways, ColorNever)
}

// SlogLevel returns the configured level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}

	return level, nil
}

// RollbackEnabled reports whether failed batches are rolled back.
func (p Patch) RollbackEnabled() bool {
	return p.Rollback == nil || *p.Rollback
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	return fmt.Errorf("invalid %s %q (want one of %s)", key, value, strings.Join(allowed, ", "))
}

// Marshal serializes a Config to YAML.
func Marshal(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}
