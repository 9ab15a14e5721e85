package canopy

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds scene debug settings. It is usually loaded from TOML:
//
//	debug = true
//	max_tree_depth = 64
//	max_child_count = 500
//	log_level = "debug"
type Config struct {
	Debug         bool   `toml:"debug"`
	MaxTreeDepth  int    `toml:"max_tree_depth"`
	MaxChildCount int    `toml:"max_child_count"`
	LogLevel      string `toml:"log_level"`
}

const (
	defaultMaxTreeDepth  = 32
	defaultMaxChildCount = 1000
)

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		MaxTreeDepth:  defaultMaxTreeDepth,
		MaxChildCount: defaultMaxChildCount,
		LogLevel:      "info",
	}
}

// LoadConfig decodes TOML over DefaultConfig. Unknown keys are an error.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads and decodes a TOML config file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return LoadConfig(data)
}

// withDefaults fills zero thresholds from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.MaxTreeDepth <= 0 {
		c.MaxTreeDepth = defaultMaxTreeDepth
	}
	if c.MaxChildCount <= 0 {
		c.MaxChildCount = defaultMaxChildCount
	}
	return c
}

func (c Config) validate() error {
	if c.MaxTreeDepth <= 0 {
		return fmt.Errorf("max_tree_depth must be positive, got %d", c.MaxTreeDepth)
	}
	if c.MaxChildCount <= 0 {
		return fmt.Errorf("max_child_count must be positive, got %d", c.MaxChildCount)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
