// Package config loads server configuration.
//
// Configuration comes from an optional YAML file named by the --config flag
// or the IMAGE_MCP_CONFIG environment variable. Without a file the defaults
// apply. IMAGE_MCP_LOG_LEVEL always overrides the file's log level so a
// client can turn on debug output without editing the config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/imagekit-mcp/internal/layout"
	"github.com/ironsheep/imagekit-mcp/internal/sniff"
)

// Environment variables consulted by Load.
const (
	EnvConfig   = "IMAGE_MCP_CONFIG"
	EnvLogLevel = "IMAGE_MCP_LOG_LEVEL"
)

// DefaultMaxItems is the default for partition.max_items.
const DefaultMaxItems = 500

// Config is the server configuration.
type Config struct {
	// LogLevel is a zerolog level name: trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Sniff     SniffConfig     `yaml:"sniff"`
	Partition PartitionConfig `yaml:"partition"`
	Layout    LayoutConfig    `yaml:"layout"`
	Sheet     SheetConfig     `yaml:"sheet"`
}

// SniffConfig configures header sniffing.
type SniffConfig struct {
	// MaxBytes is how many leading bytes of a file are inspected.
	// Default: 64 KiB
	MaxBytes int `yaml:"max_bytes"`
}

// PartitionConfig bounds the work a single request can ask of the
// partitioner, whose cost grows with the square of the item count.
type PartitionConfig struct {
	// MaxItems is the largest number of weights, files or layout images a
	// request may pass. Zero disables the limit.
	// Default: 500
	MaxItems int `yaml:"max_items"`
}

// LayoutConfig holds defaults for tools that lay out images in rows.
type LayoutConfig struct {
	Width     int `yaml:"width"`
	RowHeight int `yaml:"row_height"`
	Spacing   int `yaml:"spacing"`
}

// SheetConfig configures contact sheet rendering.
type SheetConfig struct {
	// Background is the canvas colour as #rrggbb.
	// Default: #ffffff
	Background string `yaml:"background"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Sniff: SniffConfig{
			MaxBytes: sniff.DefaultLimit,
		},
		Partition: PartitionConfig{
			MaxItems: DefaultMaxItems,
		},
		Layout: LayoutConfig{
			Width:     layout.DefaultWidth,
			RowHeight: layout.DefaultRowHeight,
		},
		Sheet: SheetConfig{
			Background: "#ffffff",
		},
	}
}

// Load reads the file at path, or the file named by IMAGE_MCP_CONFIG when
// path is empty, on top of the defaults. Environment overrides are applied
// last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level: %q", c.LogLevel))
	}

	if c.Sniff.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("sniff.max_bytes must not be negative"))
	}
	if c.Partition.MaxItems < 0 {
		errs = append(errs, fmt.Errorf("partition.max_items must not be negative"))
	}
	if c.Layout.Width < 0 || c.Layout.RowHeight < 0 || c.Layout.Spacing < 0 {
		errs = append(errs, fmt.Errorf("layout sizes must not be negative"))
	}

	return errors.Join(errs...)
}

// CheckItems returns an error when n exceeds partition.max_items.
func (c *Config) CheckItems(n int) error {
	if c.Partition.MaxItems > 0 && n > c.Partition.MaxItems {
		return fmt.Errorf("%d items exceeds the limit of %d (partition.max_items)", n, c.Partition.MaxItems)
	}
	return nil
}

// LayoutOptions converts the layout section for the layout package.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Width:     c.Layout.Width,
		RowHeight: c.Layout.RowHeight,
		Spacing:   c.Layout.Spacing,
	}
}
