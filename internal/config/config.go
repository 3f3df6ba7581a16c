// Package config reads the specmaster binary configuration from TOML.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/VitaminC1989/SpecMaster/store"
)

// Seed sources.
const (
	SeedDefault  = "default"
	SeedFile     = "file"
	SeedDynamoDB = "dynamodb"
	SeedEmpty    = "empty"
)

// Config represents the main configuration for specmaster.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Latency LatencyConfig `toml:"latency"`
	Seed    SeedConfig    `toml:"seed"`
	Log     LogConfig     `toml:"log"`
	Stream  StreamConfig  `toml:"stream"`
}

// StoreConfig mirrors store.Config.
type StoreConfig struct {
	IDFloor         int64 `toml:"id_floor"`
	ValidateParents bool  `toml:"validate_parents"`
}

// LatencyConfig holds simulated delays. Durations use Go syntax ("200ms").
type LatencyConfig struct {
	// Simulated applies store.SimulatedLatency and ignores the explicit values.
	Simulated bool          `toml:"simulated"`
	Read      time.Duration `toml:"read"`
	Write     time.Duration `toml:"write"`
	Clone     time.Duration `toml:"clone"`
}

// SeedConfig selects where the initial dataset comes from.
// This uses a tagged union pattern - the Source field determines which other fields are relevant.
type SeedConfig struct {
	Source string `toml:"source"` // "default", "file", "dynamodb" or "empty"

	// Path is only used for source=file.
	Path string `toml:"path,omitempty"`

	// DynamoDB-specific fields (only used when Source == "dynamodb")
	Tables  map[string]string `toml:"tables,omitempty"`
	Region  string            `toml:"region,omitempty"`
	Profile string            `toml:"profile,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // "text" or "json"
}

// StreamConfig configures the change feed.
type StreamConfig struct {
	// Audit subscribes a stream.Handler to the store's changes.
	Audit  bool   `toml:"audit"`
	Region string `toml:"region,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Seed: SeedConfig{Source: SeedDefault},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Read decodes a Config from the provided reader. Unset values keep their defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes a Config to the provided writer.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the tagged unions and enumerations.
func (c *Config) Validate() error {
	switch c.Seed.Source {
	case SeedDefault, SeedEmpty, SeedDynamoDB:
	case SeedFile:
		if c.Seed.Path == "" {
			return fmt.Errorf("seed.path is required for source %q", SeedFile)
		}
	default:
		return fmt.Errorf("unknown seed.source %q", c.Seed.Source)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// StoreConfig converts the file settings into a store.Config.
func (c *Config) StoreConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.IDFloor = c.Store.IDFloor
	cfg.ValidateParents = c.Store.ValidateParents
	if c.Latency.Simulated {
		cfg.Latency = store.SimulatedLatency()
	} else {
		cfg.Latency = store.Latency{Read: c.Latency.Read, Write: c.Latency.Write, Clone: c.Latency.Clone}
	}
	return cfg
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
