// Package config loads the settings of the tldr command.
//
// Precedence (highest to lowest): flags > TLDR_ environment variables >
// config file > defaults.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/nao1215/tldr/batch"
)

// Default values.
const (
	DefaultConfigFile  = "tldr.yaml"
	DefaultConcurrency = 1
	DefaultOutput      = OutputTable
	DefaultLogLevel    = "warn"
	envPrefix          = "TLDR_"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputCSV   = "csv"
)

// Config holds the command settings.
type Config struct {
	Concurrency int    `koanf:"concurrency"`
	ChunkSize   int    `koanf:"chunk_size"`
	Output      string `koanf:"output"`
	LogLevel    string `koanf:"log_level"`
	Verbose     bool   `koanf:"verbose"`

	// FileUsed is the config file that was read, empty if none.
	FileUsed string `koanf:"-"`
}

// Load reads the configuration. cfgFile is an explicit config file; when empty
// DefaultConfigFile is read from the working directory if it exists. Only
// flags that were set on the command line are applied.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"concurrency": DefaultConcurrency,
		"chunk_size":  batch.DefaultRowsPerChunk,
		"output":      DefaultOutput,
		"log_level":   DefaultLogLevel,
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	fileUsed := findConfigFile(cfgFile)
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	// TLDR_CHUNK_SIZE -> chunk_size
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = fileUsed
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the explicit path, or DefaultConfigFile if present.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1, got %d", c.ChunkSize)
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputCSV:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or csv)", c.Output)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the log level. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
