// Package config holds the settings of the gopherhg command.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/crillab/gopherhg/hypergraph"
)

// Config contains all the settings. It can be loaded from a YAML file and from the environment.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig contains the settings of every solve.
type SearchConfig struct {
	MaxExpansions int `yaml:"max_expansions"`
	MinIndex      int `yaml:"min_index"`
	Workers       int `yaml:"workers"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Search: SearchConfig{
			MaxExpansions: hypergraph.DefaultMaxExpansions,
			Workers:       runtime.GOMAXPROCS(0),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads the configuration with priority: env > file > defaults.
// If path is empty or does not exist, only the defaults and the environment are used.
func Load(fsys afero.Fs, path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(fsys, path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(fsys afero.Fs, path string, cfg *Config) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"GOPHERHG_MAX_EXPANSIONS", &cfg.Search.MaxExpansions},
		{"GOPHERHG_MIN_INDEX", &cfg.Search.MinIndex},
		{"GOPHERHG_WORKERS", &cfg.Search.Workers},
	}
	for _, env := range ints {
		if v := os.Getenv(env.name); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", env.name, err)
			}
			*env.dst = i
		}
	}
	if v := os.Getenv("GOPHERHG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GOPHERHG_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.Search.MaxExpansions < 1 {
		return errors.New("max_expansions must be >= 1")
	}
	if c.Search.MinIndex < 0 {
		return errors.New("min_index must be >= 0")
	}
	if c.Search.Workers < 1 {
		return errors.New("workers must be >= 1")
	}
	if _, err := c.Logging.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q, expected text or json", c.Logging.Format)
	}
	return nil
}

func (c LoggingConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.Level)
	}
	return lvl, nil
}

// Logger returns a logger writing to w, as described by the configuration.
// verbose forces the debug level.
func (c LoggingConfig) Logger(w io.Writer, verbose bool) (*slog.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// SolveOptions returns the solve options matching the search settings.
func (c SearchConfig) SolveOptions() []hypergraph.SolveOption {
	return []hypergraph.SolveOption{
		hypergraph.WithMaxExpansions(c.MaxExpansions),
		hypergraph.WithMinIndex(c.MinIndex),
		hypergraph.WithWorkers(c.Workers),
	}
}
