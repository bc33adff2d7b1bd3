// Package config provides configuration loading for the suparisma CLI.
// Values come from a TOML file, overridden by SUPARISMA_* environment
// variables; invalid values are normalized to their defaults with a
// warning rather than failing startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultDatabasePath = "suparisma.db"
	DefaultTable        = "Thing"
	DefaultLimit        = 50
	DefaultDebounceMs   = 300
	DefaultLogLevel     = "info"
)

// Config holds the CLI configuration.
type Config struct {
	// DatabasePath is the SQLite file backing the reference gateway.
	DatabasePath string `toml:"database_path"`
	// Table is the default table a view opens over.
	Table string `toml:"table"`
	// Limit is the default row window size.
	Limit int `toml:"limit"`
	// DebounceMs is the search coalescing window in milliseconds.
	DebounceMs int `toml:"debounce_ms"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// SearchFields are the fields the search overlay may query.
	SearchFields []string `toml:"search_fields"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DatabasePath: DefaultDatabasePath,
		Table:        DefaultTable,
		Limit:        DefaultLimit,
		DebounceMs:   DefaultDebounceMs,
		LogLevel:     DefaultLogLevel,
		SearchFields: []string{"name"},
	}
}

// Load reads the config file at path, applies environment overrides, and
// normalizes the result. A missing file is not an error; a malformed one
// is. The returned warnings describe values that were reset to defaults.
func Load(path string) (Config, []string, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return cfg, nil, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	warnings := cfg.normalize()
	return cfg, warnings, nil
}

// applyEnv overrides config fields from SUPARISMA_* variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SUPARISMA_DATABASE"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("SUPARISMA_TABLE"); v != "" {
		cfg.Table = v
	}
	if v := os.Getenv("SUPARISMA_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limit = n
		}
	}
	if v := os.Getenv("SUPARISMA_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DebounceMs = n
		}
	}
	if v := os.Getenv("SUPARISMA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SUPARISMA_SEARCH_FIELDS"); v != "" {
		fields := strings.Split(v, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		cfg.SearchFields = fields
	}
}

// normalize resets invalid values to defaults and reports what it did.
func (c *Config) normalize() []string {
	var warnings []string

	if strings.TrimSpace(c.DatabasePath) == "" {
		warnings = append(warnings, fmt.Sprintf("empty database_path, using default: %s", DefaultDatabasePath))
		c.DatabasePath = DefaultDatabasePath
	}
	if strings.TrimSpace(c.Table) == "" {
		warnings = append(warnings, fmt.Sprintf("empty table, using default: %s", DefaultTable))
		c.Table = DefaultTable
	}
	if c.Limit <= 0 {
		warnings = append(warnings, fmt.Sprintf("limit must be a positive integer, using default: %d", DefaultLimit))
		c.Limit = DefaultLimit
	}
	if c.DebounceMs <= 0 {
		warnings = append(warnings, fmt.Sprintf("debounce_ms must be a positive integer, using default: %d", DefaultDebounceMs))
		c.DebounceMs = DefaultDebounceMs
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		warnings = append(warnings, fmt.Sprintf("invalid log_level %q, using default: %s", c.LogLevel, DefaultLogLevel))
		c.LogLevel = DefaultLogLevel
	}

	fields := c.SearchFields[:0]
	for _, f := range c.SearchFields {
		if strings.TrimSpace(f) != "" {
			fields = append(fields, strings.TrimSpace(f))
		}
	}
	c.SearchFields = fields

	return warnings
}
