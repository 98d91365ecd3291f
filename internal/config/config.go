// Package config provides configuration types and defaults for dmxcheck.
package config

import (
	"fmt"
)

// Output formats accepted by the validate command.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Output formats accepted by the resolve command.
const (
	ResolveFormatJSON = "json"
	ResolveFormatCSV  = "csv"
)

// Config holds all configuration options for dmxcheck.
type Config struct {
	Registry string         `mapstructure:"registry"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Validate ValidateConfig `mapstructure:"validate"`
	Resolve  ResolveConfig  `mapstructure:"resolve"`
}

// CatalogConfig points at the reference catalog documents. Speakers is
// optional; when empty the speaker set is derived from the layouts.
type CatalogConfig struct {
	Layouts  string `mapstructure:"layouts"`
	Speakers string `mapstructure:"speakers"`
}

// ValidateConfig holds validate command options.
type ValidateConfig struct {
	Format string `mapstructure:"format"` // "json" (default) or "text"

	// Workers bounds concurrent pack validation. 0 means one worker per CPU.
	Workers int `mapstructure:"workers"`

	// WatchDebounceMS is the quiet period, in milliseconds, between a file
	// change and the re-validation it triggers.
	WatchDebounceMS int `mapstructure:"watch_debounce_ms"`
}

// ResolveConfig holds resolve command options.
type ResolveConfig struct {
	Format    string `mapstructure:"format"`     // "json" (default) or "csv"
	SkipCache bool   `mapstructure:"skip_cache"` // bypass the pack TTL cache
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Validate: ValidateConfig{
			Format:          FormatJSON,
			WatchDebounceMS: 500,
		},
		Resolve: ResolveConfig{
			Format: ResolveFormatJSON,
		},
	}
}

// ValidateValidate checks validate command configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateValidate(cfg ValidateConfig) error {
	switch cfg.Format {
	case "", FormatJSON, FormatText:
	default:
		return fmt.Errorf("validate.format must be %q or %q, got %q", FormatJSON, FormatText, cfg.Format)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("validate.workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.WatchDebounceMS < 0 {
		return fmt.Errorf("validate.watch_debounce_ms must not be negative, got %d", cfg.WatchDebounceMS)
	}
	return nil
}

// ValidateResolve checks resolve command configuration for errors.
func ValidateResolve(cfg ResolveConfig) error {
	switch cfg.Format {
	case "", ResolveFormatJSON, ResolveFormatCSV:
		return nil
	default:
		return fmt.Errorf("resolve.format must be %q or %q, got %q", ResolveFormatJSON, ResolveFormatCSV, cfg.Format)
	}
}

// Check validates the whole configuration.
func (c Config) Check() error {
	if c.Catalog.Layouts == "" {
		return fmt.Errorf("catalog.layouts is required")
	}
	if err := ValidateValidate(c.Validate); err != nil {
		return err
	}
	return ValidateResolve(c.Resolve)
}
