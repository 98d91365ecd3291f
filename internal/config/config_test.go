package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, FormatJSON, cfg.Validate.Format)
	assert.Equal(t, 500, cfg.Validate.WatchDebounceMS)
	assert.Equal(t, 0, cfg.Validate.Workers)
	assert.Equal(t, ResolveFormatJSON, cfg.Resolve.Format)
	assert.False(t, cfg.Resolve.SkipCache)
}

func TestValidateValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ValidateConfig
		errPart string
	}{
		{name: "empty uses defaults", cfg: ValidateConfig{}},
		{name: "json", cfg: ValidateConfig{Format: "json"}},
		{name: "text", cfg: ValidateConfig{Format: "text"}},
		{name: "bad format", cfg: ValidateConfig{Format: "xml"}, errPart: "validate.format"},
		{name: "negative workers", cfg: ValidateConfig{Workers: -1}, errPart: "validate.workers"},
		{name: "negative debounce", cfg: ValidateConfig{WatchDebounceMS: -5}, errPart: "watch_debounce_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValidate(tt.cfg)
			if tt.errPart == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errPart)
			}
		})
	}
}

func TestValidateResolve(t *testing.T) {
	assert.NoError(t, ValidateResolve(ResolveConfig{}))
	assert.NoError(t, ValidateResolve(ResolveConfig{Format: "csv"}))
	assert.ErrorContains(t, ValidateResolve(ResolveConfig{Format: "yaml"}), "resolve.format")
}

func TestConfigCheck(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Check(), "catalog.layouts is required")

	cfg.Catalog.Layouts = "ontology/layouts.yaml"
	assert.NoError(t, cfg.Check())
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "dmxcheck.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// The template must stay parseable YAML.
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "catalog")
	assert.Contains(t, doc, "validate")
}

func TestWriteDefaultConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dmxcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registry: custom.yaml\n"), 0o600))

	err := WriteDefaultConfig(path)
	assert.ErrorContains(t, err, "already exists")
}
