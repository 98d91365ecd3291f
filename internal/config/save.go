package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigTemplate is written by WriteDefaultConfig. Comments document
// every knob so a fresh config file is self-describing.
const DefaultConfigTemplate = `# dmxcheck configuration

# Path to the downmix policy registry under test.
# registry: ontology/policies/downmix.yaml

catalog:
  # Reference layouts document (required).
  layouts: ontology/layouts.yaml
  # Reference speakers document. When omitted, speakers are derived from
  # the layout channel orders.
  # speakers: ontology/speakers.yaml

validate:
  # Output format: "json" or "text".
  format: json
  # Concurrent pack validation workers. 0 uses one worker per CPU.
  workers: 0
  # Quiet period between a file change and re-validation under --watch.
  watch_debounce_ms: 500

resolve:
  # Output format: "json" or "csv".
  format: json
  # Set true to re-read pack files on every resolution.
  skip_cache: false
`

// WriteDefaultConfig writes the commented default configuration to path.
// It refuses to overwrite an existing file. The write is atomic: content
// lands in a temp file first, then renames into place.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".dmxcheck.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.WriteString(DefaultConfigTemplate); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
