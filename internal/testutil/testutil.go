// Package testutil provides shared helpers for building registry and policy
// pack trees on disk during tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dmxcheck/internal/catalog"
)

// WriteFiles materializes the given relative-path -> content map under a
// fresh temp directory and returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

// Catalog returns the reference catalog used throughout the test suite:
// mono, stereo, and 5.1 layouts over six speakers.
func Catalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New(
		[]catalog.Layout{
			{ID: "LAYOUT.1_0", Label: "Mono", ChannelOrder: []catalog.SpeakerID{"SPK.C"}},
			{ID: "LAYOUT.2_0", Label: "Stereo", ChannelOrder: []catalog.SpeakerID{"SPK.L", "SPK.R"}},
			{ID: "LAYOUT.5_1", Label: "5.1 Surround", ChannelOrder: []catalog.SpeakerID{
				"SPK.L", "SPK.R", "SPK.C", "SPK.LFE", "SPK.LS", "SPK.RS",
			}},
		},
		[]catalog.Speaker{
			{ID: "SPK.L"}, {ID: "SPK.R"}, {ID: "SPK.C"},
			{ID: "SPK.LFE"}, {ID: "SPK.LS"}, {ID: "SPK.RS"},
		},
	)
	require.NoError(t, err)
	return cat
}

// CleanRegistryYAML is a registry with one policy, one default, and one
// conversion, referencing CleanPackYAML at packs/film.yaml.
const CleanRegistryYAML = `
downmix:
  _meta:
    version: "1.0.0"
  policies:
    POLICY.DOWNMIX.FILM_STANDARD:
      file: packs/film.yaml
      description: Film fold-down
      supports_source_layouts: [LAYOUT.5_1]
      supports_target_layouts: [LAYOUT.2_0]
  default_policy_by_source_layout:
    LAYOUT.5_1: POLICY.DOWNMIX.FILM_STANDARD
  conversions:
    - source_layout_id: LAYOUT.5_1
      target_layout_id: LAYOUT.2_0
      policy_id: POLICY.DOWNMIX.FILM_STANDARD
      matrix_id: DMX.5_1.TO.2_0
`

// CleanPackYAML holds a single well-formed 5.1 to stereo matrix with all
// coefficients at or below 1.0.
const CleanPackYAML = `
downmix_policy_pack:
  policy_id: POLICY.DOWNMIX.FILM_STANDARD
  pack_version: "1.0.0"
  matrices:
    DMX.5_1.TO.2_0:
      source_layout_id: LAYOUT.5_1
      target_layout_id: LAYOUT.2_0
      coefficients:
        SPK.L:
          SPK.L: 1.0
          SPK.C: 0.7071
          SPK.LS: 0.7071
          SPK.LFE: 0.5
        SPK.R:
          SPK.R: 1.0
          SPK.C: 0.7071
          SPK.RS: 0.7071
          SPK.LFE: 0.5
`

// WriteCleanRegistry writes the clean registry plus pack into a temp dir and
// returns the registry path.
func WriteCleanRegistry(t *testing.T) string {
	t.Helper()

	dir := WriteFiles(t, map[string]string{
		"registry.yaml":   CleanRegistryYAML,
		"packs/film.yaml": CleanPackYAML,
	})
	return filepath.Join(dir, "registry.yaml")
}
