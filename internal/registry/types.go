// Package registry loads the downmix policy registry document and the policy
// packs it references. Loaders report document-level problems as issues, not
// Go errors: a fatal condition in one pack is scoped to that pack so sibling
// policies keep being checked.
package registry

import (
	"path/filepath"
	"sort"
)

// PolicyEntry is one entry in the registry's policies map.
type PolicyEntry struct {
	File                  string   `yaml:"file"`
	Description           string   `yaml:"description"`
	SupportsSourceLayouts []string `yaml:"supports_source_layouts"`
	SupportsTargetLayouts []string `yaml:"supports_target_layouts"`
}

// Conversion declares a (source layout, target layout) pairing resolved via a
// specific policy and matrix.
type Conversion struct {
	SourceLayoutID string `yaml:"source_layout_id"`
	TargetLayoutID string `yaml:"target_layout_id"`
	PolicyID       string `yaml:"policy_id"`
	MatrixID       string `yaml:"matrix_id"`
}

// Step is one hop in a composition path. PolicyID and the layout IDs are
// optional; when present they pin the step's policy context and declared
// topology.
type Step struct {
	MatrixID       string `yaml:"matrix_id"`
	PolicyID       string `yaml:"policy_id"`
	SourceLayoutID string `yaml:"source_layout_id"`
	TargetLayoutID string `yaml:"target_layout_id"`
}

// CompositionPath chains matrices through intermediate layouts.
type CompositionPath struct {
	SourceLayoutID string `yaml:"source_layout_id"`
	TargetLayoutID string `yaml:"target_layout_id"`
	Steps          []Step `yaml:"steps"`
}

// Registry is the parsed root document. It is created fresh per validation
// run, never mutated, and owned exclusively by that run.
type Registry struct {
	// Path is the registry file as given to the loader; Dir is its
	// containing directory, the base for every relative pack path.
	Path string
	Dir  string

	Meta                        map[string]any
	Policies                    map[string]PolicyEntry
	DefaultPolicyBySourceLayout map[string]string
	Conversions                 []Conversion
	CompositionPaths            []CompositionPath
}

// PolicyIDs returns the registry's policy keys in sorted order.
func (r *Registry) PolicyIDs() []string {
	ids := make([]string, 0, len(r.Policies))
	for id := range r.Policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PackPath resolves a policy entry's file against the registry's own
// directory. Pack paths are never resolved against the process working
// directory or an install root.
func (r *Registry) PackPath(entry PolicyEntry) string {
	if filepath.IsAbs(entry.File) {
		return entry.File
	}
	return filepath.Join(r.Dir, entry.File)
}

// Matrix is a single downmix matrix inside a pack. Coefficients holds the
// raw decoded YAML value: the expected shape is target speaker to a map of
// source speaker to linear gain, but malformed documents may put anything
// there, so shape checking is the matrix validator's job.
type Matrix struct {
	ID             string `yaml:"-"`
	SourceLayoutID string `yaml:"source_layout_id"`
	TargetLayoutID string `yaml:"target_layout_id"`
	Coefficients   any    `yaml:"coefficients"`
}

// PolicyPack is a parsed policy pack document.
type PolicyPack struct {
	Path        string
	PolicyID    string
	PackVersion string
	Matrices    map[string]Matrix
}

// MatrixIDs returns the pack's matrix IDs in sorted order.
func (p *PolicyPack) MatrixIDs() []string {
	ids := make([]string, 0, len(p.Matrices))
	for id := range p.Matrices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AsMap narrows a raw decoded YAML value to a mapping.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// NumericValue converts a raw decoded YAML scalar to a float64. It reports
// false for anything that is not a number (strings, lists, maps, nil).
// Non-finite floats (.nan, .inf) convert successfully; finiteness is the
// coefficient sanity checker's concern.
func NumericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

// SortedKeys returns the keys of a raw mapping in sorted order, for
// deterministic iteration during validation.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
