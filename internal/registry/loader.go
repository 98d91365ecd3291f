package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/log"
)

// requiredRegistryKeys are the keys the downmix section must carry.
var requiredRegistryKeys = []string{
	"_meta",
	"policies",
	"default_policy_by_source_layout",
	"conversions",
}

type registryFile struct {
	Downmix yaml.Node `yaml:"downmix"`
}

type downmixSection struct {
	Meta             map[string]any         `yaml:"_meta"`
	Policies         map[string]PolicyEntry `yaml:"policies"`
	Defaults         map[string]string      `yaml:"default_policy_by_source_layout"`
	Conversions      []Conversion           `yaml:"conversions"`
	CompositionPaths []CompositionPath      `yaml:"composition_paths"`
}

// LoadRegistry parses the root registry document. On success the issue slice
// is empty. On failure it holds a single fatal issue and the registry is nil;
// nothing downstream can be meaningfully checked without a parseable root.
func LoadRegistry(path string) (*Registry, []issue.Issue) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []issue.Issue{{
			ID:       issue.PolicyParseError,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegParse,
			Evidence: issue.Evidence{
				FilePath: path,
				Detail:   fmt.Sprintf("read registry: %v", err),
			},
		}}
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, []issue.Issue{{
			ID:       issue.PolicyParseError,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegParse,
			Evidence: issue.Evidence{
				FilePath: path,
				Detail:   fmt.Sprintf("parse registry: %v", err),
			},
		}}
	}

	if file.Downmix.Kind != yaml.MappingNode {
		return nil, []issue.Issue{{
			ID:       issue.PolicySchemaInvalid,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegShape,
			Evidence: issue.Evidence{
				FilePath: path,
				Detail:   "registry root is missing the 'downmix' mapping",
			},
		}}
	}

	if missing := missingKeys(&file.Downmix, requiredRegistryKeys); len(missing) > 0 {
		return nil, []issue.Issue{{
			ID:       issue.PolicySchemaInvalid,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegShape,
			Evidence: issue.Evidence{
				FilePath: path,
				Detail:   "downmix section missing required keys: " + strings.Join(missing, ", "),
			},
		}}
	}

	var section downmixSection
	if err := file.Downmix.Decode(&section); err != nil {
		return nil, []issue.Issue{{
			ID:       issue.PolicySchemaInvalid,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegShape,
			Evidence: issue.Evidence{
				FilePath: path,
				Detail:   fmt.Sprintf("decode downmix section: %v", err),
			},
		}}
	}

	reg := &Registry{
		Path:                        path,
		Dir:                         filepath.Dir(path),
		Meta:                        section.Meta,
		Policies:                    section.Policies,
		DefaultPolicyBySourceLayout: section.Defaults,
		Conversions:                 section.Conversions,
		CompositionPaths:            section.CompositionPaths,
	}
	log.Debug(log.CatRegistry, "registry loaded",
		"path", path,
		"policies", len(reg.Policies),
		"conversions", len(reg.Conversions),
		"composition_paths", len(reg.CompositionPaths))
	return reg, nil
}

// missingKeys returns the required keys absent from a mapping node, in the
// order given.
func missingKeys(node *yaml.Node, required []string) []string {
	present := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		present[node.Content[i].Value] = struct{}{}
	}

	var missing []string
	for _, key := range required {
		if _, ok := present[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
