package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/log"
)

type packFile struct {
	Root yaml.Node `yaml:"downmix_policy_pack"`
}

type packDoc struct {
	PolicyID    string                `yaml:"policy_id"`
	PackVersion string                `yaml:"pack_version"`
	Matrices    map[string]matrixNode `yaml:"matrices"`
}

type matrixNode struct {
	SourceLayoutID string `yaml:"source_layout_id"`
	TargetLayoutID string `yaml:"target_layout_id"`
	Coefficients   any    `yaml:"coefficients"`
}

// LoadPack parses a policy pack document. wantPolicyID is the registry key
// that referenced the file; the pack's internal policy_id must match it.
//
// A nil pack means the document was unusable and the issues are fatal for
// this one policy. A non-nil pack may still be accompanied by issues (policy
// ID mismatch), in which case its matrices remain checkable.
func LoadPack(path, wantPolicyID string) (*PolicyPack, []issue.Issue) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []issue.Issue{{
				ID:       issue.PolicyFileMissing,
				Severity: issue.SeverityError,
				Rule:     issue.RuleRegPackFileMissing,
				Evidence: issue.Evidence{
					FilePath: path,
					PolicyID: wantPolicyID,
					Detail:   "policy pack file does not exist",
				},
			}}
		}
		return nil, []issue.Issue{{
			ID:       issue.PolicyParseError,
			Severity: issue.SeverityError,
			Rule:     issue.RulePackRoot,
			Evidence: issue.Evidence{
				FilePath: path,
				PolicyID: wantPolicyID,
				Detail:   fmt.Sprintf("read policy pack: %v", err),
			},
		}}
	}

	var file packFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, []issue.Issue{{
			ID:       issue.PolicyParseError,
			Severity: issue.SeverityError,
			Rule:     issue.RulePackRoot,
			Evidence: issue.Evidence{
				FilePath: path,
				PolicyID: wantPolicyID,
				Detail:   fmt.Sprintf("parse policy pack: %v", err),
			},
		}}
	}

	if file.Root.Kind != yaml.MappingNode {
		return nil, []issue.Issue{{
			ID:       issue.PolicyParseError,
			Severity: issue.SeverityError,
			Rule:     issue.RulePackRoot,
			Evidence: issue.Evidence{
				FilePath: path,
				PolicyID: wantPolicyID,
				Detail:   "pack root is missing the 'downmix_policy_pack' mapping",
			},
		}}
	}

	var doc packDoc
	if err := file.Root.Decode(&doc); err != nil {
		return nil, []issue.Issue{{
			ID:       issue.PolicySchemaInvalid,
			Severity: issue.SeverityError,
			Rule:     issue.RulePackShape,
			Evidence: issue.Evidence{
				FilePath: path,
				PolicyID: wantPolicyID,
				Detail:   fmt.Sprintf("decode downmix_policy_pack: %v", err),
			},
		}}
	}

	var missing []string
	if doc.PolicyID == "" {
		missing = append(missing, "policy_id")
	}
	if doc.PackVersion == "" {
		missing = append(missing, "pack_version")
	}
	if doc.Matrices == nil {
		missing = append(missing, "matrices")
	}
	if len(missing) > 0 {
		return nil, []issue.Issue{{
			ID:       issue.PolicySchemaInvalid,
			Severity: issue.SeverityError,
			Rule:     issue.RulePackShape,
			Evidence: issue.Evidence{
				FilePath: path,
				PolicyID: wantPolicyID,
				Detail:   "downmix_policy_pack missing required keys: " + strings.Join(missing, ", "),
			},
		}}
	}

	pack := &PolicyPack{
		Path:        path,
		PolicyID:    doc.PolicyID,
		PackVersion: doc.PackVersion,
		Matrices:    make(map[string]Matrix, len(doc.Matrices)),
	}
	for id, m := range doc.Matrices {
		pack.Matrices[id] = Matrix{
			ID:             id,
			SourceLayoutID: m.SourceLayoutID,
			TargetLayoutID: m.TargetLayoutID,
			Coefficients:   m.Coefficients,
		}
	}

	var issues []issue.Issue
	if doc.PolicyID != wantPolicyID {
		issues = append(issues, issue.Issue{
			ID:       issue.PolicyIDMismatch,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegPackPolicyID,
			Evidence: issue.Evidence{
				FilePath: path,
				PolicyID: wantPolicyID,
				Detail:   fmt.Sprintf("pack declares policy_id %q, registry key is %q", doc.PolicyID, wantPolicyID),
			},
		})
	}

	log.Debug(log.CatRegistry, "policy pack loaded",
		"path", path, "policy", doc.PolicyID, "matrices", len(pack.Matrices))
	return pack, issues
}
