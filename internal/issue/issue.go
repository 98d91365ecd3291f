// Package issue defines validation findings and their deterministic ordering.
//
// Every problem the validator surfaces is an Issue: a canonical issue code,
// a severity, the bespoke rule that fired, and structured evidence pointing
// at the offending document location. Issues are pure values, created once
// and never mutated.
package issue

import (
	"encoding/json"
	"fmt"
)

// Severity classifies an issue. The order is total: warn < error.
type Severity int

const (
	SeverityWarn Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the severity as its label ("warn" or "error").
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity label.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseSeverity(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML renders the severity as its label.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML parses a severity label.
func (s *Severity) UnmarshalYAML(unmarshal func(any) error) error {
	var label string
	if err := unmarshal(&label); err != nil {
		return err
	}
	parsed, err := ParseSeverity(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a label into a Severity.
func ParseSeverity(label string) (Severity, error) {
	switch label {
	case "warn":
		return SeverityWarn, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityWarn, fmt.Errorf("invalid severity %q (must be \"warn\" or \"error\")", label)
	}
}

// ID is a canonical issue code from the validation ontology.
type ID string

const (
	PolicyParseError      ID = "ISSUE.VALIDATION.POLICY_PARSE_ERROR"
	PolicySchemaInvalid   ID = "ISSUE.VALIDATION.POLICY_SCHEMA_INVALID"
	PolicyFileMissing     ID = "ISSUE.VALIDATION.POLICY_FILE_MISSING"
	PolicyIDMismatch      ID = "ISSUE.VALIDATION.DOWNMIX_POLICY_ID_MISMATCH"
	LayoutUnknown         ID = "ISSUE.VALIDATION.DOWNMIX_LAYOUT_UNKNOWN"
	SpeakerUnknown        ID = "ISSUE.VALIDATION.DOWNMIX_SPEAKER_UNKNOWN"
	LayoutSpeakerMismatch ID = "ISSUE.VALIDATION.DOWNMIX_LAYOUT_SPEAKER_MISMATCH"
	MatrixIDMissing       ID = "ISSUE.VALIDATION.DOWNMIX_MATRIX_ID_MISSING"
	CoefficientInvalid    ID = "ISSUE.VALIDATION.DOWNMIX_COEFFICIENT_INVALID"
	CoefficientHigh       ID = "ISSUE.VALIDATION.DOWNMIX_COEFFICIENT_HIGH"
)

// Rule identifies the specific check that produced an issue.
type Rule string

// Registry-level rules.
const (
	RuleRegParse              Rule = "DMX.REG.001"
	RuleRegShape              Rule = "DMX.REG.002"
	RuleRegPolicyKeyPrefix    Rule = "DMX.REG.010"
	RuleRegPackFileMissing    Rule = "DMX.REG.011"
	RuleRegPackPolicyID       Rule = "DMX.REG.013"
	RuleRegSupportsLayouts    Rule = "DMX.REG.014"
	RuleRegDefaultPolicy      Rule = "DMX.REG.020"
	RuleRegConversionLayouts  Rule = "DMX.REG.030"
	RuleRegConversionPolicy   Rule = "DMX.REG.031"
	RuleRegConversionMatrix   Rule = "DMX.REG.032"
	RuleRegConversionTopology Rule = "DMX.REG.033"
	RuleRegCompositionStep    Rule = "DMX.REG.040"
)

// Policy-pack rules.
const (
	RulePackRoot             Rule = "DMX.PACK.001"
	RulePackShape            Rule = "DMX.PACK.002"
	RulePackMatrixLayouts    Rule = "DMX.PACK.010"
	RulePackCoefficientShape Rule = "DMX.PACK.011"
	RulePackSpeakerKnown     Rule = "DMX.PACK.012"
	RulePackTargetCoverage   Rule = "DMX.PACK.013"
	RulePackSourceMembership Rule = "DMX.PACK.014"
)

// Coefficient rules.
const (
	RuleCoeffFinite     Rule = "DMX.COEFF.001"
	RuleCoeffHardLimit  Rule = "DMX.COEFF.002"
	RuleCoeffSoftLimit  Rule = "DMX.COEFF.003"
	RuleCoeffChannelSum Rule = "DMX.COEFF.004"
)

// Evidence carries the structured context of a finding. FilePath is always
// set; everything else is populated when the check has it.
type Evidence struct {
	FilePath      string `json:"file_path" yaml:"file_path"`
	PolicyID      string `json:"policy_id,omitempty" yaml:"policy_id,omitempty"`
	MatrixID      string `json:"matrix_id,omitempty" yaml:"matrix_id,omitempty"`
	LayoutID      string `json:"layout_id,omitempty" yaml:"layout_id,omitempty"`
	TargetSpeaker string `json:"target_speaker,omitempty" yaml:"target_speaker,omitempty"`
	SourceSpeaker string `json:"source_speaker,omitempty" yaml:"source_speaker,omitempty"`
	Step          string `json:"step,omitempty" yaml:"step,omitempty"`
	Value         string `json:"value,omitempty" yaml:"value,omitempty"`
	Detail        string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Issue is a single validation finding.
type Issue struct {
	ID       ID       `json:"issue_id" yaml:"issue_id"`
	Severity Severity `json:"severity" yaml:"severity"`
	Rule     Rule     `json:"rule_id" yaml:"rule_id"`
	Evidence Evidence `json:"evidence" yaml:"evidence"`
}

// Less defines the deterministic total order on issues: rule, file path,
// matrix ID, target speaker, source speaker, then issue ID as a tiebreak.
// Execution-order nondeterminism must never leak into output.
func Less(a, b Issue) bool {
	if a.Rule != b.Rule {
		return a.Rule < b.Rule
	}
	if a.Evidence.FilePath != b.Evidence.FilePath {
		return a.Evidence.FilePath < b.Evidence.FilePath
	}
	if a.Evidence.MatrixID != b.Evidence.MatrixID {
		return a.Evidence.MatrixID < b.Evidence.MatrixID
	}
	if a.Evidence.TargetSpeaker != b.Evidence.TargetSpeaker {
		return a.Evidence.TargetSpeaker < b.Evidence.TargetSpeaker
	}
	if a.Evidence.SourceSpeaker != b.Evidence.SourceSpeaker {
		return a.Evidence.SourceSpeaker < b.Evidence.SourceSpeaker
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.Evidence.LayoutID != b.Evidence.LayoutID {
		return a.Evidence.LayoutID < b.Evidence.LayoutID
	}
	if a.Evidence.Step != b.Evidence.Step {
		return a.Evidence.Step < b.Evidence.Step
	}
	return a.Evidence.Detail < b.Evidence.Detail
}
