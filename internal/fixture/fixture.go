// Package fixture implements the policy-validation fixture contract: a YAML
// document naming a registry under test plus the issue counts and specific
// findings a conformant validator must report for it.
package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/log"
	"github.com/zjrosen/dmxcheck/internal/validate"
)

// TypePolicyValidation is the only fixture type this tool understands.
const TypePolicyValidation = "policy_validation"

// Assertion requires at least CountMin issues with the given ID and
// severity in the report.
type Assertion struct {
	IssueID  issue.ID       `yaml:"issue_id"`
	Severity issue.Severity `yaml:"severity"`
	CountMin int            `yaml:"count_min"`
}

// Expected is the fixture's contract with the validator.
type Expected struct {
	IssueCounts issue.Counts `yaml:"issue_counts"`
	MustInclude []Assertion  `yaml:"must_include"`
}

// Inputs names the documents the fixture runs against.
type Inputs struct {
	RegistryFile string `yaml:"registry_file"`
}

// Fixture is one policy-validation scenario.
type Fixture struct {
	Path        string   `yaml:"-"`
	FixtureID   string   `yaml:"fixture_id"`
	FixtureType string   `yaml:"fixture_type"`
	Inputs      Inputs   `yaml:"inputs"`
	Expected    Expected `yaml:"expected"`
}

// RegistryPath resolves the registry under test. Relative paths are
// interpreted against the fixture file's own directory.
func (f *Fixture) RegistryPath() string {
	if filepath.IsAbs(f.Inputs.RegistryFile) {
		return f.Inputs.RegistryFile
	}
	return filepath.Join(filepath.Dir(f.Path), f.Inputs.RegistryFile)
}

// Load reads and checks one fixture document.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	f.Path = path

	if f.FixtureID == "" {
		return nil, fmt.Errorf("fixture %s: missing fixture_id", path)
	}
	if f.FixtureType != TypePolicyValidation {
		return nil, fmt.Errorf("fixture %s: unsupported fixture_type %q", path, f.FixtureType)
	}
	if f.Inputs.RegistryFile == "" {
		return nil, fmt.Errorf("fixture %s: missing inputs.registry_file", path)
	}
	return &f, nil
}

// AssertionResult records one must_include check.
type AssertionResult struct {
	Assertion Assertion
	Got       int
	Passed    bool
}

// Result is the outcome of running one fixture.
type Result struct {
	FixtureID   string
	CountsMatch bool
	GotCounts   issue.Counts
	WantCounts  issue.Counts
	Assertions  []AssertionResult
}

// Passed reports whether the aggregate counts and every assertion held.
func (r *Result) Passed() bool {
	if !r.CountsMatch {
		return false
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			return false
		}
	}
	return true
}

// Runner executes fixtures against a validator.
type Runner struct {
	validator *validate.Runner
}

// NewRunner builds a fixture runner over the given catalog.
func NewRunner(cat *catalog.Catalog) *Runner {
	return &Runner{validator: validate.NewRunner(cat)}
}

// Run validates the fixture's registry and compares the report against the
// fixture's expectations.
func (r *Runner) Run(ctx context.Context, f *Fixture) (*Result, error) {
	report, err := r.validator.Run(ctx, f.RegistryPath())
	if err != nil {
		return nil, err
	}

	result := &Result{
		FixtureID:   f.FixtureID,
		GotCounts:   report.IssueCounts,
		WantCounts:  f.Expected.IssueCounts,
		CountsMatch: report.IssueCounts == f.Expected.IssueCounts,
	}
	for _, want := range f.Expected.MustInclude {
		got := report.CountByID(want.IssueID, want.Severity)
		result.Assertions = append(result.Assertions, AssertionResult{
			Assertion: want,
			Got:       got,
			Passed:    got >= want.CountMin,
		})
	}

	log.Debug(log.CatFixture, "fixture finished",
		"fixture", f.FixtureID, "passed", result.Passed())
	return result, nil
}
