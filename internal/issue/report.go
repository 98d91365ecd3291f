package issue

import (
	"github.com/google/uuid"
)

// Counts tallies issues by severity.
type Counts struct {
	Error int `json:"error" yaml:"error"`
	Warn  int `json:"warn" yaml:"warn"`
}

// Report is the final output of a validation run. OK gates downstream
// rendering: zero errors means the registry is safe to trust.
type Report struct {
	RunID        string  `json:"run_id" yaml:"run_id"`
	RegistryFile string  `json:"registry_file" yaml:"registry_file"`
	OK           bool    `json:"ok" yaml:"ok"`
	IssueCounts  Counts  `json:"issue_counts" yaml:"issue_counts"`
	Issues       []Issue `json:"issues" yaml:"issues"`
}

// NewReport sorts the issues, tallies severities, and stamps a run ID.
func NewReport(registryFile string, issues []Issue) *Report {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	Sort(sorted)

	var counts Counts
	for _, iss := range sorted {
		switch iss.Severity {
		case SeverityError:
			counts.Error++
		case SeverityWarn:
			counts.Warn++
		}
	}

	return &Report{
		RunID:        uuid.NewString(),
		RegistryFile: registryFile,
		OK:           counts.Error == 0,
		IssueCounts:  counts,
		Issues:       sorted,
	}
}

// CountByID returns how many collected issues carry the given issue code at
// the given severity. Fixture assertions are built on this.
func (r *Report) CountByID(id ID, severity Severity) int {
	n := 0
	for _, iss := range r.Issues {
		if iss.ID == id && iss.Severity == severity {
			n++
		}
	}
	return n
}
