// Package presentation handles output formatting for the CLI.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/zjrosen/dmxcheck/internal/issue"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatJSON renders any payload as indented JSON.
func (f *Formatter) FormatJSON(payload any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// FormatReportText renders a validation report as a human-readable summary:
// one line per issue plus a tally.
func (f *Formatter) FormatReportText(report *issue.Report) error {
	for _, is := range report.Issues {
		loc := is.Evidence.FilePath
		if is.Evidence.MatrixID != "" {
			loc += " " + is.Evidence.MatrixID
		}
		detail := is.Evidence.Detail
		if detail == "" {
			detail = string(is.ID)
		}
		if _, err := fmt.Fprintf(f.writer, "%-5s %s  %s: %s\n",
			is.Severity, is.Rule, loc, detail); err != nil {
			return err
		}
	}

	status := "OK"
	if !report.OK {
		status = "FAILED"
	}
	_, err := fmt.Fprintf(f.writer, "%s: %d error(s), %d warning(s) in %s\n",
		status, report.IssueCounts.Error, report.IssueCounts.Warn, report.RegistryFile)
	return err
}
