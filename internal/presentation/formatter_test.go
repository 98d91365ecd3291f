package presentation

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dmxcheck/internal/issue"
)

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer

	report := issue.NewReport("registry.yaml", nil)
	require.NoError(t, NewFormatter(&buf).FormatJSON(report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["ok"])
	assert.Equal(t, "registry.yaml", decoded["registry_file"])
}

func TestFormatReportText(t *testing.T) {
	report := issue.NewReport("registry.yaml", []issue.Issue{
		{
			ID:       issue.CoefficientHigh,
			Severity: issue.SeverityWarn,
			Rule:     issue.RuleCoeffSoftLimit,
			Evidence: issue.Evidence{
				FilePath: "packs/film.yaml",
				MatrixID: "DMX.5_1.TO.2_0",
				Detail:   "absolute gain exceeds soft limit 2.0",
			},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatReportText(report))

	out := buf.String()
	assert.Contains(t, out, "warn")
	assert.Contains(t, out, "DMX.COEFF.003")
	assert.Contains(t, out, "packs/film.yaml DMX.5_1.TO.2_0")
	assert.Contains(t, out, "OK: 0 error(s), 1 warning(s)")
}

func TestFormatReportTextFailed(t *testing.T) {
	report := issue.NewReport("registry.yaml", []issue.Issue{
		{
			ID:       issue.PolicyFileMissing,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegPackFileMissing,
			Evidence: issue.Evidence{FilePath: "packs/gone.yaml"},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatReportText(report))
	assert.Contains(t, buf.String(), "FAILED: 1 error(s), 0 warning(s)")
}
