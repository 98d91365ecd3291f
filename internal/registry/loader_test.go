package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/testutil"
)

func TestLoadRegistryClean(t *testing.T) {
	path := testutil.WriteCleanRegistry(t)

	reg, issues := LoadRegistry(path)
	require.Empty(t, issues)
	require.NotNil(t, reg)

	assert.Equal(t, path, reg.Path)
	assert.Equal(t, filepath.Dir(path), reg.Dir)
	assert.Equal(t, []string{"POLICY.DOWNMIX.FILM_STANDARD"}, reg.PolicyIDs())
	assert.Equal(t, "POLICY.DOWNMIX.FILM_STANDARD", reg.DefaultPolicyBySourceLayout["LAYOUT.5_1"])
	require.Len(t, reg.Conversions, 1)
	assert.Equal(t, "DMX.5_1.TO.2_0", reg.Conversions[0].MatrixID)
}

func TestLoadRegistryFileMissing(t *testing.T) {
	reg, issues := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Nil(t, reg)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.PolicyParseError, issues[0].ID)
	assert.Equal(t, issue.RuleRegParse, issues[0].Rule)
	assert.Equal(t, issue.SeverityError, issues[0].Severity)
}

func TestLoadRegistryNotYAML(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"registry.yaml": "downmix: [unclosed",
	})

	reg, issues := LoadRegistry(filepath.Join(dir, "registry.yaml"))
	require.Nil(t, reg)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.PolicyParseError, issues[0].ID)
	assert.Equal(t, issue.RuleRegParse, issues[0].Rule)
}

func TestLoadRegistrySchemaInvalid(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		detailMention string
	}{
		{
			name:          "no downmix section",
			content:       "other: {}\n",
			detailMention: "downmix",
		},
		{
			name: "downmix not a mapping",
			content: `
downmix:
  - item
`,
			detailMention: "downmix",
		},
		{
			name: "missing policies and conversions",
			content: `
downmix:
  _meta: {}
  default_policy_by_source_layout: {}
`,
			detailMention: "policies",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, map[string]string{"registry.yaml": tt.content})

			reg, issues := LoadRegistry(filepath.Join(dir, "registry.yaml"))
			require.Nil(t, reg)
			require.Len(t, issues, 1)
			assert.Equal(t, issue.PolicySchemaInvalid, issues[0].ID)
			assert.Equal(t, issue.RuleRegShape, issues[0].Rule)
			assert.Contains(t, issues[0].Evidence.Detail, tt.detailMention)
		})
	}
}

func TestPackPathResolution(t *testing.T) {
	reg := &Registry{Dir: "/data/ontology/policies"}

	assert.Equal(t,
		filepath.Join("/data/ontology/policies", "packs/film.yaml"),
		reg.PackPath(PolicyEntry{File: "packs/film.yaml"}))

	// Absolute paths pass through untouched.
	assert.Equal(t, "/abs/film.yaml", reg.PackPath(PolicyEntry{File: "/abs/film.yaml"}))
}

func TestLoadRegistryIdempotent(t *testing.T) {
	path := testutil.WriteCleanRegistry(t)

	first, issues := LoadRegistry(path)
	require.Empty(t, issues)
	second, issues := LoadRegistry(path)
	require.Empty(t, issues)

	assert.Equal(t, first, second)
}
