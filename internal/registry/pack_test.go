package registry

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/testutil"
)

const wantPolicy = "POLICY.DOWNMIX.FILM_STANDARD"

func writePack(t *testing.T, content string) string {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{"film.yaml": content})
	return filepath.Join(dir, "film.yaml")
}

func TestLoadPackClean(t *testing.T) {
	path := writePack(t, testutil.CleanPackYAML)

	pack, issues := LoadPack(path, wantPolicy)
	require.Empty(t, issues)
	require.NotNil(t, pack)

	assert.Equal(t, wantPolicy, pack.PolicyID)
	assert.Equal(t, "1.0.0", pack.PackVersion)
	assert.Equal(t, []string{"DMX.5_1.TO.2_0"}, pack.MatrixIDs())

	m := pack.Matrices["DMX.5_1.TO.2_0"]
	assert.Equal(t, "LAYOUT.5_1", m.SourceLayoutID)
	assert.Equal(t, "LAYOUT.2_0", m.TargetLayoutID)

	rows, ok := AsMap(m.Coefficients)
	require.True(t, ok)
	left, ok := AsMap(rows["SPK.L"])
	require.True(t, ok)
	gain, ok := NumericValue(left["SPK.C"])
	require.True(t, ok)
	assert.InDelta(t, 0.7071, gain, 1e-9)
}

func TestLoadPackFileMissing(t *testing.T) {
	pack, issues := LoadPack(filepath.Join(t.TempDir(), "gone.yaml"), wantPolicy)
	require.Nil(t, pack)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.PolicyFileMissing, issues[0].ID)
	assert.Equal(t, issue.RuleRegPackFileMissing, issues[0].Rule)
	assert.Contains(t, issues[0].Evidence.FilePath, "gone.yaml")
	assert.Equal(t, wantPolicy, issues[0].Evidence.PolicyID)
}

func TestLoadPackParseError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "downmix_policy_pack: [unclosed"},
		{name: "missing root key", content: "something_else: {}\n"},
		{name: "root not mapping", content: "downmix_policy_pack: [a, b]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pack, issues := LoadPack(writePack(t, tt.content), wantPolicy)
			require.Nil(t, pack)
			require.Len(t, issues, 1)
			assert.Equal(t, issue.PolicyParseError, issues[0].ID)
			assert.Equal(t, issue.RulePackRoot, issues[0].Rule)
		})
	}
}

func TestLoadPackSchemaInvalid(t *testing.T) {
	content := `
downmix_policy_pack:
  policy_id: POLICY.DOWNMIX.FILM_STANDARD
`
	pack, issues := LoadPack(writePack(t, content), wantPolicy)
	require.Nil(t, pack)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.PolicySchemaInvalid, issues[0].ID)
	assert.Equal(t, issue.RulePackShape, issues[0].Rule)
	assert.Contains(t, issues[0].Evidence.Detail, "pack_version")
	assert.Contains(t, issues[0].Evidence.Detail, "matrices")
}

func TestLoadPackPolicyIDMismatch(t *testing.T) {
	content := `
downmix_policy_pack:
  policy_id: POLICY.DOWNMIX.OTHER
  pack_version: "1.0.0"
  matrices: {}
`
	pack, issues := LoadPack(writePack(t, content), wantPolicy)
	// The pack stays usable; the mismatch is reported alongside it.
	require.NotNil(t, pack)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.PolicyIDMismatch, issues[0].ID)
	assert.Equal(t, issue.RuleRegPackPolicyID, issues[0].Rule)
	assert.Equal(t, issue.SeverityError, issues[0].Severity)
}

func TestLoadPackIdempotent(t *testing.T) {
	path := writePack(t, testutil.CleanPackYAML)

	first, issues := LoadPack(path, wantPolicy)
	require.Empty(t, issues)
	second, issues := LoadPack(path, wantPolicy)
	require.Empty(t, issues)

	assert.Equal(t, first, second)
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{name: "float", in: 0.5, want: 0.5, ok: true},
		{name: "int", in: 2, want: 2.0, ok: true},
		{name: "int64", in: int64(3), want: 3.0, ok: true},
		{name: "string", in: "loud", ok: false},
		{name: "nil", in: nil, ok: false},
		{name: "list", in: []any{1.0}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NumericValue(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}

	// YAML non-finite scalars stay numeric here; finiteness is checked later.
	nan, ok := NumericValue(math.NaN())
	assert.True(t, ok)
	assert.True(t, math.IsNaN(nan))
}
