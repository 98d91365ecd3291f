package matrix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/registry"
	"github.com/zjrosen/dmxcheck/internal/testutil"
)

func stereoToMonoPack() *registry.PolicyPack {
	return &registry.PolicyPack{
		PolicyID: "POLICY.DOWNMIX.FILM_STANDARD",
		Matrices: map[string]registry.Matrix{
			"DMX.5_1.TO.2_0": {
				ID: "DMX.5_1.TO.2_0", SourceLayoutID: "LAYOUT.5_1", TargetLayoutID: "LAYOUT.2_0",
				Coefficients: map[string]any{
					"SPK.L": map[string]any{"SPK.L": 1.0, "SPK.C": 0.5},
					"SPK.R": map[string]any{"SPK.R": 1.0, "SPK.C": 0.5},
				},
			},
			"DMX.2_0.TO.1_0": {
				ID: "DMX.2_0.TO.1_0", SourceLayoutID: "LAYOUT.2_0", TargetLayoutID: "LAYOUT.1_0",
				Coefficients: map[string]any{
					"SPK.C": map[string]any{"SPK.L": 0.5, "SPK.R": 0.5},
				},
			},
		},
	}
}

func TestBuildDense(t *testing.T) {
	cat := testutil.Catalog(t)

	built, err := Build(cat, stereoToMonoPack(), "DMX.5_1.TO.2_0")
	require.NoError(t, err)

	// Rows follow target order L,R; columns follow source order
	// L,R,C,LFE,LS,RS; everything absent is zero.
	assert.Equal(t, []catalog.SpeakerID{"SPK.L", "SPK.R"}, built.TargetSpeakers)
	assert.Equal(t, []catalog.SpeakerID{"SPK.L", "SPK.R", "SPK.C", "SPK.LFE", "SPK.LS", "SPK.RS"}, built.SourceSpeakers)
	assert.Equal(t, [][]float64{
		{1.0, 0, 0.5, 0, 0, 0},
		{0, 1.0, 0.5, 0, 0, 0},
	}, built.Coeffs)
}

func TestBuildErrors(t *testing.T) {
	cat := testutil.Catalog(t)
	pack := stereoToMonoPack()

	_, err := Build(cat, pack, "DMX.GONE")
	assert.ErrorContains(t, err, "not in pack")

	pack.Matrices["DMX.BAD"] = registry.Matrix{
		ID: "DMX.BAD", SourceLayoutID: "LAYOUT.9_1", TargetLayoutID: "LAYOUT.2_0",
	}
	_, err = Build(cat, pack, "DMX.BAD")
	assert.ErrorContains(t, err, "unknown source layout")
}

func TestCompose(t *testing.T) {
	cat := testutil.Catalog(t)
	pack := stereoToMonoPack()

	a, err := Build(cat, pack, "DMX.5_1.TO.2_0")
	require.NoError(t, err)
	b, err := Build(cat, pack, "DMX.2_0.TO.1_0")
	require.NoError(t, err)

	composed, err := Compose(a, b)
	require.NoError(t, err)

	assert.Equal(t, "LAYOUT.5_1", composed.SourceLayoutID)
	assert.Equal(t, "LAYOUT.1_0", composed.TargetLayoutID)
	// Mono C = 0.5*L_row + 0.5*R_row of the 5.1 matrix.
	assert.Equal(t, [][]float64{{0.5, 0.5, 0.5, 0, 0, 0}}, composed.Coeffs)
}

func TestComposeOrderMismatch(t *testing.T) {
	cat := testutil.Catalog(t)
	pack := stereoToMonoPack()

	a, err := Build(cat, pack, "DMX.5_1.TO.2_0")
	require.NoError(t, err)
	b, err := Build(cat, pack, "DMX.2_0.TO.1_0")
	require.NoError(t, err)

	_, err = Compose(b, a)
	assert.ErrorContains(t, err, "channels")
}

func TestComposeSnapsNoiseToZero(t *testing.T) {
	a := &Built{
		MatrixID:       "DMX.A",
		TargetSpeakers: []catalog.SpeakerID{"SPK.C"},
		SourceSpeakers: []catalog.SpeakerID{"SPK.L"},
		Coeffs:         [][]float64{{1e-13}},
	}
	b := &Built{
		MatrixID:       "DMX.B",
		TargetSpeakers: []catalog.SpeakerID{"SPK.C"},
		SourceSpeakers: []catalog.SpeakerID{"SPK.C"},
		Coeffs:         [][]float64{{1.0}},
	}

	composed, err := Compose(a, b)
	require.NoError(t, err)
	assert.Zero(t, composed.Coeffs[0][0])
}

func TestFormatCSV(t *testing.T) {
	cat := testutil.Catalog(t)

	built, err := Build(cat, stereoToMonoPack(), "DMX.2_0.TO.1_0")
	require.NoError(t, err)

	csv := FormatCSV(built)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "target_speaker,SPK.L,SPK.R", lines[0])
	assert.Equal(t, "SPK.C,0.500000,0.500000", lines[1])
}

func TestFormatJSON(t *testing.T) {
	cat := testutil.Catalog(t)

	built, err := Build(cat, stereoToMonoPack(), "DMX.2_0.TO.1_0")
	require.NoError(t, err)

	out, err := FormatJSON(built)
	require.NoError(t, err)
	assert.Contains(t, out, `"matrix_id": "DMX.2_0.TO.1_0"`)
	assert.Contains(t, out, `"SPK.C"`)
}
