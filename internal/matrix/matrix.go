// Package matrix turns validated coefficient mappings into dense gain
// matrices and composes them across fold-down steps. Rows follow the target
// layout's channel order and columns the source layout's, so two matrices
// over the same layouts always agree on shape.
package matrix

import (
	"fmt"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

// composeEpsilon snaps near-zero products of a composition to exactly zero
// so that cancellation noise never leaks into rendered output.
const composeEpsilon = 1e-12

// Built is a dense gain matrix: Coeffs[row][col] is the gain applied to
// source speaker col when mixing into target speaker row.
type Built struct {
	MatrixID       string
	SourceLayoutID string
	TargetLayoutID string
	SourceSpeakers []catalog.SpeakerID
	TargetSpeakers []catalog.SpeakerID
	Coeffs         [][]float64
}

// Build densifies one pack matrix against the catalog's layout channel
// orders. Coefficients absent from the mapping are zero. Build assumes the
// matrix passed validation; unknown layouts or malformed coefficient shapes
// are reported as errors, not issues.
func Build(cat *catalog.Catalog, pack *registry.PolicyPack, matrixID string) (*Built, error) {
	m, ok := pack.Matrices[matrixID]
	if !ok {
		return nil, fmt.Errorf("matrix %s not in pack %s", matrixID, pack.PolicyID)
	}

	source, ok := cat.Layout(catalog.LayoutID(m.SourceLayoutID))
	if !ok {
		return nil, fmt.Errorf("matrix %s: unknown source layout %s", matrixID, m.SourceLayoutID)
	}
	target, ok := cat.Layout(catalog.LayoutID(m.TargetLayoutID))
	if !ok {
		return nil, fmt.Errorf("matrix %s: unknown target layout %s", matrixID, m.TargetLayoutID)
	}

	rows, ok := registry.AsMap(m.Coefficients)
	if !ok {
		return nil, fmt.Errorf("matrix %s: coefficients are not a mapping", matrixID)
	}

	colIndex := make(map[catalog.SpeakerID]int, len(source.ChannelOrder))
	for i, spk := range source.ChannelOrder {
		colIndex[spk] = i
	}

	coeffs := make([][]float64, len(target.ChannelOrder))
	for ri, targetSpk := range target.ChannelOrder {
		coeffs[ri] = make([]float64, len(source.ChannelOrder))

		sources, ok := registry.AsMap(rows[string(targetSpk)])
		if !ok {
			continue
		}
		for sourceSpk, raw := range sources {
			ci, ok := colIndex[catalog.SpeakerID(sourceSpk)]
			if !ok {
				continue
			}
			if gain, ok := registry.NumericValue(raw); ok {
				coeffs[ri][ci] = gain
			}
		}
	}

	return &Built{
		MatrixID:       m.ID,
		SourceLayoutID: m.SourceLayoutID,
		TargetLayoutID: m.TargetLayoutID,
		SourceSpeakers: append([]catalog.SpeakerID(nil), source.ChannelOrder...),
		TargetSpeakers: append([]catalog.SpeakerID(nil), target.ChannelOrder...),
		Coeffs:         coeffs,
	}, nil
}

// Compose chains two fold-downs: the result applies a first, then b. The
// speaker order b consumes must equal the order a produces.
func Compose(a, b *Built) (*Built, error) {
	if len(b.SourceSpeakers) != len(a.TargetSpeakers) {
		return nil, fmt.Errorf("compose %s after %s: %d source channels vs %d target channels",
			b.MatrixID, a.MatrixID, len(b.SourceSpeakers), len(a.TargetSpeakers))
	}
	for i, spk := range b.SourceSpeakers {
		if spk != a.TargetSpeakers[i] {
			return nil, fmt.Errorf("compose %s after %s: channel %d is %s vs %s",
				b.MatrixID, a.MatrixID, i, spk, a.TargetSpeakers[i])
		}
	}

	coeffs := make([][]float64, len(b.TargetSpeakers))
	for ri := range b.Coeffs {
		coeffs[ri] = make([]float64, len(a.SourceSpeakers))
		for ci := range a.SourceSpeakers {
			sum := 0.0
			for k := range b.SourceSpeakers {
				sum += b.Coeffs[ri][k] * a.Coeffs[k][ci]
			}
			if sum > -composeEpsilon && sum < composeEpsilon {
				sum = 0
			}
			coeffs[ri][ci] = sum
		}
	}

	return &Built{
		MatrixID:       fmt.Sprintf("%s+%s", a.MatrixID, b.MatrixID),
		SourceLayoutID: a.SourceLayoutID,
		TargetLayoutID: b.TargetLayoutID,
		SourceSpeakers: append([]catalog.SpeakerID(nil), a.SourceSpeakers...),
		TargetSpeakers: append([]catalog.SpeakerID(nil), b.TargetSpeakers...),
		Coeffs:         coeffs,
	}, nil
}
