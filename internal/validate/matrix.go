package validate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

// Coefficient sanity limits. A linear gain past the hard limit cannot
// represent a physically sane fold-down; the soft limit flags suspicious but
// representable gains. Channel sums are bounded separately because many
// small contributions can still overload a target channel.
const (
	coeffSoftLimit  = 2.0
	coeffHardLimit  = 4.0
	channelSumWarn  = 2.5
	channelSumError = 4.0
)

// validatePackMatrices runs the matrix and coefficient rules over every
// matrix in a loaded pack.
func validatePackMatrices(cat *catalog.Catalog, pack *registry.PolicyPack, col *issue.Collector) {
	for _, matrixID := range pack.MatrixIDs() {
		validateMatrix(cat, pack, pack.Matrices[matrixID], col)
	}
}

func validateMatrix(cat *catalog.Catalog, pack *registry.PolicyPack, m registry.Matrix, col *issue.Collector) {
	sourceLayout, sourceKnown := cat.Layout(catalog.LayoutID(m.SourceLayoutID))
	if !sourceKnown {
		col.Add(layoutUnknownIssue(pack, m, m.SourceLayoutID, "source_layout_id"))
	}
	targetLayout, targetKnown := cat.Layout(catalog.LayoutID(m.TargetLayoutID))
	if !targetKnown {
		col.Add(layoutUnknownIssue(pack, m, m.TargetLayoutID, "target_layout_id"))
	}

	rows, ok := registry.AsMap(m.Coefficients)
	if !ok {
		col.Add(issue.Issue{
			ID:       issue.PolicySchemaInvalid,
			Severity: issue.SeverityError,
			Rule:     issue.RulePackCoefficientShape,
			Evidence: issue.Evidence{
				FilePath: pack.Path,
				PolicyID: pack.PolicyID,
				MatrixID: m.ID,
				Detail:   "coefficients must be a mapping of target speaker to source gains",
			},
		})
		return
	}

	var sourceSet map[catalog.SpeakerID]struct{}
	if sourceKnown {
		sourceSet = sourceLayout.ChannelSet()
	}
	var targetSet map[catalog.SpeakerID]struct{}
	if targetKnown {
		targetSet = targetLayout.ChannelSet()
	}

	for _, target := range registry.SortedKeys(rows) {
		targetID := catalog.SpeakerID(target)

		if !cat.KnownSpeaker(targetID) {
			col.Add(speakerUnknownIssue(pack, m, issue.Evidence{TargetSpeaker: target}))
		}
		if targetSet != nil {
			if _, ok := targetSet[targetID]; !ok {
				col.Add(issue.Issue{
					ID:       issue.LayoutSpeakerMismatch,
					Severity: issue.SeverityError,
					Rule:     issue.RulePackTargetCoverage,
					Evidence: issue.Evidence{
						FilePath:      pack.Path,
						PolicyID:      pack.PolicyID,
						MatrixID:      m.ID,
						LayoutID:      m.TargetLayoutID,
						TargetSpeaker: target,
						Detail:        "coefficient target speaker is not a channel of the target layout",
					},
				})
			}
		}

		sources, ok := registry.AsMap(rows[target])
		if !ok {
			col.Add(issue.Issue{
				ID:       issue.PolicySchemaInvalid,
				Severity: issue.SeverityError,
				Rule:     issue.RulePackCoefficientShape,
				Evidence: issue.Evidence{
					FilePath:      pack.Path,
					PolicyID:      pack.PolicyID,
					MatrixID:      m.ID,
					TargetSpeaker: target,
					Detail:        "coefficients for target speaker must be a mapping of source speaker to gain",
				},
			})
			continue
		}

		validateChannelGains(cat, pack, m, target, sources, sourceSet, col)
	}

	// Every target-layout channel must appear as a key: a missing channel
	// means silent output on that channel.
	if targetSet != nil {
		for _, channel := range targetLayout.ChannelOrder {
			if _, ok := rows[string(channel)]; ok {
				continue
			}
			col.Add(issue.Issue{
				ID:       issue.LayoutSpeakerMismatch,
				Severity: issue.SeverityError,
				Rule:     issue.RulePackTargetCoverage,
				Evidence: issue.Evidence{
					FilePath:      pack.Path,
					PolicyID:      pack.PolicyID,
					MatrixID:      m.ID,
					LayoutID:      m.TargetLayoutID,
					TargetSpeaker: string(channel),
					Detail:        "target layout channel has no coefficient row (silent output)",
				},
			})
		}
	}
}

// validateChannelGains checks every source contribution for one target
// channel, then the channel's absolute gain sum. The per-coefficient and
// per-channel rules are independent: a matrix can trip both at once.
func validateChannelGains(cat *catalog.Catalog, pack *registry.PolicyPack, m registry.Matrix, target string, sources map[string]any, sourceSet map[catalog.SpeakerID]struct{}, col *issue.Collector) {
	sumAbs := 0.0
	sawFinite := false

	for _, source := range registry.SortedKeys(sources) {
		sourceID := catalog.SpeakerID(source)

		if !cat.KnownSpeaker(sourceID) {
			col.Add(speakerUnknownIssue(pack, m, issue.Evidence{TargetSpeaker: target, SourceSpeaker: source}))
		}
		if sourceSet != nil {
			if _, ok := sourceSet[sourceID]; !ok {
				col.Add(issue.Issue{
					ID:       issue.LayoutSpeakerMismatch,
					Severity: issue.SeverityError,
					Rule:     issue.RulePackSourceMembership,
					Evidence: issue.Evidence{
						FilePath:      pack.Path,
						PolicyID:      pack.PolicyID,
						MatrixID:      m.ID,
						LayoutID:      m.SourceLayoutID,
						TargetSpeaker: target,
						SourceSpeaker: source,
						Detail:        "coefficient source speaker is not a channel of the source layout",
					},
				})
			}
		}

		raw := sources[source]
		value, numeric := registry.NumericValue(raw)
		if !numeric {
			col.Add(coefficientIssue(pack, m, target, source, issue.RuleCoeffFinite,
				fmt.Sprintf("%v", raw), "coefficient is not a number"))
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			col.Add(coefficientIssue(pack, m, target, source, issue.RuleCoeffFinite,
				formatGain(value), "coefficient is not finite"))
			continue
		}

		sawFinite = true
		sumAbs += math.Abs(value)

		switch {
		case math.Abs(value) > coeffHardLimit:
			col.Add(coefficientIssue(pack, m, target, source, issue.RuleCoeffHardLimit,
				formatGain(value), fmt.Sprintf("absolute gain exceeds hard limit %.1f", coeffHardLimit)))
		case math.Abs(value) > coeffSoftLimit:
			col.Add(issue.Issue{
				ID:       issue.CoefficientHigh,
				Severity: issue.SeverityWarn,
				Rule:     issue.RuleCoeffSoftLimit,
				Evidence: issue.Evidence{
					FilePath:      pack.Path,
					PolicyID:      pack.PolicyID,
					MatrixID:      m.ID,
					TargetSpeaker: target,
					SourceSpeaker: source,
					Value:         formatGain(value),
					Detail:        fmt.Sprintf("absolute gain exceeds soft limit %.1f", coeffSoftLimit),
				},
			})
		}
	}

	if !sawFinite {
		return
	}

	// One issue per channel: the error threshold suppresses the warning.
	evidence := issue.Evidence{
		FilePath:      pack.Path,
		PolicyID:      pack.PolicyID,
		MatrixID:      m.ID,
		TargetSpeaker: target,
		Value:         formatGain(sumAbs),
		Detail:        "unexpected level: sum of absolute coefficients for target channel",
	}
	switch {
	case sumAbs > channelSumError:
		col.Add(issue.Issue{
			ID:       issue.CoefficientInvalid,
			Severity: issue.SeverityError,
			Rule:     issue.RuleCoeffChannelSum,
			Evidence: evidence,
		})
	case sumAbs > channelSumWarn:
		col.Add(issue.Issue{
			ID:       issue.CoefficientHigh,
			Severity: issue.SeverityWarn,
			Rule:     issue.RuleCoeffChannelSum,
			Evidence: evidence,
		})
	}
}

func layoutUnknownIssue(pack *registry.PolicyPack, m registry.Matrix, layoutID, field string) issue.Issue {
	return issue.Issue{
		ID:       issue.LayoutUnknown,
		Severity: issue.SeverityError,
		Rule:     issue.RulePackMatrixLayouts,
		Evidence: issue.Evidence{
			FilePath: pack.Path,
			PolicyID: pack.PolicyID,
			MatrixID: m.ID,
			LayoutID: layoutID,
			Detail:   field + " is not a known layout",
		},
	}
}

func speakerUnknownIssue(pack *registry.PolicyPack, m registry.Matrix, partial issue.Evidence) issue.Issue {
	partial.FilePath = pack.Path
	partial.PolicyID = pack.PolicyID
	partial.MatrixID = m.ID
	partial.Detail = "coefficient references an unknown speaker"
	return issue.Issue{
		ID:       issue.SpeakerUnknown,
		Severity: issue.SeverityError,
		Rule:     issue.RulePackSpeakerKnown,
		Evidence: partial,
	}
}

func coefficientIssue(pack *registry.PolicyPack, m registry.Matrix, target, source string, rule issue.Rule, value, detail string) issue.Issue {
	return issue.Issue{
		ID:       issue.CoefficientInvalid,
		Severity: issue.SeverityError,
		Rule:     rule,
		Evidence: issue.Evidence{
			FilePath:      pack.Path,
			PolicyID:      pack.PolicyID,
			MatrixID:      m.ID,
			TargetSpeaker: target,
			SourceSpeaker: source,
			Value:         value,
			Detail:        detail,
		},
	}
}

func formatGain(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
