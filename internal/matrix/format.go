package matrix

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FormatCSV renders a built matrix as CSV with a target_speaker header
// column, one row per target channel, gains at six decimal places.
func FormatCSV(b *Built) string {
	var sb strings.Builder

	sb.WriteString("target_speaker")
	for _, spk := range b.SourceSpeakers {
		sb.WriteByte(',')
		sb.WriteString(string(spk))
	}
	sb.WriteByte('\n')

	for ri, target := range b.TargetSpeakers {
		sb.WriteString(string(target))
		for _, gain := range b.Coeffs[ri] {
			sb.WriteByte(',')
			sb.WriteString(strconv.FormatFloat(gain, 'f', 6, 64))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

type builtJSON struct {
	MatrixID       string               `json:"matrix_id"`
	SourceLayoutID string               `json:"source_layout_id"`
	TargetLayoutID string               `json:"target_layout_id"`
	SourceSpeakers []string             `json:"source_speakers"`
	TargetSpeakers []string             `json:"target_speakers"`
	Coefficients   map[string][]float64 `json:"coefficients"`
	Steps          []string             `json:"steps,omitempty"`
}

// FormatJSON renders a built matrix as an indented JSON document keyed by
// target speaker.
func FormatJSON(b *Built) (string, error) {
	return FormatResolutionJSON(b, nil)
}

// FormatResolutionJSON is FormatJSON plus the step list of a composed
// resolution.
func FormatResolutionJSON(b *Built, steps []string) (string, error) {
	doc := builtJSON{
		MatrixID:       b.MatrixID,
		SourceLayoutID: b.SourceLayoutID,
		TargetLayoutID: b.TargetLayoutID,
		SourceSpeakers: speakerStrings(b.SourceSpeakers),
		TargetSpeakers: speakerStrings(b.TargetSpeakers),
		Coefficients:   make(map[string][]float64, len(b.TargetSpeakers)),
		Steps:          steps,
	}
	for ri, target := range b.TargetSpeakers {
		doc.Coefficients[string(target)] = b.Coeffs[ri]
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func speakerStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
