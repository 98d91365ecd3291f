package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stereoSpeakers() []Speaker {
	return []Speaker{{ID: "SPK.L"}, {ID: "SPK.R"}}
}

func TestNewValidCatalog(t *testing.T) {
	cat, err := New(
		[]Layout{{ID: "LAYOUT.2_0", ChannelOrder: []SpeakerID{"SPK.L", "SPK.R"}}},
		stereoSpeakers(),
	)
	require.NoError(t, err)

	assert.True(t, cat.KnownLayout("LAYOUT.2_0"))
	assert.False(t, cat.KnownLayout("LAYOUT.9_9"))
	assert.True(t, cat.KnownSpeaker("SPK.L"))
	assert.False(t, cat.KnownSpeaker("SPK.LFE"))

	layout, ok := cat.Layout("LAYOUT.2_0")
	require.True(t, ok)
	assert.Equal(t, []SpeakerID{"SPK.L", "SPK.R"}, layout.ChannelOrder)
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		layouts  []Layout
		speakers []Speaker
	}{
		{
			name:     "empty layout id",
			layouts:  []Layout{{ID: "", ChannelOrder: []SpeakerID{"SPK.L"}}},
			speakers: stereoSpeakers(),
		},
		{
			name:     "empty channel order",
			layouts:  []Layout{{ID: "LAYOUT.2_0"}},
			speakers: stereoSpeakers(),
		},
		{
			name:     "unknown speaker in channel order",
			layouts:  []Layout{{ID: "LAYOUT.2_0", ChannelOrder: []SpeakerID{"SPK.L", "SPK.X"}}},
			speakers: stereoSpeakers(),
		},
		{
			name:     "empty speaker id",
			layouts:  nil,
			speakers: []Speaker{{ID: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.layouts, tt.speakers)
			require.Error(t, err)
		})
	}
}

func TestLayoutIDsSorted(t *testing.T) {
	cat, err := New(
		[]Layout{
			{ID: "LAYOUT.5_1", ChannelOrder: []SpeakerID{"SPK.L"}},
			{ID: "LAYOUT.2_0", ChannelOrder: []SpeakerID{"SPK.L"}},
			{ID: "LAYOUT.7_1", ChannelOrder: []SpeakerID{"SPK.L"}},
		},
		[]Speaker{{ID: "SPK.L"}},
	)
	require.NoError(t, err)

	assert.Equal(t, []LayoutID{"LAYOUT.2_0", "LAYOUT.5_1", "LAYOUT.7_1"}, cat.LayoutIDs())
}

func TestChannelSet(t *testing.T) {
	layout := Layout{ID: "LAYOUT.2_0", ChannelOrder: []SpeakerID{"SPK.L", "SPK.R"}}
	set := layout.ChannelSet()
	assert.Len(t, set, 2)
	_, ok := set["SPK.L"]
	assert.True(t, ok)
}

func TestParseLayoutsAndSpeakers(t *testing.T) {
	layoutsYAML := []byte(`
layouts:
  _meta:
    version: "1.0.0"
  LAYOUT.2_0:
    label: "Stereo"
    channel_count: 2
    channel_order: [SPK.L, SPK.R]
  LAYOUT.5_1:
    label: "5.1 Surround"
    channel_count: 6
    channel_order: [SPK.L, SPK.R, SPK.C, SPK.LFE, SPK.LS, SPK.RS]
`)
	speakersYAML := []byte(`
speakers:
  SPK.L: {label: "Front Left", azimuth: -30.0}
  SPK.R: {label: "Front Right", azimuth: 30.0}
  SPK.C: {label: "Center", azimuth: 0.0}
  SPK.LFE: {label: "Low Frequency Effects"}
  SPK.LS: {label: "Left Surround", azimuth: -110.0}
  SPK.RS: {label: "Right Surround", azimuth: 110.0}
`)

	cat, err := Parse(layoutsYAML, speakersYAML)
	require.NoError(t, err)

	assert.True(t, cat.KnownLayout("LAYOUT.5_1"))
	assert.False(t, cat.KnownLayout("_meta"))
	assert.True(t, cat.KnownSpeaker("SPK.LFE"))

	sp, ok := cat.Speaker("SPK.L")
	require.True(t, ok)
	require.NotNil(t, sp.Azimuth)
	assert.InDelta(t, -30.0, *sp.Azimuth, 1e-9)
}

func TestParseDerivesSpeakersFromLayouts(t *testing.T) {
	layoutsYAML := []byte(`
layouts:
  LAYOUT.2_0:
    channel_order: [SPK.L, SPK.R]
`)

	cat, err := Parse(layoutsYAML, nil)
	require.NoError(t, err)
	assert.Equal(t, []SpeakerID{"SPK.L", "SPK.R"}, cat.SpeakerIDs())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		layouts string
	}{
		{name: "not yaml", layouts: "layouts: [unclosed"},
		{name: "missing layouts key", layouts: "other: {}"},
		{name: "missing channel order", layouts: "layouts:\n  LAYOUT.2_0:\n    label: Stereo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.layouts), nil)
			require.Error(t, err)
		})
	}
}
