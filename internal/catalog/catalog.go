// Package catalog provides read-only lookup of the layout and speaker
// ontology. A Catalog is built once per run from the reference YAML files and
// shared read-only across every validator call; the validator never
// discovers new layouts or speakers on the fly.
package catalog

import (
	"fmt"
	"sort"
)

// LayoutID names a multichannel speaker configuration, e.g. "LAYOUT.5_1".
type LayoutID string

// SpeakerID names a speaker position, e.g. "SPK.LFE".
type SpeakerID string

// PolicyID names a downmix policy, e.g. "POLICY.DOWNMIX.FILM_STANDARD".
type PolicyID string

// PolicyIDPrefix is the required prefix for every policy key in a registry.
const PolicyIDPrefix = "POLICY.DOWNMIX."

// Layout is a named configuration with a canonical ordered channel list.
type Layout struct {
	ID           LayoutID
	Label        string
	ChannelOrder []SpeakerID
}

// ChannelSet returns the layout's channels as a set.
func (l Layout) ChannelSet() map[SpeakerID]struct{} {
	set := make(map[SpeakerID]struct{}, len(l.ChannelOrder))
	for _, sp := range l.ChannelOrder {
		set[sp] = struct{}{}
	}
	return set
}

// Speaker is a known speaker position with optional placement metadata.
type Speaker struct {
	ID        SpeakerID
	Azimuth   *float64
	Elevation *float64
}

// Catalog is the immutable reference lookup. It must be fully loaded before
// validation starts and never mutated during a run.
type Catalog struct {
	layouts  map[LayoutID]Layout
	speakers map[SpeakerID]Speaker
}

// New builds a catalog from layouts and speakers. Every channel referenced by
// a layout must be a known speaker.
func New(layouts []Layout, speakers []Speaker) (*Catalog, error) {
	c := &Catalog{
		layouts:  make(map[LayoutID]Layout, len(layouts)),
		speakers: make(map[SpeakerID]Speaker, len(speakers)),
	}
	for _, sp := range speakers {
		if sp.ID == "" {
			return nil, fmt.Errorf("speaker with empty ID")
		}
		c.speakers[sp.ID] = sp
	}
	for _, l := range layouts {
		if l.ID == "" {
			return nil, fmt.Errorf("layout with empty ID")
		}
		if len(l.ChannelOrder) == 0 {
			return nil, fmt.Errorf("layout %s has empty channel_order", l.ID)
		}
		for _, sp := range l.ChannelOrder {
			if _, ok := c.speakers[sp]; !ok {
				return nil, fmt.Errorf("layout %s references unknown speaker %s", l.ID, sp)
			}
		}
		c.layouts[l.ID] = l
	}
	return c, nil
}

// Layout returns a layout by ID.
func (c *Catalog) Layout(id LayoutID) (Layout, bool) {
	l, ok := c.layouts[id]
	return l, ok
}

// KnownLayout reports whether the layout ID exists.
func (c *Catalog) KnownLayout(id LayoutID) bool {
	_, ok := c.layouts[id]
	return ok
}

// Speaker returns a speaker by ID.
func (c *Catalog) Speaker(id SpeakerID) (Speaker, bool) {
	s, ok := c.speakers[id]
	return s, ok
}

// KnownSpeaker reports whether the speaker ID exists.
func (c *Catalog) KnownSpeaker(id SpeakerID) bool {
	_, ok := c.speakers[id]
	return ok
}

// LayoutIDs returns all layout IDs in sorted order.
func (c *Catalog) LayoutIDs() []LayoutID {
	ids := make([]LayoutID, 0, len(c.layouts))
	for id := range c.layouts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SpeakerIDs returns all speaker IDs in sorted order.
func (c *Catalog) SpeakerIDs() []SpeakerID {
	ids := make([]SpeakerID, 0, len(c.speakers))
	for id := range c.speakers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
