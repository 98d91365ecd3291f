package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dmxcheck/internal/log"
)

type layoutsFile struct {
	Layouts map[string]layoutEntry `yaml:"layouts"`
}

type layoutEntry struct {
	Label        string   `yaml:"label"`
	ChannelCount int      `yaml:"channel_count"`
	ChannelOrder []string `yaml:"channel_order"`
}

type speakersFile struct {
	Speakers map[string]speakerEntry `yaml:"speakers"`
}

type speakerEntry struct {
	Label     string   `yaml:"label"`
	Azimuth   *float64 `yaml:"azimuth"`
	Elevation *float64 `yaml:"elevation"`
}

// Load reads the layout and speaker ontology files. speakersPath is optional:
// when it is empty or the file does not exist, the speaker set is derived as
// the union of every layout's channel_order.
func Load(layoutsPath, speakersPath string) (*Catalog, error) {
	layoutsData, err := os.ReadFile(layoutsPath)
	if err != nil {
		return nil, fmt.Errorf("read layouts %s: %w", layoutsPath, err)
	}

	var speakersData []byte
	if speakersPath != "" {
		speakersData, err = os.ReadFile(speakersPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read speakers %s: %w", speakersPath, err)
			}
			log.Debug(log.CatCatalog, "speakers file absent, deriving from layouts", "path", speakersPath)
			speakersData = nil
		}
	}

	return Parse(layoutsData, speakersData)
}

// Parse builds a catalog from raw layout and speaker documents. speakersData
// may be nil.
func Parse(layoutsData, speakersData []byte) (*Catalog, error) {
	var lf layoutsFile
	if err := yaml.Unmarshal(layoutsData, &lf); err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	if lf.Layouts == nil {
		return nil, fmt.Errorf("layouts document missing 'layouts' mapping")
	}

	var layouts []Layout
	for id, entry := range lf.Layouts {
		if id == "_meta" {
			continue
		}
		if len(entry.ChannelOrder) == 0 {
			return nil, fmt.Errorf("layout %s missing channel_order list", id)
		}
		order := make([]SpeakerID, 0, len(entry.ChannelOrder))
		for _, sp := range entry.ChannelOrder {
			order = append(order, SpeakerID(sp))
		}
		layouts = append(layouts, Layout{
			ID:           LayoutID(id),
			Label:        entry.Label,
			ChannelOrder: order,
		})
	}

	var speakers []Speaker
	if speakersData != nil {
		var sf speakersFile
		if err := yaml.Unmarshal(speakersData, &sf); err != nil {
			return nil, fmt.Errorf("parse speakers: %w", err)
		}
		if sf.Speakers == nil {
			return nil, fmt.Errorf("speakers document missing 'speakers' mapping")
		}
		for id, entry := range sf.Speakers {
			if id == "_meta" {
				continue
			}
			speakers = append(speakers, Speaker{
				ID:        SpeakerID(id),
				Azimuth:   entry.Azimuth,
				Elevation: entry.Elevation,
			})
		}
	} else {
		seen := make(map[SpeakerID]struct{})
		for _, l := range layouts {
			for _, sp := range l.ChannelOrder {
				if _, ok := seen[sp]; ok {
					continue
				}
				seen[sp] = struct{}{}
				speakers = append(speakers, Speaker{ID: sp})
			}
		}
	}

	cat, err := New(layouts, speakers)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatCatalog, "catalog loaded", "layouts", len(layouts), "speakers", len(speakers))
	return cat, nil
}
