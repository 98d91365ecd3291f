// Package inventory builds the catalog listing payload: layouts, policies,
// and every conversion reachable through declared conversions or pack
// matrices.
package inventory

import (
	"sort"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

// LayoutRow describes one layout in the listing.
type LayoutRow struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Channels int      `json:"channels"`
	Speakers []string `json:"speakers"`
}

// PolicyRow describes one declared policy.
type PolicyRow struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// ConversionRow describes one reachable conversion and the policies that
// can serve it.
type ConversionRow struct {
	SourceLayoutID     string   `json:"source_layout_id"`
	TargetLayoutID     string   `json:"target_layout_id"`
	PolicyIDsAvailable []string `json:"policy_ids_available"`
}

// Payload is the catalog:list output document.
type Payload struct {
	Layouts     []LayoutRow     `json:"layouts"`
	Policies    []PolicyRow     `json:"policies"`
	Conversions []ConversionRow `json:"conversions"`
}

// Options selects payload sections. All false means all sections, matching
// the CLI's behavior when no section flag is given.
type Options struct {
	Layouts     bool
	Policies    bool
	Conversions bool
}

func (o Options) none() bool {
	return !o.Layouts && !o.Policies && !o.Conversions
}

// Build assembles the payload. Conversions merge the registry's declared
// conversion entries with every matrix found in a loaded pack, so a matrix
// nothing references still shows up as reachable. Absent sections stay as
// empty slices, never nil, so the JSON shape is stable.
func Build(cat *catalog.Catalog, reg *registry.Registry, packs map[string]*registry.PolicyPack, opts Options) *Payload {
	payload := &Payload{
		Layouts:     []LayoutRow{},
		Policies:    []PolicyRow{},
		Conversions: []ConversionRow{},
	}

	if opts.Layouts || opts.none() {
		for _, layoutID := range cat.LayoutIDs() {
			layout, _ := cat.Layout(layoutID)
			row := LayoutRow{
				ID:       string(layout.ID),
				Name:     layout.Label,
				Channels: len(layout.ChannelOrder),
			}
			for _, spk := range layout.ChannelOrder {
				row.Speakers = append(row.Speakers, string(spk))
			}
			payload.Layouts = append(payload.Layouts, row)
		}
	}

	if opts.Policies || opts.none() {
		for _, policyID := range reg.PolicyIDs() {
			payload.Policies = append(payload.Policies, PolicyRow{
				ID:          policyID,
				Description: reg.Policies[policyID].Description,
			})
		}
	}

	if opts.Conversions || opts.none() {
		payload.Conversions = buildConversions(reg, packs)
	}

	return payload
}

type endpoints struct {
	source, target string
}

func buildConversions(reg *registry.Registry, packs map[string]*registry.PolicyPack) []ConversionRow {
	available := map[endpoints]map[string]struct{}{}
	add := func(source, target, policyID string) {
		key := endpoints{source, target}
		if available[key] == nil {
			available[key] = map[string]struct{}{}
		}
		if policyID != "" {
			available[key][policyID] = struct{}{}
		}
	}

	for _, conv := range reg.Conversions {
		add(conv.SourceLayoutID, conv.TargetLayoutID, conv.PolicyID)
	}
	for _, policyID := range reg.PolicyIDs() {
		pack := packs[policyID]
		if pack == nil {
			continue
		}
		for _, matrixID := range pack.MatrixIDs() {
			m := pack.Matrices[matrixID]
			add(m.SourceLayoutID, m.TargetLayoutID, policyID)
		}
	}

	keys := make([]endpoints, 0, len(available))
	for key := range available {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		return keys[i].target < keys[j].target
	})

	rows := make([]ConversionRow, 0, len(keys))
	for _, key := range keys {
		policyIDs := make([]string, 0, len(available[key]))
		for id := range available[key] {
			policyIDs = append(policyIDs, id)
		}
		sort.Strings(policyIDs)
		rows = append(rows, ConversionRow{
			SourceLayoutID:     key.source,
			TargetLayoutID:     key.target,
			PolicyIDsAvailable: policyIDs,
		})
	}
	return rows
}
