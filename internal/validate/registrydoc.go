// Package validate implements the downmix registry validator stages:
// structural and reference checks over the registry document, matrix and
// coefficient checks over each policy pack, and composition path chain
// verification. Every stage is pure: it reads the loaded documents and the
// reference catalog, and funnels findings into a shared collector.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

// validateRegistryDoc runs the structural and reference rules over the
// registry's policies, defaults, and conversions. Pack-level problems are
// already collected by the loader; a nil pack here means the policy's
// matrices cannot be consulted and the dependent checks are skipped.
func validateRegistryDoc(cat *catalog.Catalog, reg *registry.Registry, packs map[string]*registry.PolicyPack, col *issue.Collector) {
	for _, policyID := range reg.PolicyIDs() {
		entry := reg.Policies[policyID]

		if !strings.HasPrefix(policyID, catalog.PolicyIDPrefix) {
			col.Add(issue.Issue{
				ID:       issue.PolicySchemaInvalid,
				Severity: issue.SeverityError,
				Rule:     issue.RuleRegPolicyKeyPrefix,
				Evidence: issue.Evidence{
					FilePath: reg.Path,
					PolicyID: policyID,
					Detail:   fmt.Sprintf("policy key must start with %q", catalog.PolicyIDPrefix),
				},
			})
		}

		checkSupportedLayouts(cat, reg, policyID, "supports_source_layouts", entry.SupportsSourceLayouts, col)
		checkSupportedLayouts(cat, reg, policyID, "supports_target_layouts", entry.SupportsTargetLayouts, col)
	}

	validateDefaults(cat, reg, col)

	for i, conv := range reg.Conversions {
		validateConversion(cat, reg, packs, i, conv, col)
	}
}

func checkSupportedLayouts(cat *catalog.Catalog, reg *registry.Registry, policyID, field string, layouts []string, col *issue.Collector) {
	for _, layoutID := range layouts {
		if cat.KnownLayout(catalog.LayoutID(layoutID)) {
			continue
		}
		col.Add(issue.Issue{
			ID:       issue.LayoutUnknown,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegSupportsLayouts,
			Evidence: issue.Evidence{
				FilePath: reg.Path,
				PolicyID: policyID,
				LayoutID: layoutID,
				Detail:   fmt.Sprintf("%s references unknown layout", field),
			},
		})
	}
}

func validateDefaults(cat *catalog.Catalog, reg *registry.Registry, col *issue.Collector) {
	for _, layoutID := range sortedStringKeys(reg.DefaultPolicyBySourceLayout) {
		policyID := reg.DefaultPolicyBySourceLayout[layoutID]

		if !cat.KnownLayout(catalog.LayoutID(layoutID)) {
			col.Add(issue.Issue{
				ID:       issue.LayoutUnknown,
				Severity: issue.SeverityError,
				Rule:     issue.RuleRegDefaultPolicy,
				Evidence: issue.Evidence{
					FilePath: reg.Path,
					LayoutID: layoutID,
					Detail:   "default_policy_by_source_layout key is not a known layout",
				},
			})
		}

		if _, ok := reg.Policies[policyID]; !ok {
			col.Add(issue.Issue{
				ID:       issue.PolicyIDMismatch,
				Severity: issue.SeverityError,
				Rule:     issue.RuleRegDefaultPolicy,
				Evidence: issue.Evidence{
					FilePath: reg.Path,
					PolicyID: policyID,
					LayoutID: layoutID,
					Detail:   "default_policy_by_source_layout references a policy absent from policies",
				},
			})
		}
	}
}

// validateConversion checks one conversion entry. Each field is checked
// independently so a single broken conversion surfaces every real problem
// it has, not just the first.
func validateConversion(cat *catalog.Catalog, reg *registry.Registry, packs map[string]*registry.PolicyPack, idx int, conv registry.Conversion, col *issue.Collector) {
	label := fmt.Sprintf("conversions[%d]", idx)

	for _, layoutID := range []string{conv.SourceLayoutID, conv.TargetLayoutID} {
		if cat.KnownLayout(catalog.LayoutID(layoutID)) {
			continue
		}
		col.Add(issue.Issue{
			ID:       issue.LayoutUnknown,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegConversionLayouts,
			Evidence: issue.Evidence{
				FilePath: reg.Path,
				LayoutID: layoutID,
				MatrixID: conv.MatrixID,
				Detail:   label + " references unknown layout",
			},
		})
	}

	if _, ok := reg.Policies[conv.PolicyID]; !ok {
		col.Add(issue.Issue{
			ID:       issue.PolicyIDMismatch,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegConversionPolicy,
			Evidence: issue.Evidence{
				FilePath: reg.Path,
				PolicyID: conv.PolicyID,
				MatrixID: conv.MatrixID,
				Detail:   label + " references a policy absent from policies",
			},
		})
		return
	}

	pack := packs[conv.PolicyID]
	if pack == nil {
		// The pack failed to load; its own issues are already collected.
		return
	}

	matrix, ok := pack.Matrices[conv.MatrixID]
	if !ok {
		col.Add(issue.Issue{
			ID:       issue.MatrixIDMissing,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegConversionMatrix,
			Evidence: issue.Evidence{
				FilePath: pack.Path,
				PolicyID: conv.PolicyID,
				MatrixID: conv.MatrixID,
				Detail:   label + " names a matrix the pack does not declare",
			},
		})
		return
	}

	if matrix.SourceLayoutID != conv.SourceLayoutID || matrix.TargetLayoutID != conv.TargetLayoutID {
		col.Add(issue.Issue{
			ID:       issue.LayoutSpeakerMismatch,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegConversionTopology,
			Evidence: issue.Evidence{
				FilePath: pack.Path,
				PolicyID: conv.PolicyID,
				MatrixID: conv.MatrixID,
				Detail: fmt.Sprintf("%s declares %s -> %s but matrix declares %s -> %s",
					label, conv.SourceLayoutID, conv.TargetLayoutID,
					matrix.SourceLayoutID, matrix.TargetLayoutID),
			},
		})
	}
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
