package validate

import (
	"fmt"
	"sort"

	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

// validateCompositionPaths verifies that every declared fold-down chain is
// contiguous and terminates at the declared endpoints. Paths are explicit
// finite lists, so the check is index-based neighbor equality, not a graph
// search; no cycles are possible.
func validateCompositionPaths(reg *registry.Registry, packs map[string]*registry.PolicyPack, col *issue.Collector) {
	for pi, path := range reg.CompositionPaths {
		validateCompositionPath(reg, packs, pi, path, col)
	}
}

func validateCompositionPath(reg *registry.Registry, packs map[string]*registry.PolicyPack, pi int, path registry.CompositionPath, col *issue.Collector) {
	label := fmt.Sprintf("composition_paths[%d]", pi)

	// Resolve each step's matrix within its policy context. A step that
	// cannot be resolved is reported once and excluded from chain checks so
	// that no downstream matrix gets blamed for it.
	resolved := make([]*registry.Matrix, len(path.Steps))
	for si, step := range path.Steps {
		stepLabel := fmt.Sprintf("%s.steps[%d]", label, si)
		resolved[si] = resolveStepMatrix(reg, packs, step, stepLabel, col)
	}

	for si := 0; si+1 < len(path.Steps); si++ {
		left, right := resolved[si], resolved[si+1]
		if left == nil || right == nil {
			continue
		}
		if left.TargetLayoutID == right.SourceLayoutID {
			continue
		}
		col.Add(issue.Issue{
			ID:       issue.LayoutSpeakerMismatch,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegCompositionStep,
			Evidence: issue.Evidence{
				FilePath: reg.Path,
				MatrixID: left.ID,
				Step:     fmt.Sprintf("%s.steps[%d]->steps[%d]", label, si, si+1),
				Detail: fmt.Sprintf("step target layout %s does not match next step source layout %s",
					left.TargetLayoutID, right.SourceLayoutID),
			},
		})
	}

	if len(resolved) == 0 {
		return
	}

	if first := resolved[0]; first != nil && first.SourceLayoutID != path.SourceLayoutID {
		col.Add(issue.Issue{
			ID:       issue.LayoutSpeakerMismatch,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegCompositionStep,
			Evidence: issue.Evidence{
				FilePath: reg.Path,
				MatrixID: first.ID,
				LayoutID: path.SourceLayoutID,
				Step:     label + ".steps[0]",
				Detail: fmt.Sprintf("first step source layout %s does not match declared path source %s",
					first.SourceLayoutID, path.SourceLayoutID),
			},
		})
	}

	if last := resolved[len(resolved)-1]; last != nil && last.TargetLayoutID != path.TargetLayoutID {
		col.Add(issue.Issue{
			ID:       issue.LayoutSpeakerMismatch,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegCompositionStep,
			Evidence: issue.Evidence{
				FilePath: reg.Path,
				MatrixID: last.ID,
				LayoutID: path.TargetLayoutID,
				Step:     fmt.Sprintf("%s.steps[%d]", label, len(resolved)-1),
				Detail: fmt.Sprintf("last step target layout %s does not match declared path target %s",
					last.TargetLayoutID, path.TargetLayoutID),
			},
		})
	}
}

// resolveStepMatrix finds the matrix a step names. With an explicit
// policy_id the step is pinned to that pack; otherwise every loaded pack is
// searched in sorted policy order so resolution stays deterministic.
func resolveStepMatrix(reg *registry.Registry, packs map[string]*registry.PolicyPack, step registry.Step, stepLabel string, col *issue.Collector) *registry.Matrix {
	if step.PolicyID != "" {
		if _, ok := reg.Policies[step.PolicyID]; !ok {
			col.Add(issue.Issue{
				ID:       issue.PolicyIDMismatch,
				Severity: issue.SeverityError,
				Rule:     issue.RuleRegCompositionStep,
				Evidence: issue.Evidence{
					FilePath: reg.Path,
					PolicyID: step.PolicyID,
					MatrixID: step.MatrixID,
					Step:     stepLabel,
					Detail:   "step references a policy absent from policies",
				},
			})
			return nil
		}
		pack := packs[step.PolicyID]
		if pack == nil {
			// Pack failed to load; its issues are already collected.
			return nil
		}
		if m, ok := pack.Matrices[step.MatrixID]; ok {
			return checkStepTopology(reg, step, stepLabel, m, col)
		}
		col.Add(issue.Issue{
			ID:       issue.MatrixIDMissing,
			Severity: issue.SeverityError,
			Rule:     issue.RuleRegCompositionStep,
			Evidence: issue.Evidence{
				FilePath: pack.Path,
				PolicyID: step.PolicyID,
				MatrixID: step.MatrixID,
				Step:     stepLabel,
				Detail:   "step names a matrix the policy's pack does not declare",
			},
		})
		return nil
	}

	policyIDs := make([]string, 0, len(packs))
	for id, pack := range packs {
		if pack != nil {
			policyIDs = append(policyIDs, id)
		}
	}
	sort.Strings(policyIDs)

	for _, id := range policyIDs {
		if m, ok := packs[id].Matrices[step.MatrixID]; ok {
			return checkStepTopology(reg, step, stepLabel, m, col)
		}
	}

	col.Add(issue.Issue{
		ID:       issue.MatrixIDMissing,
		Severity: issue.SeverityError,
		Rule:     issue.RuleRegCompositionStep,
		Evidence: issue.Evidence{
			FilePath: reg.Path,
			MatrixID: step.MatrixID,
			Step:     stepLabel,
			Detail:   "step names a matrix no loaded pack declares",
		},
	})
	return nil
}

// checkStepTopology compares a step's optional declared layouts against the
// resolved matrix's own declaration.
func checkStepTopology(reg *registry.Registry, step registry.Step, stepLabel string, m registry.Matrix, col *issue.Collector) *registry.Matrix {
	if step.SourceLayoutID != "" && step.SourceLayoutID != m.SourceLayoutID {
		col.Add(stepTopologyIssue(reg, stepLabel, m.ID, step.SourceLayoutID,
			fmt.Sprintf("step declares source layout %s but matrix declares %s", step.SourceLayoutID, m.SourceLayoutID)))
	}
	if step.TargetLayoutID != "" && step.TargetLayoutID != m.TargetLayoutID {
		col.Add(stepTopologyIssue(reg, stepLabel, m.ID, step.TargetLayoutID,
			fmt.Sprintf("step declares target layout %s but matrix declares %s", step.TargetLayoutID, m.TargetLayoutID)))
	}
	return &m
}

func stepTopologyIssue(reg *registry.Registry, stepLabel, matrixID, layoutID, detail string) issue.Issue {
	return issue.Issue{
		ID:       issue.LayoutSpeakerMismatch,
		Severity: issue.SeverityError,
		Rule:     issue.RuleRegCompositionStep,
		Evidence: issue.Evidence{
			FilePath: reg.Path,
			MatrixID: matrixID,
			LayoutID: layoutID,
			Step:     stepLabel,
			Detail:   detail,
		},
	}
}
