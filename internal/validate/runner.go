package validate

import (
	"context"
	"runtime"
	"sync"

	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/issue"
	"github.com/zjrosen/dmxcheck/internal/log"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

// Runner drives a full validation pass over one registry file and the packs
// it references. A Runner is safe for concurrent use; each Run works on its
// own collector.
type Runner struct {
	cat     *catalog.Catalog
	workers int
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of packs validated concurrently. Values
// below one fall back to the default.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRunner builds a Runner over the given reference catalog.
func NewRunner(cat *catalog.Catalog, opts ...Option) *Runner {
	r := &Runner{
		cat:     cat,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads the registry and every referenced pack, applies all validation
// stages, and returns the finished report. The returned error covers only
// runner-level failures such as context cancellation; findings about the
// documents themselves travel as issues inside the report.
func (r *Runner) Run(ctx context.Context, registryPath string) (*issue.Report, error) {
	col := issue.NewCollector()

	reg, regIssues := registry.LoadRegistry(registryPath)
	for _, is := range regIssues {
		col.Add(is)
	}
	if reg == nil {
		// Nothing else is checkable without a registry document.
		log.Warn(log.CatValidate, "registry failed to load", "path", registryPath)
		return issue.NewReport(registryPath, col.Issues()), nil
	}

	packs, err := r.loadPacks(ctx, reg, col)
	if err != nil {
		return nil, err
	}

	validateRegistryDoc(r.cat, reg, packs, col)

	if err := r.validatePacks(ctx, packs, col); err != nil {
		return nil, err
	}

	validateCompositionPaths(reg, packs, col)

	report := issue.NewReport(registryPath, col.Issues())
	log.Info(log.CatValidate, "validation finished",
		"registry", registryPath,
		"policies", len(reg.Policies),
		"errors", report.IssueCounts.Error,
		"warnings", report.IssueCounts.Warn)
	return report, nil
}

// loadPacks loads every pack the registry references, keyed by policy ID.
// A policy whose pack cannot be loaded maps to nil; its load issues are
// collected and the rest of the run proceeds without it.
func (r *Runner) loadPacks(ctx context.Context, reg *registry.Registry, col *issue.Collector) (map[string]*registry.PolicyPack, error) {
	packs := make(map[string]*registry.PolicyPack, len(reg.Policies))
	for _, policyID := range reg.PolicyIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pack, issues := registry.LoadPack(reg.PackPath(reg.Policies[policyID]), policyID)
		for _, is := range issues {
			col.Add(is)
		}
		packs[policyID] = pack
		if pack == nil {
			log.Warn(log.CatValidate, "pack failed to load", "policy", policyID)
		}
	}
	return packs, nil
}

// validatePacks runs the matrix rules over all loaded packs with a bounded
// worker pool. The collector is shared; ordering is restored when the report
// is assembled, so completion order does not matter.
func (r *Runner) validatePacks(ctx context.Context, packs map[string]*registry.PolicyPack, col *issue.Collector) error {
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for _, pack := range packs {
		if pack == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(pack *registry.PolicyPack) {
			defer wg.Done()
			defer func() { <-sem }()
			validatePackMatrices(r.cat, pack, col)
		}(pack)
	}

	wg.Wait()
	return ctx.Err()
}
