// Package resolve turns a (source layout, target layout, policy) request
// into a dense gain matrix, following the registry's conversions and
// composition paths. Pack files are loaded through a TTL cache so repeated
// resolutions against one registry do not re-read disk.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zjrosen/dmxcheck/internal/cachemanager"
	"github.com/zjrosen/dmxcheck/internal/catalog"
	"github.com/zjrosen/dmxcheck/internal/log"
	"github.com/zjrosen/dmxcheck/internal/matrix"
	"github.com/zjrosen/dmxcheck/internal/registry"
)

// composedSuffix marks a direct conversion as a placeholder for its
// composition path.
const composedSuffix = ".COMPOSED"

const packTTL = 10 * time.Minute

// Request names the conversion to resolve. PolicyID is optional; when empty
// the registry's default for the source layout applies.
type Request struct {
	SourceLayoutID string
	TargetLayoutID string
	PolicyID       string
}

// Resolution is a resolved conversion. Steps lists the matrix IDs that were
// composed, in application order; it is nil for direct conversions.
type Resolution struct {
	Matrix *matrix.Built
	Steps  []string
}

// Resolver resolves conversions against one registry and catalog.
type Resolver struct {
	cat   *catalog.Catalog
	reg   *registry.Registry
	packs *cachemanager.ReadThrough[catalog.PolicyID, *registry.PolicyPack]
}

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	skipCache bool
}

// WithSkipCache makes every pack read hit disk, bypassing the TTL cache.
func WithSkipCache() Option {
	return func(c *resolverConfig) { c.skipCache = true }
}

// New builds a Resolver over a loaded registry.
func New(cat *catalog.Catalog, reg *registry.Registry, opts ...Option) *Resolver {
	var cfg resolverConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Resolver{cat: cat, reg: reg}
	r.packs = cachemanager.NewReadThrough(
		cachemanager.NewInMemory[catalog.PolicyID, *registry.PolicyPack](
			"resolve-packs", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		r.loadPack,
		cfg.skipCache,
	)
	return r
}

// loadPack adapts the issue-returning pack loader into the cache's
// error-returning contract. Resolution wants a usable pack or nothing, so
// any load issue is fatal here.
func (r *Resolver) loadPack(ctx context.Context, policyID catalog.PolicyID) (*registry.PolicyPack, error) {
	entry, ok := r.reg.Policies[string(policyID)]
	if !ok {
		return nil, fmt.Errorf("unknown policy %s", policyID)
	}

	pack, issues := registry.LoadPack(r.reg.PackPath(entry), string(policyID))
	if len(issues) > 0 {
		return nil, fmt.Errorf("load pack for %s: %s", policyID, issues[0].Evidence.Detail)
	}
	return pack, nil
}

// Resolve finds and builds the matrix for one conversion. A direct
// conversion entry wins unless its matrix ID carries the .COMPOSED suffix
// and a composition path covers the same endpoints, in which case the path
// is composed step by step.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	policyID := req.PolicyID
	if policyID == "" {
		policyID = r.reg.DefaultPolicyBySourceLayout[req.SourceLayoutID]
	}
	if policyID == "" {
		return nil, fmt.Errorf("no default policy for source layout %s", req.SourceLayoutID)
	}

	direct := r.findDirect(req, policyID)
	composition := r.findComposition(req)

	useComposition := composition != nil &&
		direct != nil && strings.HasSuffix(direct.MatrixID, composedSuffix)

	if direct != nil && !useComposition {
		entryPolicy := direct.PolicyID
		if entryPolicy == "" {
			entryPolicy = policyID
		}
		pack, err := r.packs.Get(ctx, catalog.PolicyID(entryPolicy), packTTL)
		if err != nil {
			return nil, err
		}
		built, err := matrix.Build(r.cat, pack, direct.MatrixID)
		if err != nil {
			return nil, err
		}
		log.Debug(log.CatResolve, "resolved direct conversion",
			"from", req.SourceLayoutID, "to", req.TargetLayoutID, "matrix", direct.MatrixID)
		return &Resolution{Matrix: built}, nil
	}

	if composition == nil {
		return nil, fmt.Errorf("no conversion or composition path for %s -> %s",
			req.SourceLayoutID, req.TargetLayoutID)
	}
	return r.compose(ctx, req, policyID, composition)
}

// findDirect returns the first conversion matching the request's endpoints.
// An entry pinned to a different policy than the effective one is skipped.
func (r *Resolver) findDirect(req Request, policyID string) *registry.Conversion {
	for i, conv := range r.reg.Conversions {
		if conv.SourceLayoutID != req.SourceLayoutID || conv.TargetLayoutID != req.TargetLayoutID {
			continue
		}
		if conv.PolicyID != "" && conv.PolicyID != policyID {
			continue
		}
		return &r.reg.Conversions[i]
	}
	return nil
}

func (r *Resolver) findComposition(req Request) *registry.CompositionPath {
	for i, path := range r.reg.CompositionPaths {
		if path.SourceLayoutID == req.SourceLayoutID && path.TargetLayoutID == req.TargetLayoutID {
			return &r.reg.CompositionPaths[i]
		}
	}
	return nil
}

// compose builds every step matrix and multiplies them in order. The result
// carries a synthetic matrix ID naming the endpoints plus the step list.
func (r *Resolver) compose(ctx context.Context, req Request, policyID string, path *registry.CompositionPath) (*Resolution, error) {
	if len(path.Steps) == 0 {
		return nil, fmt.Errorf("composition path %s -> %s has no steps",
			path.SourceLayoutID, path.TargetLayoutID)
	}

	var composed *matrix.Built
	steps := make([]string, 0, len(path.Steps))

	for _, step := range path.Steps {
		if step.MatrixID == "" {
			return nil, fmt.Errorf("composition path %s -> %s: step missing matrix_id",
				path.SourceLayoutID, path.TargetLayoutID)
		}

		stepPolicy := step.PolicyID
		if stepPolicy == "" {
			stepPolicy = policyID
		}
		pack, err := r.packs.Get(ctx, catalog.PolicyID(stepPolicy), packTTL)
		if err != nil {
			return nil, err
		}
		if _, ok := pack.Matrices[step.MatrixID]; !ok {
			pack, err = r.findPackForMatrix(ctx, step.MatrixID)
			if err != nil {
				return nil, err
			}
		}

		built, err := matrix.Build(r.cat, pack, step.MatrixID)
		if err != nil {
			return nil, err
		}
		if step.SourceLayoutID != "" && step.SourceLayoutID != built.SourceLayoutID {
			return nil, fmt.Errorf("step %s source layout mismatch", step.MatrixID)
		}
		if step.TargetLayoutID != "" && step.TargetLayoutID != built.TargetLayoutID {
			return nil, fmt.Errorf("step %s target layout mismatch", step.MatrixID)
		}

		if composed == nil {
			composed = built
		} else {
			composed, err = matrix.Compose(composed, built)
			if err != nil {
				return nil, err
			}
		}
		steps = append(steps, step.MatrixID)
	}

	composed.MatrixID = fmt.Sprintf("DMX.COMPOSED.%s_TO_%s", req.SourceLayoutID, req.TargetLayoutID)
	composed.SourceLayoutID = req.SourceLayoutID
	composed.TargetLayoutID = req.TargetLayoutID

	log.Debug(log.CatResolve, "resolved composed conversion",
		"from", req.SourceLayoutID, "to", req.TargetLayoutID, "steps", len(steps))
	return &Resolution{Matrix: composed, Steps: steps}, nil
}

// findPackForMatrix searches every declared policy, in sorted order, for one
// whose pack carries the matrix. Sorted order keeps resolution deterministic
// when two packs declare the same matrix ID.
func (r *Resolver) findPackForMatrix(ctx context.Context, matrixID string) (*registry.PolicyPack, error) {
	policyIDs := make([]string, 0, len(r.reg.Policies))
	for id := range r.reg.Policies {
		policyIDs = append(policyIDs, id)
	}
	sort.Strings(policyIDs)

	for _, id := range policyIDs {
		pack, err := r.packs.Get(ctx, catalog.PolicyID(id), packTTL)
		if err != nil {
			// A broken pack elsewhere must not block resolution through
			// the remaining policies.
			continue
		}
		if _, ok := pack.Matrices[matrixID]; ok {
			return pack, nil
		}
	}
	return nil, fmt.Errorf("matrix not found for step: %s", matrixID)
}
