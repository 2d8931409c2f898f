// Package hierarchy treats the stored ancestor paths as an implicit DAG
// and derives graph properties from them: parents, ancestor sets, depth,
// lowest common ancestor and Wu-Palmer similarity. The graph is never
// materialized; every operation is a bounded set of relational queries.
package hierarchy

import (
	"context"
	"sort"
	"strings"

	"umlsd/internal/outcome"
	"umlsd/internal/store"
)

// Resolver computes hierarchy walks over the concept store.
type Resolver struct {
	store       *store.Store
	maxPathRows int
}

// New builds a Resolver. maxPathRows bounds how many stored paths a single
// traversal may consider before reporting ResourceExceeded.
func New(s *store.Store, maxPathRows int) *Resolver {
	if maxPathRows <= 0 {
		maxPathRows = 500
	}
	return &Resolver{store: s, maxPathRows: maxPathRows}
}

// pathRows fetches the concept's stored paths, distinguishing "absent from
// the hierarchy" (NotFound) from "root with an empty path" (success).
func (r *Resolver) pathRows(ctx context.Context, cui, sab string) ([]string, error) {
	paths, err := r.store.PathRows(ctx, cui, sab, r.maxPathRows)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, outcome.Errorf(outcome.NotFound, "hierarchy.pathRows",
			"CUI %s has no hierarchy rows in %s", cui, sab)
	}
	return paths, nil
}

// Parents returns the immediate parents of a concept: the tail element of
// each stored path, mapped from atom to concept identifiers and
// deduplicated. A root has zero parents.
func (r *Resolver) Parents(ctx context.Context, cui, sab string) ([]string, error) {
	paths, err := r.pathRows(ctx, cui, sab)
	if err != nil {
		return nil, err
	}

	tails := make(map[string]bool)
	for _, ptr := range paths {
		if ptr == "" {
			continue // root row
		}
		elements := strings.Split(ptr, ".")
		tails[elements[len(elements)-1]] = true
	}
	return r.auisToSortedCUIs(ctx, tails, cui)
}

// Ancestors returns every concept appearing on any stored path for the
// given concept, the concept itself excluded. A root yields an empty set.
func (r *Resolver) Ancestors(ctx context.Context, cui, sab string) ([]string, error) {
	paths, err := r.pathRows(ctx, cui, sab)
	if err != nil {
		return nil, err
	}

	auis := make(map[string]bool)
	for _, ptr := range paths {
		if ptr == "" {
			continue
		}
		for _, aui := range strings.Split(ptr, ".") {
			auis[aui] = true
		}
	}
	return r.auisToSortedCUIs(ctx, auis, cui)
}

// auisToSortedCUIs maps an AUI set to a sorted, deduplicated CUI slice,
// excluding self. Dangling AUIs (no MRCONSO row) are dropped rather than
// failing the whole walk.
func (r *Resolver) auisToSortedCUIs(ctx context.Context, auis map[string]bool, self string) ([]string, error) {
	if len(auis) == 0 {
		return []string{}, nil
	}
	list := make([]string, 0, len(auis))
	for aui := range auis {
		list = append(list, aui)
	}
	mapping, err := r.store.CUIsForAUIs(ctx, list)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(mapping))
	for _, cui := range mapping {
		if cui != self {
			set[cui] = true
		}
	}
	out := make([]string, 0, len(set))
	for cui := range set {
		out = append(out, cui)
	}
	sort.Strings(out)
	return out, nil
}

// Depth returns the minimum number of edges from the concept to a root.
// With multiple stored paths the shortest wins (nearest-root convention);
// a root is at depth 0.
func (r *Resolver) Depth(ctx context.Context, cui, sab string) (int, error) {
	depths, err := r.store.MinDepths(ctx, []string{cui}, sab)
	if err != nil {
		return 0, err
	}
	depth, ok := depths[cui]
	if !ok {
		return 0, outcome.Errorf(outcome.NotFound, "hierarchy.Depth",
			"CUI %s has no hierarchy rows in %s", cui, sab)
	}
	return depth, nil
}
