package hierarchy

import (
	"context"
	"sort"

	"umlsd/internal/outcome"
	"umlsd/internal/umls"
)

// LCA finds the lowest common ancestor of two concepts: the deepest
// element of the intersection of their ancestor sets, each set including
// the concept itself. LCA(x, x) is x at depth(x).
func (r *Resolver) LCA(ctx context.Context, a, b, sab string) (*umls.CommonAncestor, error) {
	const op = "hierarchy.LCA"

	if a == b {
		depth, err := r.Depth(ctx, a, sab)
		if err != nil {
			return nil, err
		}
		return &umls.CommonAncestor{CUI: a, Depth: depth}, nil
	}

	ancestorsA, err := r.Ancestors(ctx, a, sab)
	if err != nil {
		return nil, err
	}
	ancestorsB, err := r.Ancestors(ctx, b, sab)
	if err != nil {
		return nil, err
	}

	setA := toSet(ancestorsA)
	setA[a] = true
	setB := toSet(ancestorsB)
	setB[b] = true

	var candidates []string
	for cui := range setA {
		if setB[cui] {
			candidates = append(candidates, cui)
		}
	}
	if len(candidates) == 0 {
		return nil, outcome.Errorf(outcome.NoCommonAncestor, op,
			"%s and %s share no ancestor in %s", a, b, sab)
	}

	depths, err := r.store.MinDepths(ctx, candidates, sab)
	if err != nil {
		return nil, err
	}
	// A candidate can lack hierarchy rows of its own when the dataset has
	// dangling path references; such candidates have no defined depth and
	// cannot be chosen.
	if len(depths) == 0 {
		return nil, outcome.Errorf(outcome.NoCommonAncestor, op,
			"no common ancestor of %s and %s has a defined depth in %s", a, b, sab)
	}

	cui, depth := pickDeepest(depths)
	return &umls.CommonAncestor{CUI: cui, Depth: depth}, nil
}

// pickDeepest selects the maximum-depth candidate. Ties are broken by CUI
// lexical order, smallest first. The rule is arbitrary but stable; it is
// isolated here so the policy can change without touching the walk.
func pickDeepest(depths map[string]int) (string, int) {
	cuis := make([]string, 0, len(depths))
	for cui := range depths {
		cuis = append(cuis, cui)
	}
	sort.Strings(cuis)

	best, bestDepth := "", -1
	for _, cui := range cuis {
		if depths[cui] > bestDepth {
			best, bestDepth = cui, depths[cui]
		}
	}
	return best, bestDepth
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
