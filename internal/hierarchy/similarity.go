package hierarchy

import (
	"context"

	"umlsd/internal/outcome"
	"umlsd/internal/umls"
)

// WuPalmer computes Wu-Palmer similarity between two concepts:
//
//	2 * depth(lca) / (depth(a) + depth(b))
//
// When both concepts are roots the ratio is undefined; by convention the
// score is 1.0 for a concept against itself and 0.0 otherwise. A missing
// common ancestor propagates as NoCommonAncestor; similarity is then
// undefined, which callers must not conflate with a score of zero.
func (r *Resolver) WuPalmer(ctx context.Context, a, b, sab string) (*umls.Similarity, error) {
	const op = "hierarchy.WuPalmer"

	lca, err := r.LCA(ctx, a, b, sab)
	if err != nil {
		return nil, err
	}

	depths, err := r.store.MinDepths(ctx, []string{a, b}, sab)
	if err != nil {
		return nil, err
	}
	depthA, okA := depths[a]
	depthB, okB := depths[b]
	if !okA {
		return nil, outcome.Errorf(outcome.NotFound, op, "CUI %s has no hierarchy rows in %s", a, sab)
	}
	if !okB {
		return nil, outcome.Errorf(outcome.NotFound, op, "CUI %s has no hierarchy rows in %s", b, sab)
	}

	sim := &umls.Similarity{
		A: a, B: b,
		LCA:    lca.CUI,
		DepthA: depthA,
		DepthB: depthB,
		DepthL: lca.Depth,
	}
	if depthA+depthB == 0 {
		// Both roots: identical concepts are maximally similar, distinct
		// roots share nothing but the comparison itself.
		if a == b {
			sim.Score = 1.0
		}
		return sim, nil
	}
	sim.Score = 2 * float64(lca.Depth) / float64(depthA+depthB)
	// Under the nearest-root depth convention a multi-parent descendant can
	// sit closer to a root than its own ancestor, which would push the
	// ratio past one. Cap it to keep the score in [0, 1].
	if sim.Score > 1 {
		sim.Score = 1
	}
	return sim, nil
}
