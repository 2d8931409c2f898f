package hierarchy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umlsd/internal/hierarchy"
	"umlsd/internal/outcome"
	"umlsd/internal/store/storetest"
)

func newResolver(t *testing.T) *hierarchy.Resolver {
	return hierarchy.New(storetest.New(t), 100)
}

func TestParents(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	t.Run("single parent", func(t *testing.T) {
		parents, err := r.Parents(ctx, storetest.LiverCancer, "HPO")
		require.NoError(t, err)
		assert.Equal(t, []string{storetest.LiverAbnormal}, parents)
	})

	t.Run("multiple parents from multiple paths", func(t *testing.T) {
		parents, err := r.Parents(ctx, storetest.MultiParent, "HPO")
		require.NoError(t, err)
		assert.Equal(t, []string{storetest.Digestive, storetest.LiverCancer}, parents)
	})

	t.Run("root has no parents but succeeds", func(t *testing.T) {
		parents, err := r.Parents(ctx, storetest.Root, "HPO")
		require.NoError(t, err)
		assert.Empty(t, parents)
	})

	t.Run("absent from hierarchy is NotFound", func(t *testing.T) {
		_, err := r.Parents(ctx, storetest.Isolated, "HPO")
		assert.True(t, outcome.Is(err, outcome.NotFound))
	})
}

func TestAncestors(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	t.Run("union of all paths, self excluded", func(t *testing.T) {
		ancestors, err := r.Ancestors(ctx, storetest.LiverCancer, "HPO")
		require.NoError(t, err)
		assert.Equal(t, []string{storetest.Root, storetest.Digestive, storetest.LiverAbnormal}, ancestors)
		assert.NotContains(t, ancestors, storetest.LiverCancer)
	})

	t.Run("multi-parent union", func(t *testing.T) {
		ancestors, err := r.Ancestors(ctx, storetest.MultiParent, "HPO")
		require.NoError(t, err)
		assert.Equal(t, []string{
			storetest.Root,
			storetest.Digestive,
			storetest.LiverAbnormal,
			storetest.LiverCancer,
		}, ancestors)
	})

	t.Run("root has empty ancestor set", func(t *testing.T) {
		ancestors, err := r.Ancestors(ctx, storetest.Root, "HPO")
		require.NoError(t, err)
		assert.Empty(t, ancestors)
	})

	t.Run("absent from hierarchy is NotFound", func(t *testing.T) {
		_, err := r.Ancestors(ctx, storetest.Isolated, "HPO")
		assert.True(t, outcome.Is(err, outcome.NotFound))
	})

	t.Run("bounded work", func(t *testing.T) {
		tight := hierarchy.New(storetest.New(t), 1)
		_, err := tight.Ancestors(ctx, storetest.MultiParent, "HPO")
		assert.True(t, outcome.Is(err, outcome.ResourceExceeded))
	})
}

func TestDepth(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	cases := []struct {
		name string
		cui  string
		want int
	}{
		{"root", storetest.Root, 0},
		{"second root", storetest.OtherRoot, 0},
		{"direct child of root", storetest.Digestive, 1},
		{"leaf", storetest.LiverCancer, 3},
		{"multi-parent takes the nearest root", storetest.MultiParent, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			depth, err := r.Depth(ctx, tc.cui, "HPO")
			require.NoError(t, err)
			assert.Equal(t, tc.want, depth)
		})
	}

	t.Run("absent from hierarchy is NotFound", func(t *testing.T) {
		_, err := r.Depth(ctx, storetest.Isolated, "HPO")
		assert.True(t, outcome.Is(err, outcome.NotFound))
	})
}

func TestLCA(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	t.Run("siblings meet at their parent", func(t *testing.T) {
		lca, err := r.LCA(ctx, storetest.LiverCancer, storetest.HepaticCyst, "HPO")
		require.NoError(t, err)
		assert.Equal(t, storetest.LiverAbnormal, lca.CUI)
		assert.Equal(t, 2, lca.Depth)
	})

	t.Run("ancestor of the other is the LCA", func(t *testing.T) {
		lca, err := r.LCA(ctx, storetest.LiverCancer, storetest.LiverAbnormal, "HPO")
		require.NoError(t, err)
		assert.Equal(t, storetest.LiverAbnormal, lca.CUI)
	})

	t.Run("identity", func(t *testing.T) {
		lca, err := r.LCA(ctx, storetest.LiverCancer, storetest.LiverCancer, "HPO")
		require.NoError(t, err)
		assert.Equal(t, storetest.LiverCancer, lca.CUI)
		assert.Equal(t, 3, lca.Depth)
	})

	t.Run("disjoint trees", func(t *testing.T) {
		_, err := r.LCA(ctx, storetest.LiverCancer, storetest.OtherChild, "HPO")
		assert.True(t, outcome.Is(err, outcome.NoCommonAncestor))
	})

	t.Run("equal-depth candidates break ties lexically", func(t *testing.T) {
		lca, err := r.LCA(ctx, storetest.TieChild, storetest.TieSibling, "HPO")
		require.NoError(t, err)
		assert.Equal(t, storetest.TieParentA, lca.CUI)
		assert.Equal(t, 1, lca.Depth)
	})

	t.Run("symmetry", func(t *testing.T) {
		ab, err := r.LCA(ctx, storetest.LiverCancer, storetest.HepaticCyst, "HPO")
		require.NoError(t, err)
		ba, err := r.LCA(ctx, storetest.HepaticCyst, storetest.LiverCancer, "HPO")
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})
}

func TestWuPalmer(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	t.Run("siblings", func(t *testing.T) {
		sim, err := r.WuPalmer(ctx, storetest.LiverCancer, storetest.HepaticCyst, "HPO")
		require.NoError(t, err)
		assert.Equal(t, storetest.LiverAbnormal, sim.LCA)
		assert.Equal(t, 3, sim.DepthA)
		assert.Equal(t, 3, sim.DepthB)
		assert.Equal(t, 2, sim.DepthL)
		assert.InDelta(t, 2.0*2.0/6.0, sim.Score, 1e-9)
	})

	t.Run("self similarity is exactly one", func(t *testing.T) {
		sim, err := r.WuPalmer(ctx, storetest.LiverCancer, storetest.LiverCancer, "HPO")
		require.NoError(t, err)
		assert.Equal(t, 1.0, sim.Score)
	})

	t.Run("symmetry", func(t *testing.T) {
		ab, err := r.WuPalmer(ctx, storetest.TieChild, storetest.TieSibling, "HPO")
		require.NoError(t, err)
		ba, err := r.WuPalmer(ctx, storetest.TieSibling, storetest.TieChild, "HPO")
		require.NoError(t, err)
		assert.Equal(t, ab.Score, ba.Score)
		assert.InDelta(t, 2.0*1.0/4.0, ab.Score, 1e-9)
	})

	t.Run("score never exceeds one", func(t *testing.T) {
		// MultiParent's nearest-root depth (2) is smaller than the depth of
		// its ancestor LiverCancer (3); the raw ratio would be 1.2.
		sim, err := r.WuPalmer(ctx, storetest.LiverCancer, storetest.MultiParent, "HPO")
		require.NoError(t, err)
		assert.Equal(t, storetest.LiverCancer, sim.LCA)
		assert.Equal(t, 1.0, sim.Score)
	})

	t.Run("root against itself", func(t *testing.T) {
		sim, err := r.WuPalmer(ctx, storetest.Root, storetest.Root, "HPO")
		require.NoError(t, err)
		assert.Equal(t, 1.0, sim.Score)
	})

	t.Run("no common ancestor propagates, not zero", func(t *testing.T) {
		_, err := r.WuPalmer(ctx, storetest.LiverCancer, storetest.OtherChild, "HPO")
		assert.True(t, outcome.Is(err, outcome.NoCommonAncestor))
	})

	t.Run("absent concept is NotFound", func(t *testing.T) {
		_, err := r.WuPalmer(ctx, storetest.Isolated, storetest.LiverCancer, "HPO")
		assert.True(t, outcome.Is(err, outcome.NotFound))
	})
}
