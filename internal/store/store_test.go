package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umlsd/internal/outcome"
	"umlsd/internal/store/storetest"
)

func TestSearchTerms(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	t.Run("finds liver cancer by substring", func(t *testing.T) {
		results, err := st.SearchTerms(ctx, "cancer", "HPO", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "HP:0002896", results[0].Code)
		assert.Equal(t, "Liver cancer", results[0].Term)
		assert.Equal(t, storetest.LiverCancer, results[0].CUI)
		assert.NotEmpty(t, results[0].Description)
	})

	t.Run("orders by exact match then length", func(t *testing.T) {
		results, err := st.SearchTerms(ctx, "abnormality", "HPO", 10)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "Phenotypic abnormality", results[0].Term)
		assert.Equal(t, "Abnormality of the liver", results[1].Term)
		assert.Equal(t, "Abnormality of the digestive system", results[2].Term)

		exact, err := st.SearchTerms(ctx, "Abnormality of the liver", "HPO", 10)
		require.NoError(t, err)
		require.NotEmpty(t, exact)
		assert.Equal(t, "Abnormality of the liver", exact[0].Term)
	})

	t.Run("respects limit", func(t *testing.T) {
		results, err := st.SearchTerms(ctx, "abnormality", "HPO", 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("empty result is success", func(t *testing.T) {
		results, err := st.SearchTerms(ctx, "nosuchterm", "HPO", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("rejects bad arguments", func(t *testing.T) {
		_, err := st.SearchTerms(ctx, "cancer", "", 10)
		assert.True(t, outcome.Is(err, outcome.InvalidArgument))

		_, err = st.SearchTerms(ctx, "cancer", "HPO", 0)
		assert.True(t, outcome.Is(err, outcome.InvalidArgument))
	})

	t.Run("LIKE metacharacters are literal", func(t *testing.T) {
		results, err := st.SearchTerms(ctx, "%", "HPO", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearchConcepts(t *testing.T) {
	st := storetest.New(t)

	matches, err := st.SearchConcepts(context.Background(), "liver", 50)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Equal(t, "ENG", m.Language)
	}
}

func TestGetConcept(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	t.Run("full detail", func(t *testing.T) {
		c, err := st.GetConcept(ctx, storetest.LiverCancer)
		require.NoError(t, err)
		assert.Equal(t, "Liver cancer", c.Name)
		assert.NotEmpty(t, c.Definition)
		require.Len(t, c.Codes, 3)
		assert.Equal(t, "HPO", c.Codes[0].SAB)
		assert.Equal(t, "ICD10CM", c.Codes[1].SAB)
		assert.Equal(t, "SNOMEDCT_US", c.Codes[2].SAB)
	})

	t.Run("no definition is fine", func(t *testing.T) {
		c, err := st.GetConcept(ctx, storetest.Root)
		require.NoError(t, err)
		assert.Empty(t, c.Definition)
	})

	t.Run("absent CUI", func(t *testing.T) {
		_, err := st.GetConcept(ctx, "C9999999")
		assert.True(t, outcome.Is(err, outcome.NotFound))
	})
}

func TestCodeMappings(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	t.Run("cui to code", func(t *testing.T) {
		m, err := st.CodeForCUI(ctx, storetest.LiverCancer, "ICD10CM")
		require.NoError(t, err)
		assert.Equal(t, "C22.0", m.Code)
	})

	t.Run("code to cui", func(t *testing.T) {
		cui, err := st.CUIForCode(ctx, "HPO", "HP:0002896")
		require.NoError(t, err)
		assert.Equal(t, storetest.LiverCancer, cui)
	})

	t.Run("missing mapping", func(t *testing.T) {
		_, err := st.CodeForCUI(ctx, storetest.Root, "ICD10CM")
		assert.True(t, outcome.Is(err, outcome.NotFound))

		_, err = st.CUIForCode(ctx, "HPO", "HP:0000000")
		assert.True(t, outcome.Is(err, outcome.NotFound))
	})
}

func TestPathRows(t *testing.T) {
	st := storetest.New(t)
	ctx := context.Background()

	t.Run("root row is an empty path", func(t *testing.T) {
		paths, err := st.PathRows(ctx, storetest.Root, "HPO", 10)
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Equal(t, "", paths[0])
	})

	t.Run("multi-parent concept has several rows", func(t *testing.T) {
		paths, err := st.PathRows(ctx, storetest.MultiParent, "HPO", 10)
		require.NoError(t, err)
		assert.Len(t, paths, 2)
	})

	t.Run("bounded work", func(t *testing.T) {
		_, err := st.PathRows(ctx, storetest.MultiParent, "HPO", 1)
		assert.True(t, outcome.Is(err, outcome.ResourceExceeded))
	})

	t.Run("no rows means empty slice", func(t *testing.T) {
		paths, err := st.PathRows(ctx, storetest.Isolated, "HPO", 10)
		require.NoError(t, err)
		assert.Empty(t, paths)
	})
}

func TestMinDepths(t *testing.T) {
	st := storetest.New(t)

	depths, err := st.MinDepths(context.Background(), []string{
		storetest.Root,
		storetest.Digestive,
		storetest.LiverCancer,
		storetest.MultiParent,
		storetest.Isolated,
	}, "HPO")
	require.NoError(t, err)

	assert.Equal(t, 0, depths[storetest.Root])
	assert.Equal(t, 1, depths[storetest.Digestive])
	assert.Equal(t, 3, depths[storetest.LiverCancer])
	// Two stored paths of length 4 and 2; nearest root wins.
	assert.Equal(t, 2, depths[storetest.MultiParent])
	_, present := depths[storetest.Isolated]
	assert.False(t, present)
}

func TestCUIsForAUIs(t *testing.T) {
	st := storetest.New(t)

	mapping, err := st.CUIsForAUIs(context.Background(), []string{"A0000001", "A0000003", "A9999999"})
	require.NoError(t, err)
	assert.Equal(t, storetest.Root, mapping["A0000001"])
	assert.Equal(t, storetest.LiverAbnormal, mapping["A0000003"])
	_, present := mapping["A9999999"]
	assert.False(t, present, "dangling AUIs are dropped, not errors")
}

func TestContextCancellation(t *testing.T) {
	st := storetest.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.SearchTerms(ctx, "cancer", "HPO", 10)
	require.Error(t, err)
	assert.True(t, outcome.Is(err, outcome.Timeout))
}
