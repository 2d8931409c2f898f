package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umlsd/internal/hierarchy"
	"umlsd/internal/query"
	"umlsd/internal/server"
	"umlsd/internal/store/storetest"
)

func newTestServer(t *testing.T) http.Handler {
	st := storetest.New(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := query.New(st, hierarchy.New(st, 100), query.Options{}, log)
	return server.New(svc, log).Router()
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return rec.Code, body
}

func TestSearchEndpoints(t *testing.T) {
	h := newTestServer(t)

	t.Run("terms search", func(t *testing.T) {
		code, body := get(t, h, "/terms?search=cancer&ontology=HPO")
		require.Equal(t, http.StatusOK, code)
		results := body["results"].([]any)
		require.Len(t, results, 1)
		first := results[0].(map[string]any)
		assert.Equal(t, "HP:0002896", first["code"])
		assert.Equal(t, "Liver cancer", first["term"])
		assert.Equal(t, storetest.LiverCancer, first["cui"])
	})

	t.Run("empty search is 200 with empty results", func(t *testing.T) {
		code, body := get(t, h, "/terms?search=nosuchterm")
		require.Equal(t, http.StatusOK, code)
		assert.Empty(t, body["results"])
	})

	t.Run("missing term is 400", func(t *testing.T) {
		code, _ := get(t, h, "/terms")
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unrestricted cui search", func(t *testing.T) {
		code, body := get(t, h, "/cuis?query=liver")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "liver", body["query"])
		assert.NotEmpty(t, body["cuis"])
	})

	t.Run("bad limit is 400", func(t *testing.T) {
		code, _ := get(t, h, "/terms?search=cancer&limit=abc")
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestConceptEndpoints(t *testing.T) {
	h := newTestServer(t)

	t.Run("concept detail", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Liver cancer", body["name"])
		assert.Len(t, body["codes"], 3)
	})

	t.Run("malformed CUI is 400", func(t *testing.T) {
		code, body := get(t, h, "/cuis/notacui")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, body["detail"], "notacui")
	})

	t.Run("unknown CUI is 404", func(t *testing.T) {
		code, _ := get(t, h, "/cuis/C9999999")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("code map", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/codes")
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, body["code_maps"], 3)
	})

	t.Run("hpo term", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/hpo")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "HP:0002896", body["hpo_code"])
		assert.Equal(t, "Liver cancer", body["hpo_term"])
	})
}

func TestHierarchyEndpoints(t *testing.T) {
	h := newTestServer(t)

	t.Run("depth", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/depth")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(3), body["depth"])
	})

	t.Run("root depth is zero", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.Root+"/depth")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(0), body["depth"])
	})

	t.Run("ancestors", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/ancestors")
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, body["ancestors"], 3)
	})

	t.Run("parents", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/parents")
		require.Equal(t, http.StatusOK, code)
		parents := body["parents"].([]any)
		require.Len(t, parents, 1)
		assert.Equal(t, storetest.LiverAbnormal, parents[0])
	})

	t.Run("hierarchy-absent CUI is 404", func(t *testing.T) {
		code, _ := get(t, h, "/cuis/"+storetest.Isolated+"/ancestors")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("lca", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/"+storetest.HepaticCyst+"/lca")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, storetest.LiverAbnormal, body["lca"])
		assert.Equal(t, float64(2), body["depth"])
	})

	t.Run("disjoint trees are 404", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/"+storetest.OtherChild+"/lca")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Contains(t, body["detail"], "no ancestor")
	})

	t.Run("wu-palmer", func(t *testing.T) {
		code, body := get(t, h, "/cuis/"+storetest.LiverCancer+"/"+storetest.HepaticCyst+"/similarity/wu-palmer")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, storetest.LiverAbnormal, body["lca"])
		assert.InDelta(t, 2.0/3.0, body["similarity"].(float64), 1e-9)
	})
}

func TestOntologyEndpoints(t *testing.T) {
	h := newTestServer(t)

	t.Run("code to cui", func(t *testing.T) {
		code, body := get(t, h, "/ontologies/HPO/HP:0002896/cui")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, storetest.LiverCancer, body["cui"])
	})

	t.Run("cross-vocabulary map", func(t *testing.T) {
		code, body := get(t, h, "/ontologies/SNOMEDCT_US/93870000/map/ICD10CM")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, storetest.LiverCancer, body["cui"])
		mappings := body["mappings"].([]any)
		require.Len(t, mappings, 1)
		assert.Equal(t, "C22.0", mappings[0].(map[string]any)["code"])
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		code, _ := get(t, h, "/ontologies/HPO/HP:0000000/cui")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	code, body := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}
