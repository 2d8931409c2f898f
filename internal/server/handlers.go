package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"umlsd/internal/outcome"
	"umlsd/internal/umls"
)

func parseLimit(r *http.Request) (int, error) {
	raw := r.FormValue("limit")
	if raw == "" {
		return 0, nil // façade default applies
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, outcome.Errorf(outcome.InvalidArgument, "server.parseLimit",
			"limit must be an integer, got %q", raw)
	}
	return limit, nil
}

func (s *Server) searchTerms(r *http.Request) (any, error) {
	limit, err := parseLimit(r)
	if err != nil {
		return nil, err
	}
	results, err := s.svc.SearchTerms(r.Context(), r.FormValue("search"), r.FormValue("ontology"), limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []umls.SearchResult{}
	}
	return map[string]any{"results": results}, nil
}

func (s *Server) searchCUIs(r *http.Request) (any, error) {
	limit, err := parseLimit(r)
	if err != nil {
		return nil, err
	}
	q := r.FormValue("query")
	matches, err := s.svc.SearchConcepts(r.Context(), q, limit)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []umls.ConceptMatch{}
	}
	return map[string]any{"query": q, "cuis": matches}, nil
}

func (s *Server) getConcept(r *http.Request) (any, error) {
	return s.svc.GetConcept(r.Context(), mux.Vars(r)["cui"])
}

func (s *Server) getDepth(r *http.Request) (any, error) {
	cui := mux.Vars(r)["cui"]
	depth, err := s.svc.Depth(r.Context(), cui, r.FormValue("ontology"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"cui": cui, "depth": depth}, nil
}

func (s *Server) getAncestors(r *http.Request) (any, error) {
	cui := mux.Vars(r)["cui"]
	ancestors, err := s.svc.Ancestors(r.Context(), cui, r.FormValue("ontology"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"cui": cui, "ancestors": ancestors}, nil
}

func (s *Server) getParents(r *http.Request) (any, error) {
	cui := mux.Vars(r)["cui"]
	parents, err := s.svc.Parents(r.Context(), cui, r.FormValue("ontology"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"cui": cui, "parents": parents}, nil
}

func (s *Server) getCodes(r *http.Request) (any, error) {
	cui := mux.Vars(r)["cui"]
	codes, err := s.svc.CodesForCUI(r.Context(), cui)
	if err != nil {
		return nil, err
	}
	return map[string]any{"cui": cui, "code_maps": codes}, nil
}

func (s *Server) getHPOTerm(r *http.Request) (any, error) {
	cui := mux.Vars(r)["cui"]
	mapping, err := s.svc.CodeForCUI(r.Context(), cui, "HPO")
	if err != nil {
		return nil, err
	}
	return map[string]any{"cui": cui, "hpo_term": mapping.Name, "hpo_code": mapping.Code}, nil
}

func (s *Server) getLCA(r *http.Request) (any, error) {
	vars := mux.Vars(r)
	lca, err := s.svc.LCA(r.Context(), vars["a"], vars["b"], r.FormValue("ontology"))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"cui1":  vars["a"],
		"cui2":  vars["b"],
		"lca":   lca.CUI,
		"depth": lca.Depth,
	}, nil
}

func (s *Server) getWuPalmer(r *http.Request) (any, error) {
	vars := mux.Vars(r)
	return s.svc.WuPalmer(r.Context(), vars["a"], vars["b"], r.FormValue("ontology"))
}

func (s *Server) codeToCUI(r *http.Request) (any, error) {
	vars := mux.Vars(r)
	cui, err := s.svc.CUIForCode(r.Context(), vars["source"], vars["code"])
	if err != nil {
		return nil, err
	}
	return map[string]string{"sab": vars["source"], "code": vars["code"], "cui": cui}, nil
}

func (s *Server) mapCode(r *http.Request) (any, error) {
	vars := mux.Vars(r)
	cui, mappings, err := s.svc.MapCode(r.Context(), vars["from"], vars["code"], vars["to"])
	if err != nil {
		return nil, err
	}
	if mappings == nil {
		mappings = []umls.CodeMapping{}
	}
	return map[string]any{
		"sab":        vars["from"],
		"code":       vars["code"],
		"cui":        cui,
		"target_sab": vars["to"],
		"mappings":   mappings,
	}, nil
}

func (s *Server) healthz(r *http.Request) (any, error) {
	if err := s.svc.Healthz(r.Context()); err != nil {
		return nil, err
	}
	return map[string]string{"status": "ok"}, nil
}
