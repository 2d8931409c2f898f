package umls

import "regexp"

// A CUI (Concept Unique Identifier) is the stable key for a concept across
// all source vocabularies: the letter C followed by seven digits.
var cuiPattern = regexp.MustCompile(`^C[0-9]{7}$`)

// ValidCUI reports whether s is syntactically a CUI.
func ValidCUI(s string) bool {
	return cuiPattern.MatchString(s)
}

// Vocabularies the engine accepts in SAB positions. The dataset carries many
// more, but the query surface is restricted to the ones the deployment loads
// hierarchy data for.
var KnownVocabularies = map[string]bool{
	"HPO":         true,
	"SNOMEDCT_US": true,
	"ICD10CM":     true,
	"NCI":         true,
	"MSH":         true,
	"LNC":         true,
	"RXNORM":      true,
}

// SearchResult is one row of a term search: the source-vocabulary code, the
// matched string, an optional definition and the owning CUI.
type SearchResult struct {
	Code        string `json:"code"`
	Term        string `json:"term"`
	Description string `json:"description,omitempty"`
	CUI         string `json:"cui"`
}

// ConceptMatch is one row of a vocabulary-unrestricted CUI search.
type ConceptMatch struct {
	CUI      string `json:"cui"`
	Name     string `json:"name"`
	Language string `json:"language_code"`
}

// Concept is the detail view for a single CUI.
type Concept struct {
	CUI        string        `json:"cui"`
	Name       string        `json:"name"`
	Definition string        `json:"definition,omitempty"`
	Codes      []CodeMapping `json:"codes,omitempty"`
}

// CodeMapping ties a CUI to one source-vocabulary code.
type CodeMapping struct {
	SAB  string `json:"sab"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// CommonAncestor is the result of an LCA computation.
type CommonAncestor struct {
	CUI   string `json:"lca"`
	Depth int    `json:"depth"`
}

// Similarity is the result of a Wu-Palmer computation, carrying the
// intermediate depths so callers can show their working.
type Similarity struct {
	A      string  `json:"cui1"`
	B      string  `json:"cui2"`
	LCA    string  `json:"lca"`
	DepthA int     `json:"depth_c1"`
	DepthB int     `json:"depth_c2"`
	DepthL int     `json:"depth_lca"`
	Score  float64 `json:"similarity"`
}
