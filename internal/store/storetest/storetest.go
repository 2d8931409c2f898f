// Package storetest provides a seeded store for package tests: a small
// but structurally honest slice of the UMLS tables with roots, a chain,
// siblings, a multi-parent concept, an ambiguous-LCA pair, a concept
// outside the hierarchy, and cross-vocabulary mappings.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"umlsd/internal/store"
)

// Fixture CUIs, named for what they exercise.
const (
	Root           = "C0000001" // Phenotypic abnormality, depth 0
	Digestive      = "C0000002" // depth 1
	LiverAbnormal  = "C0000003" // depth 2, shared parent of the siblings
	LiverCancer    = "C0023903" // HP:0002896, depth 3
	HepaticCyst    = "C0000005" // sibling of LiverCancer, depth 3
	MultiParent    = "C0000006" // two paths of length 4 and 2, min depth 2
	Isolated       = "C0000007" // in MRCONSO, absent from MRHIER
	OtherRoot      = "C0000009" // second root, disjoint tree
	OtherChild     = "C0000010" // depth 1 under OtherRoot
	TieChild       = "C0000011" // two depth-1 parents
	TieParentA     = "C0000012"
	TieParentB     = "C0000013"
	TieSibling     = "C0000014" // shares both parents with TieChild
	LiverCancerHPO = "HP:0002896"
)

// New opens a fresh seeded store backed by a throwaway sqlite file.
func New(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open("sqlite3", filepath.Join(t.TempDir(), "umls.db"), 4, 2)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	seed(t, st)
	return st
}

// conso: CUI, AUI, SAB, CODE, STR (LAT/TTY/ISPREF default).
var consoRows = [][]string{
	{Root, "A0000001", "HPO", "HP:0000118", "Phenotypic abnormality"},
	{Digestive, "A0000002", "HPO", "HP:0025031", "Abnormality of the digestive system"},
	{LiverAbnormal, "A0000003", "HPO", "HP:0001392", "Abnormality of the liver"},
	{LiverCancer, "A0000004", "HPO", "HP:0002896", "Liver cancer"},
	{LiverCancer, "A0100004", "SNOMEDCT_US", "93870000", "Malignant neoplasm of liver"},
	{LiverCancer, "A0200004", "ICD10CM", "C22.0", "Liver cell carcinoma"},
	{HepaticCyst, "A0000005", "HPO", "HP:0001407", "Hepatic cyst"},
	{MultiParent, "A0000006", "HPO", "HP:0002904", "Hepatoblastoma"},
	{Isolated, "A0000007", "HPO", "HP:0999999", "Isolated concept"},
	{OtherRoot, "A0000009", "HPO", "HP:0012823", "Clinical modifier"},
	{OtherChild, "A0000010", "HPO", "HP:0012825", "Mild"},
	{TieChild, "A0000011", "HPO", "HP:0000011", "Tie child"},
	{TieParentA, "A0000012", "HPO", "HP:0000012", "Tie parent A"},
	{TieParentB, "A0000013", "HPO", "HP:0000013", "Tie parent B"},
	{TieSibling, "A0000014", "HPO", "HP:0000014", "Tie sibling"},
}

// hier: CUI, AUI, SAB, PTR. Empty PTR marks a root row.
var hierRows = [][]string{
	{Root, "A0000001", "HPO", ""},
	{OtherRoot, "A0000009", "HPO", ""},
	{Digestive, "A0000002", "HPO", "A0000001"},
	{LiverAbnormal, "A0000003", "HPO", "A0000001.A0000002"},
	{LiverCancer, "A0000004", "HPO", "A0000001.A0000002.A0000003"},
	{HepaticCyst, "A0000005", "HPO", "A0000001.A0000002.A0000003"},
	{MultiParent, "A0000006", "HPO", "A0000001.A0000002.A0000003.A0000004"},
	{MultiParent, "A0000006", "HPO", "A0000001.A0000002"},
	{OtherChild, "A0000010", "HPO", "A0000009"},
	{TieParentA, "A0000012", "HPO", "A0000001"},
	{TieParentB, "A0000013", "HPO", "A0000001"},
	{TieChild, "A0000011", "HPO", "A0000001.A0000012"},
	{TieChild, "A0000011", "HPO", "A0000001.A0000013"},
	{TieSibling, "A0000014", "HPO", "A0000001.A0000012"},
	{TieSibling, "A0000014", "HPO", "A0000001.A0000013"},
}

var defRows = [][]string{
	{LiverCancer, "HPO", "A primary or metastatic malignant neoplasm involving the liver."},
	{LiverAbnormal, "HPO", "An abnormality of the liver."},
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	db := st.DB()

	for _, r := range consoRows {
		_, err := db.Exec(
			`INSERT INTO MRCONSO (CUI, AUI, SAB, CODE, STR) VALUES (?, ?, ?, ?, ?)`,
			r[0], r[1], r[2], r[3], r[4])
		require.NoError(t, err)
	}
	for _, r := range hierRows {
		_, err := db.Exec(
			`INSERT INTO MRHIER (CUI, AUI, SAB, PTR) VALUES (?, ?, ?, ?)`,
			r[0], r[1], r[2], r[3])
		require.NoError(t, err)
	}
	for _, r := range defRows {
		_, err := db.Exec(
			`INSERT INTO MRDEF (CUI, SAB, DEF) VALUES (?, ?, ?)`,
			r[0], r[1], r[2])
		require.NoError(t, err)
	}
}
