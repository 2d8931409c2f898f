package store

import (
	"context"
	"database/sql"
	"errors"

	"umlsd/internal/outcome"
	"umlsd/internal/umls"
)

// SearchTerms finds concepts whose string matches term (case-insensitive
// substring) within one source vocabulary. Results are deduplicated by
// source code and ordered exact-match-first, then by string length, then
// lexically, so identical queries always return identical pages.
func (s *Store) SearchTerms(ctx context.Context, term, sab string, limit int) ([]umls.SearchResult, error) {
	const op = "store.SearchTerms"
	if sab == "" {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "source vocabulary is required")
	}
	if limit <= 0 {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "limit must be positive, got %d", limit)
	}

	// Overfetch so deduplication by CODE can still fill the page.
	rows, err := s.db.QueryContext(ctx, `
		SELECT MRCONSO.CODE, MRCONSO.STR, MRDEF.DEF, MRCONSO.CUI
		FROM MRCONSO
		LEFT JOIN MRDEF ON MRCONSO.CUI = MRDEF.CUI
		WHERE MRCONSO.SAB = ?
		AND MRCONSO.STR LIKE ? ESCAPE '\'
		ORDER BY (LOWER(MRCONSO.STR) = LOWER(?)) DESC,
			LENGTH(MRCONSO.STR), MRCONSO.STR, MRCONSO.CODE
		LIMIT ?`,
		sab, "%"+escapeLike(term)+"%", term, limit*4)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	results := make([]umls.SearchResult, 0, limit)
	seen := make(map[string]bool)
	for rows.Next() {
		var r umls.SearchResult
		var def sql.NullString
		if err := rows.Scan(&r.Code, &r.Term, &def, &r.CUI); err != nil {
			return nil, wrap(op, err)
		}
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		r.Description = def.String
		results = append(results, r)
		if len(results) == limit {
			break
		}
	}
	return results, rows.Err()
}

// SearchConcepts finds CUIs matching term across all vocabularies.
func (s *Store) SearchConcepts(ctx context.Context, term string, limit int) ([]umls.ConceptMatch, error) {
	const op = "store.SearchConcepts"
	if limit <= 0 {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT CUI, STR, LAT
		FROM MRCONSO
		WHERE STR LIKE ? ESCAPE '\'
		ORDER BY (LOWER(STR) = LOWER(?)) DESC, LENGTH(STR), STR, CUI
		LIMIT ?`,
		"%"+escapeLike(term)+"%", term, limit)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var matches []umls.ConceptMatch
	for rows.Next() {
		var m umls.ConceptMatch
		if err := rows.Scan(&m.CUI, &m.Name, &m.Language); err != nil {
			return nil, wrap(op, err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// GetConcept returns the detail view for a CUI: preferred string, the
// first available definition, and every source-vocabulary code.
func (s *Store) GetConcept(ctx context.Context, cui string) (*umls.Concept, error) {
	const op = "store.GetConcept"

	c := &umls.Concept{CUI: cui}
	err := s.db.QueryRowContext(ctx, `
		SELECT STR FROM MRCONSO
		WHERE CUI = ?
		ORDER BY CASE WHEN ISPREF = 'Y' THEN 0 ELSE 1 END, AUI
		LIMIT 1`, cui).Scan(&c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, outcome.Errorf(outcome.NotFound, op, "CUI %s not found", cui)
	}
	if err != nil {
		return nil, wrap(op, err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT DEF FROM MRDEF WHERE CUI = ? ORDER BY SAB LIMIT 1`, cui).Scan(&c.Definition)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, wrap(op, err)
	}

	codes, err := s.CodesForCUI(ctx, cui)
	if err != nil {
		return nil, err
	}
	c.Codes = codes
	return c, nil
}

// CodeForCUI returns the concept's code in one source vocabulary.
func (s *Store) CodeForCUI(ctx context.Context, cui, sab string) (*umls.CodeMapping, error) {
	const op = "store.CodeForCUI"
	if sab == "" {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "source vocabulary is required")
	}

	m := &umls.CodeMapping{SAB: sab}
	err := s.db.QueryRowContext(ctx, `
		SELECT CODE, STR FROM MRCONSO
		WHERE CUI = ? AND SAB = ?
		ORDER BY CASE WHEN ISPREF = 'Y' THEN 0 ELSE 1 END, AUI
		LIMIT 1`, cui, sab).Scan(&m.Code, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, outcome.Errorf(outcome.NotFound, op, "no %s code for CUI %s", sab, cui)
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return m, nil
}

// CUIForCode resolves a source-vocabulary code to its CUI.
func (s *Store) CUIForCode(ctx context.Context, sab, code string) (string, error) {
	const op = "store.CUIForCode"
	if sab == "" {
		return "", outcome.Errorf(outcome.InvalidArgument, op, "source vocabulary is required")
	}

	var cui string
	err := s.db.QueryRowContext(ctx, `
		SELECT CUI FROM MRCONSO
		WHERE SAB = ? AND CODE = ?
		ORDER BY CUI LIMIT 1`, sab, code).Scan(&cui)
	if errors.Is(err, sql.ErrNoRows) {
		return "", outcome.Errorf(outcome.NotFound, op, "no CUI for %s code %s", sab, code)
	}
	if err != nil {
		return "", wrap(op, err)
	}
	return cui, nil
}

// CodesForCUI lists every source-vocabulary code registered for a CUI.
func (s *Store) CodesForCUI(ctx context.Context, cui string) ([]umls.CodeMapping, error) {
	const op = "store.CodesForCUI"

	rows, err := s.db.QueryContext(ctx, `
		SELECT SAB, CODE, STR FROM MRCONSO
		WHERE CUI = ?
		ORDER BY SAB, CODE`, cui)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var codes []umls.CodeMapping
	seen := make(map[string]bool)
	for rows.Next() {
		var m umls.CodeMapping
		if err := rows.Scan(&m.SAB, &m.Code, &m.Name); err != nil {
			return nil, wrap(op, err)
		}
		key := m.SAB + "|" + m.Code
		if seen[key] {
			continue
		}
		seen[key] = true
		codes = append(codes, m)
	}
	return codes, rows.Err()
}

// escapeLike neutralizes LIKE metacharacters in user-supplied terms.
func escapeLike(term string) string {
	out := make([]byte, 0, len(term))
	for i := 0; i < len(term); i++ {
		switch term[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, term[i])
	}
	return string(out)
}
