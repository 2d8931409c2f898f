package store

import (
	"context"

	"umlsd/internal/outcome"
)

// PathRows returns the stored ancestor paths (PTR strings) for a concept
// within one source vocabulary. A root contributes an empty string. The
// scan is bounded: when the concept has more than maxRows hierarchy rows
// the call fails with ResourceExceeded instead of degrading unboundedly.
func (s *Store) PathRows(ctx context.Context, cui, sab string, maxRows int) ([]string, error) {
	const op = "store.PathRows"
	if sab == "" {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "source vocabulary is required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(PTR, '') FROM MRHIER
		WHERE CUI = ? AND SAB = ?
		LIMIT ?`, cui, sab, maxRows+1)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var ptr string
		if err := rows.Scan(&ptr); err != nil {
			return nil, wrap(op, err)
		}
		paths = append(paths, ptr)
		if len(paths) > maxRows {
			return nil, outcome.Errorf(outcome.ResourceExceeded, op,
				"CUI %s has more than %d hierarchy rows in %s", cui, maxRows, sab)
		}
	}
	return paths, rows.Err()
}

// CUIsForAUIs maps atom identifiers to their CUIs. AUIs with no MRCONSO
// row are silently absent from the result; the loaded dataset should not
// contain such dangling references, but the engine tolerates them.
func (s *Store) CUIsForAUIs(ctx context.Context, auis []string) (map[string]string, error) {
	const op = "store.CUIsForAUIs"

	mapping := make(map[string]string, len(auis))
	for _, batch := range chunked(auis) {
		placeholders, args := inClause(batch)
		rows, err := s.db.QueryContext(ctx, `
			SELECT DISTINCT AUI, CUI FROM MRCONSO WHERE AUI IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, wrap(op, err)
		}
		for rows.Next() {
			var aui, cui string
			if err := rows.Scan(&aui, &cui); err != nil {
				rows.Close()
				return nil, wrap(op, err)
			}
			mapping[aui] = cui
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, wrap(op, err)
		}
		rows.Close()
	}
	return mapping, nil
}

// MinDepths computes, for each given CUI, the minimum number of edges to a
// root within one vocabulary, derived from path element counts in a single
// grouped query. CUIs with no hierarchy rows are absent from the result.
func (s *Store) MinDepths(ctx context.Context, cuis []string, sab string) (map[string]int, error) {
	const op = "store.MinDepths"
	if sab == "" {
		return nil, outcome.Errorf(outcome.InvalidArgument, op, "source vocabulary is required")
	}

	depths := make(map[string]int, len(cuis))
	for _, batch := range chunked(cuis) {
		placeholders, args := inClause(batch)
		args = append([]any{sab}, args...)
		// Path length in edges == element count of the dot-separated PTR;
		// an empty PTR marks a root at depth 0.
		rows, err := s.db.QueryContext(ctx, `
			SELECT CUI, MIN(CASE WHEN PTR IS NULL OR PTR = '' THEN 0
				ELSE LENGTH(PTR) - LENGTH(REPLACE(PTR, '.', '')) + 1 END)
			FROM MRHIER
			WHERE SAB = ? AND CUI IN (`+placeholders+`)
			GROUP BY CUI`, args...)
		if err != nil {
			return nil, wrap(op, err)
		}
		for rows.Next() {
			var cui string
			var depth int
			if err := rows.Scan(&cui, &depth); err != nil {
				rows.Close()
				return nil, wrap(op, err)
			}
			depths[cui] = depth
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, wrap(op, err)
		}
		rows.Close()
	}
	return depths, nil
}
