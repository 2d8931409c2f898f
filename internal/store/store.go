// Package store provides read-only access to the UMLS relational tables
// (MRCONSO, MRDEF, MRHIER). It answers point lookups and bounded scans;
// all graph reasoning lives above it in internal/hierarchy.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"umlsd/internal/outcome"
)

// Store wraps the pooled database handle. It is safe for concurrent use;
// the pool bounds how many queries run at once.
type Store struct {
	db *sql.DB
}

// Open connects to the database and verifies connectivity. The pool limits
// double as the request-concurrency bound: callers queue on checkout when
// maxOpen connections are busy.
func Open(driver, dsn string, maxOpen, maxIdle int) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, outcome.E(outcome.StoreUnavailable, "store.Open", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks store connectivity within the given context.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return outcome.E(outcome.StoreUnavailable, "store.Ping", err)
	}
	return nil
}

// initSchema creates the UMLS tables and indexes when they do not exist.
// The engine never writes rows; this only makes fresh databases (and test
// fixtures) usable without the bulk loader.
func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS MRCONSO (
			CUI TEXT NOT NULL,
			AUI TEXT NOT NULL,
			SAB TEXT NOT NULL,
			CODE TEXT NOT NULL,
			STR TEXT NOT NULL,
			LAT TEXT NOT NULL DEFAULT 'ENG',
			TTY TEXT NOT NULL DEFAULT 'PT',
			ISPREF TEXT NOT NULL DEFAULT 'Y'
		);`,
		`CREATE TABLE IF NOT EXISTS MRDEF (
			CUI TEXT NOT NULL,
			SAB TEXT NOT NULL,
			DEF TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS MRHIER (
			CUI TEXT NOT NULL,
			AUI TEXT NOT NULL,
			SAB TEXT NOT NULL,
			PTR TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mrconso_cui ON MRCONSO(CUI);`,
		`CREATE INDEX IF NOT EXISTS idx_mrconso_sab_str ON MRCONSO(SAB, STR);`,
		`CREATE INDEX IF NOT EXISTS idx_mrconso_sab_code ON MRCONSO(SAB, CODE);`,
		`CREATE INDEX IF NOT EXISTS idx_mrconso_aui ON MRCONSO(AUI);`,
		`CREATE INDEX IF NOT EXISTS idx_mrdef_cui ON MRDEF(CUI);`,
		`CREATE INDEX IF NOT EXISTS idx_mrhier_cui_sab ON MRHIER(CUI, SAB);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// DB exposes the underlying handle for fixture loading in tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// wrap tags a database error with the operation that hit it, classifying
// context expiry and connectivity failures along the way.
func wrap(op string, err error) error {
	return outcome.E(outcome.KindOf(err), op, err)
}

// inClause builds "?,?,?" placeholders plus the matching argument slice.
func inClause(values []string) (string, []any) {
	placeholders := make([]byte, 0, 2*len(values))
	args := make([]any, 0, len(values))
	for i, v := range values {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, v)
	}
	return string(placeholders), args
}

// chunk size for IN lists; keeps statements well under sqlite's variable cap.
const inChunkSize = 500

func chunked(values []string) [][]string {
	var out [][]string
	for len(values) > inChunkSize {
		out = append(out, values[:inChunkSize])
		values = values[inChunkSize:]
	}
	if len(values) > 0 {
		out = append(out, values)
	}
	return out
}
