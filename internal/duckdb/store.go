// Package duckdb persists transcript mappings in DuckDB and caches parsed
// alignment records on disk.
// Mappings are stored in DuckDB (queryable, find-or-create).
// Parsed records are cached as gob files (fast, pure Go).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding transcript mappings.
type Store struct {
	db   *sql.DB
	path string

	// serializes find-or-create so concurrent writers cannot insert the
	// same mapping twice or reuse a map_count.
	mu sync.Mutex
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, "" for in-memory.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS transcript_maps_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS transcript_maps (
			id BIGINT PRIMARY KEY,
			transcript_id VARCHAR NOT NULL,
			sequence_id VARCHAR NOT NULL,
			strand VARCHAR NOT NULL,
			identity DOUBLE,
			score DOUBLE,
			exon_count BIGINT,
			min_contig BIGINT,
			max_contig BIGINT,
			map_count BIGINT,
			exon_signature VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS transcript_maps_exons (
			map_id BIGINT,
			exon_index BIGINT,
			contig_start BIGINT,
			contig_end BIGINT,
			transcript_start BIGINT,
			transcript_end BIGINT,
			gap VARCHAR,
			PRIMARY KEY (map_id, exon_index)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
