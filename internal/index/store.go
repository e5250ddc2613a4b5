// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index keeps harvested records in a SQLite database with a
// full-text index over titles so collections from several runs can be
// merged and queried.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

const (
	dbFile = "records.db"

	defaultMaxResults = 20
)

// Store manages the record index database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
	logger     zerolog.Logger
}

// NewStore opens or creates dir/records.db and its schema.
func NewStore(cfg types.IndexConfig, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, path: dbPath, maxResults: maxResults, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			publication_year INTEGER NOT NULL DEFAULT 0,
			cited_by_count INTEGER NOT NULL DEFAULT 0,
			doi TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			authors TEXT NOT NULL DEFAULT '[]',
			normalized_citation_score REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_year ON records(publication_year)`,
		`CREATE INDEX IF NOT EXISTS idx_records_cited ON records(cited_by_count)`,
		`CREATE INDEX IF NOT EXISTS idx_records_source ON records(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS4 external-content index on titles, synced by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE records_fts USING fts4(content="records", title)`,
		`CREATE TRIGGER records_bu BEFORE UPDATE ON records BEGIN
			DELETE FROM records_fts WHERE docid = old.rowid;
		END`,
		`CREATE TRIGGER records_bd BEFORE DELETE ON records BEGIN
			DELETE FROM records_fts WHERE docid = old.rowid;
		END`,
		`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
			INSERT INTO records_fts(docid, title) VALUES (new.rowid, new.title);
		END`,
		`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
			INSERT INTO records_fts(docid, title) VALUES (new.rowid, new.title);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one ingest.
type IngestSummary struct {
	Inserted int
	Updated  int
}

// Total returns the number of records written.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Updated
}

// Ingest upserts records by identifier in a single transaction. A record
// already in the index is overwritten with the incoming values.
func (s *Store) Ingest(ctx context.Context, records []types.Record) (IngestSummary, error) {
	var summary IngestSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := tx.PrepareContext(ctx, `SELECT 1 FROM records WHERE id = ?`)
	if err != nil {
		return summary, fmt.Errorf("preparing lookup: %w", err)
	}
	defer exists.Close()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, title, publication_year, cited_by_count, doi, source, authors, normalized_citation_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, publication_year=excluded.publication_year,
			cited_by_count=excluded.cited_by_count, doi=excluded.doi,
			source=excluded.source, authors=excluded.authors,
			normalized_citation_score=excluded.normalized_citation_score`)
	if err != nil {
		return summary, fmt.Errorf("preparing upsert: %w", err)
	}
	defer upsert.Close()

	for _, r := range records {
		if r.ID == "" {
			return IngestSummary{}, fmt.Errorf("record without identifier (title %q)", r.Title)
		}

		var one int
		switch err := exists.QueryRowContext(ctx, r.ID).Scan(&one); err {
		case nil:
			summary.Updated++
		case sql.ErrNoRows:
			summary.Inserted++
		default:
			return IngestSummary{}, fmt.Errorf("looking up %s: %w", r.ID, err)
		}

		authors := r.Authors
		if authors == nil {
			authors = []types.Author{}
		}
		authorsJSON, err := json.Marshal(authors)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("encoding authors of %s: %w", r.ID, err)
		}

		var score sql.NullFloat64
		if r.NormalizedCitationScore != nil {
			score = sql.NullFloat64{Float64: *r.NormalizedCitationScore, Valid: true}
		}

		if _, err := upsert.ExecContext(ctx,
			r.ID, r.Title, r.PublicationYear, r.CitedByCount, r.DOI, r.Source, string(authorsJSON), score,
		); err != nil {
			return IngestSummary{}, fmt.Errorf("upserting %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing ingest: %w", err)
	}

	s.logger.Info().
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Str("db", s.path).
		Msg("Ingested records")
	return summary, nil
}

// Count returns the number of indexed records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
