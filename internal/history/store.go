// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists past searches to a local SQLite database and
// saves or reloads result snapshots as YAML files. History is an audit
// trail: the query, how each provider behaved, and how many records came
// back — not the records themselves, which go into snapshot files.
// Implements: prd107-history (R1-R4);
//
//	docs/ARCHITECTURE § History.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/medsearch/pkg/types"
)

// Store manages the search-history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at path, creating parent
// directories and the schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			strategy TEXT,
			result_count INTEGER NOT NULL,
			raw_count INTEGER NOT NULL,
			cache_hit INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_sources (
			search_id INTEGER NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			state TEXT NOT NULL,
			raw_count INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_sources_search_id ON search_sources(search_id)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Entry is one recorded search.
type Entry struct {
	ID          int64
	Query       string
	Strategy    types.Strategy
	ResultCount int
	RawCount    int
	CacheHit    bool
	Elapsed     time.Duration
	CreatedAt   time.Time
}

// Record stores one completed search with its per-source outcomes and
// returns the new entry's ID.
func (s *Store) Record(ctx context.Context, query string, resultCount int, stats types.SearchStats) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO searches (query, strategy, result_count, raw_count, cache_hit, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		query, string(stats.Rerank.Strategy), resultCount, stats.Dedup.Input,
		stats.Rerank.CacheHit, stats.Elapsed.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting search: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading search id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO search_sources (search_id, source, state, raw_count, elapsed_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing source insert: %w", err)
	}
	defer stmt.Close()

	for name, st := range stats.Sources {
		if _, err := stmt.ExecContext(ctx,
			id, name, string(st.State), st.RawCount, st.Elapsed.Milliseconds(), st.Err,
		); err != nil {
			return 0, fmt.Errorf("inserting source %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

// List returns the most recent entries, newest first, up to limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, strategy, result_count, raw_count, cache_hit, elapsed_ms, created_at
		 FROM searches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			strategy  string
			elapsedMS int64
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Query, &strategy, &e.ResultCount,
			&e.RawCount, &e.CacheHit, &elapsedMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Strategy = types.Strategy(strategy)
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sources returns the per-provider outcomes recorded for one search.
func (s *Store) Sources(ctx context.Context, searchID int64) (map[string]types.SourceStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, state, raw_count, elapsed_ms, error
		 FROM search_sources WHERE search_id = ?`, searchID)
	if err != nil {
		return nil, fmt.Errorf("querying search sources: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]types.SourceStatus)
	for rows.Next() {
		var (
			name      string
			state     string
			elapsedMS int64
			st        types.SourceStatus
		)
		if err := rows.Scan(&name, &state, &st.RawCount, &elapsedMS, &st.Err); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		st.State = types.SourceState(state)
		st.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		statuses[name] = st
	}
	return statuses, rows.Err()
}
