// Package storage keeps a SQLite full-text index of the loaded references.
// The BibTeX file stays the source of truth; the index is rebuilt from it.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/surveyor/internal/reference"
	_ "modernc.org/sqlite"
)

// MemoryPath keeps the index in memory for the life of the process.
const MemoryPath = ":memory:"

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Hit is one search result.
type Hit struct {
	Key     string
	Type    string
	Title   string
	Authors []string
	Journal string
	Year    string
	DOI     string
}

// selectHitFields contains the standard field list for SELECT queries.
const selectHitFields = `key, type, title, authors_json, journal, year, doi`

// OpenDB opens or creates the index at path. An empty path uses MemoryPath.
func OpenDB(path string) (*DB, error) {
	if path == "" {
		path = MemoryPath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: SQLite doesn't support concurrent writes and each
	// in-memory connection would otherwise see its own database
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- One row per citation key, seq preserves file order
		CREATE TABLE IF NOT EXISTS refs (
			seq INTEGER PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			journal TEXT,
			year TEXT,
			doi TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_refs_doi ON refs(doi) WHERE doi IS NOT NULL AND doi != '';

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS refs_fts USING fts5(
			key UNINDEXED,
			title,
			authors_text,
			journal,
			year
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild replaces the index contents with refs, in order.
func (d *DB) Rebuild(refs []*reference.Reference) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM refs"); err != nil {
		return 0, fmt.Errorf("clearing refs table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM refs_fts"); err != nil {
		return 0, fmt.Errorf("clearing refs_fts table: %w", err)
	}

	refsStmt, err := tx.Prepare(`
		INSERT INTO refs (seq, key, type, title, authors_json, journal, year, doi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing refs insert: %w", err)
	}
	defer refsStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO refs_fts (key, title, authors_text, journal, year)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, ref := range refs {
		authorsJSON, err := json.Marshal(ref.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %s: %w", ref.Key, err)
		}

		_, err = refsStmt.Exec(
			i, ref.Key, ref.Type, ref.Title, string(authorsJSON),
			nullableStringValue(ref.Journal), nullableStringValue(ref.Year),
			nullableStringValue(ref.DOI),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting ref %s: %w", ref.Key, err)
		}

		_, err = ftsStmt.Exec(ref.Key, ref.Title, formatAuthorsText(ref.Authors), ref.Journal, ref.Year)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", ref.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(refs), nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []string) string {
	names := make([]string, 0, len(authors))
	for _, a := range reference.ParseAuthors(authors) {
		names = append(names, a.Full())
	}
	return strings.Join(names, ", ")
}

// Get returns the indexed record for key, or nil if absent.
func (d *DB) Get(key string) (*Hit, error) {
	row := d.db.QueryRow(`SELECT `+selectHitFields+` FROM refs WHERE key = ?`, key)
	hit, err := scanHit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return hit, err
}

// Search performs a full-text search over titles, authors, venues and years.
// Results come back in file order.
func (d *DB) Search(query string, limit int) ([]Hit, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	return d.match(ftsQuery, limit)
}

// SearchField restricts the search to the author or title column.
func (d *DB) SearchField(field, value string, limit int) ([]Hit, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	var ftsQuery string

	switch field {
	case "author":
		ftsQuery = "authors_text:" + prepareAuthorQuery(value)
	case "title":
		ftsQuery = "title:" + prepareFTSQuery(value)
	default:
		return nil, fmt.Errorf("unknown search field: %s", field)
	}

	return d.match(ftsQuery, limit)
}

func (d *DB) match(ftsQuery string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := d.db.Query(`
		SELECT `+selectHitFields+`
		FROM refs
		WHERE key IN (SELECT key FROM refs_fts WHERE refs_fts MATCH ?)
		ORDER BY seq
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		hit, err := scanHit(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, *hit)
	}
	return hits, rows.Err()
}

// Count returns the total number of indexed references.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM refs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHit(s scanner) (*Hit, error) {
	var hit Hit
	var authorsJSON string
	var journal, year, doi sql.NullString

	if err := s.Scan(&hit.Key, &hit.Type, &hit.Title, &authorsJSON, &journal, &year, &doi); err != nil {
		return nil, err
	}
	hit.Journal = journal.String
	hit.Year = year.String
	hit.DOI = doi.String

	if err := json.Unmarshal([]byte(authorsJSON), &hit.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors JSON for %s: %w", hit.Key, err)
	}
	return &hit, nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}

// prepareAuthorQuery adds prefix matching to each part of a name,
// so "Tim" matches "Timothy".
func prepareAuthorQuery(author string) string {
	parts := strings.Fields(author)
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}
