// Package bibtex reads BibTeX databases into citation-key addressable entries.
package bibtex

import (
	"fmt"
	"os"
	"strings"
)

// Entry is a single raw BibTeX record.
type Entry struct {
	Type   string            // Lowercased entry type: article, book, inproceedings, ...
	Key    string            // Citation key
	Fields map[string]string // Lowercased field name -> value, whitespace collapsed
}

// Field returns the value of a field, or "" if absent.
func (e *Entry) Field(name string) string {
	if e == nil || e.Fields == nil {
		return ""
	}
	return e.Fields[strings.ToLower(name)]
}

// Database is an insertion-ordered collection of entries keyed by citation key.
type Database struct {
	entries map[string]*Entry
	keys    []string
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{entries: make(map[string]*Entry)}
}

// Add inserts an entry. A later entry with an existing key replaces the
// earlier one but keeps its original position.
func (db *Database) Add(e *Entry) {
	if _, exists := db.entries[e.Key]; !exists {
		db.keys = append(db.keys, e.Key)
	}
	db.entries[e.Key] = e
}

// Lookup returns the entry for key.
func (db *Database) Lookup(key string) (*Entry, bool) {
	e, ok := db.entries[key]
	return e, ok
}

// Keys returns all citation keys in file order.
func (db *Database) Keys() []string {
	keys := make([]string, len(db.keys))
	copy(keys, db.keys)
	return keys
}

// Len returns the number of entries.
func (db *Database) Len() int {
	return len(db.keys)
}

// ParseError describes a malformed entry. Parsing continues past it.
type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseFile reads and parses a .bib file.
// The returned error is non-nil only when the file cannot be read; malformed
// entries are reported in the error slice and skipped.
func ParseFile(path string) (*Database, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading bibtex file: %w", err)
	}
	db, errs := Parse(data)
	return db, errs, nil
}
