package bibtex

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// leadingFields are written first, in this order; remaining fields follow
// alphabetically.
var leadingFields = []string{"author", "editor", "title", "journal", "booktitle", "year", "volume", "number", "pages", "doi"}

// Format renders the entry as BibTeX source. Field values are written
// between braces exactly as parsed, so nested groups survive a round trip.
func (e *Entry) Format() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s", e.Type, e.Key))
	for _, name := range e.fieldOrder() {
		b.WriteString(fmt.Sprintf(",\n  %s = {%s}", name, e.Fields[name]))
	}
	b.WriteString("\n}\n")

	return b.String()
}

func (e *Entry) fieldOrder() []string {
	seen := make(map[string]bool, len(e.Fields))
	var names []string
	for _, name := range leadingFields {
		if _, ok := e.Fields[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range e.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Write renders the entries for keys, in the given order, separated by
// blank lines. Keys missing from the database are returned and skipped.
func (db *Database) Write(w io.Writer, keys []string) (missing []string, err error) {
	first := true
	for _, key := range keys {
		e, ok := db.Lookup(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return missing, err
			}
		}
		first = false
		if _, err := io.WriteString(w, e.Format()); err != nil {
			return missing, fmt.Errorf("writing %s: %w", key, err)
		}
	}
	return missing, nil
}
