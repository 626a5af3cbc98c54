// Package reference builds normalized, citation-key addressable views of
// bibliographic records.
package reference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/surveyor/internal/bibtex"
)

// ErrNotFound is returned when a citation key is absent from the store.
var ErrNotFound = errors.New("reference not found")

// Store is the backing collection of raw bibliographic records.
type Store interface {
	Lookup(key string) (*bibtex.Entry, bool)
}

// Reference is a normalized view of one record. It is rebuilt from the
// store on demand and never cached. All fields default to empty.
type Reference struct {
	Key     string
	Type    string
	Authors []string // "Last, First" in record order
	Editors []string
	Title   string
	Journal string
	Year    string

	// Optional fields used by the citation formatter and the PDF locator
	Volume    string
	Number    string
	Pages     string
	Publisher string
	DOI       string
	URL       string

	raw *bibtex.Entry
}

// New builds the reference for key from store.
func New(store Store, key string) (*Reference, error) {
	entry, ok := store.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	ref := &Reference{
		Key:       key,
		Type:      strings.ToLower(entry.Type),
		Authors:   splitNames(entry.Field("author")),
		Editors:   splitNames(entry.Field("editor")),
		Title:     cleanText(entry.Field("title")),
		Journal:   cleanText(entry.Field("journal")),
		Year:      cleanText(entry.Field("year")),
		Volume:    cleanText(entry.Field("volume")),
		Number:    cleanText(entry.Field("number")),
		Pages:     doubleHyphenPages(entry.Field("pages")),
		Publisher: cleanText(entry.Field("publisher")),
		DOI:       normalizeDOI(entry.Field("doi")),
		URL:       entry.Field("url"),
		raw:       entry,
	}
	if ref.Journal == "" {
		ref.Journal = cleanText(entry.Field("booktitle"))
	}
	if ref.Authors == nil {
		ref.Authors = []string{}
	}

	return ref, nil
}

// Field returns a raw record field with braces removed.
func (r *Reference) Field(name string) string {
	return cleanText(r.raw.Field(name))
}

// Formatter renders a reference as a rich citation string.
type Formatter interface {
	Format(ref *Reference) (string, error)
}

// Citation is the outcome of formatting a reference. Degraded is set when
// the rich rendering failed and Text holds the plain fallback.
type Citation struct {
	Text     string
	Degraded bool
	Err      error // Why rendering degraded
}

func (c Citation) String() string {
	return c.Text
}

// Format renders the reference with f, falling back to a plain
// "authors. title. year [Fields missing]" line when f fails. It never fails.
func (r *Reference) Format(f Formatter) Citation {
	if f == nil {
		return Citation{Text: r.fallback(), Degraded: true, Err: errors.New("no formatter configured")}
	}

	text, err := safeFormat(f, r)
	if err != nil {
		return Citation{Text: r.fallback(), Degraded: true, Err: err}
	}
	return Citation{Text: text}
}

func (r *Reference) fallback() string {
	return fmt.Sprintf("%s. %s. %s [Fields missing]", strings.Join(r.Authors, ","), r.Title, r.Year)
}

// safeFormat converts a formatter panic into an error so one bad record
// cannot abort a listing.
func safeFormat(f Formatter, r *Reference) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("formatter panic: %v", p)
		}
	}()
	return f.Format(r)
}
