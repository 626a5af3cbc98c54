// Package bibliography manages ordered citation-key lists and renders them
// as numbered or keyed reference listings.
package bibliography

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/surveyor/internal/reference"
)

// Style selects how citation markers are published.
type Style string

const (
	// Numbered publishes "[n]", n being the key's first position (1-based).
	Numbered Style = "numbered"
	// Keyed publishes the raw key in brackets.
	Keyed Style = "keyed"
)

// ValidStyles lists the accepted style names.
var ValidStyles = []string{string(Numbered), string(Keyed)}

// ParseStyle parses a style name. "unsrt" is accepted as Numbered and
// "" defaults to Numbered.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "numbered", "unsrt":
		return Numbered, nil
	case "keyed", "key":
		return Keyed, nil
	}
	return "", fmt.Errorf("invalid style: %s (valid: %v)", s, ValidStyles)
}

// Bibliography is an ordered sequence of citation keys with a publish style.
// Keys appended or merged are kept verbatim, duplicates included; lookups
// always resolve to the first occurrence.
type Bibliography struct {
	keys  []string
	style Style
}

// New creates a numbered bibliography holding a copy of keys.
func New(keys ...string) *Bibliography {
	b := &Bibliography{style: Numbered}
	b.keys = append(b.keys, keys...)
	return b
}

// Append adds key at the end.
func (b *Bibliography) Append(key string) {
	b.keys = append(b.keys, key)
}

// AddKeys adds keys at the end in order.
func (b *Bibliography) AddKeys(keys []string) {
	b.keys = append(b.keys, keys...)
}

// Add appends all of other's keys after this bibliography's keys.
func (b *Bibliography) Add(other *Bibliography) {
	if other == nil {
		return
	}
	b.keys = append(b.keys, other.keys...)
}

// SetStyle switches the marker style.
func (b *Bibliography) SetStyle(s Style) {
	b.style = s
}

// Style returns the current marker style.
func (b *Bibliography) Style() Style {
	return b.style
}

// Keys returns a copy of the stored keys in order.
func (b *Bibliography) Keys() []string {
	keys := make([]string, len(b.keys))
	copy(keys, b.keys)
	return keys
}

// Len returns the number of stored keys, duplicates included.
func (b *Bibliography) Len() int {
	return len(b.keys)
}

// IndexOf returns the first position of key, or -1.
func (b *Bibliography) IndexOf(key string) int {
	for i, k := range b.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Contains reports whether key is present.
func (b *Bibliography) Contains(key string) bool {
	return b.IndexOf(key) >= 0
}

// PublishKey returns the display marker for key. Keys not in this
// bibliography are external references and come back unchanged.
func (b *Bibliography) PublishKey(key string) string {
	idx := b.IndexOf(key)
	if idx < 0 {
		return key
	}
	if b.style == Keyed {
		return "[" + key + "]"
	}
	return "[" + strconv.Itoa(idx+1) + "]"
}

// Entry is one rendered line of a listing.
type Entry struct {
	Key      string
	Marker   string
	Citation reference.Citation
}

func (e Entry) String() string {
	return e.Marker + " " + e.Citation.Text
}

// Entries renders every stored key in order. Keys that no longer resolve
// in lib are skipped and returned separately.
func (b *Bibliography) Entries(lib *reference.Library) (entries []Entry, skipped []string) {
	for _, key := range b.keys {
		citation, err := lib.Cite(key)
		if err != nil {
			skipped = append(skipped, key)
			continue
		}
		entries = append(entries, Entry{
			Key:      key,
			Marker:   b.PublishKey(key),
			Citation: citation,
		})
	}
	return entries, skipped
}

// Publish renders the listing as "<marker> <citation>\n" lines.
func (b *Bibliography) Publish(lib *reference.Library) string {
	entries, _ := b.Entries(lib)
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
