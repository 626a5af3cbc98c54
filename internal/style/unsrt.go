// Package style renders references as plain-text citations in the
// manner of the unsrt BibTeX style.
package style

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/surveyor/internal/reference"
)

// ErrMissingField is returned when a record lacks a field its entry type requires.
var ErrMissingField = errors.New("missing required field")

// requiredFields lists what each entry type needs to render.
// Types not listed fall back to "misc", which requires nothing.
var requiredFields = map[string][]string{
	"article":       {"author", "title", "journal", "year"},
	"book":          {"author|editor", "title", "publisher", "year"},
	"inproceedings": {"author", "title", "booktitle", "year"},
	"incollection":  {"author", "title", "booktitle", "publisher", "year"},
	"phdthesis":     {"author", "title", "school", "year"},
	"mastersthesis": {"author", "title", "school", "year"},
	"techreport":    {"author", "title", "institution", "year"},
}

// Unsrt formats references as "Authors. Title. Venue, year." lines.
type Unsrt struct{}

// Format implements reference.Formatter.
func (Unsrt) Format(ref *reference.Reference) (string, error) {
	entryType := ref.Type
	if entryType == "conference" {
		entryType = "inproceedings"
	}
	if err := checkRequired(ref, entryType); err != nil {
		return "", err
	}

	var blocks []string
	if names := authorBlock(ref); names != "" {
		blocks = append(blocks, names)
	}

	switch entryType {
	case "article":
		blocks = append(blocks, ref.Title, articleVenue(ref))
	case "book":
		blocks = append(blocks, ref.Title, join(", ", ref.Publisher, ref.Year))
	case "inproceedings", "incollection":
		venue := "In " + ref.Field("booktitle")
		blocks = append(blocks, ref.Title, join(", ", venue, pagesText(ref.Pages), ref.Field("publisher"), ref.Year))
	case "phdthesis":
		blocks = append(blocks, ref.Title, join(", ", "PhD thesis", ref.Field("school"), ref.Year))
	case "mastersthesis":
		blocks = append(blocks, ref.Title, join(", ", "Master's thesis", ref.Field("school"), ref.Year))
	case "techreport":
		blocks = append(blocks, ref.Title, join(", ", "Technical report", ref.Field("institution"), ref.Year))
	default:
		blocks = append(blocks, ref.Title, ref.Field("howpublished"), ref.Year)
	}

	text := sentences(blocks)
	if text == "" {
		return "", fmt.Errorf("%w: %s has no printable fields", ErrMissingField, ref.Key)
	}
	return text, nil
}

func checkRequired(ref *reference.Reference, entryType string) error {
	var missing []string
	for _, spec := range requiredFields[entryType] {
		found := false
		for _, name := range strings.Split(spec, "|") {
			if ref.Field(name) != "" {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, spec)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrMissingField, ref.Key, strings.Join(missing, ", "))
	}
	return nil
}

func authorBlock(ref *reference.Reference) string {
	if len(ref.Authors) > 0 {
		return formatNames(ref.Authors)
	}
	if len(ref.Editors) > 0 {
		suffix := ", editor"
		if len(ref.Editors) > 1 {
			suffix = ", editors"
		}
		return formatNames(ref.Editors) + suffix
	}
	return ""
}

// formatNames renders "A", "A and B" or "A, B, and C" using full names.
func formatNames(names []string) string {
	authors := reference.ParseAuthors(names)
	full := make([]string, 0, len(authors))
	others := false
	for _, a := range authors {
		if a.Last == "others" && a.First == "" {
			others = true
			continue
		}
		full = append(full, a.Full())
	}

	var s string
	switch len(full) {
	case 0:
		return ""
	case 1:
		s = full[0]
	case 2:
		s = full[0] + " and " + full[1]
	default:
		s = strings.Join(full[:len(full)-1], ", ") + ", and " + full[len(full)-1]
	}
	if others {
		s += " et al."
	}
	return s
}

func articleVenue(ref *reference.Reference) string {
	venue := ref.Journal
	if ref.Volume != "" {
		vol := ref.Volume
		if ref.Number != "" {
			vol += "(" + ref.Number + ")"
		}
		if ref.Pages != "" {
			vol += ":" + ref.Pages
		}
		venue = join(", ", venue, vol)
	} else if ref.Pages != "" {
		venue = join(", ", venue, pagesText(ref.Pages))
	}
	return join(", ", venue, ref.Year)
}

func pagesText(pages string) string {
	if pages == "" {
		return ""
	}
	if strings.Contains(pages, "--") {
		return "pages " + pages
	}
	return "page " + pages
}

// join concatenates the non-empty parts with sep.
func join(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// sentences terminates each non-empty block with a period and joins them.
func sentences(blocks []string) string {
	var kept []string
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if !strings.HasSuffix(b, ".") && !strings.HasSuffix(b, "?") && !strings.HasSuffix(b, "!") {
			b += "."
		}
		kept = append(kept, b)
	}
	return strings.Join(kept, " ")
}
