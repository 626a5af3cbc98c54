package reference

import (
	"regexp"
	"strings"
	"unicode"
)

// Author is a personal name split into given and family parts.
type Author struct {
	First string // First/given name(s)
	Last  string // Last/family name, including any "von" particle
	Jr    string // Suffix such as "Jr."
}

// String formats the author as "Last, First", the normalized form stored
// in Reference.Authors.
func (a Author) String() string {
	last := a.Last
	if a.Jr != "" {
		last += ", " + a.Jr
	}
	if a.First == "" {
		return last
	}
	return last + ", " + a.First
}

// Full formats the author as "First Last".
func (a Author) Full() string {
	name := a.Last
	if a.First != "" {
		name = a.First + " " + a.Last
	}
	if a.Jr != "" {
		name += ", " + a.Jr
	}
	return name
}

// ParseName parses a BibTeX personal name in either "First von Last" or
// "von Last, Jr, First" form. Braces are removed from the result.
func ParseName(name string) Author {
	parts := splitTopLevel(name, ',')
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		return parseFirstLast(parts[0])
	case 2:
		return Author{Last: cleanText(parts[0]), First: cleanText(parts[1])}
	default:
		return Author{Last: cleanText(parts[0]), Jr: cleanText(parts[1]), First: cleanText(strings.Join(parts[2:], " "))}
	}
}

// ParseAuthors parses a normalized "Last, First" list back into Authors.
func ParseAuthors(names []string) []Author {
	authors := make([]Author, 0, len(names))
	for _, n := range names {
		authors = append(authors, ParseName(n))
	}
	return authors
}

func parseFirstLast(name string) Author {
	words := splitTopLevel(name, ' ')
	var kept []string
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return Author{}
	}
	if len(kept) == 1 {
		return Author{Last: cleanText(kept[0])}
	}

	// Family name starts at the first lowercase "von" word, else it is the last word
	lastStart := len(kept) - 1
	for i := 1; i < len(kept)-1; i++ {
		if startsLower(kept[i]) {
			lastStart = i
			break
		}
	}

	return Author{
		First: cleanText(strings.Join(kept[:lastStart], " ")),
		Last:  cleanText(strings.Join(kept[lastStart:], " ")),
	}
}

// splitNames splits an author/editor field on top-level "and" separators
// and normalizes each name to "Last, First".
func splitNames(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	var names []string
	for _, raw := range splitOnAnd(field) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.EqualFold(raw, "others") {
			names = append(names, "others")
			continue
		}
		names = append(names, ParseName(raw).String())
	}
	return names
}

// splitOnAnd splits on the word "and" outside braces, case-insensitively.
func splitOnAnd(s string) []string {
	words := splitTopLevel(s, ' ')
	var parts []string
	var current []string
	for _, w := range words {
		if strings.EqualFold(w, "and") {
			parts = append(parts, strings.Join(current, " "))
			current = nil
			continue
		}
		if w != "" {
			current = append(current, w)
		}
	}
	return append(parts, strings.Join(current, " "))
}

// splitTopLevel splits s on sep, ignoring separators nested inside braces.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + len(string(sep))
			}
		}
	}
	return append(parts, s[start:])
}

func startsLower(word string) bool {
	word = strings.TrimLeft(word, "{\\")
	for _, r := range word {
		return unicode.IsLower(r)
	}
	return false
}

// latexUnescaper reverses the escaping applied when writing BibTeX.
var latexUnescaper = strings.NewReplacer(
	`\url{`, "",
	`\&`, "&",
	`\%`, "%",
	`\$`, "$",
	`\#`, "#",
	`\_`, "_",
	`\textasciitilde{}`, "~",
	`\textasciicircum{}`, "^",
	"~", " ",
	"{", "",
	"}", "",
)

// cleanText strips grouping braces and common LaTeX escapes from a field.
func cleanText(s string) string {
	return strings.Join(strings.Fields(latexUnescaper.Replace(s)), " ")
}

var pageRangeSep = regexp.MustCompile(`\s*[-\x{2013}]+\s*`)

// doubleHyphenPages normalizes page ranges to "start--end".
func doubleHyphenPages(pages string) string {
	return pageRangeSep.ReplaceAllString(cleanText(pages), "--")
}

// normalizeDOI removes resolver prefixes and lowercases a DOI.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(cleanText(doi))
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "https://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}

// NormalizeDOI is the exported form used when matching DOIs found in PDFs.
func NormalizeDOI(doi string) string {
	return normalizeDOI(doi)
}
