// Package document parses markdown topic notes into Topic and Idea
// documents and resolves their inline citation markers.
package document

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/matsen/surveyor/internal/bibliography"
	"github.com/matsen/surveyor/internal/reference"
)

// Kind discriminates document variants.
type Kind int

const (
	KindText Kind = iota
	KindIdea
	KindTopic
)

func (k Kind) String() string {
	switch k {
	case KindIdea:
		return "idea"
	case KindTopic:
		return "topic"
	default:
		return "text"
	}
}

// citationPattern matches inline citation markers: [@key].
var citationPattern = regexp.MustCompile(`\[@(\w+)\]`)

// Document is the shared part of every document variant. Its bibliography
// holds each store-present key cited in Content once, in first-appearance order.
type Document struct {
	Kind         Kind
	Title        string
	Content      string
	Bibliography *bibliography.Bibliography
}

// NewText creates a plain document.
func NewText(title, content string, lib *reference.Library) *Document {
	return newDocument(KindText, title, content, lib)
}

func newDocument(kind Kind, title, content string, lib *reference.Library) *Document {
	return &Document{
		Kind:         kind,
		Title:        title,
		Content:      content,
		Bibliography: bibliography.New(ExtractCitationKeys(content, lib)...),
	}
}

// ExtractCitationKeys returns the distinct keys cited in content that exist
// in lib, in order of first appearance.
func ExtractCitationKeys(content string, lib *reference.Library) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(content, -1) {
		key := m[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		if lib != nil && lib.Has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// FormatCitations renders the document with a title heading, each cited
// marker replaced by its published marker, and a trailing bibliography
// section. Documents without citations are returned with only the heading
// added. The bibliography's style is left set to style.
func (d *Document) FormatCitations(lib *reference.Library, style bibliography.Style) string {
	formatted := "# " + d.Title + " \n" + d.Content
	if d.Bibliography.Len() == 0 {
		return formatted
	}

	d.Bibliography.SetStyle(style)
	formatted = citationPattern.ReplaceAllStringFunc(formatted, func(marker string) string {
		key := marker[2 : len(marker)-1]
		if !d.Bibliography.Contains(key) {
			return marker
		}
		return d.Bibliography.PublishKey(key)
	})

	return formatted + "\nBibliography\n" + d.Bibliography.Publish(lib)
}

// Idea is a sub-document of a topic.
type Idea struct {
	Document
}

// ideaHeading matches a level-3 heading line.
var ideaHeading = regexp.MustCompile(`^### (.+?)\s*$`)

// NewIdea creates an idea. A leading level-3 heading line in content
// becomes the title and is removed; otherwise an empty title is replaced
// by "Idea-<uuid>".
func NewIdea(title, content string, lib *reference.Library) *Idea {
	first, rest, hasRest := strings.Cut(content, "\n")
	if m := ideaHeading.FindStringSubmatch(strings.TrimRight(first, "\r")); m != nil {
		title = m[1]
		content = ""
		if hasRest {
			content = rest
		}
	} else if strings.TrimSpace(title) == "" {
		title = "Idea-" + uuid.NewString()
	}
	return &Idea{Document: *newDocument(KindIdea, title, content, lib)}
}

// String renders the idea as a level-3 heading followed by its content.
func (i *Idea) String() string {
	return "### " + i.Title + "  \n" + i.Content
}
