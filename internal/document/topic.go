package document

import (
	"strings"

	"github.com/matsen/surveyor/internal/reference"
)

// Topic is a top-level note holding one Idea per level-3 heading.
type Topic struct {
	Document
	File     string // Source file name, relative to the topics directory
	Preamble string // Content before the first idea heading
	Ideas    []*Idea
}

// NewTopic parses content into a topic and its ideas.
func NewTopic(title, content, file string, lib *reference.Library) *Topic {
	t := &Topic{
		Document: *newDocument(KindTopic, title, content, lib),
		File:     file,
	}

	preamble, sections := splitIdeas(content)
	t.Preamble = preamble
	for _, s := range sections {
		t.Ideas = append(t.Ideas, NewIdea(s.title, s.body, lib))
	}
	return t
}

// String renders the topic as a top-level heading followed by its content.
func (t *Topic) String() string {
	return "# " + t.Title + "  \n\n" + t.Content
}

type section struct {
	title string
	body  string
}

// splitIdeas scans content once, cutting it at level-3 heading lines.
func splitIdeas(content string) (preamble string, sections []section) {
	var current *section
	var body []string
	var pre []string

	flush := func() {
		if current != nil {
			current.body = strings.Join(body, "\n")
			sections = append(sections, *current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if m := ideaHeading.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			flush()
			current = &section{title: m[1]}
			body = nil
			continue
		}
		if current == nil {
			pre = append(pre, line)
		} else {
			body = append(body, line)
		}
	}
	flush()

	return strings.Join(pre, "\n"), sections
}
