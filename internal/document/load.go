package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/matsen/surveyor/internal/reference"
)

var (
	// topicFilePattern matches topic note file names: topic-<slug>.md
	topicFilePattern = regexp.MustCompile(`^topic-(.*)\.md$`)
	// titleLinePattern matches a leading top-level heading that overrides the slug title.
	titleLinePattern = regexp.MustCompile(`^#[ \t]+([^\r\n]*?)[ \t]*(?:\r?\n|$)`)
)

// IsTopicFile reports whether name follows the topic file convention.
func IsTopicFile(name string) bool {
	return topicFilePattern.MatchString(name)
}

// SlugTitle derives a display title from a topic file name:
// "topic-machine-learning.md" -> "Machine Learning".
func SlugTitle(name string) string {
	m := topicFilePattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return titleCase(strings.ReplaceAll(m[1], "-", " "))
}

// ParseTopicFile builds a topic from a file's name and content. A leading
// "# Heading" line becomes the title and is removed from the content.
func ParseTopicFile(name, content string, lib *reference.Library) *Topic {
	title := SlugTitle(name)
	if loc := titleLinePattern.FindStringSubmatchIndex(content); loc != nil {
		if heading := content[loc[2]:loc[3]]; heading != "" {
			title = heading
			content = content[loc[1]:]
		}
	}
	return NewTopic(title, content, name, lib)
}

// LoadTopics reads every topic file directly inside dir, in file name order.
func LoadTopics(dir string, lib *reference.Library) ([]*Topic, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading topics directory: %w", err)
	}

	var topics []*Topic
	for _, e := range entries {
		if e.IsDir() || !IsTopicFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading topic %s: %w", e.Name(), err)
		}
		topics = append(topics, ParseTopicFile(e.Name(), string(data), lib))
	}
	return topics, nil
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
