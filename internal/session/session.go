// Package session holds the loaded research state: the bibliographic
// store, the topic tree and the navigation selector.
package session

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/matsen/surveyor/internal/bibliography"
	"github.com/matsen/surveyor/internal/bibtex"
	"github.com/matsen/surveyor/internal/document"
	"github.com/matsen/surveyor/internal/reference"
)

// Configuration errors. They are fatal for the console.
var (
	ErrBibNotFound     = errors.New("bibtex file not found")
	ErrTopicsNotFound  = errors.New("topics directory not found")
	ErrTopicOutOfRange = errors.New("topic number out of range")
)

// Sources names the files a session is loaded from.
type Sources struct {
	BibPath   string
	TopicsDir string
}

// Session is the aggregate every console command operates on.
type Session struct {
	Sources Sources
	DB      *bibtex.Database
	Library *reference.Library
	Topics  []*document.Topic

	// All holds every key in the store, in file order.
	All *bibliography.Bibliography
	// Referenced is the concatenation of every topic's bibliography.
	Referenced *bibliography.Bibliography
	// AllIdeas is every topic's ideas in topic order.
	AllIdeas []*document.Idea

	current      int
	activeTopics []*document.Topic
	activeIdeas  []*document.Idea
	activeBib    *bibliography.Bibliography
}

// Load reads the bibtex file and topic directory named by src.
// Malformed bibtex entries are logged and skipped.
func Load(src Sources, formatter reference.Formatter, log *zap.Logger) (*Session, error) {
	if info, err := os.Stat(src.BibPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrBibNotFound, src.BibPath)
	}
	if info, err := os.Stat(src.TopicsDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrTopicsNotFound, src.TopicsDir)
	}

	db, parseErrs, err := bibtex.ParseFile(src.BibPath)
	if err != nil {
		return nil, err
	}
	for _, perr := range parseErrs {
		log.Warn("skipping malformed bibtex entry", zap.String("file", src.BibPath), zap.Error(perr))
	}

	lib := reference.NewLibrary(db, formatter)
	topics, err := document.LoadTopics(src.TopicsDir, lib)
	if err != nil {
		return nil, err
	}

	s := New(db, lib, topics)
	s.Sources = src
	log.Debug("session loaded",
		zap.Int("references", db.Len()),
		zap.Int("topics", len(topics)),
		zap.Int("ideas", len(s.AllIdeas)))
	return s, nil
}

// New assembles a session over already loaded data, focused on all topics.
func New(db *bibtex.Database, lib *reference.Library, topics []*document.Topic) *Session {
	s := &Session{
		DB:         db,
		Library:    lib,
		Topics:     topics,
		All:        bibliography.New(db.Keys()...),
		Referenced: bibliography.New(),
	}
	for _, t := range topics {
		s.Referenced.Add(t.Bibliography)
		s.AllIdeas = append(s.AllIdeas, t.Ideas...)
	}
	s.balance()
	return s
}

// Select switches the current topic: 0 selects all topics, 1..N one topic.
// Out of range values return ErrTopicOutOfRange and leave the state unchanged.
func (s *Session) Select(n int) error {
	if n < 0 || n > len(s.Topics) {
		return fmt.Errorf("%w: %d not in [0-%d]", ErrTopicOutOfRange, n, len(s.Topics))
	}
	s.current = n
	s.balance()
	return nil
}

// balance recomputes the active sets from the selector.
func (s *Session) balance() {
	if s.current == 0 {
		s.activeTopics = s.Topics
		s.activeIdeas = s.AllIdeas
		s.activeBib = s.Referenced
		return
	}
	t := s.Topics[s.current-1]
	s.activeTopics = []*document.Topic{t}
	s.activeIdeas = t.Ideas
	s.activeBib = t.Bibliography
}

// Current returns the selector: 0 for all topics, else the 1-based topic number.
func (s *Session) Current() int {
	return s.current
}

// CurrentTopic returns the focused topic, or nil when all topics are active.
func (s *Session) CurrentTopic() *document.Topic {
	if s.current == 0 {
		return nil
	}
	return s.Topics[s.current-1]
}

// Topic returns topic n (1-based) from the full list.
func (s *Session) Topic(n int) (*document.Topic, bool) {
	if n < 1 || n > len(s.Topics) {
		return nil, false
	}
	return s.Topics[n-1], true
}

// ActiveTopics returns the topics in scope.
func (s *Session) ActiveTopics() []*document.Topic {
	return s.activeTopics
}

// ActiveIdeas returns the ideas in scope.
func (s *Session) ActiveIdeas() []*document.Idea {
	return s.activeIdeas
}

// ActiveBibliography returns the referenced keys in scope.
func (s *Session) ActiveBibliography() *bibliography.Bibliography {
	return s.activeBib
}

// Prompt returns the console prompt for the current state.
func (s *Session) Prompt() string {
	if t := s.CurrentTopic(); t != nil {
		return t.Title + "> "
	}
	return "> "
}

// References builds every reference in the store, in file order.
func (s *Session) References() []*reference.Reference {
	refs := make([]*reference.Reference, 0, s.DB.Len())
	for _, key := range s.DB.Keys() {
		if ref, err := s.Library.Reference(key); err == nil {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Reload loads fresh data from the same sources and carries the selector
// over. ErrTopicOutOfRange is returned when the selected topic disappeared.
func (s *Session) Reload(formatter reference.Formatter, log *zap.Logger) (*Session, error) {
	fresh, err := Load(s.Sources, formatter, log)
	if err != nil {
		return nil, err
	}
	if err := fresh.Select(s.current); err != nil {
		return nil, err
	}
	return fresh, nil
}
