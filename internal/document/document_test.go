package document

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/surveyor/internal/bibliography"
	"github.com/matsen/surveyor/internal/bibtex"
	"github.com/matsen/surveyor/internal/reference"
)

type titleFormatter struct{}

func (titleFormatter) Format(ref *reference.Reference) (string, error) {
	return ref.Title + ".", nil
}

func testLibrary(t *testing.T) *reference.Library {
	t.Helper()
	db, errs := bibtex.Parse([]byte(`
@misc{a, title = {Alpha}}
@misc{ab, title = {Alpha Beta}}
@misc{b, title = {Beta}}
`))
	if len(errs) != 0 {
		t.Fatalf("parsing: %v", errs)
	}
	return reference.NewLibrary(db, titleFormatter{})
}

func TestExtractCitationKeys(t *testing.T) {
	lib := testLibrary(t)

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"none", "no citations here", nil},
		{"first occurrence order", "see [@b] and [@a], again [@b]", []string{"b", "a"}},
		{"unknown keys filtered", "[@zzz] then [@a]", []string{"a"}},
		{"prefix keys distinct", "[@ab] and [@a]", []string{"ab", "a"}},
		{"not a marker", "[a] @a [@ a] [@a-b]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCitationKeys(tt.content, lib)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCitationKeys(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestNewText_Bibliography(t *testing.T) {
	d := NewText("T", "x [@b] y [@a] z [@b]", testLibrary(t))
	if got := d.Bibliography.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Bibliography.Keys() = %v, want [b a]", got)
	}
	if d.Kind != KindText {
		t.Errorf("Kind = %v, want text", d.Kind)
	}
}

func TestFormatCitations_NoCitations(t *testing.T) {
	d := NewText("Plain", "Just words.", testLibrary(t))
	got := d.FormatCitations(testLibrary(t), bibliography.Numbered)
	want := "# Plain \nJust words."
	if got != want {
		t.Errorf("FormatCitations() = %q, want %q", got, want)
	}
}

func TestFormatCitations_Numbered(t *testing.T) {
	lib := testLibrary(t)
	d := NewText("Notes", "Both [@ab] and [@a]; again [@ab]. Unknown [@zzz].", lib)

	got := d.FormatCitations(lib, bibliography.Numbered)
	want := "# Notes \nBoth [1] and [2]; again [1]. Unknown [@zzz]." +
		"\nBibliography\n[1] Alpha Beta.\n[2] Alpha.\n"
	if got != want {
		t.Errorf("FormatCitations() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatCitations_Keyed(t *testing.T) {
	lib := testLibrary(t)
	d := NewText("Notes", "Cites [@b].", lib)

	got := d.FormatCitations(lib, bibliography.Keyed)
	want := "# Notes \nCites [b].\nBibliography\n[b] Beta.\n"
	if got != want {
		t.Errorf("FormatCitations() = %q, want %q", got, want)
	}
	if d.Bibliography.Style() != bibliography.Keyed {
		t.Error("FormatCitations() should leave the bibliography in the requested style")
	}
}

func TestFormatCitations_NoMarkerSurvives(t *testing.T) {
	lib := testLibrary(t)
	d := NewText("T", "[@a][@ab][@b] [@ab]x[@a]", lib)

	for _, style := range []bibliography.Style{bibliography.Numbered, bibliography.Keyed} {
		once := d.FormatCitations(lib, style)
		for _, key := range d.Bibliography.Keys() {
			if strings.Contains(once, "[@"+key+"]") {
				t.Errorf("%s: marker [@%s] survived formatting:\n%s", style, key, once)
			}
		}
	}
}

func TestNewIdea_HeadingBecomesTitle(t *testing.T) {
	idea := NewIdea("ignored", "### My Idea  \nBody [@a]", testLibrary(t))
	if idea.Title != "My Idea" {
		t.Errorf("Title = %q, want My Idea", idea.Title)
	}
	if idea.Content != "Body [@a]" {
		t.Errorf("Content = %q, want heading stripped", idea.Content)
	}
	if got := idea.Bibliography.Keys(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Bibliography = %v, want [a]", got)
	}
	if idea.Kind != KindIdea {
		t.Errorf("Kind = %v, want idea", idea.Kind)
	}
}

func TestNewIdea_ExplicitTitle(t *testing.T) {
	idea := NewIdea("Given", "no heading", nil)
	if idea.Title != "Given" {
		t.Errorf("Title = %q, want Given", idea.Title)
	}
}

func TestNewIdea_SynthesizedTitle(t *testing.T) {
	a := NewIdea("", "untitled thought", nil)
	b := NewIdea("", "another", nil)
	if !strings.HasPrefix(a.Title, "Idea-") || len(a.Title) <= len("Idea-") {
		t.Errorf("Title = %q, want Idea-<id>", a.Title)
	}
	if a.Title == b.Title {
		t.Errorf("synthesized titles should be unique, both %q", a.Title)
	}
}

func TestNewTopic_SplitsIdeas(t *testing.T) {
	lib := testLibrary(t)
	topic := NewTopic("Topic", "### First\nHello [@a]", "topic-x.md", lib)

	if len(topic.Ideas) != 1 {
		t.Fatalf("len(Ideas) = %d, want 1", len(topic.Ideas))
	}
	idea := topic.Ideas[0]
	if idea.Title != "First" {
		t.Errorf("idea Title = %q, want First", idea.Title)
	}
	if got := idea.Bibliography.Keys(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("idea Bibliography = %v, want [a]", got)
	}
	if topic.File != "topic-x.md" {
		t.Errorf("File = %q", topic.File)
	}
}

func TestNewTopic_IdeaCountAndReconstruction(t *testing.T) {
	content := "Intro text\n\n### One\nfirst body\n#### not an idea\n### Two\n\nsecond [@b]\n###no space\n### Three\n"
	topic := NewTopic("T", content, "topic-t.md", testLibrary(t))

	wantTitles := []string{"One", "Two", "Three"}
	var gotTitles []string
	for _, i := range topic.Ideas {
		gotTitles = append(gotTitles, i.Title)
	}
	if !reflect.DeepEqual(gotTitles, wantTitles) {
		t.Fatalf("idea titles = %v, want %v", gotTitles, wantTitles)
	}
	if strings.TrimSpace(topic.Preamble) != "Intro text" {
		t.Errorf("Preamble = %q", topic.Preamble)
	}

	var rebuilt strings.Builder
	rebuilt.WriteString(topic.Preamble)
	for _, i := range topic.Ideas {
		rebuilt.WriteString("\n### " + i.Title + "\n" + i.Content)
	}
	if strings.Join(strings.Fields(rebuilt.String()), " ") != strings.Join(strings.Fields(content), " ") {
		t.Errorf("reconstruction mismatch:\n%q\nvs\n%q", rebuilt.String(), content)
	}
}

func TestNewTopic_NoIdeas(t *testing.T) {
	topic := NewTopic("T", "just a note", "topic-t.md", nil)
	if len(topic.Ideas) != 0 {
		t.Errorf("len(Ideas) = %d, want 0", len(topic.Ideas))
	}
}

func TestSlugTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"topic-machine-learning.md", "Machine Learning"},
		{"topic-RNA-folding.md", "Rna Folding"},
		{"topic-x.md", "X"},
		{"notes.md", ""},
	}
	for _, tt := range tests {
		if got := SlugTitle(tt.in); got != tt.want {
			t.Errorf("SlugTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTopicFile_HeadingOverridesSlug(t *testing.T) {
	topic := ParseTopicFile("topic-ml.md", "# Machine Learning Survey\n### Idea\nbody", nil)
	if topic.Title != "Machine Learning Survey" {
		t.Errorf("Title = %q", topic.Title)
	}
	if strings.Contains(topic.Content, "# Machine Learning Survey") {
		t.Errorf("title line should be removed from content: %q", topic.Content)
	}
	if len(topic.Ideas) != 1 {
		t.Errorf("len(Ideas) = %d, want 1", len(topic.Ideas))
	}

	plain := ParseTopicFile("topic-ml.md", "## Not a title\n", nil)
	if plain.Title != "Ml" {
		t.Errorf("Title = %q, want slug title", plain.Title)
	}
}

func TestLoadTopics(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"topic-b-side.md": "### X\nx",
		"topic-a.md":      "# Alpha Topic\n### Y\n[@a]",
		"readme.md":       "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "topic-dir.md"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	topics, err := LoadTopics(dir, testLibrary(t))
	if err != nil {
		t.Fatalf("LoadTopics() error = %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("len(topics) = %d, want 2", len(topics))
	}
	if topics[0].Title != "Alpha Topic" || topics[1].Title != "B Side" {
		t.Errorf("titles = %q, %q", topics[0].Title, topics[1].Title)
	}
	if got := topics[0].Bibliography.Keys(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("topic bibliography = %v", got)
	}

	if _, err := LoadTopics(filepath.Join(dir, "missing"), nil); err == nil {
		t.Error("LoadTopics() on missing dir should fail")
	}
}
