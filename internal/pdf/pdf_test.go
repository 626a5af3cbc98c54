package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/surveyor/internal/reference"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		title, year string
		want        string
	}{
		{"Deep Learning", "2015", "Deep Learning - 2015.pdf"},
		{"Phylogenetics: Why?", "2020", "Phylogenetics Why - 2020.pdf"},
		{"", "", " - .pdf"},
	}
	for _, tt := range tests {
		if got := FileName(tt.title, tt.year); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.title, tt.year, got, tt.want)
		}
	}
}

func TestFindDOI(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"doi: 10.1038/nature14539.", "10.1038/nature14539"},
		{"See (https://doi.org/10.1093/molbev/msw260)", "10.1093/molbev/msw260"},
		{"no identifier here", ""},
		{"10.12/short", ""},
	}
	for _, tt := range tests {
		if got := findDOI(tt.text); got != tt.want {
			t.Errorf("findDOI(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestLocate_ByFileName(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, "Trees Why - 2019.pdf")
	if err := os.WriteFile(want, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLocator(root, nil)
	got, err := l.Locate(&reference.Reference{Title: "Trees: Why?", Year: "2019"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got != want {
		t.Errorf("Locate() = %q, want %q", got, want)
	}
}

func TestLocate_Missing(t *testing.T) {
	l := NewLocator(t.TempDir(), nil)
	_, err := l.Locate(&reference.Reference{Title: "Absent", Year: "2001"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate() error = %v, want ErrNotFound", err)
	}

	// Unreadable PDFs are skipped while building the DOI index
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "junk.pdf"), []byte("not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}
	l = NewLocator(root, nil)
	_, err = l.Locate(&reference.Reference{Title: "Absent", Year: "2001", DOI: "10.1000/xyz123"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate() with DOI error = %v, want ErrNotFound", err)
	}
}

func TestLocate_NoRoot(t *testing.T) {
	_, err := NewLocator("", nil).Locate(&reference.Reference{Title: "X"})
	if !errors.Is(err, ErrNoRoot) {
		t.Errorf("Locate() error = %v, want ErrNoRoot", err)
	}
}

func TestOpenerCommand(t *testing.T) {
	tests := []struct {
		goos, reader, path string
		want               []string
	}{
		{"darwin", "skim", "/p/a.pdf", []string{"open", "-a", "Skim", "/p/a.pdf"}},
		{"darwin", "skim", "/p/topic-a.md", []string{"open", "/p/topic-a.md"}},
		{"linux", "zathura", "/p/a.pdf", []string{"zathura", "/p/a.pdf"}},
		{"linux", "system", "/p/a.pdf", []string{"xdg-open", "/p/a.pdf"}},
		{"windows", "system", `C:\p\a.pdf`, []string{"cmd", "/c", "start", "", `C:\p\a.pdf`}},
	}
	for _, tt := range tests {
		o := NewOpener(tt.reader)
		o.goos = tt.goos
		cmd, err := o.Command(tt.path)
		if err != nil {
			t.Fatalf("Command(%q) on %s error = %v", tt.path, tt.goos, err)
		}
		if len(cmd.Args) != len(tt.want) {
			t.Errorf("%s/%s: Args = %q, want %q", tt.goos, tt.reader, cmd.Args, tt.want)
			continue
		}
		for i := range tt.want {
			if cmd.Args[i] != tt.want[i] {
				t.Errorf("%s/%s: Args = %q, want %q", tt.goos, tt.reader, cmd.Args, tt.want)
				break
			}
		}
	}

	o := NewOpener("")
	o.goos = "plan9"
	if _, err := o.Command("/x.pdf"); err == nil {
		t.Error("Command() on unsupported platform should fail")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if err := NewOpener("").Open(filepath.Join(t.TempDir(), "none.pdf")); err == nil {
		t.Error("Open() should fail for a missing file")
	}
}
