package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/matsen/surveyor/internal/reference"
)

var (
	// ErrNoRoot is returned when no PDF folder is configured.
	ErrNoRoot = errors.New("pdf_root not configured")
	// ErrNotFound is returned when no PDF matches a reference.
	ErrNotFound = errors.New("PDF not found")
)

var fileNameStrip = strings.NewReplacer(":", "", "?", "")

// FileName returns the conventional "<title> - <year>.pdf" name for a paper,
// with characters reference managers drop from file names removed.
func FileName(title, year string) string {
	return fileNameStrip.Replace(title + " - " + year + ".pdf")
}

// Locator finds the PDF for a reference under a root folder.
type Locator struct {
	root  string
	log   *zap.Logger
	byDOI map[string]string
}

// NewLocator creates a locator over root. A nil logger discards output.
func NewLocator(root string, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{root: root, log: log}
}

// Locate returns the path of ref's PDF. The conventional file name is tried
// first; failing that, PDFs under the root are matched by the DOI printed
// on their first pages.
func (l *Locator) Locate(ref *reference.Reference) (string, error) {
	if l.root == "" {
		return "", ErrNoRoot
	}

	path := filepath.Join(l.root, FileName(ref.Title, ref.Year))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}

	if ref.DOI != "" {
		if err := l.buildIndex(); err != nil {
			return "", err
		}
		if found, ok := l.byDOI[ref.DOI]; ok {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Reset drops the DOI index so the next lookup rescans the root.
func (l *Locator) Reset() {
	l.byDOI = nil
}

// buildIndex scans the root once, mapping normalized DOIs to files.
func (l *Locator) buildIndex() error {
	if l.byDOI != nil {
		return nil
	}

	index := make(map[string]string)
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		doi, err := ExtractDOI(path)
		if err != nil {
			l.log.Debug("skipping unreadable PDF", zap.String("path", path), zap.Error(err))
			return nil
		}
		if doi == "" {
			return nil
		}
		key := reference.NormalizeDOI(doi)
		if _, dup := index[key]; !dup {
			index[key] = path
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", l.root, err)
	}

	l.log.Debug("indexed PDFs by DOI", zap.String("root", l.root), zap.Int("count", len(index)))
	l.byDOI = index
	return nil
}
