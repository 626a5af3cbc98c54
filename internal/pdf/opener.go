// Package pdf locates paper PDFs on disk and opens files with the
// platform viewer.
package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Opener opens files with the configured reader.
type Opener struct {
	pdfReader string
	goos      string
}

// NewOpener creates an opener for the given reader preference.
func NewOpener(pdfReader string) *Opener {
	if pdfReader == "" {
		pdfReader = "system"
	}
	return &Opener{
		pdfReader: pdfReader,
		goos:      runtime.GOOS,
	}
}

// Open launches a viewer for path without waiting for it to exit.
// PDFs use the configured reader; other files use the system handler.
func (o *Opener) Open(path string) error {
	// Fail fast if file doesn't exist
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("checking file: %w", err)
	}

	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command returns the viewer command for path on the opener's platform.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	reader := o.pdfReader
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		reader = "system"
	}

	switch o.goos {
	case "darwin":
		return darwinCommand(reader, path), nil
	case "linux", "freebsd", "openbsd":
		return linuxCommand(reader, path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

// darwinCommand returns the command to open a file on macOS.
func darwinCommand(reader, path string) *exec.Cmd {
	switch reader {
	case "skim":
		return exec.Command("open", "-a", "Skim", path)
	case "preview":
		return exec.Command("open", "-a", "Preview", path)
	default: // "system"
		return exec.Command("open", path)
	}
}

// linuxCommand returns the command to open a file on Linux.
func linuxCommand(reader, path string) *exec.Cmd {
	switch reader {
	case "zathura", "evince", "okular":
		return exec.Command(reader, path)
	default: // "system"
		return exec.Command("xdg-open", path)
	}
}
