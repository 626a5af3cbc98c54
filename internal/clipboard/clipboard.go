// Package clipboard copies citations to the system clipboard via shell commands.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard tool is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Clipboard writes text through the first clipboard tool found on the platform.
type Clipboard struct {
	goos     string
	lookPath func(file string) (string, error)
}

// New returns a clipboard for the running platform.
func New() *Clipboard {
	return &Clipboard{goos: runtime.GOOS, lookPath: exec.LookPath}
}

// candidates lists the copy commands to try, in preference order.
func candidates(goos string) [][]string {
	switch goos {
	case "darwin":
		return [][]string{{"pbcopy"}}
	case "linux", "freebsd", "openbsd":
		return [][]string{
			{"wl-copy"},
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
		}
	case "windows":
		return [][]string{{"clip"}}
	default:
		return nil
	}
}

// Command returns the copy command for the platform, or
// ErrClipboardUnavailable when none of the candidates is installed.
func (c *Clipboard) Command() (*exec.Cmd, error) {
	for _, argv := range candidates(c.goos) {
		if _, err := c.lookPath(argv[0]); err == nil {
			return exec.Command(argv[0], argv[1:]...), nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// Available reports whether Copy can work on this system.
func (c *Clipboard) Available() bool {
	_, err := c.Command()
	return err == nil
}

// Copy replaces the clipboard contents with text.
func (c *Clipboard) Copy(text string) error {
	cmd, err := c.Command()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
