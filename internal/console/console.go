// Package console implements the interactive command loop over a session.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/matsen/surveyor/internal/bibliography"
	"github.com/matsen/surveyor/internal/reference"
	"github.com/matsen/surveyor/internal/session"
	"github.com/matsen/surveyor/internal/storage"
)

// ErrQuit is returned by Execute when the user asks to leave.
var ErrQuit = errors.New("quit")

// DefaultSearchLimit caps the rows printed by search.
const DefaultSearchLimit = 20

// Opener launches an external viewer for a file.
type Opener interface {
	Open(path string) error
}

// Locator resolves the PDF belonging to a reference.
type Locator interface {
	Locate(ref *reference.Reference) (string, error)
}

// Index answers full-text queries over the loaded references.
type Index interface {
	Search(query string, limit int) ([]storage.Hit, error)
}

// Clipboard receives copied text.
type Clipboard interface {
	Copy(text string) error
}

// ChangeNotifier reports whether the session sources changed on disk.
type ChangeNotifier interface {
	Changed() bool
}

// ReloadFunc produces a fresh session from the same sources.
type ReloadFunc func(s *session.Session) (*session.Session, error)

// Options wires the console to its collaborators. Everything but the
// session is optional; missing collaborators disable their commands.
type Options struct {
	Out         io.Writer // defaults to color.Output
	Style       bibliography.Style
	Opener      Opener
	Locator     Locator
	Index       Index
	Clipboard   Clipboard
	Reload      ReloadFunc
	Watcher     ChangeNotifier
	Logger      *zap.Logger
	SearchLimit int
}

// Console dispatches command lines against a session.
type Console struct {
	sess     *session.Session
	opts     Options
	out      io.Writer
	log      *zap.Logger
	commands map[string]*Command
	names    []string // canonical names in help order
}

// New creates a console over s.
func New(s *session.Session, opts Options) *Console {
	if opts.Out == nil {
		opts.Out = color.Output
	}
	if opts.Style == "" {
		opts.Style = bibliography.Numbered
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}

	c := &Console{
		sess: s,
		opts: opts,
		out:  opts.Out,
		log:  opts.Logger,
	}
	c.register(builtinCommands()...)
	return c
}

// Session returns the session the console currently operates on.
// It changes after a reload.
func (c *Console) Session() *session.Session {
	return c.sess
}

// Prompt returns the prompt for the current navigation state.
func (c *Console) Prompt() string {
	return c.sess.Prompt()
}

// IsFatal reports whether err must end the console: missing sources or a
// navigation index out of range.
func IsFatal(err error) bool {
	return errors.Is(err, session.ErrTopicOutOfRange) ||
		errors.Is(err, session.ErrBibNotFound) ||
		errors.Is(err, session.ErrTopicsNotFound)
}

// Execute runs a single command line. Blank lines are ignored. It returns
// ErrQuit on quit, a fatal error (see IsFatal) when the session can no
// longer be used, or the command's own error.
func (c *Console) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	if err := c.refresh(false); err != nil {
		return err
	}

	cmd, ok := c.commands[strings.ToLower(fields[0])]
	if !ok {
		c.printf("Unknown command: %s (type help for a list)\n", fields[0])
		return nil
	}

	c.log.Debug("command", zap.String("name", cmd.Name), zap.Strings("args", fields[1:]))
	return cmd.Run(c, fields[1:])
}

// Run reads commands from in until quit, EOF or a fatal error.
// Non-fatal command errors are printed and the loop continues.
func (c *Console) Run(in io.Reader) error {
	c.printf("Try typing 'help' to go further\n")

	prompt := color.New(color.FgCyan, color.Bold)
	scanner := bufio.NewScanner(in)
	for {
		prompt.Fprint(c.out, c.Prompt())
		if !scanner.Scan() {
			c.printf("\n")
			return scanner.Err()
		}

		err := c.Execute(scanner.Text())
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit):
			return nil
		case IsFatal(err):
			return err
		default:
			c.log.Warn("command failed", zap.String("line", scanner.Text()), zap.Error(err))
			c.printf("error: %v\n", err)
		}
	}
}

// refresh reloads the session when forced or when the watcher saw a change.
// The selected topic is kept; reload errors are fatal.
func (c *Console) refresh(force bool) error {
	if c.opts.Reload == nil {
		return nil
	}
	if !force && (c.opts.Watcher == nil || !c.opts.Watcher.Changed()) {
		return nil
	}

	fresh, err := c.opts.Reload(c.sess)
	if err != nil {
		c.log.Error("reload failed", zap.Error(err))
		return fmt.Errorf("reloading: %w", err)
	}
	c.sess = fresh
	c.log.Debug("session reloaded", zap.Int("topics", len(fresh.Topics)))
	return nil
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
