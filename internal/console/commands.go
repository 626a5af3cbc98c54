package console

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"go.uber.org/zap"

	"github.com/matsen/surveyor/internal/bibliography"
	"github.com/matsen/surveyor/internal/document"
)

// Command is one entry of the dispatch table.
type Command struct {
	Name    string
	Aliases []string
	Summary string
	Usage   []string
	Run     func(c *Console, args []string) error
}

// titleMaxLen bounds titles in tabular listings.
const titleMaxLen = 70

var heading = color.New(color.Bold)

func builtinCommands() []*Command {
	return []*Command{
		{
			Name:    "show",
			Summary: "show a reference, idea or topic",
			Usage: []string{
				"show CITATION-KEY: show details of a reference",
				"show idea|i IDEA-NUM: show details of an idea",
				"show topic|t TOPIC-NUM: show details of a topic",
			},
			Run: runShow,
		},
		{
			Name:    "open",
			Summary: "open a paper PDF or a topic file",
			Usage: []string{
				"open CITATION-KEY: open a PDF file with specified key",
				"open topic|t [TOPIC-NUM]: open a topic file (default: current topic)",
			},
			Run: runOpen,
		},
		{
			Name:    "topic",
			Summary: "set or switch the current topic",
			Usage: []string{
				"topic TOPIC-NUM: set/switch current topic. Use 0 as TOPIC-NUM to make all topics visible",
			},
			Run: runTopic,
		},
		{
			Name:    "list",
			Summary: "list topics, references, papers or ideas",
			Usage: []string{
				"list topics|topic|t: list all topics",
				"list references|reference|ref|r: list referenced papers in the current topic",
				"list papers|paper|p: list all papers in the bibliography",
				"list ideas|idea|i: list ideas in the current topic",
			},
			Run: runList,
		},
		{
			Name:    "search",
			Summary: "full-text search over titles, authors and venues",
			Usage:   []string{"search TERMS: search the bibliography"},
			Run:     runSearch,
		},
		{
			Name:    "copy",
			Aliases: []string{"cp"},
			Summary: "copy a citation or the current references to the clipboard",
			Usage: []string{
				"copy CITATION-KEY: copy the citation of a reference",
				"copy references|reference|ref|r: copy the references of the current topic",
			},
			Run: runCopy,
		},
		{
			Name:    "export",
			Summary: "write the current references as a BibTeX file",
			Usage:   []string{"export FILE: write BibTeX entries of the current references to FILE"},
			Run:     runExport,
		},
		{
			Name:    "reload",
			Summary: "reload the bibliography and topic files",
			Usage:   []string{"reload: re-read the bibliography and topics, keeping the current topic"},
			Run:     runReload,
		},
		{
			Name:    "help",
			Aliases: []string{"?"},
			Summary: "list commands or show a command's syntax",
			Usage:   []string{"help [COMMAND]: show help"},
			Run:     runHelp,
		},
		{
			Name:    "quit",
			Aliases: []string{"q", "exit"},
			Summary: "terminate the application",
			Usage:   []string{"quit: terminates the application"},
			Run: func(*Console, []string) error {
				return ErrQuit
			},
		},
	}
}

// register adds commands to the dispatch table under their names and aliases.
func (c *Console) register(cmds ...*Command) {
	if c.commands == nil {
		c.commands = make(map[string]*Command)
	}
	for _, cmd := range cmds {
		c.commands[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			c.commands[alias] = cmd
		}
		c.names = append(c.names, cmd.Name)
	}
}

func (c *Console) usage(name string) {
	cmd := c.commands[name]
	c.printf("Syntax:\n")
	for _, line := range cmd.Usage {
		c.printf("  %s\n", line)
	}
}

// parseIndex parses a 1-based position into a slice of length n.
func parseIndex(arg string, n int) (int, bool) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func runShow(c *Console, args []string) error {
	if len(args) == 0 {
		c.usage("show")
		return nil
	}

	s := c.sess
	key := args[0]
	if s.Library.Has(key) {
		citation, err := s.Library.Cite(key)
		if err != nil {
			return err
		}
		if citation.Degraded {
			c.log.Debug("citation degraded", zap.String("key", key), zap.Error(citation.Err))
		}
		c.printf("%s\n", citation)
		return nil
	}

	var doc *document.Document
	switch key {
	case "idea", "i":
		ideas := s.ActiveIdeas()
		if len(args) > 1 {
			if i, ok := parseIndex(args[1], len(ideas)); ok {
				doc = &ideas[i].Document
			}
		}
	case "topic", "t":
		topics := s.ActiveTopics()
		if len(args) > 1 {
			if i, ok := parseIndex(args[1], len(topics)); ok {
				doc = &topics[i].Document
			}
		}
	default:
		c.printf("reference not found: %s\n", key)
		return nil
	}

	if doc == nil {
		c.usage("show")
		return nil
	}
	c.printf("%s\n", doc.FormatCitations(s.Library, c.opts.Style))
	return nil
}

func runOpen(c *Console, args []string) error {
	if len(args) == 0 {
		c.usage("open")
		return nil
	}

	s := c.sess
	key := args[0]
	switch {
	case s.Library.Has(key):
		if c.opts.Locator == nil {
			return errors.New("no PDF folder configured")
		}
		ref, err := s.Library.Reference(key)
		if err != nil {
			return err
		}
		path, err := c.opts.Locator.Locate(ref)
		if err != nil {
			return err
		}
		return c.open(path)

	case key == "topic" || key == "t":
		n := s.Current()
		if len(args) > 1 {
			if i, ok := parseIndex(args[1], len(s.Topics)); ok {
				n = i + 1
			}
		}
		topic, ok := s.Topic(n)
		if !ok {
			c.usage("open")
			return nil
		}
		return c.open(filepath.Join(s.Sources.TopicsDir, topic.File))

	default:
		c.printf("reference not found: %s\n", key)
		return nil
	}
}

func (c *Console) open(path string) error {
	c.printf("%s\n", path)
	if c.opts.Opener == nil {
		return nil
	}
	if err := c.opts.Opener.Open(path); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return nil
}

func runTopic(c *Console, args []string) error {
	if len(args) == 0 {
		c.usage("topic")
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		c.usage("topic")
		return nil
	}
	return c.sess.Select(n)
}

func runList(c *Console, args []string) error {
	if len(args) == 0 {
		c.usage("list")
		return nil
	}

	s := c.sess
	switch args[0] {
	case "topics", "topic", "t":
		heading.Fprintln(c.out, "Listing topics:")
		tbl := uitable.New()
		tbl.Separator = " "
		tbl.MaxColWidth = titleMaxLen
		for i, t := range s.Topics {
			tbl.AddRow(fmt.Sprintf("[%d]", i+1), t.Title)
		}
		tbl.RightAlign(0)
		if len(s.Topics) > 0 {
			c.printf("%s\n", tbl)
		}
		if s.Current() != 0 {
			c.printf("Current topic: %d\n", s.Current())
		} else {
			c.printf("You are not on any topic\n")
		}
		c.printf("You can use the topic command to set/switch current topic\n")

	case "references", "reference", "ref", "r":
		c.publish(s.ActiveBibliography())

	case "papers", "paper", "p":
		c.publish(s.All)

	case "ideas", "idea", "i":
		ideas := s.ActiveIdeas()
		if len(ideas) == 0 {
			c.printf("No ideas\n")
			return nil
		}
		tbl := uitable.New()
		tbl.Separator = " "
		tbl.MaxColWidth = titleMaxLen
		for i, idea := range ideas {
			tbl.AddRow(fmt.Sprintf("[%d]", i+1), idea.Title)
		}
		tbl.RightAlign(0)
		c.printf("%s\n", tbl)

	default:
		c.printf("Unknown argument for list command: %s\n", strings.Join(args, " "))
	}
	return nil
}

// publish prints b in the console style. Keys that no longer resolve are
// logged and left out.
func (c *Console) publish(b *bibliography.Bibliography) {
	b.SetStyle(c.opts.Style)
	entries, skipped := b.Entries(c.sess.Library)
	for _, e := range entries {
		c.printf("%s\n", e)
	}
	if len(skipped) > 0 {
		c.log.Warn("keys missing from bibliography", zap.Strings("keys", skipped))
	}
}

func runSearch(c *Console, args []string) error {
	if len(args) == 0 {
		c.usage("search")
		return nil
	}
	if c.opts.Index == nil {
		return errors.New("search index not available")
	}

	hits, err := c.opts.Index.Search(strings.Join(args, " "), c.opts.SearchLimit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		c.printf("No matches\n")
		return nil
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = titleMaxLen
	tbl.AddRow(heading.Sprint("KEY"), heading.Sprint("YEAR"), heading.Sprint("TITLE"))
	for _, h := range hits {
		tbl.AddRow(h.Key, h.Year, h.Title)
	}
	c.printf("%s\n", tbl)
	return nil
}

func runCopy(c *Console, args []string) error {
	if len(args) == 0 {
		c.usage("copy")
		return nil
	}
	if c.opts.Clipboard == nil {
		return errors.New("clipboard not available")
	}

	s := c.sess
	var text string
	switch key := args[0]; {
	case s.Library.Has(key):
		citation, err := s.Library.Cite(key)
		if err != nil {
			return err
		}
		text = citation.String()
	case key == "references" || key == "reference" || key == "ref" || key == "r":
		b := s.ActiveBibliography()
		b.SetStyle(c.opts.Style)
		text = b.Publish(s.Library)
	default:
		c.printf("reference not found: %s\n", key)
		return nil
	}

	if err := c.opts.Clipboard.Copy(text); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	c.printf("Copied to clipboard\n")
	return nil
}

func runExport(c *Console, args []string) error {
	if len(args) != 1 {
		c.usage("export")
		return nil
	}

	s := c.sess
	path := args[0]
	if same, _ := samePath(path, s.Sources.BibPath); same {
		return fmt.Errorf("refusing to overwrite the loaded bibliography %s", s.Sources.BibPath)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	keys := s.ActiveBibliography().Keys()
	missing, err := s.DB.Write(f, keys)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	if len(missing) > 0 {
		c.log.Warn("keys missing from bibliography", zap.Strings("keys", missing))
	}

	c.printf("Exported %d entries to %s\n", len(keys)-len(missing), path)
	return nil
}

// samePath reports whether a and b name the same file. Files that do not
// exist yet compare by absolute path.
func samePath(a, b string) (bool, error) {
	if b == "" {
		return false, nil
	}
	ai, aerr := os.Stat(a)
	bi, berr := os.Stat(b)
	if aerr == nil && berr == nil {
		return os.SameFile(ai, bi), nil
	}
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func runReload(c *Console, _ []string) error {
	if c.opts.Reload == nil {
		return errors.New("reload not available")
	}
	if err := c.refresh(true); err != nil {
		return err
	}
	s := c.sess
	c.printf("Loaded %d references, %d topics, %d ideas\n", s.DB.Len(), len(s.Topics), len(s.AllIdeas))
	return nil
}

func runHelp(c *Console, args []string) error {
	if len(args) > 0 {
		if cmd, ok := c.commands[strings.ToLower(args[0])]; ok {
			c.usage(cmd.Name)
			return nil
		}
		c.printf("No help on %s\n", args[0])
		return nil
	}

	heading.Fprintln(c.out, "Commands:")
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, name := range c.names {
		cmd := c.commands[name]
		label := name
		if len(cmd.Aliases) > 0 {
			label += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		tbl.AddRow("  "+label, cmd.Summary)
	}
	c.printf("%s\n", tbl)
	return nil
}
