package bibtex

import (
	"fmt"
	"strings"
)

// defaultMacros are the month abbreviations predefined by standard BibTeX styles.
var defaultMacros = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

type parser struct {
	src    []byte
	pos    int
	line   int
	macros map[string]string
}

// Parse parses BibTeX source. Entries that cannot be parsed are skipped
// and reported as ParseErrors; everything else is kept.
func Parse(data []byte) (*Database, []error) {
	p := &parser{src: data, line: 1, macros: make(map[string]string)}
	for k, v := range defaultMacros {
		p.macros[k] = v
	}

	db := NewDatabase()
	var errs []error

	for p.skipTo('@') {
		startLine := p.line
		entryType := strings.ToLower(p.readIdent())
		p.skipSpace()

		open := p.peek()
		if entryType == "" || (open != '{' && open != '(') {
			// Stray '@' in free text between entries
			continue
		}
		p.next()
		closer := byte('}')
		if open == '(' {
			closer = ')'
		}

		switch entryType {
		case "comment", "preamble":
			p.skipBalanced(closer)
		case "string":
			if err := p.parseMacro(closer); err != nil {
				errs = append(errs, err)
			}
		default:
			entry, err := p.parseEntry(entryType, closer)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if entry.Key == "" {
				errs = append(errs, ParseError{Line: startLine, Message: fmt.Sprintf("@%s entry without citation key", entryType)})
				continue
			}
			db.Add(entry)
		}
	}

	return db, errs
}

func (p *parser) parseEntry(entryType string, closer byte) (*Entry, error) {
	p.skipSpace()
	key := p.readWhile(func(c byte) bool {
		return c != ',' && c != closer && !isSpace(c)
	})
	entry := &Entry{Type: entryType, Key: key, Fields: make(map[string]string)}

	p.skipSpace()
	switch p.peek() {
	case closer:
		p.next()
		return entry, nil
	case ',':
		p.next()
	default:
		return nil, p.errorf("expected ',' after citation key %q", key)
	}

	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated entry %q", key)
		}
		if p.peek() == closer {
			p.next()
			return entry, nil
		}

		name := strings.ToLower(p.readIdent())
		if name == "" {
			return nil, p.errorf("expected field name in entry %q, found %q", key, p.peek())
		}
		p.skipSpace()
		if p.next() != '=' {
			return nil, p.errorf("expected '=' after field %q in entry %q", name, key)
		}

		value, err := p.readValue()
		if err != nil {
			return nil, err
		}
		entry.Fields[name] = collapseSpace(value)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.next()
		case closer:
			p.next()
			return entry, nil
		default:
			return nil, p.errorf("expected ',' or end of entry after field %q in entry %q", name, key)
		}
	}
}

func (p *parser) parseMacro(closer byte) error {
	p.skipSpace()
	name := strings.ToLower(p.readIdent())
	if name == "" {
		p.skipBalanced(closer)
		return p.errorf("@string without name")
	}
	p.skipSpace()
	if p.next() != '=' {
		p.skipBalanced(closer)
		return p.errorf("expected '=' in @string %q", name)
	}
	value, err := p.readValue()
	if err != nil {
		return err
	}
	p.skipSpace()
	if p.peek() == closer {
		p.next()
	}
	p.macros[name] = collapseSpace(value)
	return nil
}

// readValue reads a field value: braced, quoted, numeric or macro parts
// joined with '#'.
func (p *parser) readValue() (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		c := p.peek()
		switch {
		case c == '{':
			s, err := p.readDelimited('{', '}')
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case c == '"':
			s, err := p.readDelimited('"', '"')
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case isIdentChar(c):
			word := p.readIdent()
			if v, ok := p.macros[strings.ToLower(word)]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(word)
			}
		default:
			return "", p.errorf("unexpected %q in field value", c)
		}

		p.skipSpace()
		if p.peek() != '#' {
			return b.String(), nil
		}
		p.next()
	}
}

// readDelimited reads a braced or quoted value and returns its inner text.
// Nested braces are kept verbatim; a quote only closes at brace depth zero.
func (p *parser) readDelimited(open, closer byte) (string, error) {
	startLine := p.line
	p.next() // opening delimiter
	start := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\\':
			p.next()
		case c == closer && depth == 0:
			s := string(p.src[start:p.pos])
			p.next()
			return s, nil
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		}
		p.next()
	}
	return "", ParseError{Line: startLine, Message: "unterminated field value"}
}

// skipBalanced consumes input up to and including the closer that balances
// an already consumed opening delimiter.
func (p *parser) skipBalanced(closer byte) {
	opener := byte('{')
	if closer == ')' {
		opener = '('
	}
	depth := 1
	for !p.eof() {
		c := p.next()
		switch c {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return ParseError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) next() byte {
	if p.eof() {
		return 0
	}
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

func (p *parser) skipTo(target byte) bool {
	for !p.eof() {
		if p.next() == target {
			return true
		}
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.next()
	}
}

func (p *parser) readIdent() string {
	return p.readWhile(isIdentChar)
}

func (p *parser) readWhile(accept func(byte) bool) string {
	start := p.pos
	for !p.eof() && accept(p.peek()) {
		p.next()
	}
	return string(p.src[start:p.pos])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c >= 0x80:
		return true
	}
	return strings.IndexByte("_-:./+'!?*&;$<>|", c) >= 0
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
