package compiler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloo-solutions/pillarpress/internal/structure"
)

// Sentinels stand in for component tags while goldmark renders the body.
// They are HTML comments so goldmark passes them through untouched.
const (
	sentinelPrefix = "<!--pp:"
	sentinelSuffix = "-->"
)

type tagKind int

const (
	tagOpen tagKind = iota
	tagClose
	tagSelf
)

type invocation struct {
	name  string
	attrs Attrs
	block bool // tag opened a line, so its content is laid out as blocks
}

type scanner struct {
	src    string
	pos    int
	out    strings.Builder
	calls  []invocation
	stack  []int
	inCode bool
	fence  string
}

// scanComponents replaces component tags in src with sentinels and returns
// the rewritten text together with the parsed invocations. Tags inside fenced
// code blocks and inline code spans are left alone.
func scanComponents(src string) (string, []invocation, error) {
	s := &scanner{src: src}
	if err := s.run(); err != nil {
		return "", nil, err
	}
	return s.out.String(), s.calls, nil
}

func (s *scanner) run() error {
	lineStart := true
	for s.pos < len(s.src) {
		if lineStart {
			lineStart = false
			if s.fenceLine() {
				lineStart = true
				continue
			}
		}
		c := s.src[s.pos]
		switch {
		case s.inCode:
			s.copyLine()
			lineStart = true
		case c == '\n':
			s.out.WriteByte(c)
			s.pos++
			lineStart = true
		case c == '`':
			s.copyCodeSpan()
		case c == '<' && strings.HasPrefix(s.src[s.pos:], sentinelPrefix):
			s.escapeSentinel()
		case c == '<' && s.isTagStart():
			if err := s.tag(); err != nil {
				return err
			}
		default:
			s.out.WriteByte(c)
			s.pos++
		}
	}
	if len(s.stack) > 0 {
		return fmt.Errorf("unclosed <%s>", s.calls[s.stack[len(s.stack)-1]].name)
	}
	return nil
}

// fenceLine copies a fence marker line and toggles fenced state.
func (s *scanner) fenceLine() bool {
	end := strings.IndexByte(s.src[s.pos:], '\n')
	if end < 0 {
		end = len(s.src) - s.pos
	}
	_, marker, info, ok := structure.FenceLine(s.src[s.pos : s.pos+end])
	if !ok {
		return false
	}
	switch {
	case !s.inCode:
		s.inCode, s.fence = true, marker
	case marker[0] == s.fence[0] && len(marker) >= len(s.fence) && strings.TrimSpace(info) == "":
		s.inCode = false
	default:
		return false
	}
	s.copyLine()
	return true
}

func (s *scanner) copyLine() {
	end := strings.IndexByte(s.src[s.pos:], '\n')
	if end < 0 {
		s.out.WriteString(s.src[s.pos:])
		s.pos = len(s.src)
		return
	}
	s.out.WriteString(s.src[s.pos : s.pos+end+1])
	s.pos += end + 1
}

// copyCodeSpan copies a backtick code span verbatim. The closing run must
// sit in the same paragraph; a run without one is copied as literal
// backticks and scanning resumes right after it.
func (s *scanner) copyCodeSpan() {
	n := 0
	for s.pos+n < len(s.src) && s.src[s.pos+n] == '`' {
		n++
	}
	run := s.src[s.pos : s.pos+n]
	rest := s.src[s.pos+n:]
	rest = rest[:paragraphEnd(rest)]
	for off := 0; ; {
		i := strings.Index(rest[off:], run)
		if i < 0 {
			break
		}
		j := off + i
		if j+n < len(rest) && rest[j+n] == '`' {
			// longer run, keep looking past it
			k := j + n
			for k < len(rest) && rest[k] == '`' {
				k++
			}
			off = k
			continue
		}
		s.out.WriteString(s.src[s.pos : s.pos+n+j+n])
		s.pos += n + j + n
		return
	}
	s.out.WriteString(run)
	s.pos += n
}

// paragraphEnd returns the offset of the first blank or fence line in rest.
// Code spans do not continue past it.
func paragraphEnd(rest string) int {
	for off := 0; ; {
		nl := strings.IndexByte(rest[off:], '\n')
		if nl < 0 {
			return len(rest)
		}
		off += nl + 1
		line := rest[off:]
		if e := strings.IndexByte(line, '\n'); e >= 0 {
			line = line[:e]
		}
		if strings.TrimSpace(line) == "" {
			return off
		}
		if _, _, _, ok := structure.FenceLine(line); ok {
			return off
		}
	}
}

// escapeSentinel copies author text shaped like a sentinel with its colon
// written as an entity, so only sentinels emitted here survive rendering.
func (s *scanner) escapeSentinel() {
	s.out.WriteString(strings.TrimSuffix(sentinelPrefix, ":"))
	s.out.WriteString("&#58;")
	s.pos += len(sentinelPrefix)
}

func (s *scanner) isTagStart() bool {
	i := s.pos + 1
	if i < len(s.src) && s.src[i] == '/' {
		i++
	}
	return i < len(s.src) && s.src[i] >= 'A' && s.src[i] <= 'Z'
}

func (s *scanner) tag() error {
	start := s.pos
	s.pos++ // '<'
	closing := false
	if s.src[s.pos] == '/' {
		closing = true
		s.pos++
	}
	name := s.readName()

	if closing {
		s.skipSpace()
		if !s.consume(">") {
			return fmt.Errorf("malformed closing tag </%s at offset %d", name, start)
		}
		if len(s.stack) == 0 {
			return fmt.Errorf("unexpected closing tag </%s>", name)
		}
		top := s.stack[len(s.stack)-1]
		if s.calls[top].name != name {
			return fmt.Errorf("mismatched closing tag </%s>, expected </%s>", name, s.calls[top].name)
		}
		s.stack = s.stack[:len(s.stack)-1]
		if s.calls[top].block && !s.outAtLineStart() {
			s.out.WriteByte('\n')
		}
		s.emit(top, tagClose)
		if s.calls[top].block {
			s.breakLine()
		}
		return nil
	}

	block := s.outAtLineStart()

	attrs, kind, err := s.attributes(name)
	if err != nil {
		return err
	}
	id := len(s.calls)
	s.calls = append(s.calls, invocation{name: name, attrs: attrs, block: block})
	if kind == tagOpen {
		s.stack = append(s.stack, id)
	}
	s.emit(id, kind)
	if block {
		s.breakLine()
	}
	return nil
}

// outAtLineStart reports whether only indentation has been written since the
// last newline. A sentinel comment there starts an HTML block, which ends at
// the end of that line.
func (s *scanner) outAtLineStart() bool {
	out := s.out.String()
	rest := out[strings.LastIndexByte(out, '\n')+1:]
	return strings.TrimLeft(rest, " \t") == ""
}

// breakLine ends the current line unless the source already does, so text
// after a block sentinel is parsed as markdown rather than raw HTML.
func (s *scanner) breakLine() {
	if s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.out.WriteByte('\n')
	}
}

func (s *scanner) attributes(tag string) (Attrs, tagKind, error) {
	attrs := Attrs{}
	for {
		s.skipSpace()
		switch {
		case s.pos >= len(s.src):
			return nil, 0, fmt.Errorf("unclosed tag <%s", tag)
		case s.consume("/>"):
			return attrs, tagSelf, nil
		case s.consume(">"):
			return attrs, tagOpen, nil
		}

		key := s.readAttrName()
		if key == "" {
			return nil, 0, fmt.Errorf("malformed attribute in <%s> at %q", tag, s.preview())
		}
		s.skipSpace()
		if !s.consume("=") {
			attrs[key] = true
			continue
		}
		s.skipSpace()
		value, err := s.attrValue(tag, key)
		if err != nil {
			return nil, 0, err
		}
		attrs[key] = value
	}
}

func (s *scanner) attrValue(tag, key string) (any, error) {
	if s.pos >= len(s.src) {
		return nil, fmt.Errorf("missing value for %s in <%s>", key, tag)
	}
	switch q := s.src[s.pos]; q {
	case '"', '\'':
		end := strings.IndexByte(s.src[s.pos+1:], q)
		if end < 0 {
			return nil, fmt.Errorf("unterminated value for %s in <%s>", key, tag)
		}
		v := s.src[s.pos+1 : s.pos+1+end]
		s.pos += end + 2
		return v, nil
	case '{':
		end, ok := matchBrace(s.src[s.pos:])
		if !ok {
			return nil, fmt.Errorf("unterminated expression for %s in <%s>", key, tag)
		}
		expr := strings.TrimSpace(s.src[s.pos+1 : s.pos+end])
		s.pos += end + 1
		var v any
		if err := json.Unmarshal([]byte(expr), &v); err != nil {
			return nil, fmt.Errorf("invalid value for %s in <%s>: %w", key, tag, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("malformed value for %s in <%s> at %q", key, tag, s.preview())
}

// matchBrace returns the index of the brace closing the one at s[0],
// skipping braces inside JSON strings.
func matchBrace(s string) (int, bool) {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, c == '}'
			}
		}
	}
	return 0, false
}

func (s *scanner) emit(id int, kind tagKind) {
	s.out.WriteString(sentinelPrefix)
	s.out.WriteString(strconv.Itoa(id))
	switch kind {
	case tagOpen:
		s.out.WriteString(":open")
	case tagClose:
		s.out.WriteString(":close")
	}
	s.out.WriteString(sentinelSuffix)
}

func (s *scanner) readName() string {
	start := s.pos
	for s.pos < len(s.src) && isNameByte(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) readAttrName() string {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if !isNameByte(c) && c != '-' && c != ':' {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos]
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) consume(tok string) bool {
	if strings.HasPrefix(s.src[s.pos:], tok) {
		s.pos += len(tok)
		return true
	}
	return false
}

func (s *scanner) preview() string {
	end := s.pos + 12
	if end > len(s.src) {
		end = len(s.src)
	}
	return s.src[s.pos:end]
}
