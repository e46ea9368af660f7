// Package compiler turns markdown with embedded component tags into a
// Template that renders through an a-h/templ component tree.
package compiler

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/structure"
)

var sentinel = regexp.MustCompile(`<!--pp:(\d+)(:open|:close)?-->`)

// Compiler compiles document bodies. It holds no per-document state and is
// safe for concurrent use.
type Compiler struct {
	md    goldmark.Markdown
	known map[string]bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithKnownComponents makes Compile reject component names outside names.
func WithKnownComponents(names ...string) Option {
	return func(c *Compiler) {
		if c.known == nil {
			c.known = make(map[string]bool, len(names))
		}
		for _, n := range names {
			c.known[n] = true
		}
	}
}

// New creates a Compiler with GFM enabled and raw HTML passed through.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		md: structure.NewMarkdown(goldmark.WithRendererOptions(html.WithUnsafe())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile parses source into a Template. The result depends only on source.
// Malformed component markup is reported as domain.ErrMalformedContent.
// Heading ids and the template's outline come from the same parse.
func (c *Compiler) Compile(source string) (*Template, error) {
	rewritten, calls, err := scanComponents(source)
	if err != nil {
		return nil, domain.MalformedContent(err)
	}

	if c.known != nil {
		for _, call := range calls {
			if !c.known[call.name] {
				return nil, domain.MalformedContent(fmt.Errorf("%w: %s", ErrUnknownComponent, call.name))
			}
		}
	}

	src := []byte(rewritten)
	doc := c.md.Parser().Parse(text.NewReader(src))
	headings := structure.Outline(doc, src)

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, domain.MalformedContent(fmt.Errorf("markdown: %w", err))
	}

	nodes, err := assemble(buf.String(), calls)
	if err != nil {
		return nil, domain.MalformedContent(err)
	}

	t := &Template{nodes: nodes, headings: headings}
	seen := map[string]bool{}
	for _, call := range calls {
		if !seen[call.name] {
			seen[call.name] = true
			t.names = append(t.names, call.name)
		}
	}
	return t, nil
}

type frame struct {
	id    int
	nodes []node
}

// assemble splits rendered HTML on sentinels and nests the pieces into a
// node tree.
func assemble(rendered string, calls []invocation) ([]node, error) {
	stack := []frame{{id: -1}}
	push := func(n node) {
		top := &stack[len(stack)-1]
		top.nodes = append(top.nodes, n)
	}

	last := 0
	for _, m := range sentinel.FindAllStringSubmatchIndex(rendered, -1) {
		if m[0] > last {
			push(node{html: rendered[last:m[0]]})
		}
		last = m[1]

		id, err := strconv.Atoi(rendered[m[2]:m[3]])
		if err != nil || id >= len(calls) {
			return nil, fmt.Errorf("unexpected component marker %q", rendered[m[0]:m[1]])
		}
		suffix := ""
		if m[4] >= 0 {
			suffix = rendered[m[4]:m[5]]
		}

		switch suffix {
		case "":
			push(node{name: calls[id].name, attrs: calls[id].attrs})
		case ":open":
			stack = append(stack, frame{id: id})
		case ":close":
			top := stack[len(stack)-1]
			if top.id != id {
				return nil, fmt.Errorf("component <%s> is split across markdown blocks", calls[id].name)
			}
			stack = stack[:len(stack)-1]
			push(node{name: calls[id].name, attrs: calls[id].attrs, children: top.nodes})
		}
	}
	if last < len(rendered) {
		push(node{html: rendered[last:]})
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("unclosed <%s>", calls[stack[len(stack)-1].id].name)
	}
	return stack[0].nodes, nil
}
