package structure

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// Heading is one entry of a document outline.
type Heading struct {
	Depth      int    `json:"depth"`
	Text       string `json:"text"`
	AnchorSlug string `json:"anchorSlug"`
}

// Headings returns the level 2 and 3 headings of body in document order.
func Headings(body string) []Heading {
	doc, src := parse(body)
	return Outline(doc, src)
}

// Outline assigns an id attribute to every heading of a parsed document and
// returns the level 2 and 3 entries. Headings of every level, ATX and setext
// alike, claim anchors, so the outline always matches the ids a renderer
// writes for the same tree.
func Outline(doc ast.Node, src []byte) []Heading {
	anchors := NewAnchors()
	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		inlineText(&b, h, src)
		text := collapse(b.String())

		anchor := anchors.Next(text)
		h.SetAttributeString("id", []byte(anchor))
		if (h.Level == 2 || h.Level == 3) && text != "" {
			out = append(out, Heading{Depth: h.Level, Text: text, AnchorSlug: anchor})
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}
