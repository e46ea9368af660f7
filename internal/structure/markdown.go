package structure

import (
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// NewMarkdown returns the goldmark setup shared by outline extraction and
// document compilation, with GFM enabled. Both sides must parse with the same
// extensions or they disagree on where headings are.
func NewMarkdown(opts ...goldmark.Option) goldmark.Markdown {
	return goldmark.New(append([]goldmark.Option{goldmark.WithExtensions(extension.GFM)}, opts...)...)
}

var markdown = NewMarkdown()

func parse(body string) (ast.Node, []byte) {
	src := []byte(body)
	return markdown.Parser().Parse(text.NewReader(src)), src
}

// FenceLine recognises a code fence line: up to three spaces of indent, then
// three or more backticks or tildes, then an info string. A backtick fence
// may not carry backticks in its info string.
func FenceLine(line string) (indent, marker, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	indent = line[:len(line)-len(trimmed)]
	if len(indent) > 3 || len(trimmed) < 3 {
		return "", "", "", false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return "", "", "", false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return "", "", "", false
	}
	info = strings.TrimRight(trimmed[n:], "\r")
	if c == '`' && strings.Contains(info, "`") {
		return "", "", "", false
	}
	return indent, trimmed[:n], info, true
}

// inlineText appends the visible text of n's inline content to b. Raw HTML
// and images contribute nothing; links and code spans keep their text.
func inlineText(b *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.WriteString(html.UnescapeString(string(util.UnescapePunctuations(c.Segment.Value(src)))))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.Label(src))
		case *ast.RawHTML, *ast.Image:
		default:
			inlineText(b, c, src)
		}
	}
}

// blockText appends the text of every block under n, skipping code blocks.
// Raw HTML blocks keep the text between their tags.
func blockText(b *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.ThematicBreak:
		case *ast.HTMLBlock:
			lines := c.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.WriteString(htmlTag.ReplaceAllString(string(seg.Value(src)), " "))
			}
			b.WriteByte(' ')
		default:
			if c.Type() == ast.TypeInline {
				inlineText(b, n, src)
				return
			}
			blockText(b, c, src)
			b.WriteByte(' ')
		}
	}
}
