package structure

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Channel is the maximum excerpt length, in characters, of a display channel.
type Channel int

const (
	ChannelArticle Channel = 220
	ChannelCard    Channel = 180
)

// Ellipsis is appended to truncated excerpts.
const Ellipsis = "…"

// htmlTag matches the tags and comments of a raw HTML block.
var htmlTag = regexp.MustCompile(`(?s)<!--.*?-->|</?[A-Za-z][^<>]*>`)

// maxPasses bounds the re-parsing in PlainText and Excerpt. Text that
// markdown still reads as markup after one pass loses it on the next.
const maxPasses = 10

// Result is the derived structure of a body.
type Result struct {
	Headings []Heading
	Excerpt  string
}

// Extract derives the outline and the excerpt of body for the given channel.
func Extract(body string, channel Channel) Result {
	return Result{
		Headings: Headings(body),
		Excerpt:  Excerpt(body, channel),
	}
}

// Excerpt reduces markdown to plain text and truncates it to the channel
// length. The result is stable: Excerpt(Excerpt(b, c), c) == Excerpt(b, c).
func Excerpt(body string, channel Channel) string {
	s := Truncate(PlainText(body), int(channel))
	for i := 0; i < maxPasses; i++ {
		next := Truncate(PlainText(s), int(channel))
		if next == s {
			break
		}
		s = next
	}
	return s
}

// PlainText parses s as markdown and keeps only its visible text, with
// whitespace collapsed. Code blocks, images and HTML tags are dropped.
func PlainText(s string) string {
	for i := 0; i < maxPasses; i++ {
		next := textOf(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func textOf(s string) string {
	doc, src := parse(s)
	var b strings.Builder
	blockText(&b, doc, src)
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most max characters, cutting on a word boundary
// where one exists and appending Ellipsis. Strings that fit are returned as is.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max-utf8.RuneCountInString(Ellipsis)])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	cut = strings.TrimRight(cut, " ,;:.-")
	return cut + Ellipsis
}
