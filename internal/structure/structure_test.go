package structure

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Start", "start"},
		{"Why Focus Matters!", "why-focus-matters"},
		{"  --Leading and trailing--  ", "leading-and-trailing"},
		{"Résumé & Café", "resume-cafe"},
		{"C++ / Go: 2024 edition", "c-go-2024-edition"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestHeadings_SingleSection(t *testing.T) {
	got := Headings("## Start\n\nSome **text**.")
	assert.Equal(t, []Heading{{Depth: 2, Text: "Start", AnchorSlug: "start"}}, got)
}

func TestHeadings_OrderDepthAndDuplicates(t *testing.T) {
	body := strings.Join([]string{
		"# Title",
		"## Setup",
		"### Details",
		"#### Too deep",
		"## Setup",
		"### Details ###",
		"## Setup",
		"##NoSpace",
		"```md",
		"## Inside a fence",
		"```",
		"## The `code` and [link](https://example.com)",
	}, "\n")

	got := Headings(body)
	require.Len(t, got, 6)

	assert.Equal(t, Heading{Depth: 2, Text: "Setup", AnchorSlug: "setup"}, got[0])
	assert.Equal(t, Heading{Depth: 3, Text: "Details", AnchorSlug: "details"}, got[1])
	assert.Equal(t, Heading{Depth: 2, Text: "Setup", AnchorSlug: "setup-1"}, got[2])
	assert.Equal(t, Heading{Depth: 3, Text: "Details", AnchorSlug: "details-1"}, got[3])
	assert.Equal(t, Heading{Depth: 2, Text: "Setup", AnchorSlug: "setup-2"}, got[4])
	assert.Equal(t, "The code and link", got[5].Text)
	assert.Equal(t, "the-code-and-link", got[5].AnchorSlug)
}

func TestHeadings_SetextAndOtherLevelsClaimAnchors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Heading
	}{
		{
			name: "setext level 1 before atx level 2",
			body: "Intro\n=====\n\n## Intro\n",
			want: []Heading{{Depth: 2, Text: "Intro", AnchorSlug: "intro-1"}},
		},
		{
			name: "setext level 2 is part of the outline",
			body: "Setup\n-----\n\n## Setup\n",
			want: []Heading{
				{Depth: 2, Text: "Setup", AnchorSlug: "setup"},
				{Depth: 2, Text: "Setup", AnchorSlug: "setup-1"},
			},
		},
		{
			name: "level 4 heading shares the namespace",
			body: "#### Notes\n\n### Notes\n",
			want: []Heading{{Depth: 3, Text: "Notes", AnchorSlug: "notes-1"}},
		},
		{
			name: "heading inside a list item",
			body: "- ## Listed\n\n## Listed\n",
			want: []Heading{
				{Depth: 2, Text: "Listed", AnchorSlug: "listed"},
				{Depth: 2, Text: "Listed", AnchorSlug: "listed-1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Headings(tt.body))
		})
	}
}

func TestAnchors_SuffixCollision(t *testing.T) {
	a := NewAnchors()
	assert.Equal(t, "start-1", a.Next("Start 1"))
	assert.Equal(t, "start", a.Next("Start"))
	assert.Equal(t, "start-2", a.Next("Start"))
	assert.Equal(t, "section", a.Next("???"))

	a.Reserve("custom")
	assert.Equal(t, "custom-1", a.Next("Custom"))
}

func TestExcerpt_StripsMarkdown(t *testing.T) {
	body := "## Start\n\n" +
		"Some **text** with _emphasis_, `code`, and a [link](https://example.com).\n\n" +
		"```go\nfmt.Println(\"hidden\")\n```\n\n" +
		"![hero](hero.png)\n" +
		"> quoted *line*\n" +
		"- item one\n" +
		"1. item two\n" +
		"<Callout type=\"tip\">Inside</Callout> snake_case_word\n"

	got := Excerpt(body, ChannelArticle)

	assert.Equal(t, "Start Some text with emphasis, code, and a link. quoted line item one item two Inside snake_case_word", got)
	assert.NotContains(t, got, "hidden")
	assert.NotContains(t, got, "https://")
}

func TestExcerpt_StripsEmphasisKeepsSentence(t *testing.T) {
	got := Excerpt("## Start\n\nSome **text**.", ChannelArticle)
	assert.Contains(t, got, "Some text.")
	assert.NotContains(t, got, "*")
}

func TestExcerpt_KeepsLiteralPunctuation(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"Multiply 5 * 3 to get 15.", "Multiply 5 * 3 to get 15."},
		{"Roughly ~ 40 minutes, **not** more.", "Roughly ~ 40 minutes, not more."},
		{"Use a_b and `x*y` here.", "Use a_b and x*y here."},
		{"Ben &amp; Jerry", "Ben & Jerry"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got := Excerpt(tt.body, ChannelArticle)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Excerpt(got, ChannelArticle))
		})
	}
}

func TestFenceLine(t *testing.T) {
	tests := []struct {
		line   string
		marker string
		info   string
		ok     bool
	}{
		{"```go", "```", "go", true},
		{"   ~~~~", "~~~~", "", true},
		{"    ```", "", "", false},
		{"``", "", "", false},
		{"``` a`b", "", "", false},
		{"~~~ a`b", "~~~", " a`b", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, marker, info, ok := FenceLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.marker, marker)
			assert.Equal(t, tt.info, info)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "one two…", Truncate("one two three four", 10))
	assert.Equal(t, "abcdefghi…", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "one…", Truncate("one, two, three", 8))
}

func TestExcerpt_ChannelBoundaries(t *testing.T) {
	words := strings.Repeat("focus ", 60)

	article := Excerpt(words, ChannelArticle)
	card := Excerpt(words, ChannelCard)

	assert.LessOrEqual(t, utf8.RuneCountInString(article), int(ChannelArticle))
	assert.LessOrEqual(t, utf8.RuneCountInString(card), int(ChannelCard))
	assert.True(t, strings.HasSuffix(article, Ellipsis))
	assert.True(t, strings.HasSuffix(card, Ellipsis))
	assert.True(t, strings.HasSuffix(article, "focus"+Ellipsis))

	assert.Equal(t, article, Excerpt(article, ChannelArticle))
}

func TestExtract(t *testing.T) {
	res := Extract("## One\n\ntext\n\n### Two\n\nmore", ChannelCard)
	require.Len(t, res.Headings, 2)
	assert.Equal(t, "two", res.Headings[1].AnchorSlug)
	assert.Equal(t, "One text Two more", res.Excerpt)
}
