package highlight

import (
	"html"
	"log/slog"
	"strings"

	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/structure"
)

// Highlighter replaces every fenced code block of a markdown body with a
// wrapper carrying a light and a dark rendering of the same code. The wrapper
// is written on a single line so markdown treats it as one raw HTML block.
type Highlighter struct {
	engine   Engine
	light    string
	dark     string
	recorder metrics.Recorder
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithThemes sets the light and dark theme names. Empty names keep the defaults.
func WithThemes(light, dark string) Option {
	return func(h *Highlighter) {
		if light != "" {
			h.light = light
		}
		if dark != "" {
			h.dark = dark
		}
	}
}

// WithRecorder reports passthrough fences to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Highlighter) {
		if r != nil {
			h.recorder = r
		}
	}
}

// New creates a Highlighter over engine.
func New(engine Engine, opts ...Option) *Highlighter {
	h := &Highlighter{
		engine:   engine,
		light:    DefaultLightTheme,
		dark:     DefaultDarkTheme,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type fence struct {
	indent string
	marker string
	lang   string
	start  int // line index of the opening marker
	end    int // line index of the closing marker
}

// Highlight rewrites fenced code blocks in body. Text outside fences is left
// untouched and already rewritten bodies contain no fences, so applying it
// twice gives the same result. Unclosed fences are left as they are.
func (h *Highlighter) Highlight(body string) string {
	lines := strings.Split(body, "\n")
	fences := findFences(lines)
	if len(fences) == 0 {
		return body
	}

	out := make([]string, 0, len(lines))
	prev := 0
	for _, f := range fences {
		out = append(out, lines[prev:f.start]...)
		code := strings.Join(lines[f.start+1:f.end], "\n")
		original := strings.Join(lines[f.start:f.end+1], "\n")
		out = append(out, f.indent+h.wrap(f.lang, code, original))
		prev = f.end + 1
		if prev < len(lines) && strings.TrimSpace(lines[prev]) != "" {
			// a raw HTML block runs until the next blank line
			out = append(out, "")
		}
	}
	out = append(out, lines[prev:]...)
	return strings.Join(out, "\n")
}

func (h *Highlighter) wrap(lang, code, original string) string {
	light, errLight := h.engine.Render(code, lang, h.light)
	dark, errDark := h.engine.Render(code, lang, h.dark)
	if errLight != nil || errDark != nil {
		err := errLight
		if err == nil {
			err = errDark
		}
		slog.Debug("Code fence left unhighlighted", logfields.Language(lang), logfields.Error(err))
		h.recorder.IncHighlightFallback()
		verbatim := "<pre><code>" + html.EscapeString(original) + "</code></pre>"
		light, dark = verbatim, verbatim
	}

	var b strings.Builder
	b.WriteString(`<div class="code-block" data-lang="`)
	b.WriteString(html.EscapeString(lang))
	b.WriteString(`"><div class="code-light" data-theme="light">`)
	b.WriteString(oneLine(light))
	b.WriteString(`</div><div class="code-dark" data-theme="dark">`)
	b.WriteString(oneLine(dark))
	b.WriteString(`</div></div>`)
	return b.String()
}

func oneLine(s string) string {
	s = strings.TrimRight(s, "\n")
	return strings.ReplaceAll(s, "\n", "&#10;")
}

func findFences(lines []string) []fence {
	var out []fence
	var open *fence
	for i, line := range lines {
		indent, marker, info, ok := structure.FenceLine(line)
		if !ok {
			continue
		}
		if open == nil {
			lang, _, _ := strings.Cut(strings.TrimSpace(info), " ")
			open = &fence{indent: indent, marker: marker, lang: lang, start: i}
			continue
		}
		if strings.TrimSpace(info) == "" && marker[0] == open.marker[0] && len(marker) >= len(open.marker) {
			open.end = i
			out = append(out, *open)
			open = nil
		}
	}
	return out
}
