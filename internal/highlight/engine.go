// Package highlight rewrites fenced code blocks into paired light and dark
// highlighted markup.
package highlight

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrUnsupportedLanguage is returned for languages the engine cannot highlight.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Default theme pair.
const (
	DefaultLightTheme = "github"
	DefaultDarkTheme  = "github-dark"
)

// Engine renders source text as highlighted HTML for one theme.
type Engine interface {
	Render(code, language, theme string) (string, error)
}

// ChromaEngine is an Engine backed by chroma. Lexers, styles and the
// formatter are resolved once on first use and only read afterwards.
type ChromaEngine struct {
	languages []string

	once      sync.Once
	formatter *chromahtml.Formatter
	allowed   map[string]chroma.Lexer
}

// EngineOption configures a ChromaEngine.
type EngineOption func(*ChromaEngine)

// WithLanguages restricts highlighting to the named languages. Names chroma
// does not know are ignored.
func WithLanguages(names ...string) EngineOption {
	return func(e *ChromaEngine) {
		e.languages = append(e.languages, names...)
	}
}

// NewChromaEngine creates an engine. Nothing is loaded until the first Render.
func NewChromaEngine(opts ...EngineOption) *ChromaEngine {
	e := &ChromaEngine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ChromaEngine) init() {
	e.formatter = chromahtml.New(
		chromahtml.WithClasses(false),
		chromahtml.TabWidth(4),
	)
	if len(e.languages) == 0 {
		return
	}
	e.allowed = make(map[string]chroma.Lexer, len(e.languages))
	for _, name := range e.languages {
		name = strings.ToLower(strings.TrimSpace(name))
		if l := lexers.Get(name); l != nil {
			e.allowed[name] = l
		}
	}
}

func (e *ChromaEngine) lexer(language string) chroma.Lexer {
	language = strings.ToLower(language)
	if language == "" || language == "text" || language == "plaintext" {
		return lexers.Fallback
	}
	if e.allowed != nil {
		return e.allowed[language]
	}
	return lexers.Get(language)
}

// Render highlights code with the lexer for language and the named theme.
// An empty language uses the plain text lexer. Unknown themes fall back to
// chroma's default style.
func (e *ChromaEngine) Render(code, language, theme string) (string, error) {
	e.once.Do(e.init)

	lexer := e.lexer(language)
	if lexer == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("failed to tokenise %s: %w", language, err)
	}

	var b strings.Builder
	if err := e.formatter.Format(&b, styles.Get(theme), iterator); err != nil {
		return "", fmt.Errorf("failed to format %s: %w", language, err)
	}
	return b.String(), nil
}
