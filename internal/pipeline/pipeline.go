// Package pipeline turns a content slug into a compiled, renderable document.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/a-h/templ"

	"github.com/cloo-solutions/pillarpress/internal/compiler"
	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/structure"
	"github.com/cloo-solutions/pillarpress/internal/telemetry"
)

// SourceInterface is the lookup side of source.FallbackSource.
type SourceInterface interface {
	Find(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error)
	ListAll(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error)
}

// HighlighterInterface rewrites code fences into highlighted markup.
type HighlighterInterface interface {
	Highlight(body string) string
}

// CompilerInterface compiles a highlighted body.
type CompilerInterface interface {
	Compile(source string) (*compiler.Template, error)
}

// Meta is the document metadata exposed to renderers and listings.
type Meta struct {
	Kind        domain.Kind            `json:"kind"`
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title"`
	Excerpt     string                 `json:"excerpt"`
	Category    string                 `json:"category,omitempty"`
	Tags        []string               `json:"tags"`
	Pillars     []string               `json:"pillars"`
	Date        *time.Time             `json:"date,omitempty"`
	HeroImage   string                 `json:"heroImage,omitempty"`
	Interactive *domain.InteractiveRef `json:"interactive,omitempty"`
	Source      domain.SourceKind      `json:"source"`
}

// CompiledDocument is the ephemeral result of a resolution.
type CompiledDocument struct {
	Meta            Meta
	Template        *compiler.Template
	Headings        []structure.Heading
	Excerpt         string
	InteractiveHTML string
}

// Props returns the values components can read while rendering.
func (d *CompiledDocument) Props() map[string]any {
	props := map[string]any{
		"title": d.Meta.Title,
		"slug":  d.Meta.Slug,
		"kind":  string(d.Meta.Kind),
	}
	if d.InteractiveHTML != "" {
		props["interactiveHtml"] = d.InteractiveHTML
	}
	if d.Meta.Interactive != nil && d.Meta.Interactive.Slug != "" {
		props["interactiveSlug"] = d.Meta.Interactive.Slug
	}
	return props
}

// Component binds the document body to a component registry.
func (d *CompiledDocument) Component(reg compiler.Registry) templ.Component {
	return d.Template.Component(reg, d.Props())
}

// Pipeline resolves slugs through the source, highlighter and compiler.
type Pipeline struct {
	source      SourceInterface
	highlighter HighlighterInterface
	compiler    CompilerInterface
	channel     structure.Channel
	recorder    metrics.Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExcerptChannel sets the excerpt length for resolved documents.
func WithExcerptChannel(c structure.Channel) Option {
	return func(p *Pipeline) {
		if c > 0 {
			p.channel = c
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a new Pipeline
func New(src SourceInterface, hl HighlighterInterface, c CompilerInterface, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:      src,
		highlighter: hl,
		compiler:    c,
		channel:     structure.ChannelArticle,
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the compiled document for kind/slug. A missing or
// invisible document yields found == false and a nil error; the only error
// returned is MalformedContent.
func (p *Pipeline) Resolve(ctx context.Context, kind domain.Kind, slug string) (*CompiledDocument, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "Pipeline.Resolve", telemetry.SpanAttributes{
		Kind: string(kind),
		Slug: slug,
	})
	defer span.End()

	item, err := p.source.Find(ctx, kind, slug)
	if err != nil {
		p.recorder.IncResolution(string(kind), string(domain.SourceFile), metrics.OutcomeMalformed)
		span.SetError(err)
		return nil, false, err
	}
	if item == nil {
		p.recorder.IncResolution(string(kind), "", metrics.OutcomeNotFound)
		return nil, false, nil
	}

	doc, err := p.compile(ctx, item)
	if err != nil {
		p.recorder.IncResolution(string(kind), string(item.Source), metrics.OutcomeMalformed)
		slog.WarnContext(ctx, "content failed to compile",
			logfields.Kind(string(kind)), logfields.Slug(slug),
			logfields.Source(string(item.Source)), logfields.Error(err))
		span.SetError(err)
		return nil, false, err
	}

	p.recorder.IncResolution(string(kind), string(item.Source), metrics.OutcomeFound)
	return doc, true, nil
}

// ListAll returns listing metadata for the visible items of a kind, newest
// first. Excerpts use the card channel; bodies are not compiled.
func (p *Pipeline) ListAll(ctx context.Context, kind domain.Kind) ([]Meta, error) {
	ctx, span := telemetry.StartSpan(ctx, "Pipeline.ListAll", telemetry.SpanAttributes{
		Kind: string(kind),
	})
	defer span.End()

	items, err := p.source.ListAll(ctx, kind)
	if err != nil {
		return nil, err
	}

	out := make([]Meta, 0, len(items))
	for _, it := range items {
		out = append(out, metaFor(it, excerptFor(it, structure.ChannelCard)))
	}
	return out, nil
}

func (p *Pipeline) compile(ctx context.Context, item *domain.ContentItem) (*CompiledDocument, error) {
	excerpt := excerptFor(item, p.channel)

	_, span := telemetry.StartSpan(ctx, "Pipeline.Compile", telemetry.SpanAttributes{
		Kind:   string(item.Kind),
		Slug:   item.Slug,
		Source: string(item.Source),
	})
	defer span.End()

	start := time.Now()
	body := p.highlighter.Highlight(item.BodySource)
	tmpl, err := p.compiler.Compile(body)
	p.recorder.ObserveCompileDuration(time.Since(start))
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedContent) {
			err = domain.MalformedContent(err)
		}
		return nil, err
	}

	doc := &CompiledDocument{
		Meta:     metaFor(item, excerpt),
		Template: tmpl,
		Headings: tmpl.Headings(),
		Excerpt:  excerpt,
	}
	if item.Interactive != nil {
		doc.InteractiveHTML = item.Interactive.HTML
	}
	return doc, nil
}

// excerptFor truncates a provided excerpt or derives one from the body.
func excerptFor(item *domain.ContentItem, channel structure.Channel) string {
	if item.Excerpt != "" {
		return structure.Excerpt(item.Excerpt, channel)
	}
	return structure.Excerpt(item.BodySource, channel)
}

func metaFor(item *domain.ContentItem, excerpt string) Meta {
	m := Meta{
		Kind:        item.Kind,
		Slug:        item.Slug,
		Title:       item.Title,
		Excerpt:     excerpt,
		Category:    item.Category,
		Tags:        item.Tags,
		Pillars:     item.Pillars,
		Date:        item.PublishedAt,
		HeroImage:   item.HeroImage,
		Interactive: item.Interactive,
		Source:      item.Source,
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Pillars == nil {
		m.Pillars = []string{}
	}
	return m
}
