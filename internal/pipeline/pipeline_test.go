package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/pillarpress/internal/compiler"
	"github.com/cloo-solutions/pillarpress/internal/components"
	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/highlight"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/structure"
)

// MockSource is a mock implementation of SourceInterface
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Find(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error) {
	args := m.Called(ctx, kind, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockSource) ListAll(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentItem), args.Error(1)
}

// MockRecorder records resolution outcomes.
type MockRecorder struct {
	mock.Mock
	metrics.NoopRecorder
}

func (m *MockRecorder) IncResolution(kind, source, outcome string) { m.Called(kind, source, outcome) }

func newPipeline(src SourceInterface, opts ...Option) *Pipeline {
	return New(src,
		highlight.New(highlight.NewChromaEngine()),
		compiler.New(compiler.WithKnownComponents(components.Names()...)),
		opts...)
}

func published(slug, body string) *domain.ContentItem {
	return &domain.ContentItem{
		ID:         "c1",
		Kind:       domain.KindArticle,
		Slug:       slug,
		Title:      "Focus Habits",
		Status:     domain.ContentStatusPublished,
		IsListed:   domain.BoolPtr(true),
		BodySource: body,
		Pillars:    []string{"focus"},
		Source:     domain.SourceRelational,
	}
}

func renderDoc(t *testing.T, doc *CompiledDocument) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Component(components.Default()).Render(context.Background(), &buf))
	return buf.String()
}

func TestResolve_PublishedArticle(t *testing.T) {
	src := new(MockSource)
	src.On("Find", mock.Anything, domain.KindArticle, "focus-habits").
		Return(published("focus-habits", "## Start\n\nSome **text**."), nil)

	doc, found, err := newPipeline(src).Resolve(context.Background(), domain.KindArticle, "focus-habits")

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []structure.Heading{{Depth: 2, Text: "Start", AnchorSlug: "start"}}, doc.Headings)
	assert.NotEmpty(t, doc.Excerpt)
	assert.Contains(t, doc.Excerpt, "Some text.")
	assert.Equal(t, doc.Excerpt, doc.Meta.Excerpt)
	assert.Equal(t, []string{"focus"}, doc.Meta.Pillars)

	html := renderDoc(t, doc)
	assert.Contains(t, html, `<h2 id="start">Start</h2>`)
	assert.Contains(t, html, "<strong>text</strong>")
}

func TestResolve_CodeBlocks(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLang string
		check    func(t *testing.T, html string)
	}{
		{
			name:     "known language is highlighted in both themes",
			body:     "Intro\n\n```python\nprint(1)\n```\n",
			wantLang: "python",
			check: func(t *testing.T, html string) {
				assert.Contains(t, html, `<div class="code-light" data-theme="light">`)
				assert.Contains(t, html, `<div class="code-dark" data-theme="dark">`)
				assert.Contains(t, html, "<span")
			},
		},
		{
			name:     "unknown language keeps escaped source",
			body:     "```foobarlang\nx < y\n```\n",
			wantLang: "foobarlang",
			check: func(t *testing.T, html string) {
				assert.Equal(t, 2, strings.Count(html, "<pre><code>```foobarlang&#10;x &lt; y&#10;```</code></pre>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := new(MockSource)
			src.On("Find", mock.Anything, domain.KindArticle, "code").Return(published("code", tt.body), nil)

			doc, found, err := newPipeline(src).Resolve(context.Background(), domain.KindArticle, "code")
			require.NoError(t, err)
			require.True(t, found)

			html := renderDoc(t, doc)
			assert.Contains(t, html, `data-lang="`+tt.wantLang+`"`)
			assert.NotContains(t, html, "```"+tt.wantLang+"\n")
			tt.check(t, html)
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	src := new(MockSource)
	src.On("Find", mock.Anything, domain.KindArticle, "missing").Return(nil, nil)
	rec := new(MockRecorder)
	rec.On("IncResolution", "article", "", metrics.OutcomeNotFound).Once()

	doc, found, err := newPipeline(src, WithRecorder(rec)).Resolve(context.Background(), domain.KindArticle, "missing")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, doc)
	rec.AssertExpectations(t)
}

func TestResolve_MalformedContent(t *testing.T) {
	t.Run("compile failure", func(t *testing.T) {
		src := new(MockSource)
		src.On("Find", mock.Anything, domain.KindArticle, "bad").
			Return(published("bad", "<Callout type=\"tip\">\nnever closed\n"), nil)
		rec := new(MockRecorder)
		rec.On("IncResolution", "article", "relational", metrics.OutcomeMalformed).Once()

		_, found, err := newPipeline(src, WithRecorder(rec)).Resolve(context.Background(), domain.KindArticle, "bad")

		assert.False(t, found)
		assert.ErrorIs(t, err, domain.ErrMalformedContent)
		rec.AssertExpectations(t)
	})

	t.Run("unknown component", func(t *testing.T) {
		src := new(MockSource)
		src.On("Find", mock.Anything, domain.KindArticle, "bad").
			Return(published("bad", "<Marquee>hi</Marquee>\n"), nil)

		_, _, err := newPipeline(src).Resolve(context.Background(), domain.KindArticle, "bad")
		assert.ErrorIs(t, err, domain.ErrMalformedContent)
	})

	t.Run("source error", func(t *testing.T) {
		src := new(MockSource)
		src.On("Find", mock.Anything, domain.KindArticle, "bad").Return(nil, domain.MalformedContent(errors.New("bad yaml")))

		_, found, err := newPipeline(src).Resolve(context.Background(), domain.KindArticle, "bad")
		assert.False(t, found)
		assert.ErrorIs(t, err, domain.ErrMalformedContent)
	})
}

func TestResolve_ProvidedExcerptAndInteractive(t *testing.T) {
	item := published("widget", "Body text that is not used for the excerpt.\n\n<Interactive />\n")
	item.Excerpt = "A *provided* excerpt."
	item.Interactive = &domain.InteractiveRef{HTML: `<canvas id="timer"></canvas>`}

	src := new(MockSource)
	src.On("Find", mock.Anything, domain.KindArticle, "widget").Return(item, nil)

	doc, found, err := newPipeline(src).Resolve(context.Background(), domain.KindArticle, "widget")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "A provided excerpt.", doc.Excerpt)
	assert.Equal(t, `<canvas id="timer"></canvas>`, doc.InteractiveHTML)
	assert.Contains(t, renderDoc(t, doc), `<div class="interactive"><canvas id="timer"></canvas></div>`)
}

func TestResolve_ExcerptChannel(t *testing.T) {
	body := strings.Repeat("word ", 100)
	src := new(MockSource)
	src.On("Find", mock.Anything, domain.KindArticle, "long").Return(published("long", body), nil)

	doc, _, err := newPipeline(src, WithExcerptChannel(structure.Channel(50))).Resolve(context.Background(), domain.KindArticle, "long")

	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(doc.Excerpt)), 50)
	assert.True(t, strings.HasSuffix(doc.Excerpt, structure.Ellipsis))
}

func TestListAll(t *testing.T) {
	newer := published("newer", "## Title\n\n"+strings.Repeat("card ", 60))
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	newer.PublishedAt = &d
	older := published("older", "short body")
	older.Pillars = nil

	src := new(MockSource)
	src.On("ListAll", mock.Anything, domain.KindArticle).Return([]*domain.ContentItem{newer, older}, nil)

	metas, err := newPipeline(src).ListAll(context.Background(), domain.KindArticle)

	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "newer", metas[0].Slug)
	assert.LessOrEqual(t, len([]rune(metas[0].Excerpt)), int(structure.ChannelCard))
	assert.Equal(t, &d, metas[0].Date)
	assert.Equal(t, "short body", metas[1].Excerpt)
	assert.Equal(t, []string{}, metas[1].Pillars)
}
