package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/pillarpress/internal/api"
	"github.com/cloo-solutions/pillarpress/internal/compiler"
	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/pipeline"
	"github.com/cloo-solutions/pillarpress/internal/structure"
)

// Resolver is the public read side of the content pipeline.
type Resolver interface {
	Resolve(ctx context.Context, kind domain.Kind, slug string) (*pipeline.CompiledDocument, bool, error)
	ListAll(ctx context.Context, kind domain.Kind) ([]pipeline.Meta, error)
}

// ContentHandler serves published content pages and listings.
type ContentHandler struct {
	resolver Resolver
	registry compiler.Registry
}

func NewContentHandler(resolver Resolver, registry compiler.Registry) *ContentHandler {
	return &ContentHandler{resolver: resolver, registry: registry}
}

type DocumentResponse struct {
	Meta            pipeline.Meta       `json:"meta"`
	Headings        []structure.Heading `json:"headings"`
	Excerpt         string              `json:"excerpt"`
	HTML            string              `json:"html"`
	InteractiveHTML string              `json:"interactiveHtml,omitempty"`
}

type ListingResponse struct {
	Items []pipeline.Meta `json:"items"`
}

// List returns the listing of kind: visible items, newest first.
func (h *ContentHandler) List(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.resolver.ListAll(r.Context(), kind)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		if items == nil {
			items = []pipeline.Meta{}
		}
		api.Success(w, http.StatusOK, ListingResponse{Items: items})
	}
}

// Resolve compiles and renders one item. Clients asking for text/html get
// the rendered body alone.
func (h *ContentHandler) Resolve(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			api.Error(w, http.StatusBadRequest, "slug is required")
			return
		}

		doc, found, err := h.resolver.Resolve(r.Context(), kind, slug)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		if !found {
			api.HandleError(w, domain.ErrContentNotFound)
			return
		}

		var buf bytes.Buffer
		if err := doc.Component(h.registry).Render(r.Context(), &buf); err != nil {
			slog.WarnContext(r.Context(), "render failed",
				logfields.Kind(string(kind)), logfields.Slug(slug), logfields.Error(err))
			api.HandleError(w, domain.MalformedContent(err))
			return
		}

		if wantsHTML(r) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(buf.Bytes())
			return
		}

		headings := doc.Headings
		if headings == nil {
			headings = []structure.Heading{}
		}
		api.Success(w, http.StatusOK, DocumentResponse{
			Meta:            doc.Meta,
			Headings:        headings,
			Excerpt:         doc.Excerpt,
			HTML:            buf.String(),
			InteractiveHTML: doc.InteractiveHTML,
		})
	}
}

func wantsHTML(r *http.Request) bool {
	if r.URL.Query().Get("format") == "html" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
