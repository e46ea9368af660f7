package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cloo-solutions/pillarpress/internal/api"
	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/service"
)

type ContentService interface {
	Create(ctx context.Context, input service.CreateInput) (*domain.ContentItem, error)
	Update(ctx context.Context, input service.UpdateInput) (*domain.ContentItem, error)
	SetVisibility(ctx context.Context, id string, status domain.ContentStatus, isListed *bool) (*domain.ContentItem, error)
	Get(ctx context.Context, id string) (*domain.ContentItem, error)
	List(ctx context.Context, input service.ListContentInput) (*service.ListContentOutput, error)
}

// EditLookup finds items for editing in either source, whatever their visibility.
type EditLookup interface {
	FindForEdit(ctx context.Context, kind domain.Kind, ref string) (*domain.ContentItem, error)
}

type AdminHandler struct {
	svc    ContentService
	lookup EditLookup
}

func NewAdminHandler(svc ContentService, lookup EditLookup) *AdminHandler {
	return &AdminHandler{svc: svc, lookup: lookup}
}

type ContentRequest struct {
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Excerpt         string     `json:"excerpt"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	PublishedAt     *time.Time `json:"published_at"`
	Status          string     `json:"status"`
	IsListed        *bool      `json:"is_listed"`
	HeroImage       string     `json:"hero_image"`
	Body            string     `json:"body"`
	Pillars         []string   `json:"pillars"`
	InteractiveHTML string     `json:"interactive_html"`
	InteractiveSlug string     `json:"interactive_slug"`
}

type VisibilityRequest struct {
	Status   string `json:"status"`
	IsListed *bool  `json:"is_listed"`
}

type ContentResponse struct {
	ID          string                 `json:"id,omitempty"`
	Kind        string                 `json:"kind"`
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title"`
	Excerpt     string                 `json:"excerpt"`
	Category    string                 `json:"category"`
	Tags        []string               `json:"tags"`
	PublishedAt *time.Time             `json:"published_at,omitempty"`
	Status      string                 `json:"status"`
	IsListed    *bool                  `json:"is_listed"`
	Visible     bool                   `json:"visible"`
	HeroImage   string                 `json:"hero_image,omitempty"`
	Body        string                 `json:"body"`
	Pillars     []string               `json:"pillars"`
	Interactive *domain.InteractiveRef `json:"interactive,omitempty"`
	Source      string                 `json:"source"`
	CreatedAt   string                 `json:"created_at,omitempty"`
	UpdatedAt   string                 `json:"updated_at,omitempty"`
}

type ContentListResponse struct {
	Items   []*ContentResponse `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

func contentToResponse(c *domain.ContentItem) *ContentResponse {
	resp := &ContentResponse{
		ID:          c.ID,
		Kind:        string(c.Kind),
		Slug:        c.Slug,
		Title:       c.Title,
		Excerpt:     c.Excerpt,
		Category:    c.Category,
		Tags:        nonNil(c.Tags),
		PublishedAt: c.PublishedAt,
		Status:      string(c.Status),
		IsListed:    c.IsListed,
		Visible:     c.Visible(),
		HeroImage:   c.HeroImage,
		Body:        c.BodySource,
		Pillars:     nonNil(c.Pillars),
		Interactive: c.Interactive,
		Source:      string(c.Source),
	}
	if !c.CreatedAt.IsZero() {
		resp.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		resp.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Body == "" {
		api.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	item, err := h.svc.Create(r.Context(), service.CreateInput{
		Kind:            kind,
		Slug:            req.Slug,
		Title:           req.Title,
		Excerpt:         req.Excerpt,
		Category:        req.Category,
		Tags:            req.Tags,
		PublishedAt:     req.PublishedAt,
		Status:          domain.ContentStatus(req.Status),
		IsListed:        req.IsListed,
		HeroImage:       req.HeroImage,
		BodySource:      req.Body,
		Pillars:         req.Pillars,
		InteractiveHTML: req.InteractiveHTML,
		InteractiveSlug: req.InteractiveSlug,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, contentToResponse(item))
}

// Get accepts an id or a slug. Ids are read from the database; slugs are
// looked up in both sources so file-backed items can be inspected too.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	ref := chi.URLParam(r, "ref")

	var item *domain.ContentItem
	var err error
	if uuid.Validate(ref) == nil {
		item, err = h.svc.Get(r.Context(), ref)
		if err == nil && item.Kind != kind {
			err = domain.ErrContentNotFound
		}
	} else {
		item, err = h.lookup.FindForEdit(r.Context(), kind, ref)
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, contentToResponse(item))
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := kindParam(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "ref")
	if uuid.Validate(id) != nil {
		api.Error(w, http.StatusBadRequest, "id must be a uuid")
		return
	}

	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Body == "" {
		api.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	item, err := h.svc.Update(r.Context(), service.UpdateInput{
		ID:              id,
		Slug:            req.Slug,
		Title:           req.Title,
		Excerpt:         req.Excerpt,
		Category:        req.Category,
		Tags:            req.Tags,
		PublishedAt:     req.PublishedAt,
		Status:          domain.ContentStatus(req.Status),
		IsListed:        req.IsListed,
		HeroImage:       req.HeroImage,
		BodySource:      req.Body,
		Pillars:         req.Pillars,
		InteractiveHTML: req.InteractiveHTML,
		InteractiveSlug: req.InteractiveSlug,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, contentToResponse(item))
}

func (h *AdminHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	if _, ok := kindParam(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "ref")
	if uuid.Validate(id) != nil {
		api.Error(w, http.StatusBadRequest, "id must be a uuid")
		return
	}

	var req VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.SetVisibility(r.Context(), id, domain.ContentStatus(req.Status), req.IsListed)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, contentToResponse(item))
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.List(r.Context(), service.ListContentInput{
		Kind:   kind,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ContentResponse, len(output.Items))
	for i, c := range output.Items {
		responses[i] = contentToResponse(c)
	}

	api.Success(w, http.StatusOK, ContentListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func kindParam(w http.ResponseWriter, r *http.Request) (domain.Kind, bool) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		api.HandleError(w, err)
		return "", false
	}
	return kind, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
