package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/invalidate"
	"github.com/cloo-solutions/pillarpress/internal/pagination"
	"github.com/cloo-solutions/pillarpress/internal/structure"
	"github.com/cloo-solutions/pillarpress/internal/tags"
	"github.com/cloo-solutions/pillarpress/internal/telemetry"
)

// maxSlugAttempts bounds the -2, -3, ... suffix search.
const maxSlugAttempts = 100

// ContentRepositoryInterface defines the repository interface for content persistence
type ContentRepositoryInterface interface {
	Create(ctx context.Context, c *domain.ContentItem) error
	Update(ctx context.Context, c *domain.ContentItem) error
	GetByID(ctx context.Context, id string) (*domain.ContentItem, error)
	SlugExists(ctx context.Context, kind domain.Kind, slug, excludeID string) (bool, error)
	ListByKindWithCursor(ctx context.Context, kind domain.Kind, cursor *pagination.Cursor, limit int) (*ContentPageResult, error)
}

type ContentPageResult struct {
	Items      []*domain.ContentItem
	NextCursor string
	HasMore    bool
}

// PillarLinkRepositoryInterface defines the write side of the content/pillar association
type PillarLinkRepositoryInterface interface {
	ReplaceLinks(ctx context.Context, contentItemID string, pillarIDs []string) error
}

// InvalidationJobRepositoryInterface defines the repository interface for outbox rows
type InvalidationJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.InvalidationJob) error
}

// PillarResolver loads pillar slugs for stored items.
type PillarResolver interface {
	ResolveTags(ctx context.Context, contentItemID string) ([]string, error)
	Index(ctx context.Context, contentItemIDs []string) (tags.Index, error)
}

// ContentService owns the write path for content items. Every write stores
// the row, its pillar links and an invalidation job in one transaction.
type ContentService struct {
	contentRepo ContentRepositoryInterface
	pillars     PillarResolver
	txRunner    TxRunner
	uuidGen     UUIDGenerator
}

// NewContentService creates a new ContentService instance
func NewContentService(contentRepo ContentRepositoryInterface, pillars PillarResolver, txRunner TxRunner) *ContentService {
	return NewContentServiceWithUUIDGen(contentRepo, pillars, txRunner, &DefaultUUIDGenerator{})
}

// NewContentServiceWithUUIDGen creates a new ContentService with custom UUID generator (for testing)
func NewContentServiceWithUUIDGen(
	contentRepo ContentRepositoryInterface,
	pillars PillarResolver,
	txRunner TxRunner,
	uuidGen UUIDGenerator,
) *ContentService {
	return &ContentService{
		contentRepo: contentRepo,
		pillars:     pillars,
		txRunner:    txRunner,
		uuidGen:     uuidGen,
	}
}

// CreateInput represents the input for creating a content item
type CreateInput struct {
	Kind            domain.Kind
	Slug            string
	Title           string
	Excerpt         string
	Category        string
	Tags            []string
	PublishedAt     *time.Time
	Status          domain.ContentStatus
	IsListed        *bool
	HeroImage       string
	BodySource      string
	Pillars         []string
	InteractiveHTML string
	InteractiveSlug string
}

// UpdateInput replaces the editable fields of a content item. An empty Slug
// keeps the current one.
type UpdateInput struct {
	ID              string
	Slug            string
	Title           string
	Excerpt         string
	Category        string
	Tags            []string
	PublishedAt     *time.Time
	Status          domain.ContentStatus
	IsListed        *bool
	HeroImage       string
	BodySource      string
	Pillars         []string
	InteractiveHTML string
	InteractiveSlug string
}

type ListContentInput struct {
	Kind   domain.Kind
	Cursor string
	Limit  int
}

type ListContentOutput struct {
	Items   []*domain.ContentItem
	Cursor  string
	HasMore bool
}

// Create validates and stores a new item. The slug is derived from the title
// when absent and suffixed with -2, -3, ... until it is free within the kind.
func (s *ContentService) Create(ctx context.Context, input CreateInput) (*domain.ContentItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContentService.Create", telemetry.SpanAttributes{
		Kind:      string(input.Kind),
		Slug:      input.Slug,
		Operation: "create",
	})
	defer span.End()

	if _, err := domain.ParseKind(string(input.Kind)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrMissingRequiredField.Message, fmt.Errorf("title"))
	}
	if err := checkPillars(input.Pillars); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &domain.ContentItem{
		ID:          s.uuidGen.NewString(),
		Kind:        input.Kind,
		Title:       strings.TrimSpace(input.Title),
		Excerpt:     input.Excerpt,
		Category:    input.Category,
		Tags:        input.Tags,
		PublishedAt: input.PublishedAt,
		Status:      input.Status,
		IsListed:    input.IsListed,
		HeroImage:   input.HeroImage,
		BodySource:  input.BodySource,
		Pillars:     domain.FilterPillars(input.Pillars),
		Interactive: interactiveRef(input.InteractiveHTML, input.InteractiveSlug),
		Source:      domain.SourceRelational,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if item.Status == "" {
		item.Status = domain.ContentStatusDraft
	}
	if item.Status == domain.ContentStatusPublished && item.PublishedAt == nil {
		item.PublishedAt = &now
	}

	base := structure.Slugify(input.Slug)
	if base == "" {
		base = structure.Slugify(item.Title)
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		slug, err := freeSlug(ctx, repos.Content(), item.Kind, base, item.ID)
		if err != nil {
			return err
		}
		item.Slug = slug

		if err := validate(item); err != nil {
			return err
		}
		if err := repos.Content().Create(ctx, item); err != nil {
			return err
		}
		if err := repos.PillarLinks().ReplaceLinks(ctx, item.ID, pillarIDs(item.Pillars)); err != nil {
			return err
		}
		return s.enqueue(ctx, repos, invalidate.PathsFor(item.Kind, "", item.Slug), now)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return item, nil
}

// Update replaces an item's fields. Renaming to a slug held by another item
// of the same kind fails with ErrSlugTaken; both old and new pages are
// marked stale.
func (s *ContentService) Update(ctx context.Context, input UpdateInput) (*domain.ContentItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContentService.Update", telemetry.SpanAttributes{
		ContentID: input.ID,
		Slug:      input.Slug,
		Operation: "update",
	})
	defer span.End()

	if err := checkPillars(input.Pillars); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var item *domain.ContentItem

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		current, err := repos.Content().GetByID(ctx, input.ID)
		if err != nil {
			return err
		}
		oldSlug := current.Slug

		slug := oldSlug
		if input.Slug != "" {
			slug = structure.Slugify(input.Slug)
		}
		if slug != oldSlug {
			taken, err := repos.Content().SlugExists(ctx, current.Kind, slug, current.ID)
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrSlugTaken
			}
		}

		current.Slug = slug
		current.Title = strings.TrimSpace(input.Title)
		current.Excerpt = input.Excerpt
		current.Category = input.Category
		current.Tags = input.Tags
		current.PublishedAt = input.PublishedAt
		current.Status = input.Status
		current.IsListed = input.IsListed
		current.HeroImage = input.HeroImage
		current.BodySource = input.BodySource
		current.Pillars = domain.FilterPillars(input.Pillars)
		current.Interactive = interactiveRef(input.InteractiveHTML, input.InteractiveSlug)
		current.UpdatedAt = now
		if current.Status == domain.ContentStatusPublished && current.PublishedAt == nil {
			current.PublishedAt = &now
		}

		if err := validate(current); err != nil {
			return err
		}
		if err := repos.Content().Update(ctx, current); err != nil {
			return err
		}
		if err := repos.PillarLinks().ReplaceLinks(ctx, current.ID, pillarIDs(current.Pillars)); err != nil {
			return err
		}
		item = current
		return s.enqueue(ctx, repos, invalidate.PathsFor(current.Kind, oldSlug, current.Slug), now)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return item, nil
}

// SetVisibility changes status and the listing flag without touching content.
func (s *ContentService) SetVisibility(ctx context.Context, id string, status domain.ContentStatus, isListed *bool) (*domain.ContentItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContentService.SetVisibility", telemetry.SpanAttributes{
		ContentID: id,
		Operation: "visibility",
	})
	defer span.End()

	if !domain.IsValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	now := time.Now().UTC()
	var item *domain.ContentItem

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		current, err := repos.Content().GetByID(ctx, id)
		if err != nil {
			return err
		}
		current.Status = status
		current.IsListed = isListed
		current.UpdatedAt = now
		if status == domain.ContentStatusPublished && current.PublishedAt == nil {
			current.PublishedAt = &now
		}
		if err := repos.Content().Update(ctx, current); err != nil {
			return err
		}
		item = current
		return s.enqueue(ctx, repos, invalidate.PathsFor(current.Kind, "", current.Slug), now)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	pillars, err := s.pillars.ResolveTags(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Pillars = pillars
	return item, nil
}

// Get returns an item by id for editing, whatever its visibility.
func (s *ContentService) Get(ctx context.Context, id string) (*domain.ContentItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContentService.Get", telemetry.SpanAttributes{
		ContentID: id,
		Operation: "get",
	})
	defer span.End()

	item, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pillars, err := s.pillars.ResolveTags(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Pillars = pillars
	item.Source = domain.SourceRelational
	return item, nil
}

// List pages through every item of a kind, most recently updated first.
func (s *ContentService) List(ctx context.Context, input ListContentInput) (*ListContentOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContentService.List", telemetry.SpanAttributes{
		Kind:      string(input.Kind),
		Operation: "list",
	})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	limit := pagination.ClampLimit(input.Limit)

	result, err := s.contentRepo.ListByKindWithCursor(ctx, input.Kind, cursor, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Items))
	for _, it := range result.Items {
		ids = append(ids, it.ID)
	}
	index, err := s.pillars.Index(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range result.Items {
		it.Pillars = index.Pillars(it.ID)
		it.Source = domain.SourceRelational
	}

	return &ListContentOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

func (s *ContentService) enqueue(ctx context.Context, repos TxRepositories, paths []string, now time.Time) error {
	job := domain.NewInvalidationJob(s.uuidGen.NewString(), paths, now)
	return repos.InvalidationJobs().Create(ctx, job)
}

// freeSlug returns base, or base-2, base-3, ... whichever is first unused.
func freeSlug(ctx context.Context, repo ContentRepositoryInterface, kind domain.Kind, base, excludeID string) (string, error) {
	if base == "" {
		return "", domain.ErrInvalidSlug
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		taken, err := repo.SlugExists(ctx, kind, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.ErrSlugTaken
}

func validate(item *domain.ContentItem) error {
	if err := domain.ValidateContentItem(item); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid content item", err)
	}
	return nil
}

func checkPillars(slugs []string) error {
	for _, p := range slugs {
		if !domain.IsKnownPillar(p) {
			return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrUnknownPillar.Message, fmt.Errorf("%q", p))
		}
	}
	return nil
}

func pillarIDs(slugs []string) []string {
	ids := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if p, ok := domain.PillarBySlug(s); ok {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func interactiveRef(html, slug string) *domain.InteractiveRef {
	if html == "" && slug == "" {
		return nil
	}
	return &domain.InteractiveRef{HTML: html, Slug: slug}
}
