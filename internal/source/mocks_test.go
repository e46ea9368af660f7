package source

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/tags"
)

// MockContentRepository is a mock implementation of ContentRepositoryInterface
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) GetBySlug(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error) {
	args := m.Called(ctx, kind, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockContentRepository) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockContentRepository) ListVisibleByKind(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentItem), args.Error(1)
}

// MockTagResolver is a mock implementation of TagResolverInterface
type MockTagResolver struct {
	mock.Mock
}

func (m *MockTagResolver) ResolveTags(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTagResolver) Index(ctx context.Context, ids []string) (tags.Index, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tags.Index), args.Error(1)
}

// MockSource is a mock implementation of ContentSource
type MockSource struct {
	mock.Mock
	name domain.SourceKind
}

func (m *MockSource) Name() domain.SourceKind { return m.name }

func (m *MockSource) Find(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error) {
	args := m.Called(ctx, kind, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockSource) List(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentItem), args.Error(1)
}

// MockRecorder captures fallback reasons.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) IncResolution(kind, source, outcome string) { m.Called(kind, source, outcome) }
func (m *MockRecorder) IncFallback(reason string)                  { m.Called(reason) }
func (m *MockRecorder) ObserveCompileDuration(time.Duration)       {}
func (m *MockRecorder) IncHighlightFallback()                      {}
func (m *MockRecorder) IncInvalidation(bool)                       {}
