package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/pillarpress/internal/api/handlers"
	"github.com/cloo-solutions/pillarpress/internal/api/middleware"
	"github.com/cloo-solutions/pillarpress/internal/components"
	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/pipeline"
	"github.com/cloo-solutions/pillarpress/internal/service"
)

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, domain.Kind, string) (*pipeline.CompiledDocument, bool, error) {
	return nil, false, nil
}

func (stubResolver) ListAll(_ context.Context, kind domain.Kind) ([]pipeline.Meta, error) {
	return []pipeline.Meta{{Kind: kind, Slug: "only"}}, nil
}

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) Create(ctx context.Context, input service.CreateInput) (*domain.ContentItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockContentService) Update(ctx context.Context, input service.UpdateInput) (*domain.ContentItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockContentService) SetVisibility(ctx context.Context, id string, status domain.ContentStatus, isListed *bool) (*domain.ContentItem, error) {
	args := m.Called(ctx, id, status, isListed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockContentService) Get(ctx context.Context, id string) (*domain.ContentItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockContentService) List(ctx context.Context, input service.ListContentInput) (*service.ListContentOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListContentOutput), args.Error(1)
}

type stubLookup struct{}

func (stubLookup) FindForEdit(context.Context, domain.Kind, string) (*domain.ContentItem, error) {
	return nil, domain.ErrContentNotFound
}

func setupTestRouter(withAdmin bool) (http.Handler, *MockContentService) {
	mockSvc := new(MockContentService)
	cfg := RouterConfig{
		ContentHandler: handlers.NewContentHandler(stubResolver{}, components.Default()),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}
	if withAdmin {
		cfg.AdminHandler = handlers.NewAdminHandler(mockSvc, stubLookup{})
		cfg.TokenValidator = middleware.NewStaticTokenValidator("secret", "alice")
	}
	return NewRouter(cfg), mockSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestRouter_PublicRoutesPerKind(t *testing.T) {
	router, _ := setupTestRouter(false)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/content", http.StatusOK},
		{"/resources", http.StatusOK},
		{"/courses", http.StatusOK},
		{"/content/missing", http.StatusNotFound},
		{"/courses/missing", http.StatusNotFound},
		{"/podcasts", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_AdminRoutes_RequireAuth(t *testing.T) {
	router, _ := setupTestRouter(true)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"create", http.MethodPost, "/admin/articles/"},
		{"list", http.MethodGet, "/admin/articles/"},
		{"get", http.MethodGet, "/admin/articles/deep-work"},
		{"update", http.MethodPut, "/admin/articles/5b0c3a8e-2f43-4c1a-9d55-6f2c1d1e7a10"},
		{"visibility", http.MethodPost, "/admin/articles/5b0c3a8e-2f43-4c1a-9d55-6f2c1d1e7a10/visibility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_AdminRoutes_WithValidToken(t *testing.T) {
	router, mockSvc := setupTestRouter(true)

	mockSvc.On("List", mock.Anything, service.ListContentInput{Kind: domain.KindResource}).
		Return(&service.ListContentOutput{Items: []*domain.ContentItem{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/resources/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestRouter_AdminRoutes_AbsentWithoutEditing(t *testing.T) {
	router, _ := setupTestRouter(false)

	req := httptest.NewRequest(http.MethodGet, "/admin/articles/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
