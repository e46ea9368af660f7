package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/pillarpress/internal/domain"
)

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func TestBearerAuth_Success(t *testing.T) {
	mockValidator := new(MockTokenValidator)
	mockValidator.On("ValidateToken", mock.Anything, "tok-123").Return("alice", nil)

	var capturedEditor string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedEditor = GetEditor(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := BearerAuth(mockValidator)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", capturedEditor)
	mockValidator.AssertExpectations(t)
}

func TestBearerAuth_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Basic abc123", "invalid authorization format"},
		{"invalid token", "Bearer nope", "invalid editor token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockValidator := new(MockTokenValidator)
			mockValidator.On("ValidateToken", mock.Anything, "nope").Return("", errors.New("invalid token")).Maybe()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			BearerAuth(mockValidator)(handler).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

func TestStaticTokenValidator(t *testing.T) {
	v := NewStaticTokenValidator("s3cret", "")

	editor, err := v.ValidateToken(context.Background(), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "editor", editor)

	_, err = v.ValidateToken(context.Background(), "s3cre")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// an unset token never authorizes
	_, err = NewStaticTokenValidator("", "x").ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestGetEditor(t *testing.T) {
	assert.Equal(t, "bob", GetEditor(context.WithValue(context.Background(), EditorKey, "bob")))
	assert.Equal(t, "", GetEditor(context.Background()))
}
