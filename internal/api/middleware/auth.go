package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cloo-solutions/pillarpress/internal/api"
	"github.com/cloo-solutions/pillarpress/internal/domain"
)

type contextKey string

const EditorKey contextKey = "editor"

// editorHeader carries the editor back out to wrapping middleware, which
// only sees the request before auth replaced its context.
const editorHeader = "X-Editor"

// TokenValidator resolves a bearer token to an editor identity.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// StaticTokenValidator accepts a single shared editor token.
type StaticTokenValidator struct {
	token  string
	editor string
}

func NewStaticTokenValidator(token, editor string) *StaticTokenValidator {
	if editor == "" {
		editor = "editor"
	}
	return &StaticTokenValidator{token: token, editor: editor}
}

func (v *StaticTokenValidator) ValidateToken(_ context.Context, token string) (string, error) {
	if v.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.token)) != 1 {
		return "", domain.ErrInvalidToken
	}
	return v.editor, nil
}

func BearerAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(editorHeader)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			editor, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid editor token")
				return
			}

			r.Header.Set(editorHeader, editor)
			ctx := context.WithValue(r.Context(), EditorKey, editor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetEditor(ctx context.Context) string {
	editor, _ := ctx.Value(EditorKey).(string)
	return editor
}

func editorOf(r *http.Request) string {
	if editor := GetEditor(r.Context()); editor != "" {
		return editor
	}
	return r.Header.Get(editorHeader)
}
