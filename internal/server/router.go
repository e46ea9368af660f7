package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/pillarpress/internal/api"
	"github.com/cloo-solutions/pillarpress/internal/api/handlers"
	"github.com/cloo-solutions/pillarpress/internal/api/middleware"
	"github.com/cloo-solutions/pillarpress/internal/domain"
)

type RouterConfig struct {
	ContentHandler *handlers.ContentHandler
	// AdminHandler and TokenValidator are both required for the editing
	// routes to be mounted.
	AdminHandler   *handlers.AdminHandler
	TokenValidator middleware.TokenValidator
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	for _, kind := range domain.Kinds {
		r.Route(kind.BasePath(), func(r chi.Router) {
			r.Get("/", cfg.ContentHandler.List(kind))
			r.Get("/{slug}", cfg.ContentHandler.Resolve(kind))
		})
	}

	if cfg.AdminHandler != nil && cfg.TokenValidator != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(cfg.TokenValidator))

			r.Route("/admin/{kind}", func(r chi.Router) {
				r.Post("/", cfg.AdminHandler.Create)
				r.Get("/", cfg.AdminHandler.List)
				r.Get("/{ref}", cfg.AdminHandler.Get)
				r.Put("/{ref}", cfg.AdminHandler.Update)
				r.Post("/{ref}/visibility", cfg.AdminHandler.SetVisibility)
			})
		})
	}

	return r
}
