package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/guezito-dev/gigachads/internal/widget"
)

// RouterConfig holds the router's dependencies. Runs and the entries of
// Services are optional.
type RouterConfig struct {
	Loader   ArtifactLoader
	Feeds    FeedSource
	Renderer *widget.Renderer
	Runs     RunStore
	Services map[string]HealthChecker

	CORSOrigins []string
	Development bool
	Limits      RateLimits
}

// RouterResult holds the router and resources that need cleanup
type RouterResult struct {
	Router       *chi.Mux
	RateLimiters *RateLimiters
}

// NewRouter creates the HTTP router.
// Caller must call result.RateLimiters.Stop() on shutdown.
func NewRouter(cfg *RouterConfig) *RouterResult {
	r := chi.NewRouter()
	limiters := newRateLimiters(cfg.Limits)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(cfg.CORSOrigins, cfg.Development))
	r.Use(limiters.Global.Middleware)

	r.Get("/api/health", NewHealthHandler(cfg.Services))

	rankings := NewRankingHandler(cfg.Loader, cfg.Runs)
	r.Route("/api/ranking", func(r chi.Router) {
		r.Get("/", rankings.Current)
		if cfg.Runs != nil {
			r.Get("/runs", rankings.ListRuns)
			r.Get("/runs/{id}", rankings.GetRun)
		}
	})

	widgets := NewWidgetHandler(cfg.Loader, cfg.Feeds, cfg.Renderer)
	r.Route("/widgets", func(r chi.Router) {
		r.Get("/table", widgets.Table)
		r.Group(func(r chi.Router) {
			r.Use(limiters.Widgets.Middleware)
			for name, spec := range widget.Feeds {
				r.Get("/"+name, widgets.Feed(spec))
			}
		})
	})

	return &RouterResult{
		Router:       r,
		RateLimiters: limiters,
	}
}
