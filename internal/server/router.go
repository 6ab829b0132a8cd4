package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greg-hahn/cog-council-meetings/internal/api"
	"github.com/greg-hahn/cog-council-meetings/internal/api/handlers"
	"github.com/greg-hahn/cog-council-meetings/internal/api/middleware"
	"github.com/greg-hahn/cog-council-meetings/internal/metrics"
)

type RouterConfig struct {
	MeetingHandler *handlers.MeetingHandler
	AdminHandler   *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(metrics.Middleware)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/{municipality}", func(r chi.Router) {
		r.Route("/meetings", func(r chi.Router) {
			r.Get("/today", cfg.MeetingHandler.Today)
			r.Get("/now-next", cfg.MeetingHandler.NowNext)
			r.Get("/recent", cfg.MeetingHandler.Recent)
			r.Get("/search", cfg.MeetingHandler.Search)
		})

		r.Get("/items/{id}", cfg.MeetingHandler.ItemDetail)

		r.Get("/tags", cfg.MeetingHandler.Tags)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/ingest", cfg.AdminHandler.Ingest)
		r.Post("/discover", cfg.AdminHandler.Discover)
	})

	return r
}
