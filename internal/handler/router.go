package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/porton/gate-relay/internal/config"
	"github.com/porton/gate-relay/internal/metrics"
	"github.com/porton/gate-relay/internal/middleware"
)

// RouterDeps carries everything the HTTP surface is built from.
type RouterDeps struct {
	Codes  *CodeHandler
	Logs   *LogHandler
	Open   *OpenHandler
	Events *EventsHandler
	Health *HealthHandler

	Metrics         *metrics.Metrics
	CORS            *middleware.CORSMiddleware
	Admin           *middleware.AdminMiddleware
	OpenRateLimit   *middleware.IPRateLimitMiddleware
	BodyLimit       *middleware.BodyLimitMiddleware
	SecurityHeaders *middleware.SecurityHeadersMiddleware

	StaticDir string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(d.Metrics.Middleware)
	r.Use(d.CORS.Handler)
	r.Use(d.BodyLimit.Handler)

	r.Get("/health", d.Health.ServeHTTP)
	r.Handle("/metrics", d.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

		r.With(d.OpenRateLimit.Handler).Post("/open", d.Open.Open)

		r.Group(func(r chi.Router) {
			r.Use(d.Admin.Handler)
			r.Mount("/codes", d.Codes.Routes())
			r.Get("/logs", d.Logs.List)
			r.Post("/webhook/test", d.Open.TestWebhook)
		})
	})

	// The stream outlives the request timeout.
	r.With(d.Admin.Handler).Get("/logs/stream", d.Events.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(d.SecurityHeaders.Handler)
		r.Get("/", NewPageHandler(d.StaticDir, "index.html").ServeHTTP)
		r.Get("/admin", NewPageHandler(d.StaticDir, "admin.html").ServeHTTP)
		r.NotFound(AssetServer(d.StaticDir).ServeHTTP)
	})

	return r
}
