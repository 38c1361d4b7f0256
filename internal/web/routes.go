package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/imageforge/imageforge/internal/health"
	"github.com/imageforge/imageforge/internal/metrics"
	"github.com/imageforge/imageforge/internal/tracing"
)

type RouterConfig struct {
	AllowedOrigins []string
	ServiceName    string
}

func NewRouter(h *Handlers, checker *health.Checker, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(tracing.HTTPMiddleware(cfg.ServiceName))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})
	r.Use(c.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/process", h.Process)
		r.Get("/status/{id}", h.Status)
		r.Get("/files/{key}", h.ServeFile)
		r.Delete("/files/{id}", h.DeleteFile)
	})

	r.Get("/healthz", checker.Handler())
	r.Handle("/metrics", promhttp.Handler())

	return r
}
