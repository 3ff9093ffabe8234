package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodgram/internal/config"
	"foodgram/internal/handlers"
	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
)

const corsMaxAge = 86400

func newRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	applog.Debug(context.Background(), "registering http routes")

	r.Use(chimiddleware.RequestID)
	r.Use(requestLogContext)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(observe)
	if len(cfg.HTTP.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.HTTP.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         corsMaxAge,
		}))
		applog.Debug(context.Background(), "cors enabled", "origins", cfg.HTTP.CORSOrigins)
	}

	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(cfg.HTTP))
		r.Mount("/api", handlers.API())
		r.Get("/s/{token}", handlers.ResolveShortLink)
		r.Get("/s/{token}/", handlers.ResolveShortLink)
	})
	applog.Debug(context.Background(), "route registered", "path", "/api")

	if cfg.MediaRoot != "" {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaRoot)))
		r.With(chimiddleware.SetHeader("X-Content-Type-Options", "nosniff")).Handle("/media/*", fileServer)
		applog.Debug(context.Background(), "route registered", "path", "/media/", "static", true)
	}
	return r
}

func rateLimit(cfg config.HTTPConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(cfg.RateLimitRequests, window)
}

// requestLogContext copies the chi request id into the logging context so
// every log line of a request carries it.
func requestLogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimiddleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(applog.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// observe records request metrics labelled by the matched route pattern.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.ObserveRequest(route, r.Method, status, elapsed)
		applog.Debug(r.Context(), "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"duration", elapsed.String(),
		)
	})
}
