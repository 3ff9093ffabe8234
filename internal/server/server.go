package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"foodgram/internal/config"
	"foodgram/internal/handlers"
	applog "foodgram/internal/log"
	"foodgram/internal/media"
)

const (
	defaultSessionLifetime   = 12 * time.Hour
	defaultSessionCookie     = "foodgram_session"
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr              string
	PublicURL         string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Session           config.SessionConfig
	HTTP              config.HTTPConfig
	API               config.APIConfig
	Database          *gorm.DB
	Media             media.Storage
	// MediaRoot is served under /media/ when uploads are kept on local disk.
	MediaRoot     string
	MaxImageBytes int64
}

// Server wraps an http.Server configured with the API routes.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"sessionLifetime", cfg.Session.Lifetime.String(),
		"sessionCookie", cfg.Session.CookieName,
	)

	handlers.Configure(handlers.Dependencies{
		Sessions:      newSessionManager(cfg.Session),
		Database:      cfg.Database,
		Media:         cfg.Media,
		PublicURL:     cfg.PublicURL,
		PageSize:      cfg.API.PageSize,
		MaxPageSize:   cfg.API.MaxPageSize,
		MaxImageBytes: cfg.MaxImageBytes,
	})
	applog.Debug(context.Background(), "handler dependencies configured")

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = defaultReadHeaderTimeout
	}

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(cfg),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

func newSessionManager(cfg config.SessionConfig) *scs.SessionManager {
	if cfg.Lifetime <= 0 {
		applog.Debug(context.Background(), "session lifetime not provided, using default")
		cfg.Lifetime = defaultSessionLifetime
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		applog.Debug(context.Background(), "session cookie name not provided, using default")
		cfg.CookieName = defaultSessionCookie
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Lifetime
	sessionManager.Cookie.Name = cfg.CookieName
	sessionManager.Cookie.Domain = cfg.CookieDomain
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.CookieSecure

	applog.Debug(context.Background(), "session manager configured",
		"cookieName", cfg.CookieName,
		"cookieDomain", cfg.CookieDomain,
		"cookieSecure", cfg.CookieSecure,
	)
	return sessionManager
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Info(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server, waiting at most the configured
// shutdown timeout for in-flight requests.
func (s *Server) Stop() error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
