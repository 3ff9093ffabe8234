package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/db/mock"
	applog "foodgram/internal/log"
	"foodgram/internal/media"
	"foodgram/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	openMediaFunc       = media.Open
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	storage, err := openMediaFunc(ctx, cfg.Media)
	if err != nil {
		applog.Error(ctx, "failed to open media storage", "backend", cfg.Media.Backend, "error", err)
		return 1
	}

	srvCfg := server.Config{
		Addr:              cfg.Server.Addr,
		PublicURL:         cfg.Server.PublicURL,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		Session:           cfg.Auth.Session,
		HTTP:              cfg.HTTP,
		API:               cfg.API,
		Database:          database,
		Media:             storage,
		MaxImageBytes:     cfg.Media.MaxImageBytes,
	}
	if cfg.Media.Backend == "" || cfg.Media.Backend == config.MediaBackendLocal {
		srvCfg.MediaRoot = cfg.Media.Root
	}

	srv, err := newServerFunc(srvCfg)
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	shutdown, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-shutdown:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "shutting down http server", "reason", ctx.Err())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server encountered an error", "error", err)
		return 1
	}
	return 0
}

// openDatabase prefers the seeded in-memory database when requested and
// otherwise connects to the configured URL.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock {
		applog.Info(ctx, "using in-memory mock database", "demo_password", mock.DemoPassword)
		return newMockDatabaseFunc(ctx)
	}
	if cfg.URL == "" {
		return nil, errors.New("database url is not configured; set DATABASE_URL or enable the mock database")
	}
	return configureDatabase(cfg)
}
