// Package app собирает зависимости сервиса из конфигурации.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/auth"
	"github.com/Totarae/UTMBuilder/internal/config"
	"github.com/Totarae/UTMBuilder/internal/database"
	"github.com/Totarae/UTMBuilder/internal/handlers"
	"github.com/Totarae/UTMBuilder/internal/metadata"
	"github.com/Totarae/UTMBuilder/internal/repositories"
	"github.com/Totarae/UTMBuilder/internal/router"
	"github.com/Totarae/UTMBuilder/internal/service"
	"github.com/Totarae/UTMBuilder/internal/settings"
	"github.com/Totarae/UTMBuilder/internal/suggest"
)

// App связывает зависимости сервиса.
type App struct {
	DB        *database.DB
	Installer *database.Installer
	Settings  *settings.Service
	Meta      *metadata.Store
	MetaRepo  *repositories.MetaRepository
	Suggest   *suggest.Service
	Links     *service.ShortenerService
	Handler   *handlers.Handler

	cfg     *config.Config
	logger  *zap.Logger
	closers []func()
}

// OpenDB открывает базу в зависимости от режима хранения.
func OpenDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	switch cfg.Mode {
	case config.ModeDatabase:
		return database.NewDB(ctx, cfg.DatabaseDSN, logger)
	case config.ModeFile:
		return database.NewSQLite(ctx, sqliteDSN(cfg.FileStoragePath), logger)
	default:
		return database.NewSQLite(ctx, database.MemoryDSN("utmbuilder"), logger)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "://") || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// New открывает базу, разворачивает схему и связывает сервисы.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := &App{DB: db, Installer: database.NewInstaller(db), cfg: cfg, logger: logger}
	a.closers = append(a.closers, db.Close)

	if err := a.Installer.EnsureInstalled(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to install schema: %w", err)
	}

	a.Settings = settings.NewService(repositories.NewSettingsRepository(db), logger, cfg.MetaEnabledDefault)
	if err := a.Settings.Activate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to activate settings: %w", err)
	}

	metaRepo := repositories.NewMetaRepository(db)
	a.MetaRepo = metaRepo
	a.Suggest = suggest.NewService(metaRepo, a.suggestCache(ctx), logger)
	a.Meta = metadata.NewStore(metaRepo, logger,
		metadata.WithInstaller(a.Installer),
		metadata.WithInvalidator(a.Suggest),
	)
	hooks := metadata.NewHooks(a.Meta, a.Settings, logger)
	a.Links = service.NewShortenerService(repositories.NewURLRepository(db), hooks, logger, cfg.BaseURL)

	secret := cfg.AuthSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("AUTH_SECRET is not set, sessions will not survive a restart")
	}
	a.Handler = handlers.NewHandler(a.Links, a.Meta, a.Suggest, a.Settings, auth.New(secret), logger)
	return a, nil
}

// suggestCache выбирает Redis, если он настроен и доступен, иначе LRU в памяти.
func (a *App) suggestCache(ctx context.Context) suggest.Cache {
	if a.cfg.RedisURL != "" {
		rc, err := suggest.NewRedisCache(ctx, a.cfg.RedisURL, a.cfg.SuggestCacheTTL, a.logger)
		if err == nil {
			a.closers = append(a.closers, func() { _ = rc.Close() })
			return rc
		}
		a.logger.Warn("redis unavailable, falling back to in-memory suggestion cache", zap.Error(err))
	}
	return suggest.NewLRUCache(a.cfg.SuggestCacheSize, a.cfg.SuggestCacheTTL)
}

// Router возвращает HTTP-маршрутизатор сервиса.
func (a *App) Router() *chi.Mux {
	return router.NewRouter(a.Handler, a.logger, a.cfg.AllowedOrigins)
}

// Server возвращает HTTP-сервер на адресе из конфигурации.
func (a *App) Server() *http.Server {
	return &http.Server{Addr: a.cfg.ServerAddress, Handler: a.Router()}
}

// Close освобождает ресурсы в обратном порядке.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
