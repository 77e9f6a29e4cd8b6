package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/media-catalog/internal/config"
	"github.com/iliyamo/media-catalog/internal/database"
	"github.com/iliyamo/media-catalog/internal/handler"
	"github.com/iliyamo/media-catalog/internal/logging"
	"github.com/iliyamo/media-catalog/internal/middleware"
	"github.com/iliyamo/media-catalog/internal/model"
	"github.com/iliyamo/media-catalog/internal/queue"
	"github.com/iliyamo/media-catalog/internal/repository"
	"github.com/iliyamo/media-catalog/internal/router"
	"github.com/iliyamo/media-catalog/internal/service"
	"github.com/iliyamo/media-catalog/internal/session"
	"github.com/iliyamo/media-catalog/internal/view"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, db, err := database.Open(openCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		cancel()
		logging.Fatal().Err(err).Msg("connect mongodb")
	}
	if err := database.EnsureIndexes(openCtx, db); err != nil {
		cancel()
		logging.Fatal().Err(err).Msg("ensure indexes")
	}
	cancel()

	rdb := config.NewRedisClient(ctx)
	listingCache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	events := service.NewPublisher(cfg.AMQPURL)

	renderer, err := view.New()
	if err != nil {
		logging.Fatal().Err(err).Msg("parse templates")
	}
	sessions := session.NewManager(cfg.SecretKey, cfg.SessionTTL, cfg.IsProd())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.ContextLogger())
	e.Use(middleware.LoadSession(sessions))
	e.Use(middleware.RequestLogger())

	categories := repository.NewCatalogRepo(db, model.CategoryKind)
	shows := repository.NewCatalogRepo(db, model.ShowKind)
	films := repository.NewCatalogRepo(db, model.FilmKind)
	characters := repository.NewCatalogRepo(db, model.CharacterKind)

	cache := listingCache.Middleware()
	router.RegisterRoutes(e)
	router.RegisterPages(e, handler.NewSearchHandler(characters), cache)
	router.RegisterAuth(e, handler.NewAuthHandler(repository.NewUserRepo(db), sessions, cfg.BcryptCost), limiter)

	router.RegisterCatalog(e, handler.NewCatalogHandler(model.CategoryKind, categories, nil, events, listingCache), cache)
	router.RegisterCatalog(e, handler.NewCatalogHandler(model.ShowKind, shows, categories, events, listingCache), cache)
	router.RegisterCatalog(e, handler.NewCatalogHandler(model.FilmKind, films, categories, events, listingCache), cache)
	router.RegisterCatalog(e, handler.NewCatalogHandler(model.CharacterKind, characters, categories, events, listingCache), cache)

	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartCatalogConsumer(ctx, cfg.AMQPURL, cfg.AuditLogDir); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("catalog consumer stopped")
			}
		}()
	}

	go func() {
		logging.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("mongodb disconnect")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
