package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/acrux-trazabilidad/internal/config"
	"github.com/iliyamo/acrux-trazabilidad/internal/database"
	"github.com/iliyamo/acrux-trazabilidad/internal/handler"
	"github.com/iliyamo/acrux-trazabilidad/internal/logger"
	"github.com/iliyamo/acrux-trazabilidad/internal/middleware"
	"github.com/iliyamo/acrux-trazabilidad/internal/queue"
	"github.com/iliyamo/acrux-trazabilidad/internal/repository"
	"github.com/iliyamo/acrux-trazabilidad/internal/router"
	"github.com/iliyamo/acrux-trazabilidad/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.Logger

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	cancel()

	rdb := config.NewRedisClient()
	var sessions *repository.SessionRepo
	if rdb != nil {
		defer rdb.Close()
		sessions = repository.NewSessionRepo(rdb, cfg.IdleTimeout)
	} else {
		log.Warn("redis unavailable: idle session check, cache and rate limit disabled")
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = service.NewRabbitPublisher(cfg.RabbitURL, log)
	}

	users := repository.NewUserRepo(db)
	catalog := repository.NewCatalogRepo(db)
	recs := repository.NewRecoleccionRepo(db)
	stats := repository.NewStatsRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(log))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}

	router.Register(e, router.Handlers{
		Health:        handler.Health(db),
		Auth:          handler.NewAuthHandler(cfg, users, sessions),
		Catalog:       handler.NewCatalogHandler(catalog),
		Usuarios:      handler.NewUsuarioHandler(users, sessions, cfg.BcryptCost),
		Recolecciones: handler.NewRecoleccionHandler(recs, catalog, users, events, log),
		Stats:         handler.NewStatsHandler(stats, users),
		Reports:       handler.NewReportHandler(stats, recs, catalog, users),
	}, router.Middleware{
		Auth:       middleware.JWTAuth(cfg.JWTSecret, sessions),
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, middleware.ByIdentity),
		LoginLimit: middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), rdb, middleware.ByIP),
		Cache:      middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EventsConsumer {
		go func() {
			if err := queue.NewConsumer(cfg.RabbitURL, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("events consumer stopped")
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithField("env", cfg.Env).Infof("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("bye")
}
