package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/campus-navigator/internal/config"
	"github.com/iliyamo/campus-navigator/internal/database"
	"github.com/iliyamo/campus-navigator/internal/handler"
	"github.com/iliyamo/campus-navigator/internal/logger"
	"github.com/iliyamo/campus-navigator/internal/middleware"
	"github.com/iliyamo/campus-navigator/internal/queue"
	"github.com/iliyamo/campus-navigator/internal/repository"
	"github.com/iliyamo/campus-navigator/internal/router"
	"github.com/iliyamo/campus-navigator/internal/service"
	"github.com/iliyamo/campus-navigator/internal/web"
)

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "campus-navigator")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		lg.Fatal("database migrate failed", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if _, err := users.EnsureSuperuser(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			lg.Fatal("ensure superuser failed", zap.Error(err))
		}
		lg.Info("superuser ready", zap.String("username", cfg.AdminUsername))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable, response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	evCfg := config.LoadEventsConfig()
	if evCfg.Enabled {
		events = queue.NewPublisher(evCfg.URL, evCfg.Queue, lg)
		consumer := queue.NewConsumer(evCfg.URL, evCfg.Queue, evCfg.LogDir, lg.Named("events"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	campus := service.NewCampus(service.Stores{
		Buildings: repository.NewBuildingRepo(db),
		Rooms:     repository.NewRoomRepo(db),
		Pois:      repository.NewPoiRepo(db),
		Favorites: repository.NewFavoriteRepo(db),
	}, events, lg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Renderer = web.MustRenderer()
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(lg))
	e.Use(echomw.Recover())

	router.Register(e, router.Deps{
		Campus:    handler.NewCampusHandler(campus, lg),
		Auth:      handler.NewAuthHandler(cfg, users, tokens, lg),
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Users:     users,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Log:       lg,
	})

	addr := ":" + cfg.Port
	go func() {
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown failed", zap.Error(err))
	}
}
