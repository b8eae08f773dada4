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
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/grant-portal/internal/config"
	"github.com/iliyamo/grant-portal/internal/database"
	"github.com/iliyamo/grant-portal/internal/handler"
	"github.com/iliyamo/grant-portal/internal/jobs"
	"github.com/iliyamo/grant-portal/internal/logging"
	"github.com/iliyamo/grant-portal/internal/metrics"
	"github.com/iliyamo/grant-portal/internal/middleware"
	"github.com/iliyamo/grant-portal/internal/queue"
	"github.com/iliyamo/grant-portal/internal/repository"
	"github.com/iliyamo/grant-portal/internal/router"
	"github.com/iliyamo/grant-portal/internal/seed"
	"github.com/iliyamo/grant-portal/internal/service"
	"github.com/iliyamo/grant-portal/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	if cfg.MigrateOnBoot {
		if err := database.Migrate(db.DB); err != nil {
			log.WithError(err).Fatal("migrate")
		}
	}

	store := repository.NewStore(db)

	if cfg.SeedOnBoot {
		s, err := seed.New(store, log)
		if err != nil {
			log.WithError(err).Fatal("load seed data")
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if _, err := s.Run(ctx); err != nil {
			log.WithError(err).Error("seed")
		}
		cancel()
	}

	sessionKey, err := utils.DeriveKey(cfg.SessionSecret, "access-token")
	if err != nil {
		log.WithError(err).Fatal("derive session key")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: response cache disabled, rate limiting is per-process")
	} else {
		defer rdb.Close()
	}

	var publisher service.Publisher = service.NopPublisher{}
	if cfg.QueueURL != "" {
		publisher = service.NewAMQPPublisher(cfg.QueueURL, log)
	} else {
		log.Info("RABBITMQ_URL not set: contact events are not published")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.QueueConsumerEnabled {
		consumer := queue.NewContactConsumer(cfg.QueueURL, cfg.ContactLogDir, log)
		go func() {
			if err := consumer.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("contact consumer stopped")
			}
		}()
	}

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.AddGrantCloser(cfg.CloseGrantsCron, store); err != nil {
		log.WithError(err).Fatal("schedule jobs")
	}
	scheduler.Start()

	qualifier := service.NewQualifier(store, service.NewRandomSource(), log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.Middleware())

	router.RegisterRoutes(e, db)

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		log.WithError(err).Fatal("rate limit config")
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		log.WithError(err).Fatal("cache config")
	}

	api := e.Group("/api", middleware.NewTokenBucket(rlCfg, rdb, log))
	cache := middleware.NewRedisCache(cacheCfg, rdb, log)

	router.RegisterAuth(api, &handler.AuthHandler{
		Users: store,
		Verifier: utils.IDTokenVerifier{
			Issuer:       cfg.OIDCIssuer,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
		},
		SigningKey:     sessionKey,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		Log:            log,
	}, sessionKey)
	router.RegisterPublic(api, &handler.PublicHandler{
		Store:     store,
		Qualifier: qualifier,
		Publisher: publisher,
		Log:       log,
	}, cache)
	router.RegisterApplicant(api, &handler.ApplicationHandler{
		Store:     store,
		Qualifier: qualifier,
		Log:       log,
	}, sessionKey)

	origins := cfg.AllowedOrigins()
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !(len(origins) == 1 && origins[0] == "*"),
		MaxAge:           86400,
	}).Handler(e)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "env": cfg.Env}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server")
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown")
	}
}
