package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/klass-lk/reviewpress/internal/cache"
	"github.com/klass-lk/reviewpress/internal/config"
	"github.com/klass-lk/reviewpress/internal/controller"
	"github.com/klass-lk/reviewpress/internal/middleware"
	"github.com/klass-lk/reviewpress/internal/repository"
	"github.com/klass-lk/reviewpress/internal/server"
	"github.com/klass-lk/reviewpress/internal/service"
	"github.com/klass-lk/reviewpress/internal/telemetry"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("reviewpress stopped")
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.Server.LogLevel).Warn("unknown log level, keeping info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdownTracing, err := telemetry.Setup(ctx, cfg.Trace)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.WithError(err).Warn("trace flush failed")
		}
	}()

	db, err := repository.MongoConfigFrom(cfg.Mongo).Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(disconnectCtx)
	}()

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.WithError(err).Warn("could not ensure indexes")
	}

	posts := repository.NewPostRepository(db)
	users := repository.NewUserRepository(db)

	submissions := service.NewSubmissionService(posts, users, logger)
	feed := service.NewFeedService(posts, logger)

	feedCache, err := cache.New(ctx, cfg.Cache, db, logger)
	if err != nil {
		return err
	}

	postController := controller.NewPostController(submissions, feed).
		WithCache(feedCache, cfg.Cache.TTL, logger)
	if cfg.Auth.JWTSecret != "" {
		postController.WithAuth(middleware.BearerIdentity(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("JWT_SECRET is empty, trusting userId from request bodies")
	}

	healthController := controller.NewHealthController(controller.PingFunc(func(ctx context.Context) error {
		return db.Client().Ping(ctx, readpref.Primary())
	}))

	srv := server.New(logger, middleware.RequestLogger(logger))
	if len(cfg.Server.CORSOrigins) > 0 {
		srv.CustomCORS(
			cfg.Server.CORSOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Origin", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
			24*time.Hour,
		)
	} else {
		srv.DefaultCORS()
	}

	srv.RegisterControllers(healthController)
	srv.RegisterGroups(server.RouterGroup{
		Path:        "/api/posts",
		Controllers: []server.Controller{postController},
	})

	if cfg.Server.LambdaRuntime {
		srv.SetRuntime(server.RuntimeLambda)
	}

	logger.WithFields(logrus.Fields{
		"port":   cfg.Server.Port,
		"lambda": cfg.Server.LambdaRuntime,
		"cache":  cfg.Cache.Backend,
	}).Info("starting reviewpress")
	return srv.Start(ctx, cfg.Server.Port)
}
