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

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/catalog"
	"github.com/krushee/krushee-backend-go/config"
	"github.com/krushee/krushee-backend-go/database"
	"github.com/krushee/krushee-backend-go/handlers"
	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/logger"
	"github.com/krushee/krushee-backend-go/metrics"
	"github.com/krushee/krushee-backend-go/routes"
	"github.com/krushee/krushee-backend-go/store"
	"github.com/krushee/krushee-backend-go/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLog, err := logger.NewForEnvironment(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zapLog.Sync()

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.NewString()
		zapLog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, zapLog)
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			zapLog.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		zapLog.Fatal("failed to create indexes", zap.Error(err))
	}
	docs := store.NewMongo(db, cfg.MongoTransactions, zapLog)

	var sessions localstore.Opener
	switch cfg.LocalStore {
	case "memory":
		zapLog.Warn("using in-process session store; carts are lost on restart")
		sessions = localstore.NewMemory()
	default:
		rdb, err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zapLog)
		if err != nil {
			zapLog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		sessions = localstore.NewRedis(rdb, "", cfg.SessionTTL, zapLog)
	}

	cache := catalog.NewCache(zapLog)
	if err := cache.Start(ctx, docs); err != nil {
		zapLog.Warn("product cache not started, reading the catalog from the store", zap.Error(err))
	}
	defer cache.Close()

	m := metrics.New()
	h := handlers.New(docs, sessions, cache, m, handlers.Options{
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTTTL,
		RequestTimeout: cfg.RequestTimeout,
	}, zapLog)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.EchoValidator{}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.EchoMiddleware(zapLog))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Session-ID"},
		ExposeHeaders: []string{"X-Session-ID"},
	}))

	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	routes.SetupRoutes(e, h, cfg.JWTSecret)

	go func() {
		zapLog.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
}
