package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tradeforge/smcbot/internal/api"
	"github.com/tradeforge/smcbot/internal/config"
	"github.com/tradeforge/smcbot/internal/database"
	"github.com/tradeforge/smcbot/internal/logging"
	"github.com/tradeforge/smcbot/internal/marketdata"
	"github.com/tradeforge/smcbot/internal/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	deps := api.Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(&cfg.Database)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()
		deps.DB = db

		store := services.NewTradeStore(db.Pool, logger)
		if err := store.EnsureSchema(context.Background()); err != nil {
			logger.WithError(err).Fatal("failed to migrate schema")
		}
		deps.Store = store
	}

	var provider marketdata.Provider = marketdata.NewClient(cfg.MarketData)
	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedisConnection(cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer redisClient.Close()
		deps.Redis = redisClient
		provider = marketdata.NewCachedProvider(provider, redisClient, cfg.MarketData.CacheTTL, logger)
	}
	deps.Provider = provider

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server exited")
}
