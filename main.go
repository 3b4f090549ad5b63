package main

import (
	"context"
	"net/http"
	"time"

	"game-hunter/internal/aggregate"
	"game-hunter/internal/api"
	"game-hunter/internal/config"
	"game-hunter/internal/database"
	"game-hunter/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	st := store.New(db)
	prices := aggregate.NewPriceAggregator(st, logger,
		time.Duration(cfg.VendorFetchTimeoutSec)*time.Second, cfg.VendorFetchParallel)
	history := aggregate.NewHistoryAggregator(st)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupRoutes(r.Group("/"), st, prices, history, logger)

	// Warm check so a misconfigured DSN fails loudly at startup
	// instead of on the first request.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := st.ListVendors(ctx); err != nil {
		logger.Warn("vendor registry not reachable yet", zap.Error(err))
	}

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
