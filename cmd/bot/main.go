package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"game-hunter/internal/aggregate"
	"game-hunter/internal/bot"
	"game-hunter/internal/chart"
	"game-hunter/internal/config"
	"game-hunter/internal/database"
	"game-hunter/internal/search"
	"game-hunter/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if cfg.BotToken == "" {
		panic("BOT_TOKEN is required")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New(db)
	prices := aggregate.NewPriceAggregator(st, logger,
		time.Duration(cfg.VendorFetchTimeoutSec)*time.Second, cfg.VendorFetchParallel)
	history := aggregate.NewHistoryAggregator(st)

	index := search.NewIndex(func(ctx context.Context) ([]search.Entry, error) {
		games, err := st.Titles(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]search.Entry, 0, len(games))
		for _, g := range games {
			entries = append(entries, search.Entry{ID: g.ID, Title: g.Title})
		}
		return entries, nil
	})
	if err := index.Refresh(ctx); err != nil {
		logger.Warn("initial title index refresh failed", zap.Error(err))
	}
	go refreshLoop(ctx, index, time.Duration(cfg.TitleRefreshMin)*time.Minute, logger)

	tg := bot.NewTelegramClient(cfg.BotToken, time.Duration(cfg.BotPollTimeoutSec)*time.Second)
	notifier := bot.NewAdminNotifier(tg, cfg.AdminChatID)
	flow := bot.NewFlow(index, prices, history, notifier, logger)
	renderer := chart.NewRenderer(cfg.ChartBaseURL, time.Duration(cfg.ChartTimeoutSec)*time.Second)
	adapter := bot.NewAdapter(tg, flow, renderer, logger)

	logger.Info("bot starting")
	if err := adapter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", zap.Error(err))
	}
	logger.Info("bot shut down")
}

// refreshLoop keeps the title index roughly current so games added by
// the ingestor become searchable without a /start.
func refreshLoop(ctx context.Context, index *search.Index, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := index.Refresh(ctx); err != nil {
				logger.Warn("title index refresh failed", zap.Error(err))
			}
		}
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
