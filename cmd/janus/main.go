package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Janus/adapters/theoddsapi"
	"github.com/XavierBriggs/Janus/internal/cache"
	"github.com/XavierBriggs/Janus/internal/config"
	"github.com/XavierBriggs/Janus/internal/notify"
	"github.com/XavierBriggs/Janus/internal/registry"
	"github.com/XavierBriggs/Janus/internal/scheduler"
	"github.com/XavierBriggs/Janus/internal/server"
	"github.com/XavierBriggs/Janus/internal/store/postgres"
	"github.com/XavierBriggs/Janus/sports/basketball_nba"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	ctx := context.Background()

	// Sport registry
	sportRegistry := registry.NewSportRegistry()
	if err := sportRegistry.Register(basketball_nba.NewModule()); err != nil {
		logger.Error("failed to register NBA module", "error", err)
		os.Exit(1)
	}
	logger.Info("registered sports", "count", sportRegistry.Count())

	// Snapshot store
	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		logger.Error("failed to open Postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping Postgres", "error", err)
		os.Exit(1)
	}

	// The store keeps at least as much history as any sport module asks for
	retention := cfg.Postgres.Retention
	for _, sport := range sportRegistry.GetAll() {
		if r := sport.GetSnapshotRetention(); r > retention {
			retention = r
		}
	}

	store := postgres.NewStore(db, retention)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to Postgres")

	// Change cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	changes := cache.NewChanges(redisClient, cfg.Cache.TTL)

	// Vendor adapter
	adapter := theoddsapi.NewClientWithBaseURL(cfg.OddsAPI.APIKey, cfg.OddsAPI.BaseURL)

	// Optional Telegram alerts
	var notifier scheduler.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Error("failed to create Telegram notifier", "error", err)
			os.Exit(1)
		}
		notifier = tg
		logger.Info("Telegram alerts enabled")
	}

	// Scheduler
	sched := scheduler.NewScheduler(adapter, store, changes, notifier, sportRegistry.GetAll(), logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Query API
	srv := server.New(cfg.Server.Addr, store, changes, logger)
	srv.Start()

	logger.Info("janus started")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	logger.Info("janus stopped")
}
