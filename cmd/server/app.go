package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"interntrack/internal/ai"
	"interntrack/internal/cache"
	"interntrack/internal/config"
	"interntrack/internal/crypto"
	"interntrack/internal/db"
	mw "interntrack/internal/middleware"
	"interntrack/internal/progress"
	"interntrack/internal/render"
	"interntrack/internal/services"
	"interntrack/internal/store"
	"interntrack/internal/store/memory"
)

const compileLockTTL = 2 * time.Minute

// app holds the wired services shared by the serve and mcp commands.
type app struct {
	store       store.Store
	progress    *progress.Service
	journals    *services.JournalService
	compilation *services.CompilationService
	events      *services.EventService
	counter     mw.Counter

	db    *sqlx.DB
	redis *redis.Client
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger, migrate bool) (*app, error) {
	a := &app{}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		a.store = memory.New()
	default:
		cipher, err := crypto.NewCipherFromBase64(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
		if cipher == nil {
			logger.Warn("ENCRYPTION_KEY not set; journal text is stored unencrypted")
		}
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.RunMigrations(ctx, conn); err != nil {
				conn.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		a.db = conn
		a.store = db.NewStore(conn, cipher)
	}

	var (
		progressCache progress.Cache
		locker        services.Locker = cache.NewLocalLocker()
	)
	a.counter = cache.NewLocalCounter()
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rdb
		progressCache = cache.NewProgressCache(rdb)
		locker = cache.NewRedisLocker(rdb, compileLockTTL, logger)
		a.counter = cache.NewRedisCounter(rdb)
		logger.Info("redis enabled for progress cache, compile lock and rate limits")
	} else if cfg.StoreDriver == config.DriverMemory {
		progressCache = cache.NewLocalProgressCache()
	}

	aiClient := ai.New(ai.Config{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
	})
	if cfg.GroqAPIKey == "" {
		logger.Warn("GROQ_API_KEY not set; AI endpoints will fail")
	}

	a.progress = progress.NewService(a.store, progressCache, logger)
	a.journals = services.NewJournalService(a.store, a.progress, aiClient, logger)
	a.compilation = services.NewCompilationService(a.store, a.progress, render.NewPDF(), locker, logger)
	a.events = services.NewEventService(a.store, a.journals)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
