package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interntrack/internal/config"
	"interntrack/internal/handlers"
	mw "interntrack/internal/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := build(ctx, cfg, logger, true)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	router := handlers.Router{
		Auth:           handlers.NewAuthHandler(a.store, []byte(cfg.JWTSecret), logger),
		Journals:       handlers.NewJournalHandler(a.journals, logger),
		Progress:       handlers.NewProgressHandler(a.progress, logger),
		Compilation:    handlers.NewCompilationHandler(a.compilation, logger),
		Events:         handlers.NewEventHandler(a.events, logger),
		AI:             handlers.NewAIHandler(a.journals, logger),
		Health:         handlers.NewHealthHandler(a.store, logger),
		AuthMW:         mw.NewAuthMiddleware([]byte(cfg.JWTSecret)),
		AuthLimiter:    mw.NewRateLimiter(a.counter, "auth", cfg.AuthRateLimit, cfg.AuthRateWindow, logger),
		AllowedOrigins: cfg.CORSOrigins,
		Logger:         logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown did not complete", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
