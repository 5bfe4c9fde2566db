package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"modguard/internal/analytics"
	"modguard/internal/audit"
	"modguard/internal/bot"
	"modguard/internal/config"
	"modguard/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	auditLogger := audit.NewLogger(store, logger)
	analyticsService := analytics.New(store)

	botSvc, err := bot.New(cfg, logger, store, auditLogger, analyticsService)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go runJanitor(janitorCtx, cfg, store, logger)

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	stopJanitor()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}

// runJanitor prunes expired message events and aged violation and audit
// rows on a fixed interval.
func runJanitor(ctx context.Context, cfg config.Config, store *storage.Store, logger *zap.Logger) {
	interval := time.Duration(cfg.Janitor.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	eventRetention := time.Duration(cfg.Janitor.MessageEventHours) * time.Hour
	if eventRetention <= 0 {
		eventRetention = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.PruneMessageEvents(ctx, eventRetention); err != nil {
				logger.Warn("message event prune failed", zap.Error(err))
			}
			if err := store.CleanupViolations(ctx, cfg.RetentionDays); err != nil {
				logger.Warn("violation cleanup failed", zap.Error(err))
			}
			if err := store.CleanupAuditLogs(ctx, cfg.RetentionDays); err != nil {
				logger.Warn("audit log cleanup failed", zap.Error(err))
			}
		}
	}
}
