// cmd/notifier/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"opportune-notifier/internal/api"
	"opportune-notifier/internal/common/config"
	"opportune-notifier/internal/common/database"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/common/observability"
	"opportune-notifier/internal/email"
	"opportune-notifier/internal/notify"
	"opportune-notifier/internal/scheduler"
	"opportune-notifier/internal/store"
)

const sweepLockTTL = 10 * time.Minute

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notifier...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Record store ---
	recordStore, err := buildStore(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("record store initialization failed", zap.Error(err))
	}
	defer recordStore.Close()

	// --- Optional redis sweep lock ---
	var sweepLock *scheduler.SweepLock
	if cfg.Database.Redis.Address != "" {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		sweepLock = scheduler.NewSweepLock(redisClient.Client, "notifier:sweep-lock", sweepLockTTL)
		zapLog.Info("Redis connected, distributed sweep lock enabled")
	}

	// --- Email provider ---
	sender, err := buildSender(ctx, cfg.Email, log)
	if err != nil {
		zapLog.Fatal("email provider initialization failed", zap.Error(err))
	}

	// --- Engine ---
	coordinator := notify.NewCoordinator(
		recordStore, sender, notify.NewPolicy(), obs, log,
		cfg.Notifications.DigestLookaheadDays,
	)
	settings := notify.NewSettingsService(recordStore, log)

	sched := scheduler.New(coordinator, sweepLock, cfg.Notifications, log)
	sched.Start()
	defer sched.Stop()

	// --- HTTP surface ---
	server := api.NewServer(coordinator, settings, log)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("http server shutdown failed", zap.Error(err))
	}
}

// buildStore selects the record store backing from config. PostgreSQL gets
// connection retries and schema setup; the memory store needs neither.
func buildStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (store.Store, error) {
	if cfg.Database.UseMemoryStore() {
		zapLog.Warn("No database configured, records are stored in-process and lost on restart")
		return store.NewMemoryStore(), nil
	}

	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}

	pgStore := store.NewPostgresStore(pg.DB)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	zapLog.Info("PostgreSQL connected successfully")
	return pgStore, nil
}

func buildSender(ctx context.Context, cfg config.EmailConfig, log logger.Logger) (email.Sender, error) {
	if cfg.Provider == "disabled" {
		return email.NewDisabledSender(log), nil
	}

	var (
		templates *email.TemplateSet
		err       error
	)
	if cfg.TemplateRegistry != "" {
		templates, err = email.NewTemplateSetFromRegistry(cfg.TemplateRegistry)
	} else {
		templates, err = email.NewTemplateSet()
	}
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "ses":
		return email.NewSESSender(ctx, cfg.AWS.Region, cfg.FromEmail, cfg.FromName, templates, log)
	case "smtp":
		return email.NewSMTPSender(cfg, templates, log), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}
}
