package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kalpovskii/checklist-ai/internal/app/handlers"
	"github.com/kalpovskii/checklist-ai/internal/app/repositories"
	"github.com/kalpovskii/checklist-ai/internal/app/services"
	"github.com/kalpovskii/checklist-ai/internal/app/suggest"
	"github.com/kalpovskii/checklist-ai/internal/config"
	"github.com/kalpovskii/checklist-ai/internal/kafka"
	"github.com/kalpovskii/checklist-ai/internal/logging"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "api"})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer closeRepo()

	opts := []services.Option{services.WithLogger(logger)}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, cache calls will miss", "addr", cfg.RedisAddr, "error", err)
		}
		opts = append(opts, services.WithCache(repositories.NewRedisTaskRepository(rdb)))
	}

	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic)
		defer producer.Close()
		opts = append(opts, services.WithEvents(producer))
	}

	gateway := suggest.NewGateway(cfg.Suggest(), nil)

	service := services.NewTaskService(repo, gateway, opts...)

	gin.SetMode(gin.ReleaseMode)
	server := handlers.NewServer(service, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", httpServer.Addr, "config", cfg.Redacted())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore picks the task store named by cfg.Store. The returned close
// function is always safe to call.
func openStore(ctx context.Context, cfg *config.Config) (repositories.TaskRepository, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		repo, err := repositories.NewPostgresTaskRepo(ctx, cfg.DBDriver, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.StoreSQLite:
		repo, err := repositories.NewSQLiteTaskRepo(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		return repositories.NewMemoryTaskRepo(), func() {}, nil
	}
}
