package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/logger"
	"catalog-api/internal/server"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedOnStart bool

// catalog-api serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server",
	RunE:  runServe,
}

func gracefulShutdown(apiServer *server.Server, log *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		log.Error("Error closing server resources", zap.Error(err))
	}

	log.Info("Server exiting")
	done <- true
}

// connectRedis returns nil when Redis is disabled or unreachable; the API then
// runs without the product cache and rate limiting
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, continuing without it", zap.String("addr", cfg.Addr()), zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("Connected to redis", zap.String("addr", cfg.Addr()))
	return client
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting catalog API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	ctx := cmd.Context()
	dbService, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))

	if err := database.RunMigrations(dbService.DB(), log); err != nil {
		dbService.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully")

	if seedOnStart {
		if err := runSeed(ctx, cfg, dbService, log); err != nil {
			dbService.Close()
			return err
		}
	}

	srv := server.NewServer(cfg, log, dbService, connectRedis(ctx, cfg.Redis, log))

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Info("Graceful shutdown complete")
	return nil
}
