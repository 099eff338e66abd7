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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/hongminglow/authgate/internal/config"
	"github.com/hongminglow/authgate/internal/logging"
	"github.com/hongminglow/authgate/internal/server"
	"github.com/hongminglow/authgate/internal/storage"
	"github.com/hongminglow/authgate/internal/storage/memory"
	postgres "github.com/hongminglow/authgate/internal/storage/postgres"
	"github.com/hongminglow/authgate/internal/throttle"
)

const (
	appName = "authgate"
	version = "0.1.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Bearer token authentication API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadLocalEnv(envFile)
			return serve()
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(hashPasswordCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	})
	return cmd
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter, closeLimiter, err := openLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv, err := server.New(cfg, store, limiter, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("authgate listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.UserStore, func(), error) {
	if cfg.DatabaseURL != "" {
		store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
		logger.Info("user store ready", "backend", "postgres")
		return store, store.Close, nil
	}

	store, err := memory.LoadFile(cfg.UsersFile)
	if err != nil {
		return nil, nil, fmt.Errorf("init users file: %w", err)
	}
	logger.Info("user store ready", "backend", "file", "path", cfg.UsersFile, "users", store.Len())
	return store, func() {}, nil
}

func openLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) (*throttle.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("login throttling disabled; REDIS_URL not set")
		return nil, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	limiter := throttle.New(client, throttle.Config{
		MaxAttempts: cfg.LoginMaxAttempts,
		Cooldown:    cfg.LoginCooldown,
	})
	return limiter, func() { _ = client.Close() }, nil
}

func loadLocalEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Info("no .env file found; relying on existing environment", "path", path)
	}
}
