package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

func main() {
	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := LoadConfig()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Backend).Msg("could not connect to store")
	}
	logger.Info().Str("backend", cfg.Backend).Msg("store connected")

	repo := NewSightingRepository(store)
	handler := NewHandler(repo, logger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      newRouter(handler, logger, cfg.CORSOrigins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server is listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("could not listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server is shutting down")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := store.Close(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("error closing store")
	}

	logger.Info().Msg("server stopped")
}

// openStore connects the backend selected by cfg.
func openStore(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendMongo:
		return ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%w: ping redis (%s): %w", ErrStorage, cfg.RedisAddr, err)
		}
		return NewRedisStore(client), nil
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
