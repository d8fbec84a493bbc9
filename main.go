package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dialoghub/internal/api"
	"dialoghub/internal/auth"
	"dialoghub/internal/config"
	"dialoghub/internal/logging"
	"dialoghub/internal/proxy"
	"dialoghub/internal/redis"
	"dialoghub/internal/service/dialog"
	"dialoghub/internal/service/users"
	"dialoghub/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("DIALOGHUB_CONFIG"))
	if err != nil {
		bootLogger := logging.New(logging.Config{})
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	logger := logging.New(logging.Config{
		Level:  cfg.BasicConfig.LogLevel,
		Format: cfg.BasicConfig.LogFormat,
	})
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	mode := cfg.BasicConfig.Mode
	logger = logger.With().Str("mode", mode).Logger()

	store, err := storage.New(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = store.Ping(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("storage not ready: %w", err)
	}
	logger.Info().Str("storage", cfg.BasicConfig.Storage).Msg("storage ready")

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewRedisClient(cfg.Redis)
		if err != nil {
			return err
		}
		defer cache.Close()
		logger.Info().Str("host", cfg.Redis.Host).Int("port", cfg.Redis.Port).Msg("token cache enabled")
	}

	authService := auth.NewService(store, cache)
	opts := api.Options{
		Mode:  mode,
		Users: users.NewService(store, authService),
		Auth:  authService,
	}
	switch mode {
	case config.ModeMonolith, config.ModeDialog:
		opts.Dialogs = dialog.NewService(store)
	case config.ModeProxy:
		forwarder, err := proxy.New(cfg.BasicConfig.DialogUpstream, nil)
		if err != nil {
			return err
		}
		opts.Forwarder = forwarder
		logger.Info().Str("upstream", forwarder.Target()).Msg("forwarding dialog routes")
	}

	handler, err := api.NewHandler(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           api.NewRouter(logger, handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(cfg.BasicConfig.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
		return nil
	}
	logger.Info().Msg("server stopped")
	return nil
}
