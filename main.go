package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/baechuer/tutorhub/services/web-bff/internal/api"
	"github.com/baechuer/tutorhub/services/web-bff/internal/config"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
	"github.com/baechuer/tutorhub/services/web-bff/internal/tracing"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
)

var version = "dev"

func main() {
	// 1. Load Config (.env may carry LOG_LEVEL and LOG_FORMAT)
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Init Logger
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to init tracing")
	}

	// 4. Redis (optional, rate limiting only)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zlog.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, rate limiter fails open until it recovers")
		}
		cancel()
	}

	// 5. Sessions
	gwCfg := gateway.ClientConfig{
		ReadTimeout:  cfg.BackendReadTimeout,
		WriteTimeout: cfg.BackendWriteTimeout,
	}
	registry := session.NewRegistry(func() (session.Gateway, error) {
		return gateway.New(cfg.BackendURL, gwCfg)
	}, cfg.SessionIdleTTL)
	go registry.Run(ctx)

	codec := session.NewCookieCodec(cfg.SessionSecret, cfg.SessionCookieName, cfg.CookieSecure, cfg.SessionMaxAge)

	// 6. Router
	router, err := api.NewRouter(api.Deps{Config: cfg, Registry: registry, Codec: codec, Redis: rdb})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to build router")
	}

	// 7. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// checkout waits for two backend writes in sequence
		WriteTimeout: 2*cfg.BackendWriteTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info().Str("port", cfg.Port).Str("backend", cfg.BackendURL).Msg("web-bff starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown error")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("tracer shutdown error")
	}
}
