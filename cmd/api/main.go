package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resolvewatch/api/internal/app/migrate"
	httpx "github.com/resolvewatch/api/internal/http"
	"github.com/resolvewatch/api/internal/repository/postgres"
	"github.com/resolvewatch/api/internal/service/attribution"
	"github.com/resolvewatch/api/internal/service/correlate"
	"github.com/resolvewatch/api/internal/service/histogram"
	"github.com/resolvewatch/api/internal/service/investigate"
	"github.com/resolvewatch/api/internal/service/tail"
	"github.com/resolvewatch/api/internal/service/whois"
	"github.com/resolvewatch/api/internal/ws"
	"github.com/resolvewatch/api/pkg/config"
	"github.com/resolvewatch/api/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	queryHub := ws.NewHub()

	attributionSvc := attribution.New(repo, log)
	correlateSvc := correlate.New(repo, attributionSvc, log, cfg.SearchURL, cfg.WhoisWebURL)
	provider := whois.NewProvider(cfg.WhoisBaseURL, cfg.WhoisAPIKey, cfg.WhoisTimeout, log)
	whoisSvc := whois.New(repo, provider, log)
	histogramSvc := histogram.New(repo, log)
	investigateSvc := investigate.New(correlateSvc, whoisSvc, histogramSvc, log, cfg.WhoisAPIKey != "")

	tailSvc := tail.New(repo, queryHub, log, cfg.TailPollInterval, cfg.TailBatchLimit)
	go tailSvc.Run(ctx)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, investigateSvc, queryHub, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
