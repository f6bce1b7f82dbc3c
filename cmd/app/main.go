package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"justice-agent-tools/internal/config"
	"justice-agent-tools/internal/domain/ports/repository"
	"justice-agent-tools/internal/infra/adapters/justice"
	"justice-agent-tools/internal/infra/api"
	pg "justice-agent-tools/internal/infra/db/postgres"
	"justice-agent-tools/internal/infra/logging"
	"justice-agent-tools/internal/infra/metrics"
	red "justice-agent-tools/internal/infra/redis"
	"justice-agent-tools/internal/infra/sched"
	"justice-agent-tools/internal/infra/web"
	"justice-agent-tools/internal/infra/worker"
	"justice-agent-tools/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, relaxed guards)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Remote search gateway ----
	gateway, err := justice.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("search gateway")
	}

	// ---- Postgres (optional) ----
	var history repository.ConsultationRepository
	if cfg.Database.URL != "" {
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		history = pg.NewConsultationRepo(pool)
		logger.Info().Msg("consultation history enabled")
	} else {
		logger.Info().Msg("database.url not set, consultation history disabled")
	}

	// ---- Redis rate limiter (optional) ----
	var limiter api.Limiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient, cfg.Server.RatePerMinute, time.Minute)
		logger.Info().Int("per_minute", cfg.Server.RatePerMinute).Msg("rate limiting enabled")
	}

	// ---- Poller and use cases ----
	poller := usecase.NewPoller(usecase.PollConfigFrom(cfg.Polling), logger)
	consultUC := usecase.NewConsultationUseCase(gateway, poller, history, logger)

	// ---- Background completion ----
	pool := worker.NewPool(cfg.Watcher.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()
	watcher := sched.NewCompletionWatcher(gateway, history, pool, cfg.Watcher.Interval, cfg.Watcher.MaxAge, logger)
	go watcher.Start(ctx)

	hybridUC := usecase.NewHybridSearchUseCase(gateway, poller, history, watcher, cfg.Hybrid.Freshness, logger)

	// ---- Agent API ----
	apiSrv := api.NewServer(api.ServerOptions{
		Port:           cfg.Server.Port,
		ServiceKeys:    cfg.Server.ServiceKeys,
		RequestTimeout: cfg.Server.RequestTimeout,
		Limiter:        limiter,
	}, consultUC, hybridUC, gateway, logger)
	go func() {
		if err := apiSrv.Start(); err != nil {
			logger.Error().Err(err).Msg("agent api stopped")
		}
	}()

	// ---- Ops API ----
	auth := web.NewAuthManager(cfg.Ops.AdminSecret, !cfg.Runtime.Dev, "", cfg.Ops.SessionTTL)
	opsSrv := web.NewServer(history, auth, cfg.Ops.AdminSecret, logger)
	opsMux := http.NewServeMux()
	opsSrv.RegisterRoutes(opsMux)
	opsServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Ops.Port), Handler: opsMux}
	go func() {
		logger.Info().Str("addr", opsServer.Addr).Msg("ops api listening")
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("agent api shutdown")
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown")
	}
}
