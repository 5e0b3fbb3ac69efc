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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/cmd"
	"github.com/beacon-gw/beacon/internal/attemptlog"
	"github.com/beacon-gw/beacon/internal/cli"
	"github.com/beacon-gw/beacon/internal/cache"
	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/internal/config"
	"github.com/beacon-gw/beacon/internal/gateway"
	"github.com/beacon-gw/beacon/internal/health"
	"github.com/beacon-gw/beacon/internal/notify"
	"github.com/beacon-gw/beacon/internal/platform/logger"
	"github.com/beacon-gw/beacon/internal/platform/otel"
	"github.com/beacon-gw/beacon/internal/provider"
	"github.com/beacon-gw/beacon/internal/server"
	"github.com/beacon-gw/beacon/internal/store"
	"github.com/beacon-gw/beacon/internal/store/sqlite"
	"github.com/beacon-gw/beacon/internal/usage"
)

func printBanner() {
	lines := []string{
		` _                                 `,
		`| |__  ___  __ _  ___ ___  _ __    `,
		`| '_ \/ _ \/ _' |/ __/ _ \| '_ \   `,
		`| |_) |  __/ (_| | (_| (_) | | | | `,
		`|_.__/\___|\__,_|\___\___/|_| |_|  `,
	}
	for i, line := range lines {
		progress := float64(i) / float64(len(lines)-1)
		fmt.Println(cli.Gradient(line, cli.BrandTeal, cli.BrandAmber, progress))
	}
	fmt.Printf("%s beacon gateway %s\n\n", cli.Arrow(), cmd.AppVersion)
}

func main() {
	printBanner()
	logger.Initialize(logger.DefaultConfig())
	log := logger.Get()
	defer logger.Sync()

	cmd.CheckForUpdates()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	tracerShutdown, err := otel.InitTracer("beacon-gateway", log, os.Stdout)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
		tracerShutdown = func(context.Context) error { return nil }
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Attempt persistence is optional; the gateway serves without it.
	var repo store.Repository
	var ingestor attemptlog.Ingestor = attemptlog.Nop{}
	repo, err = sqlite.NewSQLiteStorage(cfg.Store.Path)
	if err != nil {
		log.Warn("attempt store unavailable, continuing without persistence", zap.Error(err))
		repo = nil
	} else {
		ingestor = attemptlog.NewIngestor(log, repo)
		ingestor.Start(ctx)
	}

	var cacheStore cache.Store
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, falling back to memory cache", zap.Error(err))
			cacheStore = cache.NewMemory(cfg.Cache.TTL, cfg.Cache.Capacity)
		} else {
			cacheStore = cache.NewRedis(rdb, cfg.Cache.TTL, log)
		}
	} else {
		cacheStore = cache.NewMemory(cfg.Cache.TTL, cfg.Cache.Capacity)
	}

	recorder := usage.NewRecorder(cfg.Usage.Path, cfg.Usage.FlushInterval, log)
	recorder.Start(ctx)

	cat := catalog.FromConfig(cfg.Providers)
	client := provider.NewClient(cfg.Client, log)

	svc := gateway.NewService(gateway.Options{
		Logger:       log,
		Catalog:      cat,
		Routes:       cfg.Routes,
		Cache:        cacheStore,
		Usage:        recorder,
		Health:       health.NewTracker(),
		Caller:       client,
		Prober:       client,
		Attempts:     ingestor,
		Notifier:     notify.NewLogNotifier(log),
		Credentialed: cfg.HasCredentials(),
	})

	srv := server.New(cfg, log, svc, repo)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info("gateway listening",
			zap.String("port", cfg.Server.Port),
			zap.Int("providers", cat.ActiveCount()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	cancel()
	recorder.Stop()
	ingestor.Stop()

	if err := tracerShutdown(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}
	if repo != nil {
		_ = repo.Close()
	}
}
