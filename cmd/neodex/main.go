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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/neodex/internal/config"
	dbValkey "github.com/kailas-cloud/neodex/internal/db/valkey"
	"github.com/kailas-cloud/neodex/internal/domain/search/filter"
	"github.com/kailas-cloud/neodex/internal/ingest"
	logpkg "github.com/kailas-cloud/neodex/internal/logger"
	"github.com/kailas-cloud/neodex/internal/metrics"
	"github.com/kailas-cloud/neodex/internal/repository/catalog"
	"github.com/kailas-cloud/neodex/internal/repository/resultcache"
	chiTransport "github.com/kailas-cloud/neodex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/neodex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/neodex/internal/usecase/search"
	"github.com/kailas-cloud/neodex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	if err := run(env, cfg, logger); err != nil {
		logger.Error("neodex stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(env string, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting neodex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data", cfg.Data.Path),
		zap.String("comparison", cfg.Search.Comparison),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Register metrics explicitly (no init())
	metrics.Register()

	// Load the dataset; the catalog is read-only from here on.
	cat := catalog.New()
	loader := ingest.NewLoader(ingest.S3Config{
		Endpoint:  cfg.Data.S3.Endpoint,
		AccessKey: cfg.Data.S3.AccessKey,
		SecretKey: cfg.Data.S3.SecretKey,
		UseSSL:    cfg.Data.S3.UseSSL,
		Region:    cfg.Data.S3.Region,
	})
	if _, err := loader.Load(logpkg.ContextWithLogger(ctx, logger), cfg.Data.Path, cat); err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	searchSvc := searchuc.New(cat).WithTimeout(cfg.Search.Timeout())

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled() {
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Warn("Result cache not ready, continuing without it", zap.Error(err))
		} else {
			ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
			searchSvc.WithCache(resultcache.New(store, ttl, metrics.SearchCacheTotal, logger))
			cachePinger = store
			logger.Info("Connected to result cache", zap.Duration("ttl", ttl))
		}
	}

	healthSvc := healthuc.New(cat, cachePinger)

	server := chiTransport.NewServer(
		searchSvc, cat, healthSvc,
		filter.Comparison(cfg.Search.Comparison), cfg.Search.MaxLimit, logger,
	)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:           cfg.Auth.APIKeys,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
