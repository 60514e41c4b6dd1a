package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mohammed-shakir/geocell/internal/cache"
	"github.com/mohammed-shakir/geocell/internal/cache/lrustore"
	"github.com/mohammed-shakir/geocell/internal/cache/redisstore"
	"github.com/mohammed-shakir/geocell/internal/config"
	"github.com/mohammed-shakir/geocell/internal/logger"
	"github.com/mohammed-shakir/geocell/internal/metrics"
	"github.com/mohammed-shakir/geocell/internal/observability"
	"github.com/mohammed-shakir/geocell/internal/server"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Component: "geocell-server",
	}, os.Stdout)

	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting geocell server",
		"addr", cfg.Addr,
		"version", Version,
		"cache_backend", cfg.Cache.Backend,
		"max_cells", cfg.MaxCells)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store cache.Store
	switch cfg.Cache.Backend {
	case "lru":
		store = lrustore.New(cfg.Cache.LRUSize, cfg.Cache.TTL)
	case "redis":
		s, err := redisstore.New(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			appLog.Error("redis cache setup failed", "addr", cfg.Cache.RedisAddr, "err", err)
			return 1
		}
		store = s
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				appLog.Warn("cache close", "err", err)
			}
		}()
	}

	// Optional dedicated metrics listener with its own registry, for
	// deployments that keep /metrics off the public port.
	if cfg.MetricsEnabled && cfg.MetricsAddr != "" && cfg.MetricsAddr != cfg.Addr {
		p := metrics.Init(metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		})

		mux := http.NewServeMux()
		mux.Handle(cfg.MetricsPath, p.Handler())

		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		go func() {
			log.Printf("metrics: listening on %s%s", cfg.MetricsAddr, cfg.MetricsPath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server exited: %v", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("metrics: shutdown error: %v", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, store); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
