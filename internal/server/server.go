package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/geocell/internal/cache"
	"github.com/mohammed-shakir/geocell/internal/config"
	"github.com/mohammed-shakir/geocell/internal/health"
	imw "github.com/mohammed-shakir/geocell/internal/middleware"
	"github.com/mohammed-shakir/geocell/internal/router"
	"github.com/mohammed-shakir/geocell/pkg/cover"
	"github.com/mohammed-shakir/geocell/pkg/h3grid"
	"github.com/mohammed-shakir/geocell/pkg/s2grid"
)

// Run starts the query API and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, store cache.Store) error {
	h := router.New(logger, router.Config{
		Grids: map[string]cover.Grid{
			"s2": s2grid.New(),
			"h3": h3grid.New(),
		},
		Store:           store,
		CacheTTL:        cfg.Cache.TTL,
		CacheOpTimeout:  cfg.Cache.OpTimeout,
		DefaultMaxCells: cfg.MaxCells,
	})

	r := chi.NewRouter()
	r.Use(imw.Recover())
	r.Use(imw.Logging(logger))
	r.Use(imw.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(readinessOf(store)))
	if cfg.MetricsEnabled {
		r.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	r.Get("/v1/cover", h.HandleCover)
	r.Get("/v1/range", h.HandleRange)
	r.Get("/v1/encode", h.HandleEncode)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func readinessOf(store cache.Store) health.ReadinessReporter {
	if rr, ok := store.(health.ReadinessReporter); ok {
		return rr
	}
	return alwaysReady{}
}

// alwaysReady covers the no-cache deployment, which has no external
// dependency to probe.
type alwaysReady struct{}

func (alwaysReady) Readiness() (bool, string) { return true, "none" }
