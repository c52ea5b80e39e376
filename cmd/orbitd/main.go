package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/api"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/config"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/metrics"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/propagation"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
)

func main() {
	boot := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load(boot)
	if err != nil {
		boot.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	store := tle.NewStore()
	archive := tle.NewArchive(cfg.Catalog.ArchiveDir, cfg.Catalog.MaxFiles)
	var fetcher *tle.Fetcher
	if cfg.Catalog.EnableFetch {
		fetcher = tle.NewFetcher(cfg.Catalog.SourceURL, logger, cfg.Catalog.ExtraURLs...)
	}
	loader := tle.NewLoader(store, fetcher, archive, logger)

	// Attempt to load the archived catalog on startup.
	if ds, err := loader.WarmStart(); err != nil {
		logger.Info("no archived catalog, starting without TLE data", "error", err)
	} else {
		metrics.SetCatalogEntries(ds.Len())
	}
	metrics.RegisterCatalogAge(store.AgeSeconds)

	deps := api.Deps{
		Store:   store,
		Catalog: propagation.NewCatalog(store, logger),
	}
	if fetcher != nil {
		deps.Loader = loader
	}
	srv := api.NewServer(cfg, logger, deps)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if fetcher != nil {
		go refreshLoop(ctx, loader, store, cfg.Catalog.MaxAge, logger)
	}

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"catalog_fetch_enabled", cfg.Catalog.EnableFetch,
			"workers", cfg.Workers,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// refreshLoop refetches the catalog whenever the loaded dataset is missing
// or older than maxAge.
func refreshLoop(ctx context.Context, loader *tle.Loader, store *tle.Store, maxAge time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		if age := store.AgeSeconds(); age < 0 || age > maxAge.Seconds() {
			fetchCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			ds, err := loader.Refresh(fetchCtx)
			cancel()
			if err != nil {
				metrics.IncCatalogFetch("error")
				logger.Warn("catalog refresh failed", "error", err)
			} else {
				metrics.IncCatalogFetch("ok")
				metrics.SetCatalogEntries(ds.Len())
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
