package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vanshika/bacondistance/internal/bacon"
	"github.com/vanshika/bacondistance/internal/config"
	"github.com/vanshika/bacondistance/internal/dataset"
	"github.com/vanshika/bacondistance/internal/logging"
	"github.com/vanshika/bacondistance/internal/metrics"
	"github.com/vanshika/bacondistance/internal/refresh"
	"github.com/vanshika/bacondistance/internal/server"
	"github.com/vanshika/bacondistance/internal/service"
	"github.com/vanshika/bacondistance/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("bacon")

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to create artifact store", "error", err)
		os.Exit(1)
	}

	pipeline := buildPipeline(cfg, store, logger)
	if cfg.Refresh.Enabled {
		if _, err := pipeline.Refresh(ctx); err != nil {
			logger.Error("startup refresh failed", "error", err)
			os.Exit(1)
		}
	} else if cfg.Dataset.Source == "file" && !exists(cfg.Dataset.Path) && exists(cfg.Build.TitleBasics) {
		logger.Info("no dataset artifact, building from local tables", "path", cfg.Dataset.Path)
		if _, err := pipeline.Build(ctx); err != nil {
			logger.Error("startup build failed", "error", err)
			os.Exit(1)
		}
	}

	distance := service.NewDistanceService(
		bacon.NewEngine(cfg.Dataset.ReferenceActor),
		buildLoader(cfg, store),
		collector,
		logger,
	)
	if err := distance.Reload(ctx); err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	if cfg.Dataset.Watch && cfg.Dataset.Source == "file" {
		watcher := service.NewArtifactWatcher(cfg.Dataset.Path, distance.Reload, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("artifact watcher stopped", "error", err)
			}
		}()
	}

	if cfg.Refresh.Enabled && cfg.Refresh.Interval > 0 {
		go refreshLoop(ctx, logger, pipeline, distance, cfg)
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.DatasetHealthService{Dataset: distance},
		API:              server.NewAPIHandlers(logger, distance),
		Metrics:          collector,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
		StaticDir:        cfg.HTTP.StaticDir,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	if err := server.New(logger, cfg.HTTP, router).Run(ctx); err != nil {
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func buildPipeline(cfg config.Config, store storage.Store, logger *slog.Logger) *service.Pipeline {
	opts := service.PipelineOptions{
		Sources: dataset.FileSources(cfg.Build.TitleBasics, cfg.Build.TitlePrincipals, cfg.Build.NameBasics),
		Build:   service.BuildOptions(cfg.Build),
		Output:  cfg.Dataset.Path,
		Logger:  logger,
	}
	if cfg.Refresh.Enabled {
		opts.Refresher = refresh.NewFromConfig(cfg.Refresh, cfg.Build.DataDir, logger)
	}
	if cfg.Dataset.Publish || cfg.Dataset.Source == "store" {
		opts.Store = store
	}
	return service.NewPipeline(opts)
}

func buildLoader(cfg config.Config, store storage.Store) service.Loader {
	if cfg.Dataset.Source == "store" {
		return service.StoreLoader{Store: store, Key: filepath.Base(cfg.Dataset.Path)}
	}
	return service.FileLoader{Path: cfg.Dataset.Path}
}

// refreshLoop periodically refreshes the sources. A rebuilt artifact is
// picked up by the watcher when one runs, and reloaded here otherwise.
func refreshLoop(ctx context.Context, logger *slog.Logger, pipeline *service.Pipeline, distance *service.DistanceService, cfg config.Config) {
	ticker := time.NewTicker(cfg.Refresh.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			built, err := pipeline.Refresh(ctx)
			if err != nil {
				logger.Error("periodic refresh failed", "error", err)
				continue
			}
			if built && !(cfg.Dataset.Watch && cfg.Dataset.Source == "file") {
				if err := distance.Reload(ctx); err != nil {
					logger.Error("reload after refresh failed", "error", err)
				}
			}
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
