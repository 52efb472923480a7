package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/bacondistance/internal/config"
	"github.com/vanshika/bacondistance/internal/dataset"
	"github.com/vanshika/bacondistance/internal/logging"
	"github.com/vanshika/bacondistance/internal/refresh"
	"github.com/vanshika/bacondistance/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		dataDir = flag.String("data-dir", cfg.Build.DataDir, "Directory the exports are downloaded into")
		build   = flag.Bool("build", false, "Rebuild the dataset artifact when the exports changed")
	)
	flag.Parse()

	logger := logging.New(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Refresh.Timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refresher := refresh.NewFromConfig(cfg.Refresh, *dataDir, logger)

	if !*build {
		updated, err := refresher.Run(ctx)
		if err != nil {
			logger.Error("refresh failed", "error", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "updated=%t\n", updated)
		return
	}

	pipeline := service.NewPipeline(service.PipelineOptions{
		Sources:   dataset.FileSources(cfg.Build.TitleBasics, cfg.Build.TitlePrincipals, cfg.Build.NameBasics),
		Build:     service.BuildOptions(cfg.Build),
		Output:    cfg.Dataset.Path,
		Refresher: refresher,
		Logger:    logger,
	})
	built, err := pipeline.Refresh(ctx)
	if err != nil {
		logger.Error("refresh failed", "error", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "rebuilt=%t\n", built)
}
