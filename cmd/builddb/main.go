package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vanshika/bacondistance/internal/config"
	"github.com/vanshika/bacondistance/internal/dataset"
	"github.com/vanshika/bacondistance/internal/logging"
	"github.com/vanshika/bacondistance/internal/service"
	"github.com/vanshika/bacondistance/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		dataDir         = flag.String("data-dir", "", "Directory holding the three .tsv exports (overrides the individual paths)")
		titleBasics     = flag.String("title-basics", cfg.Build.TitleBasics, "Path to title.basics.tsv")
		titlePrincipals = flag.String("title-principals", cfg.Build.TitlePrincipals, "Path to title.principals.tsv")
		nameBasics      = flag.String("name-basics", cfg.Build.NameBasics, "Path to name.basics.tsv")
		output          = flag.String("output", cfg.Dataset.Path, "Where to write the dataset artifact")
		upload          = flag.Bool("upload", false, "Publish the artifact to the configured store")
	)
	flag.Parse()

	logger := logging.New(cfg.Logging).With("component", "builddb")

	if *dataDir != "" {
		*titleBasics = filepath.Join(*dataDir, "title.basics.tsv")
		*titlePrincipals = filepath.Join(*dataDir, "title.principals.tsv")
		*nameBasics = filepath.Join(*dataDir, "name.basics.tsv")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := service.PipelineOptions{
		Sources: dataset.FileSources(*titleBasics, *titlePrincipals, *nameBasics),
		Build:   service.BuildOptions(cfg.Build),
		Output:  *output,
		Logger:  logger,
	}
	if *upload {
		store, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			logger.Error("failed to create artifact store", "error", err)
			os.Exit(1)
		}
		opts.Store = store
	}

	start := time.Now()
	ds, err := service.NewPipeline(opts).Build(ctx)
	if err != nil {
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}

	stats := ds.Stats()
	fmt.Fprintf(os.Stdout, "Built %d movies, %d actors and %d co-appearances into %s in %s\n",
		stats.Movies, stats.Actors, stats.Edges, *output, time.Since(start).Round(time.Millisecond))
}
