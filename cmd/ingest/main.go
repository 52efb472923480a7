package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vanshika/bacondistance/internal/config"
	"github.com/vanshika/bacondistance/internal/dataset"
	"github.com/vanshika/bacondistance/internal/graph"
	"github.com/vanshika/bacondistance/internal/logging"
	"github.com/vanshika/bacondistance/internal/repository"
	"github.com/vanshika/bacondistance/internal/service"
)

var errInvalidPair = errors.New("verify expects two comma separated actor names")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		datasetPath = flag.String("dataset", cfg.Dataset.Path, "Path to the dataset artifact")
		workers     = flag.Int("workers", cfg.Graph.Workers, "Number of concurrent workers for ingestion")
		batchSize   = flag.Int("batch-size", cfg.Graph.BatchSize, "Rows written per transaction")
		reset       = flag.Bool("reset", false, "Remove previously exported actors first")
		verify      = flag.String("verify", "", "Cross-check one pair after export, e.g. \"Kevin Bacon,Tom Hanks\"")
	)
	flag.Parse()

	logger := logging.New(cfg.Logging).With("component", "ingest")

	var pair []string
	if *verify != "" {
		pair, err = parsePair(*verify)
		if err != nil {
			logger.Error("invalid -verify", "error", err)
			os.Exit(2)
		}
	}

	ds, err := dataset.LoadFile(*datasetPath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "path", *datasetPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	exporter := service.NewExportService(repository.New(graphClient), *workers, *batchSize, logger)

	logger.Info("exporting dataset", "path", *datasetPath, "workers", *workers, "batch_size", *batchSize, "reset", *reset)
	report, err := exporter.Export(ctx, ds, *reset)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("export complete",
		"duration", report.Duration.String(),
		"actors", report.Actors,
		"co_appearances", report.CoAppearances,
		"graph_actors", report.Graph.Actors,
		"graph_co_appearances", report.Graph.CoAppearances,
	)

	if pair == nil {
		return
	}
	check, err := exporter.Verify(ctx, ds, pair[0], pair[1])
	if err != nil {
		logger.Error("verification failed", "error", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "%s -> %s: engine=%s database=%s path=%s\n",
		check.From, check.To, check.Engine, check.Database, strings.Join(check.Path, " -> "))
	if !check.Match {
		os.Exit(3)
	}
}

func parsePair(value string) ([]string, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return nil, errInvalidPair
	}
	from, to := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if from == "" || to == "" {
		return nil, errInvalidPair
	}
	return []string{from, to}, nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}
	client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
