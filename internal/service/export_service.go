package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/bacondistance/internal/bacon"
	"github.com/vanshika/bacondistance/internal/domain"
	"github.com/vanshika/bacondistance/internal/logging"
	"github.com/vanshika/bacondistance/internal/repository"
)

// GraphRepository is the storage contract required by the export service.
type GraphRepository interface {
	BatchWriter
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error
	ShortestPath(ctx context.Context, from, to string) (domain.ActorPath, error)
	Stats(ctx context.Context) (repository.GraphStats, error)
}

// ExportReport summarises one export run.
type ExportReport struct {
	Actors        int
	CoAppearances int
	Graph         repository.GraphStats
	Duration      time.Duration
}

// VerifyReport compares the in-memory search with the database's shortest path.
type VerifyReport struct {
	From     string
	To       string
	Engine   string
	Database string
	Path     []string
	Match    bool
}

// ExportService copies a dataset's actors graph into the graph database.
type ExportService struct {
	repo     GraphRepository
	ingestor *BulkIngestor
	logger   *slog.Logger
	nowFn    func() time.Time
}

func NewExportService(repo GraphRepository, workers, batchSize int, logger *slog.Logger) *ExportService {
	return &ExportService{
		repo:     repo,
		ingestor: NewBulkIngestor(repo, workers, batchSize),
		logger:   logging.Component(logger, "export"),
		nowFn:    time.Now,
	}
}

// Export writes every actor, then every co-appearance. With reset the
// previously exported graph is removed first.
func (s *ExportService) Export(ctx context.Context, ds *domain.Dataset, reset bool) (ExportReport, error) {
	if ds == nil {
		return ExportReport{}, ErrDatasetNotLoaded
	}
	start := s.nowFn()

	if err := s.repo.EnsureSchema(ctx); err != nil {
		return ExportReport{}, err
	}
	if reset {
		if err := s.repo.Reset(ctx); err != nil {
			return ExportReport{}, err
		}
		s.logger.Info("previous export removed")
	}

	actors := ds.ActorsGraph.Actors()
	if err := s.ingestor.IngestActors(ctx, actors); err != nil {
		return ExportReport{}, fmt.Errorf("export actors: %w", err)
	}
	s.logger.Info("actors exported", "actors", len(actors))

	edges := ds.ActorsGraph.CoAppearances()
	if err := s.ingestor.IngestCoAppearances(ctx, edges); err != nil {
		return ExportReport{}, fmt.Errorf("export co-appearances: %w", err)
	}
	s.logger.Info("co-appearances exported", "co_appearances", len(edges))

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return ExportReport{}, err
	}

	return ExportReport{
		Actors:        len(actors),
		CoAppearances: len(edges),
		Graph:         stats,
		Duration:      s.nowFn().Sub(start),
	}, nil
}

// Verify cross-checks one pair: the bidirectional search over ds against
// shortestPath in the database.
func (s *ExportService) Verify(ctx context.Context, ds *domain.Dataset, from, to string) (VerifyReport, error) {
	if ds == nil {
		return VerifyReport{}, ErrDatasetNotLoaded
	}
	engine := bacon.Format(bacon.Distance(from, to, ds))

	path, err := s.repo.ShortestPath(ctx, from, to)
	if err != nil {
		return VerifyReport{}, err
	}
	database := bacon.Format(path.Hops, path.Found)

	report := VerifyReport{
		From:     from,
		To:       to,
		Engine:   engine,
		Database: database,
		Path:     path.Actors,
		Match:    engine == database,
	}
	if !report.Match {
		s.logger.Warn("distance mismatch", "from", from, "to", to, "engine", engine, "database", database)
	}
	return report, nil
}
