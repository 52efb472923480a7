package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vanshika/bacondistance/internal/bacon"
	"github.com/vanshika/bacondistance/internal/domain"
	"github.com/vanshika/bacondistance/internal/logging"
	"github.com/vanshika/bacondistance/internal/metrics"
)

// ErrDatasetNotLoaded is returned by queries issued before the first successful load.
var ErrDatasetNotLoaded = errors.New("dataset not loaded")

// DatasetInfo describes the dataset currently being served.
type DatasetInfo struct {
	Stats    domain.Stats
	LoadedAt time.Time
	Source   string
}

type snapshot struct {
	dataset *domain.Dataset
	info    DatasetInfo
}

// DistanceService answers distance queries against an immutable dataset
// snapshot. Reloads build a new snapshot and swap it in atomically, so
// in-flight queries keep the dataset they started with.
type DistanceService struct {
	engine  bacon.Engine
	loader  Loader
	current atomic.Pointer[snapshot]
	reloads singleflight.Group
	metrics *metrics.Collector
	logger  *slog.Logger
	nowFn   func() time.Time
}

// NewDistanceService wires the engine to a loader. metrics may be nil.
func NewDistanceService(engine bacon.Engine, loader Loader, m *metrics.Collector, logger *slog.Logger) *DistanceService {
	return &DistanceService{
		engine:  engine,
		loader:  loader,
		metrics: m,
		logger:  logging.Component(logger, "distance"),
		nowFn:   time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *DistanceService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Reference returns the actor Bacon distances are measured against.
func (s *DistanceService) Reference() string {
	return s.engine.Reference()
}

// Reload fetches the artifact through the loader and swaps it in. Concurrent
// callers share a single load. On failure the previous snapshot stays live.
func (s *DistanceService) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("no dataset loader configured")
	}
	_, err, _ := s.reloads.Do("reload", func() (any, error) {
		start := s.nowFn()
		ds, err := s.loader.Load(ctx)
		if err != nil {
			s.metrics.ObserveReload(err, 0, 0)
			s.logger.Error("dataset reload failed", "source", s.loader.Source(), "error", err)
			return nil, fmt.Errorf("reload dataset: %w", err)
		}
		s.Set(ds, s.loader.Source())
		s.logger.Info("dataset reloaded", "source", s.loader.Source(), "duration", s.nowFn().Sub(start).String())
		return nil, nil
	})
	return err
}

// Set publishes ds as the dataset served from now on.
func (s *DistanceService) Set(ds *domain.Dataset, source string) {
	snap := &snapshot{
		dataset: ds,
		info: DatasetInfo{
			Stats:    ds.Stats(),
			LoadedAt: s.nowFn().UTC(),
			Source:   source,
		},
	}
	s.current.Store(snap)
	s.metrics.ObserveReload(nil, snap.info.Stats.Actors, snap.info.Stats.Movies)
	s.logger.Info("dataset published",
		"source", source,
		"movies", snap.info.Stats.Movies,
		"actors", snap.info.Stats.Actors,
		"edges", snap.info.Stats.Edges,
	)
}

// Ready reports whether a dataset has been loaded.
func (s *DistanceService) Ready() bool {
	return s.current.Load() != nil
}

// Info describes the served dataset.
func (s *DistanceService) Info() (DatasetInfo, error) {
	snap := s.current.Load()
	if snap == nil {
		return DatasetInfo{}, ErrDatasetNotLoaded
	}
	return snap.info, nil
}

// Dataset returns the served dataset, or nil before the first load.
func (s *DistanceService) Dataset() *domain.Dataset {
	if snap := s.current.Load(); snap != nil {
		return snap.dataset
	}
	return nil
}

// BaconDistance renders the distance from actor to the reference actor.
// Unknown actors yield a *bacon.ActorNotFoundError.
func (s *DistanceService) BaconDistance(ctx context.Context, actor string) (string, error) {
	snap := s.current.Load()
	if snap == nil {
		return "", ErrDatasetNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	distance, err := s.engine.DistanceToReference(actor, snap.dataset)
	s.metrics.ObserveQuery("reference", outcome(distance, err), time.Since(start))
	if err != nil {
		return "", err
	}
	s.logger.Debug("bacon distance", "actor", actor, "distance", distance)
	return distance, nil
}

// Distance renders the pairwise distance between two actors. Absent actors
// are at infinite distance, not an error.
func (s *DistanceService) Distance(ctx context.Context, from, to string) (string, error) {
	snap := s.current.Load()
	if snap == nil {
		return "", ErrDatasetNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	distance := bacon.Format(bacon.Distance(from, to, snap.dataset))
	s.metrics.ObserveQuery("pair", outcome(distance, nil), time.Since(start))
	return distance, nil
}

func outcome(distance string, err error) string {
	switch {
	case err != nil:
		return metrics.OutcomeNotFound
	case distance == bacon.Infinity:
		return metrics.OutcomeInfinite
	default:
		return metrics.OutcomeFound
	}
}
