package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/vanshika/bacondistance/internal/domain"
	"github.com/vanshika/bacondistance/internal/repository"
)

type stubRepository struct {
	mu            sync.Mutex
	actors        []string
	edges         []domain.CoAppearance
	actorBatches  int
	edgeBatches   int
	actorErr      error
	schemaCalls   int
	resetCalls    int
	shortestPath  domain.ActorPath
	shortestErr   error
	stats         repository.GraphStats
	failOnBatchOf string
}

func (s *stubRepository) UpsertActors(ctx context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actorErr != nil {
		return s.actorErr
	}
	for _, n := range names {
		if n == s.failOnBatchOf {
			return errors.New("batch containing " + n + " rejected")
		}
	}
	s.actorBatches++
	s.actors = append(s.actors, names...)
	return nil
}

func (s *stubRepository) UpsertCoAppearances(ctx context.Context, edges []domain.CoAppearance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edgeBatches++
	s.edges = append(s.edges, edges...)
	return nil
}

func (s *stubRepository) EnsureSchema(ctx context.Context) error {
	s.schemaCalls++
	return nil
}

func (s *stubRepository) Reset(ctx context.Context) error {
	s.resetCalls++
	return nil
}

func (s *stubRepository) ShortestPath(ctx context.Context, from, to string) (domain.ActorPath, error) {
	if s.shortestErr != nil {
		return domain.ActorPath{}, s.shortestErr
	}
	return s.shortestPath, nil
}

func (s *stubRepository) Stats(ctx context.Context) (repository.GraphStats, error) {
	return s.stats, nil
}

func chainDataset() *domain.Dataset {
	return &domain.Dataset{
		MoviesCasts: map[string][]string{
			"M1": {"A", "B"},
			"M2": {"B", "C"},
			"M3": {"C", "D"},
			"M4": {"E"},
		},
		ActorsGraph: domain.ActorsGraph{
			"A": {"B": 1},
			"B": {"A": 1, "C": 1},
			"C": {"B": 1, "D": 1},
			"D": {"C": 1},
			"E": {},
		},
	}
}

func TestExportService_Export(t *testing.T) {
	repo := &stubRepository{stats: repository.GraphStats{Actors: 5, CoAppearances: 3}}
	svc := NewExportService(repo, 3, 2, nil)

	report, err := svc.Export(context.Background(), chainDataset(), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if report.Actors != 5 || report.CoAppearances != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	if repo.schemaCalls != 1 || repo.resetCalls != 1 {
		t.Fatalf("expected schema and reset once, got %d/%d", repo.schemaCalls, repo.resetCalls)
	}
	if repo.actorBatches != 3 {
		t.Errorf("expected 5 actors in 3 batches of 2, got %d batches", repo.actorBatches)
	}
	if repo.edgeBatches != 2 {
		t.Errorf("expected 3 edges in 2 batches, got %d", repo.edgeBatches)
	}

	sort.Strings(repo.actors)
	want := []string{"A", "B", "C", "D", "E"}
	for i := range want {
		if repo.actors[i] != want[i] {
			t.Fatalf("expected actors %v, got %v", want, repo.actors)
		}
	}
	for _, e := range repo.edges {
		if e.ActorA >= e.ActorB {
			t.Errorf("expected each edge once with ordered endpoints, got %+v", e)
		}
	}
}

func TestExportService_ExportWithoutReset(t *testing.T) {
	repo := &stubRepository{}
	svc := NewExportService(repo, 1, 10, nil)

	if _, err := svc.Export(context.Background(), chainDataset(), false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.resetCalls != 0 {
		t.Fatalf("expected no reset")
	}
}

func TestExportService_ExportStopsOnActorFailure(t *testing.T) {
	repo := &stubRepository{actorErr: errors.New("boom")}
	svc := NewExportService(repo, 2, 2, nil)

	_, err := svc.Export(context.Background(), chainDataset(), false)
	if err == nil {
		t.Fatalf("expected error")
	}
	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %T", err)
	}
	if len(taskErr.Errors) != 3 {
		t.Fatalf("expected one error per batch, got %d", len(taskErr.Errors))
	}
	if repo.edgeBatches != 0 {
		t.Fatalf("expected co-appearances to be skipped after actor failure")
	}
}

func TestExportService_Verify(t *testing.T) {
	repo := &stubRepository{shortestPath: domain.ActorPath{From: "A", To: "D", Actors: []string{"A", "B", "C", "D"}, Hops: 3, Found: true}}
	svc := NewExportService(repo, 1, 10, nil)

	report, err := svc.Verify(context.Background(), chainDataset(), "A", "D")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !report.Match || report.Engine != "3" || report.Database != "3" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestExportService_VerifyMismatch(t *testing.T) {
	repo := &stubRepository{shortestPath: domain.ActorPath{From: "A", To: "E"}}
	svc := NewExportService(repo, 1, 10, nil)

	report, err := svc.Verify(context.Background(), chainDataset(), "A", "E")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !report.Match || report.Engine != "infinity" {
		t.Fatalf("expected both sides infinite, got %+v", report)
	}

	repo.shortestPath = domain.ActorPath{Hops: 1, Found: true}
	report, err = svc.Verify(context.Background(), chainDataset(), "A", "D")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if report.Match {
		t.Fatalf("expected mismatch, got %+v", report)
	}
}

func TestExportService_NilDataset(t *testing.T) {
	svc := NewExportService(&stubRepository{}, 1, 1, nil)
	if _, err := svc.Export(context.Background(), nil, false); !errors.Is(err, ErrDatasetNotLoaded) {
		t.Fatalf("expected ErrDatasetNotLoaded, got %v", err)
	}
}

func TestBulkIngestorAggregatesErrors(t *testing.T) {
	repo := &stubRepository{failOnBatchOf: "C"}
	ingestor := NewBulkIngestor(repo, 2, 2)

	err := ingestor.IngestActors(context.Background(), []string{"A", "B", "C", "D", "E"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var taskErr *TaskError
	if !errors.As(err, &taskErr) || len(taskErr.Errors) != 1 {
		t.Fatalf("expected a single batch failure, got %v", err)
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) || batchErr.Index != 1 || batchErr.Size != 2 {
		t.Fatalf("expected the second batch to be reported, got %v", err)
	}
	if len(repo.actors) != 3 {
		t.Fatalf("expected the other batches to succeed, got %v", repo.actors)
	}
}

func TestBulkIngestorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewBulkIngestor(&stubRepository{}, 2, 1).IngestActors(ctx, []string{"A", "B", "C"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBatch(t *testing.T) {
	got := batch([]int{1, 2, 3, 4, 5}, 2)
	if len(got) != 3 || len(got[2]) != 1 {
		t.Fatalf("unexpected batches %v", got)
	}
	if batch([]int(nil), 3) != nil {
		t.Fatalf("expected no batches for empty input")
	}
}

func TestTaskErrorMessage(t *testing.T) {
	e := &TaskError{Errors: []error{errors.New("a"), errors.New("b")}}
	if e.Error() != "multiple errors: a; b" {
		t.Fatalf("unexpected message %q", e.Error())
	}
	if (&TaskError{}).asError() != nil {
		t.Fatalf("expected nil for an empty TaskError")
	}
}
