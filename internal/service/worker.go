package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vanshika/bacondistance/internal/domain"
)

const (
	defaultIngestWorkers   = 4
	defaultIngestBatchSize = 500
)

// BatchError is the failure of one batch sent to the graph database.
type BatchError struct {
	Index int
	Size  int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d items): %v", e.Index, e.Size, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// TaskError accumulates the errors of failed batches.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "multiple errors: " + strings.Join(msgs, "; ")
}

// Unwrap exposes every batch error to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BatchWriter is the part of the graph repository the ingestor writes through.
type BatchWriter interface {
	UpsertActors(ctx context.Context, names []string) error
	UpsertCoAppearances(ctx context.Context, edges []domain.CoAppearance) error
}

// BulkIngestor splits actors and co-appearances into batches and writes
// them from a fixed number of workers. A failed batch does not stop the
// others; cancellation does.
type BulkIngestor struct {
	writer    BatchWriter
	workers   int
	batchSize int
}

func NewBulkIngestor(writer BatchWriter, workers, batchSize int) *BulkIngestor {
	if workers <= 0 {
		workers = defaultIngestWorkers
	}
	if batchSize <= 0 {
		batchSize = defaultIngestBatchSize
	}
	return &BulkIngestor{writer: writer, workers: workers, batchSize: batchSize}
}

func (bi *BulkIngestor) IngestActors(ctx context.Context, names []string) error {
	return writeBatches(ctx, bi.workers, batch(names, bi.batchSize), bi.writer.UpsertActors)
}

// IngestCoAppearances requires the actors they connect to exist already.
func (bi *BulkIngestor) IngestCoAppearances(ctx context.Context, edges []domain.CoAppearance) error {
	return writeBatches(ctx, bi.workers, batch(edges, bi.batchSize), bi.writer.UpsertCoAppearances)
}

func batch[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

type indexed[T any] struct {
	index int
	items []T
}

func writeBatches[T any](ctx context.Context, workers int, batches [][]T, write func(context.Context, []T) error) error {
	if len(batches) == 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed TaskError
	)
	queue := make(chan indexed[T])
	for n, i := min(workers, len(batches)), 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range queue {
				if err := write(ctx, b.items); err != nil {
					mu.Lock()
					failed.Errors = append(failed.Errors, &BatchError{Index: b.index, Size: len(b.items), Err: err})
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for i, items := range batches {
		select {
		case queue <- indexed[T]{index: i, items: items}:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return failed.asError()
}
