package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/vanshika/bacondistance/internal/domain"
)

var validate = validator.New()

// Encode writes ds as indented JSON. Map keys are emitted in sorted order, so
// the same dataset always produces the same bytes.
func Encode(w io.Writer, ds *domain.Dataset) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// Decode reads and validates a dataset artifact.
func Decode(r io.Reader) (*domain.Dataset, error) {
	var ds domain.Dataset
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&ds); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidArtifact, err)
	}
	if err := Validate(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks the structural invariants the distance engine relies on:
// both tables present, the graph symmetric with positive counts and no
// self-loops, and every cast member a node of the graph.
func Validate(ds *domain.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: nil dataset", ErrInvalidArtifact)
	}
	if err := validate.Struct(ds); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	for actor, coActors := range ds.ActorsGraph {
		for coActor, count := range coActors {
			if coActor == actor {
				return fmt.Errorf("%w: actor %q lists itself as co-actor", ErrInvalidArtifact, actor)
			}
			if count < 1 {
				return fmt.Errorf("%w: edge %q -> %q has count %d", ErrInvalidArtifact, actor, coActor, count)
			}
			back, ok := ds.ActorsGraph[coActor]
			if !ok {
				return fmt.Errorf("%w: co-actor %q of %q is not a graph node", ErrInvalidArtifact, coActor, actor)
			}
			if back[actor] != count {
				return fmt.Errorf("%w: edge %q -> %q is not symmetric (%d vs %d)", ErrInvalidArtifact, actor, coActor, count, back[actor])
			}
		}
	}

	for movie, cast := range ds.MoviesCasts {
		if len(cast) == 0 {
			return fmt.Errorf("%w: movie %q has an empty cast", ErrInvalidArtifact, movie)
		}
		for _, actor := range cast {
			if _, ok := ds.ActorsGraph[actor]; !ok {
				return fmt.Errorf("%w: actor %q of movie %q is not a graph node", ErrInvalidArtifact, actor, movie)
			}
		}
	}
	return nil
}

// LoadFile reads a dataset artifact from disk.
func LoadFile(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return ds, nil
}

// WriteFile atomically replaces path with the encoded dataset. Readers, and
// file watchers, only ever observe a complete artifact.
func WriteFile(path string, ds *domain.Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, ds); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
