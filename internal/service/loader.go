package service

import (
	"context"
	"fmt"

	"github.com/vanshika/bacondistance/internal/dataset"
	"github.com/vanshika/bacondistance/internal/domain"
	"github.com/vanshika/bacondistance/internal/storage"
)

// Loader fetches the dataset artifact the distance service serves.
type Loader interface {
	Load(ctx context.Context) (*domain.Dataset, error)
	Source() string
}

// FileLoader reads the artifact from a local path.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dataset.LoadFile(l.Path)
}

func (l FileLoader) Source() string {
	return "file://" + l.Path
}

// StoreLoader reads the artifact from an artifact store.
type StoreLoader struct {
	Store storage.Store
	Key   string
}

func (l StoreLoader) Load(ctx context.Context) (*domain.Dataset, error) {
	rc, err := l.Store.Get(ctx, l.Key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := dataset.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", l.Key, err)
	}
	return ds, nil
}

func (l StoreLoader) Source() string {
	return "store://" + l.Key
}
