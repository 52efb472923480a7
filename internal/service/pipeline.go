package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vanshika/bacondistance/internal/config"
	"github.com/vanshika/bacondistance/internal/dataset"
	"github.com/vanshika/bacondistance/internal/domain"
	"github.com/vanshika/bacondistance/internal/logging"
	"github.com/vanshika/bacondistance/internal/storage"
)

// Refresher updates the raw IMDb tables on disk.
type Refresher interface {
	Run(ctx context.Context) (bool, error)
}

// Pipeline turns raw tables into a published dataset artifact.
type Pipeline struct {
	sources   dataset.Sources
	options   dataset.Options
	output    string
	refresher Refresher
	store     storage.Store
	logger    *slog.Logger
}

// PipelineOptions configures a Pipeline. Refresher and Store are optional.
type PipelineOptions struct {
	Sources   dataset.Sources
	Build     dataset.Options
	Output    string
	Refresher Refresher
	Store     storage.Store
	Logger    *slog.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := logging.Component(opts.Logger, "pipeline")
	build := opts.Build
	if build.Logger == nil {
		build.Logger = logging.Component(opts.Logger, "builder")
	}
	return &Pipeline{
		sources:   opts.Sources,
		options:   build,
		output:    opts.Output,
		refresher: opts.Refresher,
		store:     opts.Store,
		logger:    logger,
	}
}

// BuildOptions maps the build profile onto builder options.
func BuildOptions(cfg config.BuildConfig) dataset.Options {
	p := cfg.Profiled
	return dataset.Options{
		TitleTypes:     p.TitleTypes,
		RoleCategories: p.RoleCategories,
		Separator:      p.SeparatorRune(),
		Columns: dataset.Columns{
			TitleID:               p.Columns.TitleID,
			TitleType:             p.Columns.TitleType,
			TitleName:             p.Columns.TitleName,
			ParticipationTitleID:  p.Columns.ParticipationTitleID,
			ParticipationPersonID: p.Columns.ParticipationPersonID,
			ParticipationCategory: p.Columns.ParticipationCategory,
			PersonID:              p.Columns.PersonID,
			PersonName:            p.Columns.PersonName,
		},
	}
}

// Build runs the builder, writes the artifact atomically and, when a store
// is configured, uploads it under the artifact's base name.
func (p *Pipeline) Build(ctx context.Context) (*domain.Dataset, error) {
	ds, err := dataset.Build(ctx, p.sources, p.options)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}
	if err := dataset.WriteFile(p.output, ds); err != nil {
		return nil, fmt.Errorf("write dataset: %w", err)
	}
	p.logger.Info("artifact written", "path", p.output)

	if p.store != nil {
		if err := p.Publish(ctx); err != nil {
			return ds, err
		}
	}
	return ds, nil
}

// Publish uploads the artifact at the output path to the store.
func (p *Pipeline) Publish(ctx context.Context) error {
	if p.store == nil {
		return errors.New("no artifact store configured")
	}
	f, err := os.Open(p.output)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := filepath.Base(p.output)
	if err := p.store.Put(ctx, key, f); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	p.logger.Info("artifact published", "key", key)
	return nil
}

// Refresh updates the raw tables and rebuilds the artifact when they changed
// or when no artifact exists yet. It reports whether a new artifact was written.
func (p *Pipeline) Refresh(ctx context.Context) (bool, error) {
	updated := false
	if p.refresher != nil {
		var err error
		updated, err = p.refresher.Run(ctx)
		if err != nil {
			return false, fmt.Errorf("refresh sources: %w", err)
		}
	}

	if _, err := os.Stat(p.output); errors.Is(err, os.ErrNotExist) {
		updated = true
	}
	if !updated {
		p.logger.Info("sources unchanged, keeping artifact", "path", p.output)
		return false, nil
	}

	if _, err := p.Build(ctx); err != nil {
		return false, err
	}
	return true, nil
}
