package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a source header lacks an expected column.
	ErrMissingColumn = errors.New("missing expected column")
	// ErrInvalidArtifact marks a dataset artifact that could not be decoded or validated.
	ErrInvalidArtifact = errors.New("invalid dataset artifact")
)

// SourceError reports a failure reading one of the builder's input tables.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read %s source: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
