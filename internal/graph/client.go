package graph

import (
	"context"
	"errors"
	"time"

	"github.com/vanshika/bacondistance/internal/config"
)

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")

// Client runs Cypher against the database the actors graph is exported to.
// Both Execute methods run in a managed transaction and return every record.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the records of one statement, fully drained.
type Result struct {
	Records []Record
}

// First returns the first record, or nil for an empty result.
func (r Result) First() Record {
	if len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}

// Record maps returned column names to values.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// QueryTimeout bounds each transaction server-side. Zero leaves the
	// server default in place.
	QueryTimeout time.Duration
}

// OptionsFromConfig maps the GRAPH_* settings onto client options.
func OptionsFromConfig(cfg config.GraphConfig) Options {
	return Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
		QueryTimeout:   cfg.QueryTimeout,
	}
}
