package graph

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// ExecutedQuery captures a cypher statement and parameters executed against the graph.
type ExecutedQuery struct {
	Write  bool
	Query  string
	Params map[string]any
}

// ReadHandler answers a read that has no queued result.
type ReadHandler func(cypher string, params map[string]any) (Result, error)

// MemoryClient stands in for Neo4j in tests. It logs every statement and
// answers reads from a FIFO of canned results, then from a handler.
type MemoryClient struct {
	mu           sync.Mutex
	log          []ExecutedQuery
	queued       []Result
	handler      ReadHandler
	err          error
	connectivity error
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent read and write fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	m.connectivity = err
	m.mu.Unlock()
	return m
}

// WithReadHandler installs fn for reads that find no queued result.
func (m *MemoryClient) WithReadHandler(fn ReadHandler) *MemoryClient {
	m.mu.Lock()
	m.handler = fn
	m.mu.Unlock()
	return m
}

// PushReadResult queues res for a later ExecuteRead call.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	m.queued = append(m.queued, res)
	m.mu.Unlock()
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(true, cypher, params); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(false, cypher, params); err != nil {
		return Result{}, err
	}

	switch {
	case len(m.queued) > 0:
		res := m.queued[0]
		m.queued = m.queued[1:]
		return res, nil
	case m.handler != nil:
		return m.handler(cypher, params)
	default:
		return Result{}, nil
	}
}

// record logs the statement unless the client is set to fail. Callers hold mu.
func (m *MemoryClient) record(write bool, cypher string, params map[string]any) error {
	if m.err != nil {
		return m.err
	}
	var copied map[string]any
	if params != nil {
		copied = maps.Clone(params)
	}
	m.log = append(m.log, ExecutedQuery{Write: write, Query: cypher, Params: copied})
	return nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// WriteCalls returns the executed write statements in order.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	return m.calls(true)
}

// ReadCalls returns the executed read statements in order.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	return m.calls(false)
}

func (m *MemoryClient) calls(write bool) []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.DeleteFunc(slices.Clone(m.log), func(q ExecutedQuery) bool {
		return q.Write != write
	})
}
