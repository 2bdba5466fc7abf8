package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/medibot/pkg/vector"
	"github.com/papercomputeco/medibot/pkg/vector/memory"
)

// MockVectorDriver is a test vector driver backed by the in-memory driver.
// Queued errors are returned, one per call, before calls reach the store.
type MockVectorDriver struct {
	store *memory.Driver

	// Results, when non-nil, is returned by Query instead of searching.
	Results []vector.QueryResult

	UpsertErrs []error
	QueryErrs  []error

	// EnsureIndexErr is returned by EnsureIndex when set.
	EnsureIndexErr error

	UpsertCalls      int
	QueryCalls       int
	EnsureIndexCalls int

	mu      sync.Mutex
	batches [][]vector.Entry
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		store: memory.NewDriver(0),
	}
}

func (m *MockVectorDriver) Upsert(ctx context.Context, entries []vector.Entry) error {
	m.mu.Lock()
	m.UpsertCalls++
	if len(m.UpsertErrs) > 0 {
		err := m.UpsertErrs[0]
		m.UpsertErrs = m.UpsertErrs[1:]
		m.mu.Unlock()
		return err
	}
	m.batches = append(m.batches, entries)
	m.mu.Unlock()

	return m.store.Upsert(ctx, entries)
}

func (m *MockVectorDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	m.QueryCalls++
	if len(m.QueryErrs) > 0 {
		err := m.QueryErrs[0]
		m.QueryErrs = m.QueryErrs[1:]
		m.mu.Unlock()
		return nil, err
	}
	results := m.Results
	m.mu.Unlock()

	if results != nil {
		k := vector.TopK(topK)
		if len(results) < k {
			return results, nil
		}
		return results[:k], nil
	}
	return m.store.Query(ctx, embedding, topK)
}

// Entries returns every distinct entry stored so far.
func (m *MockVectorDriver) Entries() []vector.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]int{}
	var out []vector.Entry
	for _, b := range m.batches {
		for _, e := range b {
			if i, ok := seen[e.ID]; ok {
				out[i] = e
				continue
			}
			seen[e.ID] = len(out)
			out = append(out, e)
		}
	}
	return out
}

// Batches returns the number of successful Upsert calls.
func (m *MockVectorDriver) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *MockVectorDriver) EnsureIndex(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureIndexCalls++
	return m.EnsureIndexErr
}

func (m *MockVectorDriver) Close() error {
	return nil
}
