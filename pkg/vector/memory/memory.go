// Package memory provides an in-process vector driver that scores every
// entry by brute-force cosine similarity. It backs tests and local runs.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/papercomputeco/medibot/pkg/vector"
)

// Driver is a brute-force in-memory vector.Driver.
type Driver struct {
	mu         sync.RWMutex
	dimensions int
	order      []string
	entries    map[string]vector.Entry
}

// NewDriver creates an empty driver. A zero dimensions disables the
// dimension check.
func NewDriver(dimensions int) *Driver {
	return &Driver{
		dimensions: dimensions,
		entries:    make(map[string]vector.Entry),
	}
}

// Upsert stores entries, replacing any with the same ID.
func (d *Driver) Upsert(_ context.Context, entries []vector.Entry) error {
	if err := vector.CheckDimensions(entries, d.dimensions); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range entries {
		if _, ok := d.entries[e.ID]; !ok {
			d.order = append(d.order, e.ID)
		}
		e.Embedding = append([]float32(nil), e.Embedding...)
		d.entries[e.ID] = e
	}
	return nil
}

// Query scores every entry against embedding and returns the topK best.
// Ties keep insertion order.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	results := make([]vector.QueryResult, 0, len(d.order))
	for _, id := range d.order {
		e := d.entries[id]
		results = append(results, vector.QueryResult{Entry: e, Score: Cosine(embedding, e.Embedding)})
	}
	d.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k := vector.TopK(topK); len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored entries.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ vector.Driver = (*Driver)(nil)
