// Package flat provides an exact nearest-neighbour index that compares the
// query against every stored embedding.
//
// Entries are kept in insertion order in a single slice, so an embedding
// and its document always share one position. Adds are serialised and
// persisted before they become visible; searches run concurrently on a
// snapshot of the slice.
package flat

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force Euclidean index backed by a VectorPersistence.
type Index struct {
	dim   int
	store driven.VectorPersistence

	// addMu serialises Add so the persisted slice is always a prefix
	// extension of the previous one.
	addMu sync.Mutex

	mu      sync.RWMutex
	entries []domain.VectorEntry
}

// New opens an index of the given dimension and loads existing entries
// from store. Loaded entries with a different dimension are rejected.
func New(ctx context.Context, dim int, store driven.VectorPersistence) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d: %w", dim, domain.ErrInvalidInput)
	}
	if store == nil {
		return nil, fmt.Errorf("vector persistence is required: %w", domain.ErrInvalidInput)
	}

	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading vector index: %w", err)
	}
	for i, e := range entries {
		if len(e.Embedding) != dim {
			return nil, fmt.Errorf("stored entry %d has %d dimensions, index expects %d: %w",
				i, len(e.Embedding), dim, domain.ErrDimensionMismatch)
		}
	}

	logger.Debug("flat index loaded %d entries (dim=%d)", len(entries), dim)
	return &Index{dim: dim, store: store, entries: entries}, nil
}

// Add appends doc and its embedding. The new slice is persisted first and
// only published when persistence succeeds.
func (idx *Index) Add(ctx context.Context, doc domain.ReferenceDocument, embedding []float32) error {
	if len(embedding) != idx.dim {
		return fmt.Errorf("embedding has %d dimensions, index expects %d: %w",
			len(embedding), idx.dim, domain.ErrDimensionMismatch)
	}

	idx.addMu.Lock()
	defer idx.addMu.Unlock()

	idx.mu.RLock()
	current := idx.entries
	idx.mu.RUnlock()

	entry := domain.VectorEntry{
		Document: domain.ReferenceDocument{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: maps.Clone(doc.Metadata),
		},
		Embedding: slices.Clone(embedding),
	}

	// Clip so append always copies and never writes into a backing array
	// a concurrent search may be reading.
	next := append(slices.Clip(current), entry)

	if err := idx.store.Persist(ctx, next); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.entries = next
	idx.mu.Unlock()
	return nil
}

type scored struct {
	pos  int
	dist float64
}

// Search returns up to k entries nearest to query.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.MatchResult, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d: %w",
			len(query), idx.dim, domain.ErrDimensionMismatch)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	snapshot := idx.entries
	idx.mu.RUnlock()

	if k <= 0 || len(snapshot) == 0 {
		return []domain.MatchResult{}, nil
	}
	k = min(k, len(snapshot))

	hits := make([]scored, len(snapshot))
	for i, e := range snapshot {
		hits[i] = scored{pos: i, dist: euclidean(query, e.Embedding)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].dist < hits[b].dist
	})

	results := make([]domain.MatchResult, k)
	for i, h := range hits[:k] {
		doc := snapshot[h.pos].Document
		results[i] = domain.MatchResult{
			Distance: h.dist,
			Content:  doc.Content,
			ID:       doc.ID,
			Metadata: maps.Clone(doc.Metadata),
		}
	}
	return results, nil
}

// Count returns the number of entries.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Dimensions returns the embedding size.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Close closes the underlying persistence.
func (idx *Index) Close() error {
	return idx.store.Close()
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
