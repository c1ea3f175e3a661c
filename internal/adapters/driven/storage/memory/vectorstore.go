package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// Ensure VectorPersistence implements the interface.
var _ driven.VectorPersistence = (*VectorPersistence)(nil)

// VectorPersistence keeps a private copy of persisted entries in process
// memory. State is lost when the process exits.
type VectorPersistence struct {
	mu      sync.RWMutex
	entries []domain.VectorEntry
}

// NewVectorPersistence creates an empty in-memory vector persistence.
func NewVectorPersistence() *VectorPersistence {
	return &VectorPersistence{}
}

// Load returns a copy of the persisted entries.
func (p *VectorPersistence) Load(_ context.Context) ([]domain.VectorEntry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneEntries(p.entries), nil
}

// Persist replaces the stored entries with a copy of entries.
func (p *VectorPersistence) Persist(ctx context.Context, entries []domain.VectorEntry) error {
	if err := ctx.Err(); err != nil {
		return &domain.PersistenceError{Op: "persist", Path: ":memory:", Err: err}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = cloneEntries(entries)
	return nil
}

// Close is a no-op.
func (p *VectorPersistence) Close() error {
	return nil
}

func cloneEntries(entries []domain.VectorEntry) []domain.VectorEntry {
	out := make([]domain.VectorEntry, len(entries))
	for i, e := range entries {
		out[i] = domain.VectorEntry{
			Document: domain.ReferenceDocument{
				ID:       e.Document.ID,
				Content:  e.Document.Content,
				Metadata: maps.Clone(e.Document.Metadata),
			},
			Embedding: slices.Clone(e.Embedding),
		}
	}
	return out
}
