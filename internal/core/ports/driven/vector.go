package driven

import (
	"context"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// VectorIndex stores reference documents with their embeddings and answers
// nearest-neighbour queries by Euclidean distance.
//
// Implementations must keep one embedding per document, reject embeddings
// whose length differs from Dimensions with domain.ErrDimensionMismatch, and
// order results by ascending distance with ties going to the earliest insert.
type VectorIndex interface {
	// Add appends a document and its embedding, persisting before the entry
	// becomes visible to Search. Returns *domain.PersistenceError on write failure.
	Add(ctx context.Context, doc domain.ReferenceDocument, embedding []float32) error

	// Search returns up to k nearest entries. An empty index or k <= 0 gives
	// an empty result.
	Search(ctx context.Context, query []float32, k int) ([]domain.MatchResult, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the fixed embedding size.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorPersistence durably stores the entries of an in-process vector index.
// Entries are kept in insertion order.
type VectorPersistence interface {
	// Load returns all persisted entries in insertion order.
	// A store that has never been written returns an empty slice.
	Load(ctx context.Context) ([]domain.VectorEntry, error)

	// Persist makes entries the durable state. entries always extends the
	// previously persisted slice.
	Persist(ctx context.Context, entries []domain.VectorEntry) error

	// Close releases resources.
	Close() error
}
