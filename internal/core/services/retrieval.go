package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// RetrievalEngine embeds text and queries the vector index.
// Both services are optional; without them every method reports
// domain.ErrEmbeddingUnavailable or domain.ErrVectorIndexUnavailable.
type RetrievalEngine struct {
	embedding driven.EmbeddingService
	index     driven.VectorIndex
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(embedding driven.EmbeddingService, index driven.VectorIndex) *RetrievalEngine {
	return &RetrievalEngine{embedding: embedding, index: index}
}

// Enabled reports whether both embedding and index are configured.
func (r *RetrievalEngine) Enabled() bool {
	return r.embedding != nil && r.index != nil
}

// SimilarContext returns the content of up to n nearest documents, nearest
// first. An empty store yields an empty list.
func (r *RetrievalEngine) SimilarContext(ctx context.Context, text string, n int) ([]string, error) {
	matches, err := r.search(ctx, text, n)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Content)
	}
	return out, nil
}

// BestMatch returns the single nearest document, or nil when the store is empty.
func (r *RetrievalEngine) BestMatch(ctx context.Context, text string) (*domain.MatchResult, error) {
	matches, err := r.search(ctx, text, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// IndexDocument embeds content and appends it to the index.
func (r *RetrievalEngine) IndexDocument(ctx context.Context, id, content string, metadata map[string]string) error {
	if id == "" {
		return fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}
	if err := r.check(); err != nil {
		return err
	}

	vec, err := r.embedding.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", id, err)
	}

	doc := domain.ReferenceDocument{ID: id, Content: content, Metadata: metadata}
	if err := r.index.Add(ctx, doc, vec); err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	logger.Debug("indexed %s (%d chars)", id, len(content))
	return nil
}

// Count returns the number of indexed documents.
func (r *RetrievalEngine) Count(ctx context.Context) (int, error) {
	if r.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}
	return r.index.Count(ctx)
}

func (r *RetrievalEngine) search(ctx context.Context, text string, k int) ([]domain.MatchResult, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.MatchResult{}, nil
	}

	vec, err := r.embedding.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.index.Search(ctx, vec, k)
}

func (r *RetrievalEngine) check() error {
	if r.embedding == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if r.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	return nil
}
