package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
)

// Ensure Evaluator implements the interface.
var _ driving.EvaluationService = (*Evaluator)(nil)

// Evaluator scores generated text against expected text by embedding
// similarity and token overlap.
type Evaluator struct {
	embedding driven.EmbeddingService
	knowledge driving.KnowledgeService
}

// NewEvaluator creates an evaluator. knowledge is only needed for
// EvaluateAgainstReference.
func NewEvaluator(embedding driven.EmbeddingService, knowledge driving.KnowledgeService) *Evaluator {
	return &Evaluator{embedding: embedding, knowledge: knowledge}
}

// Evaluate scores generated against expected.
func (e *Evaluator) Evaluate(ctx context.Context, generated, expected string) (domain.EvaluationResult, error) {
	if e.embedding == nil {
		return domain.EvaluationResult{}, domain.ErrEmbeddingUnavailable
	}

	vecs, err := e.embedding.EmbedBatch(ctx, []string{generated, expected})
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("embed evaluation texts: %w", err)
	}
	if len(vecs) != 2 {
		return domain.EvaluationResult{}, fmt.Errorf("embed evaluation texts: got %d vectors", len(vecs))
	}

	cosine := domain.CosineSimilarity(vecs[0], vecs[1])
	overlap := domain.TokenOverlap(generated, expected)
	return domain.NewEvaluationResult(cosine, overlap), nil
}

// EvaluateAgainstReference scores generated against the expected output of
// the example nearest to input.
func (e *Evaluator) EvaluateAgainstReference(ctx context.Context, input, generated string) (domain.EvaluationResult, bool, error) {
	if e.knowledge == nil {
		return domain.EvaluationResult{}, false, domain.ErrVectorIndexUnavailable
	}

	expected, ok, err := e.knowledge.FindBestExpectedOutput(ctx, input)
	if err != nil || !ok {
		return domain.EvaluationResult{}, false, err
	}

	res, err := e.Evaluate(ctx, generated, expected)
	if err != nil {
		return domain.EvaluationResult{}, false, err
	}
	return res, true, nil
}
