package driving

import (
	"context"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// KnowledgeService manages the store of reference examples and feedback.
type KnowledgeService interface {
	// IndexExample embeds and stores a curated document.
	IndexExample(ctx context.Context, id, content string, metadata map[string]string) error

	// AddExample stores an input/expected-output pair tagged with the client name.
	// An empty id is replaced with a generated one, which is returned.
	AddExample(ctx context.Context, id, input, expected, client string) (string, error)

	// IndexFeedback stores feedback about a record and returns the new document ID.
	IndexFeedback(ctx context.Context, recordJSON, feedbackText string) (string, error)

	// IndexReviewFeedback stores feedback about a scope and framework pair
	// and returns the new document ID.
	IndexReviewFeedback(ctx context.Context, scopeJSON, frameworkJSON, feedbackText string) (string, error)

	// FindBestHistoricalMatch returns the nearest stored document, or nil
	// when the store is empty.
	FindBestHistoricalMatch(ctx context.Context, text string) (*domain.MatchResult, error)

	// FindBestExpectedOutput returns the expected output of the nearest
	// stored example. The bool is false when the store is empty.
	FindBestExpectedOutput(ctx context.Context, text string) (string, bool, error)

	// SimilarContext returns the content of up to n nearest documents.
	SimilarContext(ctx context.Context, text string, n int) ([]string, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}
