package driven

import "context"

// EmbeddingService turns reference documents and queries into vectors.
// It is optional: without it the generation path runs with no reference
// context and the knowledge commands are unavailable.
//
// Every vector an instance returns has Dimensions() entries, and that
// value must equal the VectorIndex dimension it feeds.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one provider round trip where supported.
	// The result is ordered like texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping checks credentials and reachability without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
