package driven

import "github.com/custodia-labs/vpm/internal/core/domain"

// AIConfigValidator checks provider settings before they are saved.
// Settings with no provider pass: there is nothing to reach.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
