package driving

import "github.com/custodia-labs/vpm/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	// API keys missing from the config are filled from the environment.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetLLMProvider configures the LLM provider for a tier.
	SetLLMProvider(tier domain.Tier, provider domain.AIProvider, model, apiKey string) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetStoreBackend configures the reference store backend.
	SetStoreBackend(backend domain.StoreBackend, location string) error

	// SetGenerationMode updates the default generation mode.
	SetGenerationMode(mode domain.GenerationMode) error

	// Validate checks if current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates a tier's LLM configuration by pinging the provider.
	ValidateLLMConfig(tier domain.Tier) error
}
