package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMPrefix        = "llm."
	keyProvider         = ".provider"
	keyModel            = ".model"
	keyBaseURL          = ".base_url"
	keyAPIKey           = ".api_key"
	keyMaxTokens        = ".max_tokens"
	keyTemperature      = ".temperature"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyStoreBackend     = "store.backend"
	keyStorePath        = "store.path"
	keyStoreDSN         = "store.dsn"
	keyStoreDims        = "store.dimensions"
	keyGenMode          = "generation.mode"
	keyGenDegraded      = "generation.degraded"
	keyGenMaxAttempts   = "generation.max_attempts"
	keyGenBackoffMin    = "generation.backoff_min_seconds"
	keyGenBackoffMax    = "generation.backoff_max_seconds"
	keyGenRetryInterval = "generation.retry_interval_seconds"
	keyGenCallTimeout   = "generation.call_timeout_seconds"
	keyGenRepairMin     = "generation.repair_min_length"
	keyGenContext       = "generation.context_results"
	keyGatewayRPM       = "gateway.requests_per_minute"
	keyStrategies       = "recovery.strategies"
)

// setting is one key/value written by Save.
type setting struct {
	key string
	val any
}

// defaultOllamaURL is used for local providers without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Primary:  s.getLLM(domain.TierPrimary, defaults.Primary),
		Fallback: s.getLLM(domain.TierFallback, defaults.Fallback),
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		Store: domain.StoreSettings{
			Backend:    s.getBackend(defaults.Store.Backend),
			Path:       s.configStore.GetString(keyStorePath),
			DSN:        s.configStore.GetString(keyStoreDSN),
			Dimensions: s.getInt(keyStoreDims, defaults.Store.Dimensions),
		},
		Generation: domain.GenerationSettings{
			Mode:            s.getMode(defaults.Generation.Mode),
			Degraded:        s.getDegraded(defaults.Generation.Degraded),
			MaxAttempts:     s.getInt(keyGenMaxAttempts, defaults.Generation.MaxAttempts),
			BackoffMin:      s.getSeconds(keyGenBackoffMin, defaults.Generation.BackoffMin),
			BackoffMax:      s.getSeconds(keyGenBackoffMax, defaults.Generation.BackoffMax),
			RetryInterval:   s.getSeconds(keyGenRetryInterval, defaults.Generation.RetryInterval),
			CallTimeout:     s.getSeconds(keyGenCallTimeout, defaults.Generation.CallTimeout),
			RepairMinLength: s.getInt(keyGenRepairMin, defaults.Generation.RepairMinLength),
			ContextResults:  s.getInt(keyGenContext, defaults.Generation.ContextResults),
		},
		Gateway: domain.GatewaySettings{
			RequestsPerMinute: s.getIntAllowZero(keyGatewayRPM, defaults.Gateway.RequestsPerMinute),
		},
		Recovery: domain.RecoverySettings{
			Strategies: defaults.Recovery.Strategies,
		},
	}
	if strategies := s.configStore.GetStringSlice(keyStrategies); len(strategies) > 0 {
		settings.Recovery.Strategies = strategies
	}

	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaURL
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envKey(settings.Embedding.Provider)
	}

	return settings, nil
}

// Save persists application settings. API keys that only came from the
// environment are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []setting{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStorePath, settings.Store.Path},
		{keyStoreDSN, settings.Store.DSN},
		{keyStoreDims, settings.Store.Dimensions},
		{keyGenMode, settings.Generation.Mode.String()},
		{keyGenDegraded, schemaNames(settings.Generation.Degraded)},
		{keyGenMaxAttempts, settings.Generation.MaxAttempts},
		{keyGenBackoffMin, int(settings.Generation.BackoffMin / time.Second)},
		{keyGenBackoffMax, int(settings.Generation.BackoffMax / time.Second)},
		{keyGenRetryInterval, int(settings.Generation.RetryInterval / time.Second)},
		{keyGenCallTimeout, int(settings.Generation.CallTimeout / time.Second)},
		{keyGenRepairMin, settings.Generation.RepairMinLength},
		{keyGenContext, settings.Generation.ContextResults},
		{keyGatewayRPM, settings.Gateway.RequestsPerMinute},
		{keyStrategies, settings.Recovery.Strategies},
	}
	for _, tier := range []domain.Tier{domain.TierPrimary, domain.TierFallback} {
		llm := settings.LLM(tier)
		prefix := keyLLMPrefix + tier.String()
		values = append(values,
			setting{prefix + keyProvider, llm.Provider.String()},
			setting{prefix + keyModel, llm.Model},
			setting{prefix + keyBaseURL, llm.BaseURL},
			setting{prefix + keyMaxTokens, llm.MaxTokens},
			setting{prefix + keyTemperature, llm.Temperature},
		)
		if llm.APIKey != "" && llm.APIKey != s.envKey(llm.Provider) {
			if err := s.configStore.Set(prefix+keyAPIKey, llm.APIKey); err != nil {
				return fmt.Errorf("save %s api_key: %w", tier, err)
			}
		}
	}
	if key := settings.Embedding.APIKey; key != "" && key != s.envKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// SetLLMProvider configures the LLM provider for a tier.
func (s *SettingsService) SetLLMProvider(tier domain.Tier, provider domain.AIProvider, model, apiKey string) error {
	if !tier.IsValid() {
		return fmt.Errorf("invalid tier: %s", tier)
	}
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if apiKey == "" {
		apiKey = s.envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s (or set %s)", provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	llm := settings.LLM(tier)
	llm.Provider = provider
	if model != "" {
		llm.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		llm.Model = defaultModel
	}
	if provider.IsLocal() {
		if llm.BaseURL == "" {
			llm.BaseURL = defaultOllamaURL
		}
	} else {
		llm.BaseURL = ""
	}
	llm.APIKey = apiKey

	if tier == domain.TierFallback {
		settings.Fallback = llm
	} else {
		settings.Primary = llm
	}
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if apiKey == "" {
		apiKey = s.envKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s (or set %s)", provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Store.Dimensions = d
	}

	return s.Save(settings)
}

// SetStoreBackend configures the reference store backend. location is the
// directory for file and sqlite stores and the DSN for postgres.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend, location string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", backend)
	}
	if backend == domain.StoreBackendPostgres && location == "" {
		return fmt.Errorf("postgres store requires a DSN")
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Store.Backend = backend
	settings.Store.Path = ""
	settings.Store.DSN = ""
	switch backend {
	case domain.StoreBackendPostgres:
		settings.Store.DSN = location
	case domain.StoreBackendFile, domain.StoreBackendSQLite:
		settings.Store.Path = location
	}

	return s.Save(settings)
}

// SetGenerationMode updates the default generation mode.
func (s *SettingsService) SetGenerationMode(mode domain.GenerationMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid generation mode: %s", mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Generation.Mode = mode
	return s.Save(settings)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Primary.IsConfigured() && !settings.Fallback.IsConfigured() {
		return fmt.Errorf("%w: no LLM tier is configured", domain.ErrLLMUnavailable)
	}
	if settings.Generation.Mode == domain.GenerationModeHybrid &&
		(!settings.Primary.IsConfigured() || !settings.Fallback.IsConfigured()) {
		return fmt.Errorf("generation mode %q requires both LLM tiers to be configured",
			settings.Generation.Mode.Description())
	}
	if settings.Store.Backend == domain.StoreBackendPostgres && settings.Store.DSN == "" {
		return fmt.Errorf("postgres store requires store.dsn")
	}
	if settings.Generation.BackoffMax < settings.Generation.BackoffMin {
		return fmt.Errorf("generation.backoff_max_seconds is below backoff_min_seconds")
	}
	for _, schema := range settings.Generation.Degraded {
		if !schema.IsValid() {
			return fmt.Errorf("%w: generation.degraded lists %q", domain.ErrUnknownSchema, schema)
		}
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates a tier's LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig(tier domain.Tier) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	llm := settings.LLM(tier)
	return s.aiValidator.ValidateLLM(&llm)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getLLM(tier domain.Tier, defaults domain.LLMSettings) domain.LLMSettings {
	prefix := keyLLMPrefix + tier.String()
	llm := domain.LLMSettings{
		Provider:    s.getProvider(prefix+keyProvider, defaults.Provider),
		Model:       s.getString(prefix+keyModel, defaults.Model),
		BaseURL:     s.configStore.GetString(prefix + keyBaseURL),
		APIKey:      s.configStore.GetString(prefix + keyAPIKey),
		MaxTokens:   s.getInt(prefix+keyMaxTokens, defaults.MaxTokens),
		Temperature: defaults.Temperature,
	}
	if _, ok := s.configStore.Get(prefix + keyTemperature); ok {
		llm.Temperature = s.configStore.GetFloat(prefix + keyTemperature)
	}
	if llm.APIKey == "" {
		llm.APIKey = s.envKey(llm.Provider)
	}
	if llm.Provider.IsLocal() && llm.BaseURL == "" {
		llm.BaseURL = defaultOllamaURL
	}
	return llm
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	name := provider.APIKeyEnv()
	if name == "" {
		return ""
	}
	return s.getenv(name)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetFloat(key) * float64(time.Second))
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getMode(defaultVal domain.GenerationMode) domain.GenerationMode {
	mode := domain.GenerationMode(s.configStore.GetString(keyGenMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getDegraded(defaultVal []domain.Schema) []domain.Schema {
	if _, exists := s.configStore.Get(keyGenDegraded); !exists {
		return defaultVal
	}
	names := s.configStore.GetStringSlice(keyGenDegraded)
	out := make([]domain.Schema, 0, len(names))
	for _, name := range names {
		out = append(out, domain.Schema(name))
	}
	return out
}

func schemaNames(schemas []domain.Schema) []string {
	out := make([]string, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, s.String())
	}
	return out
}
