package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vpm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vpm/internal/core/domain"
)

// newTestSettings returns a settings service whose environment is env.
func newTestSettings(store *memory.ConfigStore, env map[string]string) *SettingsService {
	s := NewSettingsService(store, nil)
	s.getenv = func(name string) string { return env[name] }
	return s
}

// mockValidator implements driven.AIConfigValidator.
type mockValidator struct {
	embedding *domain.EmbeddingSettings
	llm       *domain.LLMSettings
	err       error
}

func (m *mockValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedding = cfg
	return m.err
}

func (m *mockValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.llm = cfg
	return m.err
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Primary, settings.Primary)
	assert.Equal(t, defaults.Fallback, settings.Fallback)
	assert.Equal(t, defaults.Embedding, settings.Embedding)
	assert.Equal(t, defaults.Store, settings.Store)
	assert.Equal(t, defaults.Generation, settings.Generation)
	assert.Equal(t, defaults.Gateway, settings.Gateway)
	assert.Equal(t, defaults.Recovery, settings.Recovery)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.primary.provider":              "ollama",
		"llm.primary.model":                 "llama3.2",
		"llm.primary.temperature":           0.0,
		"llm.fallback.provider":             "anthropic",
		"llm.fallback.api_key":              "sk-ant",
		"embedding.provider":                "openai",
		"embedding.model":                   "text-embedding-3-large",
		"store.backend":                     "sqlite",
		"store.path":                        "/tmp/ref",
		"generation.mode":                   "hybrid",
		"generation.degraded":               []any{"scope"},
		"generation.max_attempts":           int64(6),
		"generation.backoff_min_seconds":    1.5,
		"generation.retry_interval_seconds": int64(2),
		"gateway.requests_per_minute":       int64(0),
		"recovery.strategies":               []any{"strict"},
	})
	service := newTestSettings(store, map[string]string{"OPENAI_API_KEY": "sk-env"})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Primary.Provider)
	assert.Equal(t, "llama3.2", settings.Primary.Model)
	assert.Equal(t, "http://localhost:11434", settings.Primary.BaseURL)
	assert.Zero(t, settings.Primary.Temperature)
	assert.Equal(t, domain.AIProviderAnthropic, settings.Fallback.Provider)
	assert.Equal(t, "sk-ant", settings.Fallback.APIKey)

	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)

	assert.Equal(t, domain.StoreBackendSQLite, settings.Store.Backend)
	assert.Equal(t, "/tmp/ref", settings.Store.Path)

	assert.Equal(t, domain.GenerationModeHybrid, settings.Generation.Mode)
	assert.Equal(t, []domain.Schema{domain.SchemaScope}, settings.Generation.Degraded)
	assert.Equal(t, 6, settings.Generation.MaxAttempts)
	assert.Equal(t, 1500*time.Millisecond, settings.Generation.BackoffMin)
	assert.Equal(t, 2*time.Second, settings.Generation.RetryInterval)
	assert.Equal(t, 0, settings.Gateway.RequestsPerMinute)
	assert.Equal(t, []string{"strict"}, settings.Recovery.Strategies)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.primary.provider": "invalid_provider",
		"store.backend":        "redis",
		"generation.mode":      "triple",
	})
	service := newTestSettings(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Primary.Provider, settings.Primary.Provider)
	assert.Equal(t, defaults.Store.Backend, settings.Store.Backend)
	assert.Equal(t, defaults.Generation.Mode, settings.Generation.Mode)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), map[string]string{
		"GROQ_API_KEY":   "gsk-env",
		"GOOGLE_API_KEY": "g-env",
	})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "gsk-env", settings.Primary.APIKey)
	assert.Equal(t, "g-env", settings.Fallback.APIKey)
	assert.True(t, settings.Primary.IsConfigured())
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, map[string]string{"GROQ_API_KEY": "gsk-env"})

	settings := domain.DefaultAppSettings()
	settings.Primary.APIKey = "gsk-env"
	settings.Fallback.APIKey = "g-file"
	settings.Generation.BackoffMin = 3 * time.Second

	require.NoError(t, service.Save(&settings))

	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, "groq", store.GetString("llm.primary.provider"))
	assert.Equal(t, 3, store.GetInt("generation.backoff_min_seconds"))
	assert.Equal(t, []string{"scope", "framework"}, store.GetStringSlice("generation.degraded"))
	assert.Equal(t, "g-file", store.GetString("llm.fallback.api_key"))

	_, persisted := store.Get("llm.primary.api_key")
	assert.False(t, persisted, "environment keys are not written to the config")

	reloaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.Generation, reloaded.Generation)
	assert.Equal(t, settings.Fallback, reloaded.Fallback)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	t.Run("ollama gets a local base url", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, nil)

		require.NoError(t, service.SetLLMProvider(domain.TierFallback, domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.Fallback.Provider)
		assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderOllama], settings.Fallback.Model)
		assert.Equal(t, "http://localhost:11434", settings.Fallback.BaseURL)
		assert.Equal(t, domain.DefaultAppSettings().Primary.Provider, settings.Primary.Provider)
	})

	t.Run("cloud provider needs a key", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)

		err := service.SetLLMProvider(domain.TierPrimary, domain.AIProviderOpenAI, "gpt-4o-mini", "")

		assert.ErrorContains(t, err, "OPENAI_API_KEY")
	})

	t.Run("key from environment is accepted", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, map[string]string{"OPENAI_API_KEY": "sk-env"})

		require.NoError(t, service.SetLLMProvider(domain.TierPrimary, domain.AIProviderOpenAI, "gpt-4o-mini", ""))

		assert.Equal(t, "gpt-4o-mini", store.GetString("llm.primary.model"))
		assert.Empty(t, store.GetString("llm.primary.api_key"))
	})

	t.Run("invalid input", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)
		assert.Error(t, service.SetLLMProvider("tertiary", domain.AIProviderOllama, "", ""))
		assert.Error(t, service.SetLLMProvider(domain.TierPrimary, "invalid", "", ""))
	})
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("updates store dimensions", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := newTestSettings(store, nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
		assert.Equal(t, 3072, settings.Store.Dimensions)
		assert.Empty(t, settings.Embedding.BaseURL)
	})

	t.Run("providers without embeddings are rejected", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)
		err := service.SetEmbeddingProvider(domain.AIProviderGroq, "", "k")
		assert.ErrorContains(t, err, "does not support embeddings")
	})
}

func TestSettingsService_SetStoreBackend(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	require.NoError(t, service.SetStoreBackend(domain.StoreBackendPostgres, "postgres://localhost/vpm"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.StoreBackendPostgres, settings.Store.Backend)
	assert.Equal(t, "postgres://localhost/vpm", settings.Store.DSN)
	assert.Empty(t, settings.Store.Path)

	require.NoError(t, service.SetStoreBackend(domain.StoreBackendSQLite, "/data"))
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "/data", settings.Store.Path)
	assert.Empty(t, settings.Store.DSN)

	assert.Error(t, service.SetStoreBackend(domain.StoreBackendPostgres, ""))
	assert.Error(t, service.SetStoreBackend("redis", ""))
}

func TestSettingsService_SetGenerationMode(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	require.NoError(t, service.SetGenerationMode(domain.GenerationModeHybrid))
	assert.Equal(t, "hybrid", store.GetString("generation.mode"))

	assert.Error(t, service.SetGenerationMode("triple"))
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		seed    map[string]any
		env     map[string]string
		wantErr string
	}{
		{
			name:    "no tier configured",
			wantErr: "no LLM tier",
		},
		{
			name: "single mode with one tier",
			env:  map[string]string{"GROQ_API_KEY": "k"},
		},
		{
			name:    "hybrid needs both tiers",
			seed:    map[string]any{"generation.mode": "hybrid"},
			env:     map[string]string{"GROQ_API_KEY": "k"},
			wantErr: "requires both LLM tiers",
		},
		{
			name:    "postgres without dsn",
			seed:    map[string]any{"store.backend": "postgres"},
			env:     map[string]string{"GROQ_API_KEY": "k"},
			wantErr: "store.dsn",
		},
		{
			name:    "backoff bounds inverted",
			seed:    map[string]any{"generation.backoff_max_seconds": int64(5)},
			env:     map[string]string{"GROQ_API_KEY": "k"},
			wantErr: "backoff_max_seconds",
		},
		{
			name:    "unknown degraded schema",
			seed:    map[string]any{"generation.degraded": []any{"report"}},
			env:     map[string]string{"GROQ_API_KEY": "k"},
			wantErr: "report",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestSettings(memory.NewConfigStore(tt.seed), tt.env)

			err := service.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSettingsService_ValidateProviders(t *testing.T) {
	t.Run("without validator", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.NoError(t, service.ValidateLLMConfig(domain.TierPrimary))
	})

	t.Run("passes the tier settings through", func(t *testing.T) {
		validator := &mockValidator{err: errors.New("unreachable")}
		service := NewSettingsService(memory.NewConfigStore(), validator)
		service.getenv = func(string) string { return "" }

		assert.EqualError(t, service.ValidateLLMConfig(domain.TierFallback), "unreachable")
		require.NotNil(t, validator.llm)
		assert.Equal(t, domain.AIProviderGemini, validator.llm.Provider)

		assert.Error(t, service.ValidateEmbeddingConfig())
		require.NotNil(t, validator.embedding)
		assert.Equal(t, domain.AIProviderOllama, validator.embedding.Provider)
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
