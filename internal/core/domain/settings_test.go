package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"anthropic is valid", AIProviderAnthropic, true},
		{"groq is valid", AIProviderGroq, true},
		{"gemini is valid", AIProviderGemini, true},
		{"empty string is invalid", AIProvider(""), false},
		{"unknown provider is invalid", AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderGroq.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProvider("bogus").RequiresAPIKey())
}

func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "GROQ_API_KEY", AIProviderGroq.APIKeyEnv())
	assert.Equal(t, "GOOGLE_API_KEY", AIProviderGemini.APIKeyEnv())
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Equal(t, "ANTHROPIC_API_KEY", AIProviderAnthropic.APIKeyEnv())
	assert.Empty(t, AIProviderOllama.APIKeyEnv())
}

func TestAIProvider_Description(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.NotEqual(t, unknownDescription, p.Description(), p)
	}
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestTier(t *testing.T) {
	assert.True(t, TierPrimary.IsValid())
	assert.True(t, TierFallback.IsValid())
	assert.False(t, Tier("tertiary").IsValid())
	assert.Equal(t, TierFallback, TierPrimary.Other())
	assert.Equal(t, TierPrimary, TierFallback.Other())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{"ollama without key", LLMSettings{Provider: AIProviderOllama, Model: "llama3.2"}, true},
		{"groq with key", LLMSettings{Provider: AIProviderGroq, Model: "m", APIKey: "k"}, true},
		{"groq without key", LLMSettings{Provider: AIProviderGroq, Model: "m"}, false},
		{"missing model", LLMSettings{Provider: AIProviderOllama}, false},
		{"invalid provider", LLMSettings{Provider: "x", Model: "m"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.False(t, EmbeddingSettings{}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderGroq, s.Primary.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", s.Primary.Model)
	assert.Equal(t, AIProviderGemini, s.Fallback.Provider)
	assert.Equal(t, s.Fallback, s.LLM(TierFallback))
	assert.Equal(t, s.Primary, s.LLM(TierPrimary))

	assert.Equal(t, StoreBackendFile, s.Store.Backend)
	assert.Equal(t, EmbeddingDimensions()[s.Embedding.Model], s.Store.Dimensions)

	assert.Equal(t, GenerationModeSingle, s.Generation.Mode)
	assert.Equal(t, 20*time.Second, s.Generation.BackoffMin)
	assert.Equal(t, 40*time.Second, s.Generation.BackoffMax)
	assert.Equal(t, 5*time.Second, s.Generation.RetryInterval)
	assert.Equal(t, 20, s.Generation.RepairMinLength)
	assert.True(t, s.Generation.IsDegraded(SchemaScope))
	assert.True(t, s.Generation.IsDegraded(SchemaFramework))

	assert.Equal(t, DefaultRecoveryStrategies(), s.Recovery.Strategies)
}

func TestStoreBackend_IsValid(t *testing.T) {
	for _, b := range AllStoreBackends() {
		assert.True(t, b.IsValid(), b)
	}
	assert.False(t, StoreBackend("redis").IsValid())
}

func TestGenerationMode(t *testing.T) {
	for _, m := range AllGenerationModes() {
		assert.True(t, m.IsValid(), m)
	}
	assert.True(t, GenerationModeSingle.IsValid())
	assert.True(t, GenerationModeHybrid.IsValid())
	assert.False(t, GenerationMode("triple").IsValid())
	assert.Equal(t, unknownDescription, GenerationMode("triple").Description())
}

func TestReplacementModel(t *testing.T) {
	tests := []struct {
		model    string
		expected string
	}{
		{"gemini-1.5-flash", "gemini-2.0-flash"},
		{"llama3-70b-8192", "llama-3.3-70b-versatile"},
		{"mixtral-8x7b-32768", "llama-3.3-70b-versatile"},
		{"gemma-7b-it", "gemma2-9b-it"},
		{"llama-3.3-70b-versatile", "llama-3.3-70b-versatile"},
		{"some-new-model", "some-new-model"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReplacementModel(tt.model))
		})
	}
}
