package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGroq is Groq's OpenAI-compatible cloud API.
	AIProviderGroq AIProvider = "groq"

	// AIProviderGemini is Google's Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGroq, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && p != AIProviderOllama
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// APIKeyEnv returns the environment variable consulted for this provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGroq:
		return "GROQ_API_KEY"
	case AIProviderGemini:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// Tier names a model slot in the gateway.
type Tier string

// Available tiers.
const (
	// TierPrimary is the first model tried.
	TierPrimary Tier = "primary"

	// TierFallback is used after escalation and for repair calls.
	TierFallback Tier = "fallback"
)

// IsValid returns true if the tier is recognised.
func (t Tier) IsValid() bool {
	return t == TierPrimary || t == TierFallback
}

// Other returns the opposite tier.
func (t Tier) Other() Tier {
	if t == TierFallback {
		return TierPrimary
	}
	return TierFallback
}

// String returns the string representation.
func (t Tier) String() string {
	return string(t)
}

// GenerationMode selects how many model tiers produce a record.
type GenerationMode string

// Available generation modes.
const (
	// GenerationModeSingle runs one cascade, starting on the primary tier.
	GenerationModeSingle GenerationMode = "single"

	// GenerationModeHybrid runs one cascade per tier and merges the results.
	GenerationModeHybrid GenerationMode = "hybrid"
)

// IsValid returns true if the mode is recognised.
func (m GenerationMode) IsValid() bool {
	return m == GenerationModeSingle || m == GenerationModeHybrid
}

// String returns the string representation.
func (m GenerationMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m GenerationMode) Description() string {
	switch m {
	case GenerationModeSingle:
		return "Single (primary with fallback escalation)"
	case GenerationModeHybrid:
		return "Hybrid (both tiers, merged)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies where reference documents are persisted.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendFile keeps a flat index in index.bin and metadata.json.
	StoreBackendFile StoreBackend = "file"

	// StoreBackendSQLite keeps a flat index persisted in a SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendPostgres searches server-side with pgvector.
	StoreBackendPostgres StoreBackend = "postgres"

	// StoreBackendMemory keeps the index in process memory only.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendFile, StoreBackendSQLite, StoreBackendPostgres, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// LLMSettings holds LLM provider configuration for one tier.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// MaxTokens caps the generated output.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Model == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// StoreSettings holds the reference store configuration.
type StoreSettings struct {
	// Backend selects the persistence backend.
	Backend StoreBackend

	// Path is the directory holding the index files or the database.
	// Empty means the default under the config directory.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// GenerationSettings holds recovery cascade configuration.
type GenerationSettings struct {
	// Mode is the default generation mode.
	Mode GenerationMode

	// Degraded lists schemas that fall back to an empty record when the
	// model never yields a valid one.
	Degraded []Schema

	// MaxAttempts bounds the number of invocations per cascade.
	MaxAttempts int

	// BackoffMin and BackoffMax bound the jittered wait after a transient
	// failure that carried no retry hint.
	BackoffMin time.Duration
	BackoffMax time.Duration

	// RetryInterval is the wait between retries once escalated.
	RetryInterval time.Duration

	// CallTimeout bounds one model invocation.
	CallTimeout time.Duration

	// RepairMinLength is the shortest cleaned text worth sending to repair.
	RepairMinLength int

	// ContextResults is the number of similar documents rendered into prompts.
	ContextResults int
}

// IsDegraded returns true if schema falls back to an empty record.
func (g GenerationSettings) IsDegraded(schema Schema) bool {
	for _, s := range g.Degraded {
		if s == schema {
			return true
		}
	}
	return false
}

// GatewaySettings holds client-side throttling configuration.
type GatewaySettings struct {
	// RequestsPerMinute caps calls per tier. Zero disables throttling.
	RequestsPerMinute int
}

// RecoverySettings holds the output recovery pipeline configuration.
type RecoverySettings struct {
	// Strategies is the ordered list of strategy names to run.
	Strategies []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Primary and Fallback hold the two LLM tiers.
	Primary  LLMSettings
	Fallback LLMSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Store holds reference store settings.
	Store StoreSettings

	// Generation holds cascade settings.
	Generation GenerationSettings

	// Gateway holds throttling settings.
	Gateway GatewaySettings

	// Recovery holds output recovery settings.
	Recovery RecoverySettings
}

// LLM returns the settings for a tier.
func (s AppSettings) LLM(tier Tier) LLMSettings {
	if tier == TierFallback {
		return s.Fallback
	}
	return s.Primary
}

// DefaultRecoveryStrategies returns the default recovery strategy order.
func DefaultRecoveryStrategies() []string {
	return []string{
		"preclean",
		"unwrap_fence",
		"brace_bound",
		"continuation",
		"regurgitation",
		"strict",
		"regex_salvage",
		"generic_json",
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they are filled from config or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Primary: LLMSettings{
			Provider:    AIProviderGroq,
			Model:       "llama-3.3-70b-versatile",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		Fallback: LLMSettings{
			Provider:    AIProviderGemini,
			Model:       "gemini-2.0-flash",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "all-minilm",
			BaseURL:  "http://localhost:11434",
		},
		Store: StoreSettings{
			Backend:    StoreBackendFile,
			Dimensions: 384, // all-minilm
		},
		Generation: GenerationSettings{
			Mode:            GenerationModeSingle,
			Degraded:        []Schema{SchemaScope, SchemaFramework},
			MaxAttempts:     4,
			BackoffMin:      20 * time.Second,
			BackoffMax:      40 * time.Second,
			RetryInterval:   5 * time.Second,
			CallTimeout:     120 * time.Second,
			RepairMinLength: 20,
			ContextResults:  3,
		},
		Gateway: GatewaySettings{
			RequestsPerMinute: 30,
		},
		Recovery: RecoverySettings{
			Strategies: DefaultRecoveryStrategies(),
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderGemini,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllStoreBackends returns all available store backends.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{
		StoreBackendFile,
		StoreBackendSQLite,
		StoreBackendPostgres,
		StoreBackendMemory,
	}
}

// AllGenerationModes returns all available generation modes.
func AllGenerationModes() []GenerationMode {
	return []GenerationMode{GenerationModeSingle, GenerationModeHybrid}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGroq:      "llama-3.3-70b-versatile",
		AIProviderGemini:    "gemini-2.0-flash",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		"embedding-001":      768,
	}
}

// deprecatedModels maps retired model ids to their current replacement.
var deprecatedModels = map[string]string{
	"gemini-1.5-flash":         "gemini-2.0-flash",
	"gemini-1.5-flash-latest":  "gemini-2.0-flash",
	"gemini-1.5-pro":           "gemini-2.0-flash",
	"gemini-pro":               "gemini-2.0-flash",
	"llama3-70b-8192":          "llama-3.3-70b-versatile",
	"llama-3.1-70b-versatile":  "llama-3.3-70b-versatile",
	"llama3-8b-8192":           "llama-3.1-8b-instant",
	"mixtral-8x7b-32768":       "llama-3.3-70b-versatile",
	"gemma-7b-it":              "gemma2-9b-it",
	"claude-3-sonnet-20240229": "claude-3-5-sonnet-latest",
}

// ReplacementModel returns the current id for a deprecated model, or model
// unchanged when it is not known to be retired.
func ReplacementModel(model string) string {
	if replacement, ok := deprecatedModels[model]; ok {
		return replacement
	}
	return model
}
