package driven

import "context"

// LLMService is one model backend behind a gateway tier (Groq, OpenAI,
// Anthropic, Gemini or Ollama).
//
// A Generate call is a single blocking request and never retries. Rate
// limits, timeouts and server faults come back as
// *domain.TransientProviderError; every other failure is a
// *domain.ProviderError.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string

	// Ping checks credentials and reachability without generating.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a single call. Zero values leave the provider
// default in place.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string

	// Model replaces the configured model for this call, used when a
	// deprecated model id has a known successor.
	Model string
}
