// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/vpm/internal/adapters/driven/llm"
	"github.com/custodia-labs/vpm/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const provider = "ollama"

// Default configuration values.
const (
	DefaultBaseURL    = ollamaapi.DefaultBaseURL
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// JSONFormat asks Ollama to constrain output to valid JSON.
	JSONFormat bool

	// KeepAlive controls how long the model stays loaded after a call,
	// in Ollama duration syntax ("5m", "-1"). Empty uses the daemon default.
	KeepAlive string
}

// LLMService generates records with a local Ollama model.
type LLMService struct {
	client    *ollamaapi.Client
	model     string
	format    string
	keepAlive string
}

type generateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	Stream    bool     `json:"stream"`
	Format    string   `json:"format,omitempty"`
	KeepAlive string   `json:"keep_alive,omitempty"`
	Options   *options `json:"options,omitempty"`
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	svc := &LLMService{
		client:    ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model:     cfg.Model,
		keepAlive: cfg.KeepAlive,
	}
	if cfg.JSONFormat {
		svc.format = "json"
	}
	return svc
}

// Generate runs one non-streaming completion.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:     s.model,
		Prompt:    prompt,
		Format:    s.format,
		KeepAlive: s.keepAlive,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 || len(opts.StopWords) > 0 {
		req.Options = &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		}
	}

	var resp generateResponse
	if err := s.client.Post(ctx, "/api/generate", req, &resp); err != nil {
		var se *ollamaapi.StatusError
		if errors.As(err, &se) {
			return "", llm.ClassifyResponse(provider, se.Code, se.Header, errors.New(se.Body))
		}
		return "", llm.ClassifyTransport(provider, err)
	}
	return resp.Response, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the daemon is up and the model is pulled.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.model)
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}
