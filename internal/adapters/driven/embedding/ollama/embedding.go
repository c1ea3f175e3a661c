// Package ollama embeds text with a model served by a local Ollama daemon.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/vpm/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = ollamaapi.DefaultBaseURL
	DefaultModel      = "all-minilm"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 384
)

// Config zero values fall back to the defaults above.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

type EmbeddingService struct {
	client *ollamaapi.Client
	model  string
	dims   int
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	s := &EmbeddingService{model: cfg.Model, dims: cfg.Dimensions}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.dims <= 0 {
		s.dims = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s.client = ollamaapi.New(cfg.BaseURL, timeout)
	return s
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends every text in one /api/embed call. Each returned vector
// must have the configured dimension count.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}{s.model, texts}
	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := s.client.Post(ctx, "/api/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: requested %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	for _, v := range resp.Embeddings {
		if len(v) != s.dims {
			return nil, fmt.Errorf("ollama: %s returned %d dimensions, configured for %d", s.model, len(v), s.dims)
		}
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dims }
func (s *EmbeddingService) ModelName() string { return s.model }
func (s *EmbeddingService) Close() error      { return nil }

// Ping fails unless the daemon answers and the model has been pulled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.model)
}
