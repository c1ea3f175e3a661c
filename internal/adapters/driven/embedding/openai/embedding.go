// Package openai embeds text through the OpenAI embeddings endpoint or any
// API compatible with it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the most inputs the API accepts in one request.
	MaxBatchSize = 2048
)

// fallbackDimensions applies to models domain.EmbeddingDimensions does not know.
const fallbackDimensions = 1536

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3-* vectors. Other models ignore it.
	Dimensions int

	// BatchSize caps inputs per request; 0 means MaxBatchSize.
	BatchSize int
}

type EmbeddingService struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
	shortens   bool
}

// NewEmbeddingService validates cfg and builds the client. Only the API key
// is required.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	model := orDefault(cfg.Model, DefaultModel)

	dims := cfg.Dimensions
	if dims <= 0 {
		dims = domain.EmbeddingDimensions()[model]
	}
	if dims <= 0 {
		dims = fallbackDimensions
	}
	batch := cfg.BatchSize
	if batch <= 0 || batch > MaxBatchSize {
		batch = MaxBatchSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = orDefault(cfg.BaseURL, DefaultBaseURL)
	conf.HTTPClient = &http.Client{Timeout: timeout}

	return &EmbeddingService{
		client:     openai.NewClientWithConfig(conf),
		model:      model,
		dimensions: dims,
		batchSize:  batch,
		shortens:   strings.HasPrefix(model, "text-embedding-3-"),
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch returns one vector per text, in input order, splitting the
// texts across as many requests as the batch size requires.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		vecs, err := s.request(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{Input: texts, Model: openai.EmbeddingModel(s.model)}
	if s.shortens {
		req.Dimensions = s.dimensions
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("openai: no embedding for input %d", i)
		}
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }
func (s *EmbeddingService) Close() error      { return nil }

// Ping lists models, which fails fast on a bad key or base URL.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}
