// Package ai provides factory functions for creating AI service adapters
// and the vector index they feed.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	geminiembed "github.com/custodia-labs/vpm/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/vpm/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/vpm/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/vpm/internal/adapters/driven/llm"
	anthropicllm "github.com/custodia-labs/vpm/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/vpm/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/vpm/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/vpm/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/vpm/internal/adapters/driven/storage/flatfile"
	"github.com/custodia-labs/vpm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vpm/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vpm/internal/adapters/driven/vectorstore/flat"
	"github.com/custodia-labs/vpm/internal/adapters/driven/vectorstore/pgvector"
	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	Primary          driven.LLMService
	Fallback         driven.LLMService
	EmbeddingService driven.EmbeddingService
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that left a service unset.
}

// LLM returns the service for a tier, or nil when it is not configured.
func (r *InitResult) LLM(tier domain.Tier) driven.LLMService {
	if tier == domain.TierFallback {
		return r.Fallback
	}
	return r.Primary
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.Primary != nil {
		r.Primary.Close()
	}
	if r.Fallback != nil {
		r.Fallback.Close()
	}
}

// Init builds every service the settings describe. Unconfigured or
// broken LLM tiers, embedding providers and vector stores are reported as
// warnings and left nil; the vector index is only opened when embeddings
// are available. A store that exists but cannot be read is an error, so
// generation never runs against an index that silently lost its data.
// dataDir is the default location for file and sqlite stores.
func Init(ctx context.Context, settings domain.AppSettings, dataDir string) (*InitResult, error) {
	result := &InitResult{}

	for _, tier := range []domain.Tier{domain.TierPrimary, domain.TierFallback} {
		cfg := settings.LLM(tier)
		svc, err := CreateLLMService(&cfg)
		switch {
		case err != nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s model: %v", tier, err))
		case svc == nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s model not configured", tier))
		default:
			svc = llm.NewThrottled(svc, settings.Gateway.RequestsPerMinute)
			if tier == domain.TierFallback {
				result.Fallback = svc
			} else {
				result.Primary = svc
			}
		}
	}

	embedding, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("embedding: %v", err))
		return result, nil
	}
	if embedding == nil {
		logger.Debug("retrieval disabled: no embedding service")
		return result, nil
	}
	result.EmbeddingService = embedding

	dims := embedding.Dimensions()
	if dims == 0 {
		dims = settings.Store.Dimensions
	}
	index, err := CreateVectorIndex(ctx, settings.Store, dims, dataDir)
	if err != nil {
		if ctx.Err() != nil || storedDataUnusable(err) {
			result.Close()
			return nil, err
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("vector index: %v", err))
		_ = embedding.Close()
		result.EmbeddingService = nil
		return result, nil
	}
	result.VectorIndex = index
	return result, nil
}

// storedDataUnusable reports whether err means existing vectors could not
// be read back, as opposed to a store that is missing or misconfigured.
func storedDataUnusable(err error) bool {
	var perr *domain.PersistenceError
	return errors.As(err, &perr) || errors.Is(err, domain.ErrDimensionMismatch)
}

// CreateVectorIndex opens the vector index for the configured backend.
// The file, sqlite and memory backends use the in-process flat index;
// postgres keeps vectors server-side.
func CreateVectorIndex(ctx context.Context, settings domain.StoreSettings, dims int, dataDir string) (driven.VectorIndex, error) {
	if dims <= 0 {
		dims = settings.Dimensions
	}

	var persistence driven.VectorPersistence
	switch settings.Backend {
	case domain.StoreBackendPostgres:
		if settings.DSN == "" {
			return nil, fmt.Errorf("postgres store needs a DSN (store.dsn): %w", domain.ErrInvalidInput)
		}
		return pgvector.Open(ctx, settings.DSN, dims)

	case domain.StoreBackendSQLite:
		store, err := sqlite.NewStore(storePath(settings.Path, dataDir, ""))
		if err != nil {
			return nil, err
		}
		persistence = store

	case domain.StoreBackendMemory:
		persistence = memory.NewVectorPersistence()

	case domain.StoreBackendFile, "":
		store, err := flatfile.NewStore(storePath(settings.Path, dataDir, "index"))
		if err != nil {
			return nil, err
		}
		persistence = store

	default:
		return nil, fmt.Errorf("store backend %q: %w", settings.Backend, domain.ErrUnsupportedType)
	}

	index, err := flat.New(ctx, dims, persistence)
	if err != nil {
		_ = persistence.Close()
		return nil, err
	}
	return index, nil
}

func storePath(configured, dataDir, sub string) string {
	if configured != "" {
		return configured
	}
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, sub)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(context.Background(), geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.AIProviderAnthropic, domain.AIProviderGroq:
		return nil, fmt.Errorf("%s does not support embeddings, use ollama, openai or gemini", settings.Provider)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			JSONFormat: true,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGroq:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = openaillm.GroqBaseURL
		}
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:   settings.APIKey,
			BaseURL:  baseURL,
			Model:    settings.Model,
			Provider: string(domain.AIProviderGroq),
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(context.Background(), geminillm.Config{
			APIKey:   settings.APIKey,
			Model:    settings.Model,
			Endpoint: settings.BaseURL,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}
