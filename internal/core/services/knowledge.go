package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// exampleIDPrefix prefixes generated example document IDs.
const exampleIDPrefix = "example-"

// KnowledgeService manages curated examples and captured feedback.
type KnowledgeService struct {
	retrieval *RetrievalEngine
}

// NewKnowledgeService creates a knowledge service.
func NewKnowledgeService(retrieval *RetrievalEngine) *KnowledgeService {
	return &KnowledgeService{retrieval: retrieval}
}

// IndexExample embeds and stores a curated document.
func (s *KnowledgeService) IndexExample(ctx context.Context, id, content string, metadata map[string]string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: example content is empty", domain.ErrInvalidInput)
	}
	return s.retrieval.IndexDocument(ctx, id, content, metadata)
}

// AddExample stores an input/expected-output pair for client.
func (s *KnowledgeService) AddExample(ctx context.Context, id, input, expected, client string) (string, error) {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(expected) == "" {
		return "", fmt.Errorf("%w: example needs both input and expected output", domain.ErrInvalidInput)
	}
	if id == "" {
		id = newID(exampleIDPrefix)
	}

	metadata := map[string]string{domain.MetaType: domain.TypeExample}
	if client != "" {
		metadata[domain.MetaClient] = client
	}
	if err := s.retrieval.IndexDocument(ctx, id, domain.ExampleContent(input, expected), metadata); err != nil {
		return "", err
	}
	return id, nil
}

// IndexFeedback stores feedback about a single record.
func (s *KnowledgeService) IndexFeedback(ctx context.Context, recordJSON, feedbackText string) (string, error) {
	if strings.TrimSpace(feedbackText) == "" {
		return "", fmt.Errorf("%w: feedback text is empty", domain.ErrInvalidInput)
	}
	return s.indexFeedback(ctx, domain.RecordFeedbackContent(recordJSON, feedbackText))
}

// IndexReviewFeedback stores feedback about a scope and framework pair.
func (s *KnowledgeService) IndexReviewFeedback(ctx context.Context, scopeJSON, frameworkJSON, feedbackText string) (string, error) {
	if strings.TrimSpace(feedbackText) == "" {
		return "", fmt.Errorf("%w: feedback text is empty", domain.ErrInvalidInput)
	}
	return s.indexFeedback(ctx, domain.FeedbackContent(scopeJSON, frameworkJSON, feedbackText))
}

func (s *KnowledgeService) indexFeedback(ctx context.Context, content string) (string, error) {
	id := newID(domain.FeedbackIDPrefix)
	metadata := map[string]string{domain.MetaType: domain.TypeFeedback}
	if err := s.retrieval.IndexDocument(ctx, id, content, metadata); err != nil {
		return "", err
	}
	return id, nil
}

// FindBestHistoricalMatch returns the nearest stored document, or nil when
// the store is empty.
func (s *KnowledgeService) FindBestHistoricalMatch(ctx context.Context, text string) (*domain.MatchResult, error) {
	return s.retrieval.BestMatch(ctx, text)
}

// FindBestExpectedOutput returns the expected output of the nearest example.
func (s *KnowledgeService) FindBestExpectedOutput(ctx context.Context, text string) (string, bool, error) {
	match, err := s.retrieval.BestMatch(ctx, text)
	if err != nil || match == nil {
		return "", false, err
	}
	return domain.ParseExpectedOutput(match.Content), true, nil
}

// SimilarContext returns the content of up to n nearest documents.
func (s *KnowledgeService) SimilarContext(ctx context.Context, text string, n int) ([]string, error) {
	return s.retrieval.SimilarContext(ctx, text, n)
}

// Count returns the number of stored documents.
func (s *KnowledgeService) Count(ctx context.Context) (int, error) {
	return s.retrieval.Count(ctx)
}

// newID returns prefix followed by a time-ordered UUID.
func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + id.String()
}
