package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
	"github.com/custodia-labs/vpm/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driving.GenerationService = (*GenerationService)(nil)

// Input limits applied before prompt rendering.
const (
	maxRawInputChars = 4000
	maxContextChars  = 2000
	maxNotesChars    = 2000
)

// contextSeparator separates reference documents in a prompt.
const contextSeparator = "\n\n---\n\n"

// GenerationService turns free-form input into records: it gathers
// reference context, renders the prompt and runs one cascade per tier.
type GenerationService struct {
	cascade   *Cascade
	retrieval *RetrievalEngine
	prompts   driven.PromptStore
	merger    *ConsensusMerger
	settings  domain.GenerationSettings
}

// NewGenerationService creates a generation service. retrieval may be nil,
// in which case prompts carry no reference context.
func NewGenerationService(
	cascade *Cascade,
	retrieval *RetrievalEngine,
	prompts driven.PromptStore,
	settings domain.GenerationSettings,
) *GenerationService {
	return &GenerationService{
		cascade:   cascade,
		retrieval: retrieval,
		prompts:   prompts,
		merger:    NewConsensusMerger(),
		settings:  settings,
	}
}

// GenerateRecord produces a record of req.Schema.
func (s *GenerationService) GenerateRecord(ctx context.Context, req driving.GenerateRequest) (domain.Record, error) {
	if !req.Schema.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSchema, req.Schema)
	}
	if strings.TrimSpace(req.RawInput) == "" {
		return nil, fmt.Errorf("%w: raw input is empty", domain.ErrInvalidInput)
	}
	mode := req.Mode
	if mode == "" {
		mode = s.settings.Mode
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: generation mode %q", domain.ErrInvalidInput, mode)
	}

	logger.Section("Record Generation")
	logger.Debug("schema=%s mode=%s input=%d chars", req.Schema, mode, len(req.RawInput))

	references, err := s.referenceContext(ctx, req.RawInput)
	if err != nil {
		return nil, err
	}

	prompt, err := s.renderPrompt(req, references)
	if err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", req.Schema, err)
	}

	var rec domain.Record
	if mode == domain.GenerationModeHybrid {
		rec, err = s.generateHybrid(ctx, req.Schema, prompt)
	} else {
		rec, err = s.cascade.Run(ctx, req.Schema, prompt, domain.TierPrimary)
	}
	if err != nil {
		return s.degrade(req.Schema, err)
	}
	return rec, nil
}

// MergeRecords reconciles two records of the same schema.
func (s *GenerationService) MergeRecords(a, b domain.Record) (domain.Record, error) {
	return s.merger.Merge(a, b)
}

// referenceContext renders the nearest stored documents into one block.
// Missing retrieval services give an empty block; a store that cannot be
// read is an error.
func (s *GenerationService) referenceContext(ctx context.Context, text string) (string, error) {
	if s.retrieval == nil || !s.retrieval.Enabled() {
		return "", nil
	}

	docs, err := s.retrieval.SimilarContext(ctx, text, s.settings.ContextResults)
	if err != nil {
		var perr *domain.PersistenceError
		if errors.As(err, &perr) || ctx.Err() != nil {
			return "", err
		}
		logger.Warn("reference context unavailable: %v", err)
		return "", nil
	}
	logger.Debug("using %d reference document(s)", len(docs))
	return domain.Truncate(strings.Join(docs, contextSeparator), maxContextChars), nil
}

func (s *GenerationService) renderPrompt(req driving.GenerateRequest, references string) (string, error) {
	switch req.Schema {
	case domain.SchemaFramework:
		return s.prompts.Render(driven.PromptFramework,
			req.ContextHint, references, domain.Truncate(req.RawInput, maxNotesChars))
	default:
		return s.prompts.Render(driven.PromptScope,
			references, domain.Truncate(req.RawInput, maxRawInputChars))
	}
}

// generateHybrid runs one cascade starting on each tier and merges the
// results, primary first. If one side fails the other side's record is
// returned on its own.
func (s *GenerationService) generateHybrid(ctx context.Context, schema domain.Schema, prompt string) (domain.Record, error) {
	type outcome struct {
		rec domain.Record
		err error
	}
	var results [2]outcome

	var wg sync.WaitGroup
	for i, tier := range []domain.Tier{domain.TierPrimary, domain.TierFallback} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.cascade.Run(ctx, schema, prompt, tier)
			results[i] = outcome{rec: rec, err: err}
		}()
	}
	wg.Wait()

	a, b := results[0], results[1]
	switch {
	case a.err == nil && b.err == nil:
		return s.merger.Merge(a.rec, b.rec)
	case a.err == nil:
		logger.Warn("hybrid: fallback generation failed, using primary only: %v", b.err)
		return a.rec, nil
	case b.err == nil:
		logger.Warn("hybrid: primary generation failed, using fallback only: %v", a.err)
		return b.rec, nil
	default:
		if IsOutputFailure(a.err) {
			return nil, a.err
		}
		return nil, b.err
	}
}

// degrade substitutes the schema's empty record for output failures when
// the schema is configured for it. Provider failures are always returned.
func (s *GenerationService) degrade(schema domain.Schema, err error) (domain.Record, error) {
	if s.settings.IsDegraded(schema) && IsOutputFailure(err) {
		logger.Warn("%s generation failed, returning an empty record: %v", schema, err)
		return schema.Empty(), nil
	}
	return nil, err
}
