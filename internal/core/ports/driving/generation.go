package driving

import (
	"context"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// GenerateRequest describes one record to produce from free-form input.
type GenerateRequest struct {
	// Schema is the record type to produce.
	Schema domain.Schema

	// RawInput is the free-form source text (meeting notes, briefs).
	RawInput string

	// ContextHint is extra structured context rendered into the prompt,
	// such as the scope JSON when producing a framework.
	ContextHint string

	// Mode selects single or hybrid generation. Empty uses the configured default.
	Mode domain.GenerationMode
}

// GenerationService turns free-form input into validated records.
type GenerationService interface {
	// GenerateRecord produces a record of req.Schema.
	// Returns *domain.FatalGenerationError when every tier and recovery step
	// has been exhausted and the schema is not configured for degraded mode.
	GenerateRecord(ctx context.Context, req GenerateRequest) (domain.Record, error)

	// MergeRecords reconciles two records of the same schema, preferring a
	// for scalar fields. Returns domain.ErrSchemaMismatch for different schemas.
	MergeRecords(a, b domain.Record) (domain.Record, error)
}
