package mcp

import (
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Generation produces and merges records.
	Generation driving.GenerationService

	// Knowledge manages the reference store. Optional.
	Knowledge driving.KnowledgeService

	// Evaluation scores generated output. Optional.
	Evaluation driving.EvaluationService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Generation == nil {
		return ErrMissingGenerationService
	}
	return nil
}
