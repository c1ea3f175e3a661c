package driving

import (
	"context"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// EvaluationService compares generated output with expected output.
type EvaluationService interface {
	// Evaluate scores generated against expected text.
	Evaluate(ctx context.Context, generated, expected string) (domain.EvaluationResult, error)

	// EvaluateAgainstReference scores generated against the expected output
	// of the nearest stored example for input. The bool is false when no
	// reference exists.
	EvaluateAgainstReference(ctx context.Context, input, generated string) (domain.EvaluationResult, bool, error)
}
