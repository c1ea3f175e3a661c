package driven

import "github.com/custodia-labs/vpm/internal/core/domain"

// RecoveryStatus tags the outcome of a recovery step.
type RecoveryStatus int

// Recovery statuses.
const (
	// RecoveryContinue means the step rewrote the text and the next step should run.
	RecoveryContinue RecoveryStatus = iota

	// RecoveryDone means the step produced a validated record.
	RecoveryDone

	// RecoveryFailed means the step could not help; the next step runs on
	// the unchanged text.
	RecoveryFailed

	// RecoveryRegurgitated means the text echoes the schema definition
	// instead of data. No further step runs.
	RecoveryRegurgitated
)

// String returns a short name for the status.
func (s RecoveryStatus) String() string {
	switch s {
	case RecoveryContinue:
		return "continue"
	case RecoveryDone:
		return "done"
	case RecoveryFailed:
		return "failed"
	case RecoveryRegurgitated:
		return "regurgitated"
	default:
		return "unknown"
	}
}

// RecoveryInput is the text handed to a recovery step.
type RecoveryInput struct {
	// Text is the current (possibly partially cleaned) model output.
	Text string

	// Schema is the record type expected.
	Schema domain.Schema

	// DetectRegurgitation enables the schema-echo check. It is disabled on
	// retries, where the model has already been steered away from echoing.
	DetectRegurgitation bool
}

// RecoveryResult is what one step or a whole pipeline produced.
type RecoveryResult struct {
	Status RecoveryStatus

	// Text is the rewritten text (Continue) or the best cleaned text seen
	// so far (Failed at pipeline level), used for repair prompts.
	Text string

	// Record is set when Status is RecoveryDone.
	Record domain.Record

	// Strategy names the step that decided the result.
	Strategy string

	// Err describes the failure, typically *domain.MalformedOutputError or
	// *domain.ValidationError.
	Err error
}

// RecoveryStrategy is one named step in the output recovery pipeline.
type RecoveryStrategy interface {
	// Name returns the strategy name for logging and configuration.
	Name() string

	// Apply runs the step on in.
	Apply(in RecoveryInput) RecoveryResult
}

// OutputRecovery runs an ordered list of strategies over raw model output.
type OutputRecovery interface {
	// Recover returns RecoveryDone with a record, RecoveryRegurgitated, or
	// RecoveryFailed with the last error and the cleaned text.
	Recover(in RecoveryInput) RecoveryResult
}
