// Package recovery turns raw model output into validated records through an
// ordered list of cleaning, detection and parsing strategies.
package recovery

import (
	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// Pipeline runs RecoveryStrategies in order until one produces a record.
// It implements the OutputRecovery interface.
type Pipeline struct {
	strategies []driven.RecoveryStrategy
}

// Verify interface compliance.
var _ driven.OutputRecovery = (*Pipeline)(nil)

// NewPipeline creates a new recovery pipeline with the given strategies.
// Strategies are executed in the order provided.
func NewPipeline(strategies ...driven.RecoveryStrategy) *Pipeline {
	return &Pipeline{
		strategies: strategies,
	}
}

// Recover runs the text through the strategies.
// A Continue result replaces the working text, a Failed result leaves it
// unchanged for the next strategy, and Done or Regurgitated stop the run.
func (p *Pipeline) Recover(in driven.RecoveryInput) driven.RecoveryResult {
	text := in.Text
	var lastErr error

	for _, strategy := range p.strategies {
		res := strategy.Apply(driven.RecoveryInput{
			Text:                text,
			Schema:              in.Schema,
			DetectRegurgitation: in.DetectRegurgitation,
		})
		res.Strategy = strategy.Name()

		switch res.Status {
		case driven.RecoveryContinue:
			text = res.Text
		case driven.RecoveryDone, driven.RecoveryRegurgitated:
			if res.Text == "" {
				res.Text = text
			}
			logger.Debug("recovery: %s -> %s", strategy.Name(), res.Status)
			return res
		case driven.RecoveryFailed:
			lastErr = res.Err
			logger.Debug("recovery: %s failed: %v", strategy.Name(), res.Err)
		}
	}

	if lastErr == nil {
		lastErr = &domain.MalformedOutputError{Reason: "no strategy produced a record", Snippet: text}
	}
	return driven.RecoveryResult{
		Status: driven.RecoveryFailed,
		Text:   text,
		Err:    lastErr,
	}
}

// Add appends a strategy to the pipeline.
func (p *Pipeline) Add(strategy driven.RecoveryStrategy) {
	p.strategies = append(p.strategies, strategy)
}

// Len returns the number of strategies in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.strategies)
}

// Names returns the strategy names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.strategies))
	for _, s := range p.strategies {
		names = append(names, s.Name())
	}
	return names
}
