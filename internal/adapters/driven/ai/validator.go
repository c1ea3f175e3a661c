package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// DefaultPingTimeout bounds each provider connectivity check.
const DefaultPingTimeout = 5 * time.Second

// pinger is the part of an LLM or embedding service used for validation.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ConfigValidator checks that configured providers can be built and reached.
// Unconfigured settings pass; there is nothing to check.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator using DefaultPingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: DefaultPingTimeout}
}

// WithTimeout returns a copy of v using timeout for each ping.
func (v *ConfigValidator) WithTimeout(timeout time.Duration) *ConfigValidator {
	return &ConfigValidator{timeout: timeout}
}

// ValidateEmbedding builds the embedding service and pings it.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	return v.ping(svc, domain.ErrEmbeddingUnavailable)
}

// ValidateLLM builds the LLM service and pings it.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := CreateLLMService(config)
	if err != nil || svc == nil {
		return err
	}
	return v.ping(svc, domain.ErrLLMUnavailable)
}

func (v *ConfigValidator) ping(svc pinger, unavailable error) error {
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w). Run 'vpm settings' to fix", unavailable, err)
	}
	return nil
}
