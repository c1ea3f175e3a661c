package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// GatewayTier pairs an LLM service with the settings it was built from.
type GatewayTier struct {
	Service  driven.LLMService
	Settings domain.LLMSettings
}

// ModelGateway issues single model calls against the primary and fallback
// tiers. It never retries; that policy belongs to the Cascade.
type ModelGateway struct {
	tiers       map[domain.Tier]GatewayTier
	callTimeout time.Duration
}

// NewModelGateway creates a gateway. A tier with a nil Service reports
// domain.ErrTierUnavailable on every call. A zero callTimeout disables the
// per-call deadline.
func NewModelGateway(primary, fallback GatewayTier, callTimeout time.Duration) *ModelGateway {
	return &ModelGateway{
		tiers: map[domain.Tier]GatewayTier{
			domain.TierPrimary:  primary,
			domain.TierFallback: fallback,
		},
		callTimeout: callTimeout,
	}
}

// Available reports whether a tier has a configured service.
func (g *ModelGateway) Available(tier domain.Tier) bool {
	return g.tiers[tier].Service != nil
}

// Invoke sends prompt to the tier's model and returns the raw completion.
// Failures are *domain.TransientProviderError or *domain.ProviderError;
// a call that outlives the per-call deadline is transient.
func (g *ModelGateway) Invoke(ctx context.Context, tier domain.Tier, prompt string) (string, error) {
	t, ok := g.tiers[tier]
	if !ok || t.Service == nil {
		return "", &domain.ProviderError{
			Provider: tier.String(),
			Err:      domain.ErrTierUnavailable,
		}
	}

	opts := driven.GenerateOptions{
		MaxTokens:   t.Settings.MaxTokens,
		Temperature: t.Settings.Temperature,
	}
	if replacement := domain.ReplacementModel(t.Settings.Model); replacement != t.Settings.Model {
		logger.Warn("%s model %q is retired, using %q", tier, t.Settings.Model, replacement)
		opts.Model = replacement
	}

	callCtx := ctx
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	stop := logger.Timer(fmt.Sprintf("%s call (%s)", tier, t.Service.ModelName()))
	text, err := t.Service.Generate(callCtx, prompt, opts)
	stop()
	if err == nil {
		return text, nil
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !domain.IsTransient(err) {
		return "", &domain.TransientProviderError{
			Provider: t.Service.ModelName(),
			Err:      fmt.Errorf("no response within %s: %w", g.callTimeout, err),
		}
	}

	var perr *domain.ProviderError
	if domain.IsTransient(err) || errors.As(err, &perr) {
		return "", err
	}
	return "", &domain.ProviderError{Provider: t.Service.ModelName(), Err: err}
}
