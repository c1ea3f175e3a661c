package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// JitterFunc draws a wait from [lo, hi].
type JitterFunc func(lo, hi time.Duration) time.Duration

// CascadeOption configures a Cascade.
type CascadeOption func(*Cascade)

// WithSleep replaces the context-aware timer used for backoff.
func WithSleep(fn SleepFunc) CascadeOption {
	return func(c *Cascade) { c.sleep = fn }
}

// WithJitter replaces the uniform backoff draw.
func WithJitter(fn JitterFunc) CascadeOption {
	return func(c *Cascade) { c.jitter = fn }
}

// Cascade turns one prompt into one validated record. It is a bounded loop
// over model attempts: each attempt invokes the current tier, runs the
// output recovery pipeline and, when that fails, one repair call on the
// fallback tier. The loop escalates to the other tier at most once.
type Cascade struct {
	gateway  *ModelGateway
	recovery driven.OutputRecovery
	prompts  driven.PromptStore
	settings domain.GenerationSettings
	sleep    SleepFunc
	jitter   JitterFunc
}

// NewCascade creates a cascade.
func NewCascade(
	gateway *ModelGateway,
	recovery driven.OutputRecovery,
	prompts driven.PromptStore,
	settings domain.GenerationSettings,
	opts ...CascadeOption,
) *Cascade {
	c := &Cascade{
		gateway:  gateway,
		recovery: recovery,
		prompts:  prompts,
		settings: settings,
		sleep:    sleepContext,
		jitter:   uniformJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings.MaxAttempts <= 0 {
		c.settings.MaxAttempts = domain.DefaultAppSettings().Generation.MaxAttempts
	}
	return c
}

// cascadeState is the ATTEMPT(tier, isRetry) state of the loop.
type cascadeState struct {
	tier      domain.Tier
	escalated bool
}

func (s *cascadeState) escalate() {
	s.tier = s.tier.Other()
	s.escalated = true
}

// Run generates a record of schema from prompt, starting on the given tier.
// It returns *domain.FatalGenerationError once every attempt is spent, or
// ctx.Err() when cancelled between steps.
func (c *Cascade) Run(ctx context.Context, schema domain.Schema, prompt string, start domain.Tier) (domain.Record, error) {
	state := cascadeState{tier: start}
	var lastErr error

	attempt := 0
	for attempt < c.settings.MaxAttempts {
		attempt++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Debug("%s attempt %d on %s tier (retry=%t)", schema, attempt, state.tier, state.escalated)

		raw, err := c.gateway.Invoke(ctx, state.tier, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if !domain.IsTransient(err) {
				if state.escalated {
					break
				}
				logger.Warn("%s tier failed: %v", state.tier, err)
				state.escalate()
				continue
			}

			if err := c.sleep(ctx, c.backoff(err, state.escalated)); err != nil {
				return nil, err
			}
			if !state.escalated {
				logger.Warn("%s tier unavailable, escalating: %v", state.tier, err)
				state.escalate()
			}
			continue
		}

		res := c.recovery.Recover(driven.RecoveryInput{
			Text:                raw,
			Schema:              schema,
			DetectRegurgitation: !state.escalated,
		})
		switch res.Status {
		case driven.RecoveryDone:
			logger.Debug("%s recovered by %s", schema, res.Strategy)
			return res.Record, nil

		case driven.RecoveryRegurgitated:
			lastErr = res.Err
			if state.escalated {
				return nil, c.fatal(schema, attempt, lastErr)
			}
			logger.Warn("%s tier echoed the schema, escalating", state.tier)
			state.escalate()
			continue
		}

		lastErr = res.Err
		rec, err := c.repair(ctx, schema, res.Text)
		if err == nil {
			return rec, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("%s repair failed: %v", schema, err)

		if state.escalated {
			break
		}
		state.escalate()
	}

	return nil, c.fatal(schema, attempt, lastErr)
}

// repair asks the fallback tier to reformat text as a record. Text shorter
// than RepairMinLength is not worth a call.
func (c *Cascade) repair(ctx context.Context, schema domain.Schema, text string) (domain.Record, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < c.settings.RepairMinLength {
		return nil, &domain.MalformedOutputError{Reason: "too short to repair", Snippet: text}
	}

	prompt, err := c.prompts.Render(driven.PromptRepair, schema.String(), schema.FirstField(), text)
	if err != nil {
		return nil, err
	}

	raw, err := c.gateway.Invoke(ctx, domain.TierFallback, prompt)
	if err != nil {
		return nil, err
	}

	res := c.recovery.Recover(driven.RecoveryInput{Text: raw, Schema: schema})
	if res.Status != driven.RecoveryDone {
		return nil, res.Err
	}
	logger.Debug("%s repaired on fallback tier", schema)
	return res.Record, nil
}

// backoff returns the wait before the next attempt after a transient
// failure: the provider's hint when it gave one, otherwise a jittered wait
// before escalation and the fixed retry interval after it.
func (c *Cascade) backoff(err error, escalated bool) time.Duration {
	if hint := domain.RetryAfter(err); hint > 0 {
		return hint
	}
	if escalated {
		return c.settings.RetryInterval
	}
	return c.jitter(c.settings.BackoffMin, c.settings.BackoffMax)
}

func (c *Cascade) fatal(schema domain.Schema, attempts int, err error) error {
	if err == nil {
		err = errors.New("no attempt was made")
	}
	return &domain.FatalGenerationError{Schema: schema, Attempts: attempts, Err: err}
}

// IsOutputFailure reports whether err comes from unusable model output
// rather than an unreachable provider.
func IsOutputFailure(err error) bool {
	var malformed *domain.MalformedOutputError
	var invalid *domain.ValidationError
	return errors.As(err, &malformed) || errors.As(err, &invalid)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func uniformJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
