package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

func TestCascade_FencedOutputWithChatter(t *testing.T) {
	raw := "Here is the JSON:\n```json\n{\"project_title\":\"Acme Site\",\"objectives\":[\"Grow signups\",\"Grow signups\"]," +
		"\"scope_in\":[],\"scope_out\":[],\"navigation\":[],\"gap_analysis\":[]}\n```\nLet me know if you need changes."
	primary := newMockLLM("primary", reply{text: raw})
	fallback := newMockLLM("fallback")
	sleeps := &sleepRecorder{}

	rec, err := newTestCascade(primary, fallback, sleeps).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	scope := rec.(*domain.ScopeRecord)
	assert.Equal(t, "Acme Site", scope.ProjectTitle)
	assert.Equal(t, domain.TextList{"Grow signups", "Grow signups"}, scope.Objectives)
	assert.Equal(t, 1, primary.calls())
	assert.Zero(t, fallback.calls())
	assert.Empty(t, sleeps.all())
}

func TestCascade_RegurgitationEscalatesOnce(t *testing.T) {
	primary := newMockLLM("primary", reply{text: schemaEcho})
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})
	sleeps := &sleepRecorder{}

	rec, err := newTestCascade(primary, fallback, sleeps).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	assert.Equal(t, "Acme Site", rec.(*domain.ScopeRecord).ProjectTitle)
	assert.Equal(t, 1, primary.calls(), "schema echo must not be retried on the same tier")
	assert.Equal(t, 1, fallback.calls(), "no repair call is made for a schema echo")
	assert.Equal(t, "p", fallback.prompt(0))
	assert.Empty(t, sleeps.all())
}

func TestCascade_TransientUsesProviderHint(t *testing.T) {
	primary := newMockLLM("primary", reply{err: &domain.TransientProviderError{
		Provider: "groq", StatusCode: 429, RetryAfter: 7 * time.Second,
	}})
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})
	sleeps := &sleepRecorder{}

	_, err := newTestCascade(primary, fallback, sleeps).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, sleeps.all())
	assert.Equal(t, 1, fallback.calls())
}

func TestCascade_TransientWithoutHintUsesJitter(t *testing.T) {
	primary := newMockLLM("primary", reply{err: &domain.TransientProviderError{Provider: "groq", StatusCode: 503}})
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})
	sleeps := &sleepRecorder{}
	var lo, hi time.Duration

	c := NewCascade(newTestGateway(primary, fallback), newTestPipeline(), stubPrompts{}, testGenerationSettings(),
		WithSleep(sleeps.sleep),
		WithJitter(func(l, h time.Duration) time.Duration {
			lo, hi = l, h
			return 25 * time.Second
		}))
	_, err := c.Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, lo)
	assert.Equal(t, 40*time.Second, hi)
	assert.Equal(t, []time.Duration{25 * time.Second}, sleeps.all())
}

func TestCascade_TransientExhaustion(t *testing.T) {
	transient := reply{err: &domain.TransientProviderError{Provider: "x", StatusCode: 500}}
	primary := newMockLLM("primary", transient)
	fallback := newMockLLM("fallback", transient)
	sleeps := &sleepRecorder{}

	_, err := newTestCascade(primary, fallback, sleeps).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	var fatal *domain.FatalGenerationError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 4, fatal.Attempts)
	assert.True(t, domain.IsTransient(err))
	assert.False(t, IsOutputFailure(err))
	assert.Equal(t, 1, primary.calls())
	assert.Equal(t, 3, fallback.calls())
	assert.Equal(t, []time.Duration{20 * time.Second, 5 * time.Second, 5 * time.Second, 5 * time.Second}, sleeps.all())
}

func TestCascade_ProviderErrorEscalatesWithoutSleeping(t *testing.T) {
	primary := newMockLLM("primary", reply{err: &domain.ProviderError{Provider: "groq", StatusCode: 401}})
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})
	sleeps := &sleepRecorder{}

	_, err := newTestCascade(primary, fallback, sleeps).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	assert.Empty(t, sleeps.all())
}

func TestCascade_ProviderErrorOnBothTiers(t *testing.T) {
	bad := reply{err: &domain.ProviderError{Provider: "x", StatusCode: 400}}
	primary := newMockLLM("primary", bad)
	fallback := newMockLLM("fallback", bad)

	_, err := newTestCascade(primary, fallback, &sleepRecorder{}).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	var fatal *domain.FatalGenerationError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 2, fatal.Attempts)
	var perr *domain.ProviderError
	assert.ErrorAs(t, err, &perr)
}

func TestCascade_MissingPrimaryTierFallsBack(t *testing.T) {
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})

	rec, err := newTestCascade(nil, fallback, &sleepRecorder{}).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestCascade_RepairOnFallback(t *testing.T) {
	broken := `"project_title": "Acme Site", objectives: Grow signups; scope: website only`
	primary := newMockLLM("primary", reply{text: broken})
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})

	rec, err := newTestCascade(primary, fallback, &sleepRecorder{}).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	assert.Equal(t, "Acme Site", rec.(*domain.ScopeRecord).ProjectTitle)
	require.Equal(t, 1, fallback.calls())
	repairPrompt := fallback.prompt(0)
	assert.True(t, strings.HasPrefix(repairPrompt, "REPAIR scope starting at project_title:"))
	assert.Contains(t, repairPrompt, "Grow signups")
}

func TestCascade_ShortTextSkipsRepair(t *testing.T) {
	primary := newMockLLM("primary", reply{text: "nope"})
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})

	_, err := newTestCascade(primary, fallback, &sleepRecorder{}).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	require.NoError(t, err)
	assert.Equal(t, "p", fallback.prompt(0), "first fallback call is the escalated attempt, not a repair")
}

func TestCascade_OutputExhaustion(t *testing.T) {
	primary := newMockLLM("primary", reply{text: longGarbage})
	fallback := newMockLLM("fallback", reply{text: longGarbage})

	_, err := newTestCascade(primary, fallback, &sleepRecorder{}).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	var fatal *domain.FatalGenerationError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 2, fatal.Attempts)
	assert.True(t, IsOutputFailure(err))
	assert.Equal(t, 1, primary.calls())
	// repair, escalated attempt, repair
	assert.Equal(t, 3, fallback.calls())
}

func TestCascade_StartOnFallbackEscalatesToPrimary(t *testing.T) {
	primary := newMockLLM("primary", reply{text: validScopeJSON})
	fallback := newMockLLM("fallback", reply{text: schemaEcho})

	_, err := newTestCascade(primary, fallback, &sleepRecorder{}).Run(context.Background(), domain.SchemaScope, "p", domain.TierFallback)

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls())
}

func TestCascade_CancelledBeforeStart(t *testing.T) {
	primary := newMockLLM("primary", reply{text: validScopeJSON})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCascade(primary, nil, &sleepRecorder{}).Run(ctx, domain.SchemaScope, "p", domain.TierPrimary)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, primary.calls())
}

func TestCascade_BackoffInterrupted(t *testing.T) {
	primary := newMockLLM("primary", reply{err: &domain.TransientProviderError{Provider: "x", StatusCode: 429}})
	fallback := newMockLLM("fallback", reply{text: validScopeJSON})
	stop := errors.New("interrupted")
	sleeps := &sleepRecorder{err: stop}

	_, err := newTestCascade(primary, fallback, sleeps).Run(context.Background(), domain.SchemaScope, "p", domain.TierPrimary)

	assert.ErrorIs(t, err, stop)
	assert.Zero(t, fallback.calls())
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUniformJitter(t *testing.T) {
	for range 100 {
		d := uniformJitter(20*time.Second, 40*time.Second)
		assert.GreaterOrEqual(t, d, 20*time.Second)
		assert.LessOrEqual(t, d, 40*time.Second)
	}
	assert.Equal(t, 5*time.Second, uniformJitter(5*time.Second, time.Second))
}
