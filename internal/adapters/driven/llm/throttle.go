package llm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// Ensure Throttled implements the interface.
var _ driven.LLMService = (*Throttled)(nil)

// Throttled wraps an LLMService with a token bucket. After a rate limit
// response carrying a retry hint, calls also wait until the hint expires.
type Throttled struct {
	next    driven.LLMService
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// NewThrottled limits next to requestsPerMinute calls. A non-positive
// rate returns next unchanged.
func NewThrottled(next driven.LLMService, requestsPerMinute int) driven.LLMService {
	if requestsPerMinute <= 0 {
		return next
	}
	burst := max(1, requestsPerMinute/10)
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// Generate waits for a token, then calls the wrapped service.
func (t *Throttled) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := t.wait(ctx); err != nil {
		return "", err
	}
	out, err := t.next.Generate(ctx, prompt, opts)
	if d := domain.RetryAfter(err); d > 0 {
		t.mu.Lock()
		t.retryAt = time.Now().Add(d)
		t.mu.Unlock()
	}
	return out, err
}

func (t *Throttled) wait(ctx context.Context) error {
	t.mu.Lock()
	retryAt := t.retryAt
	t.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return t.limiter.Wait(ctx)
}

// ModelName returns the wrapped model name.
func (t *Throttled) ModelName() string {
	return t.next.ModelName()
}

// Ping is not throttled.
func (t *Throttled) Ping(ctx context.Context) error {
	return t.next.Ping(ctx)
}

// Close closes the wrapped service.
func (t *Throttled) Close() error {
	return t.next.Close()
}
