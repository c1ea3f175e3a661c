package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

func TestRetryAfterHeader(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"absent", "", 0},
		{"seconds", "12", 12 * time.Second},
		{"fractional seconds", "1.5", 1500 * time.Millisecond},
		{"zero", "0", 0},
		{"http date", now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			assert.Equal(t, tt.expected, RetryAfterHeader(h, now))
		})
	}

	assert.Zero(t, RetryAfterHeader(nil, now))
}

func TestRetryHintFromMessage(t *testing.T) {
	tests := []struct {
		msg      string
		expected time.Duration
	}{
		{"Rate limit reached. Please try again in 7.5s.", 7500 * time.Millisecond},
		{"Resource has been exhausted. Please retry in 20s", 20 * time.Second},
		{"try again in 250ms", 250 * time.Millisecond},
		{"retry after 2 minutes", 2 * time.Minute},
		{"retry in 3", 3 * time.Second},
		{"model not found", 0},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.expected, RetryHintFromMessage(tt.msg))
		})
	}
}

func TestClassifyResponse(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "4")

	err := ClassifyResponse("groq", http.StatusTooManyRequests, h, errors.New("slow down"))
	var terr *domain.TransientProviderError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 4*time.Second, terr.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, terr.StatusCode)

	err = ClassifyResponse("gemini", http.StatusServiceUnavailable, nil, errors.New("please retry in 2s"))
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 2*time.Second, terr.RetryAfter)

	err = ClassifyResponse("openai", http.StatusUnauthorized, nil, errors.New("bad key"))
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.False(t, domain.IsTransient(err))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyTransport(t *testing.T) {
	assert.NoError(t, ClassifyTransport("x", nil))
	assert.ErrorIs(t, ClassifyTransport("x", context.Canceled), context.Canceled)
	assert.False(t, domain.IsTransient(ClassifyTransport("x", context.Canceled)))

	assert.True(t, domain.IsTransient(ClassifyTransport("x", context.DeadlineExceeded)))
	assert.True(t, domain.IsTransient(ClassifyTransport("x", timeoutErr{})))
	assert.True(t, domain.IsTransient(ClassifyTransport("x", &net.OpError{Op: "dial", Err: errors.New("refused")})))

	var perr *domain.ProviderError
	assert.ErrorAs(t, ClassifyTransport("x", errors.New("bad url")), &perr)
}
