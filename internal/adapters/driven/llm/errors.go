// Package llm holds helpers shared by the LLM provider adapters: error
// classification, retry hint parsing and client-side throttling.
package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// retryHint matches the wait suggested in provider error messages, such as
// "Please try again in 7.5s" (Groq) or "Please retry in 20.3s" (Gemini).
var retryHint = regexp.MustCompile(`(?i)(?:retry|try again)(?: after| in)?\s+([0-9]+(?:\.[0-9]+)?)\s*(ms|s|sec|seconds|m|min|minutes)?\b`)

// RetryAfterHeader parses a Retry-After header given either as delay
// seconds or as an HTTP date. Returns 0 when absent or unparsable.
func RetryAfterHeader(h http.Header, now time.Time) time.Duration {
	if h == nil {
		return 0
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// RetryHintFromMessage extracts a wait from free-text error messages.
// Returns 0 when the message carries none.
func RetryHintFromMessage(msg string) time.Duration {
	m := retryHint.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || n <= 0 {
		return 0
	}
	switch strings.ToLower(m[2]) {
	case "ms":
		return time.Duration(n * float64(time.Millisecond))
	case "m", "min", "minutes":
		return time.Duration(n * float64(time.Minute))
	default:
		return time.Duration(n * float64(time.Second))
	}
}

// ClassifyResponse turns an HTTP failure into a provider error. The retry
// hint comes from the Retry-After header, then from the message text.
func ClassifyResponse(provider string, status int, header http.Header, err error) error {
	retry := RetryAfterHeader(header, time.Now())
	if retry == 0 && err != nil {
		retry = RetryHintFromMessage(err.Error())
	}
	return domain.ClassifyStatus(provider, status, retry, err)
}

// ClassifyTransport wraps a failure that produced no HTTP response.
// Timeouts are transient. Cancellation by the caller is returned as is.
func ClassifyTransport(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.TransientProviderError{Provider: provider, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.TransientProviderError{Provider: provider, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// connection refused or reset: the server may come back
		return &domain.TransientProviderError{Provider: provider, Err: err}
	}
	return &domain.ProviderError{Provider: provider, Err: err}
}
