package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// capture redirects output to a buffer for the duration of the test.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func()
		want    string
	}{
		{name: "debug verbose", verbose: true, log: func() { Debug("cascade attempt %d", 2) }, want: "[DEBUG] cascade attempt 2\n"},
		{name: "debug quiet", verbose: false, log: func() { Debug("cascade attempt %d", 2) }, want: ""},
		{name: "info verbose", verbose: true, log: func() { Info("indexed %s", "ex-1") }, want: "[INFO] indexed ex-1\n"},
		{name: "info quiet", verbose: false, log: func() { Info("indexed %s", "ex-1") }, want: ""},
		{name: "warn quiet", verbose: false, log: func() { Warn("fallback used") }, want: "[WARN] fallback used\n"},
		{name: "warn verbose", verbose: true, log: func() { Warn("fallback used") }, want: "[WARN] fallback used\n"},
		{name: "section verbose", verbose: true, log: func() { Section("Record Generation") }, want: "\n=== Record Generation ===\n"},
		{name: "section quiet", verbose: false, log: func() { Section("Record Generation") }, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWarn_PercentInArgument(t *testing.T) {
	buf := capture(t, false)
	Warn("%s", "coverage 30% below target")
	assert.Equal(t, "[WARN] coverage 30% below target\n", buf.String())
}

func TestTimer(t *testing.T) {
	buf := capture(t, true)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time { return start }
	done := Timer("embed")
	now = func() time.Time { return start.Add(1500 * time.Millisecond) }
	done()

	assert.Equal(t, "[DEBUG] embed took 1.5s\n", buf.String())
}

func TestConcurrentWrites(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Debug("line")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, bytes.Count(buf.Bytes(), []byte("[DEBUG] line\n")))
}
