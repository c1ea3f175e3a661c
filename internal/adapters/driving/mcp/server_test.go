package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil generation service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingGenerationService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Generation: &mockGenerationService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{name: "empty", ports: &Ports{}, wantErr: ErrMissingGenerationService},
		{name: "generation only", ports: &Ports{Generation: &mockGenerationService{}}},
		{
			name: "all ports",
			ports: &Ports{
				Generation: &mockGenerationService{},
				Knowledge:  &mockKnowledgeService{},
				Evaluation: &mockEvaluationService{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInstructions(t *testing.T) {
	minimal := instructions(&Ports{Generation: &mockGenerationService{}})
	assert.Contains(t, minimal, "generate_scope")
	assert.NotContains(t, minimal, "find_match")
	assert.NotContains(t, minimal, "evaluate scores")

	full := instructions(&Ports{
		Generation: &mockGenerationService{},
		Knowledge:  &mockKnowledgeService{},
		Evaluation: &mockEvaluationService{},
	})
	assert.Contains(t, full, "find_match")
	assert.Contains(t, full, "evaluate scores")
}

func TestServer_Handler(t *testing.T) {
	server, err := NewServer(&Ports{Generation: &mockGenerationService{}})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL, "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.GreaterOrEqual(t, resp.StatusCode, http.StatusBadRequest)
}

func TestServer_RunHTTPStopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Generation: &mockGenerationService{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}
