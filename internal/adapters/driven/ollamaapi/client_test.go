package ollamaapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagsServer(t *testing.T, models ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		var resp tagsResponse
		for _, m := range models {
			resp.Models = append(resp.Models, struct {
				Name string `json:"name"`
			}{Name: m})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, New("", time.Second).BaseURL())
	assert.Equal(t, "http://ollama:11434", New("http://ollama:11434/", time.Second).BaseURL())
}

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := New(srv.URL, time.Second).Post(context.Background(), "/api/x", map[string]string{"say": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestPost_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).Post(context.Background(), "/api/x", struct{}{}, &struct{}{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, "overloaded", se.Body)
	assert.Equal(t, "3", se.Header.Get("Retry-After"))
	assert.EqualError(t, err, "ollama error (status 503): overloaded")
}

func TestPost_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).Post(context.Background(), "/api/x", struct{}{}, &struct{}{})
	assert.ErrorContains(t, err, "decode response")
}

func TestPing(t *testing.T) {
	srv := tagsServer(t, "llama3.2:latest", "all-minilm:l6-v2")
	client := New(srv.URL, time.Second)
	ctx := context.Background()

	assert.NoError(t, client.Ping(ctx, ""))
	assert.NoError(t, client.Ping(ctx, "llama3.2"))
	assert.NoError(t, client.Ping(ctx, "all-minilm:l6-v2"))
	assert.ErrorContains(t, client.Ping(ctx, "all-minilm"), "ollama pull all-minilm")
	assert.ErrorContains(t, client.Ping(ctx, "mistral"), "not pulled")
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.ErrorContains(t, New(url, time.Second).Ping(context.Background(), ""), "ping failed")
}

func TestHasModel(t *testing.T) {
	names := []string{"llama3.2:latest", "qwen2.5:7b"}
	assert.True(t, HasModel(names, "llama3.2"))
	assert.True(t, HasModel(names, "llama3.2:latest"))
	assert.True(t, HasModel(names, "qwen2.5:7b"))
	assert.False(t, HasModel(names, "qwen2.5"))
	assert.False(t, HasModel(nil, "llama3.2"))
}
