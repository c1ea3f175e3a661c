package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

func TestGenerateScopeCmd_ReadsStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "client wants a shop", "generate", "scope")

	require.NoError(t, err)
	assert.Contains(t, out, `"project_title": "Acme Storefront"`)
	require.Len(t, ts.generation.requests, 1)
	req := ts.generation.requests[0]
	assert.Equal(t, domain.SchemaScope, req.Schema)
	assert.Equal(t, "client wants a shop", req.RawInput)
	assert.Empty(t, req.Mode)
}

func TestGenerateScopeCmd_FileModeAndReport(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, "notes.txt", "meeting notes")

	out, err := execute(t, "", "generate", "scope", "--mode", "hybrid", "--report", path)

	require.NoError(t, err)
	assert.Equal(t, "meeting notes", ts.generation.requests[0].RawInput)
	assert.Equal(t, domain.GenerationModeHybrid, ts.generation.requests[0].Mode)
	assert.Contains(t, out, "Quality: WARNING")
	assert.Contains(t, out, "expected at least 3 objectives, got 1")
}

func TestGenerateFrameworkCmd_WithScope(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	scopePath := writeFile(t, "scope.json", testScopeJSON)

	out, err := execute(t, "notes", "generate", "framework", "--scope", scopePath)

	require.NoError(t, err)
	assert.Contains(t, out, `"cta_strategy": "Shop now"`)
	req := ts.generation.requests[0]
	assert.Equal(t, domain.SchemaFramework, req.Schema)
	assert.Contains(t, req.ContextHint, "Acme Storefront")
}

func TestGenerateFrameworkCmd_InvalidScope(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	scopePath := writeFile(t, "scope.json", `{"objectives":[]}`)

	_, err := execute(t, "notes", "generate", "framework", "--scope", scopePath)

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, ts.generation.requests)
}

func TestGenerateAllCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "notes", "generate", "all", "--report")

	require.NoError(t, err)
	require.Len(t, ts.generation.requests, 2)
	assert.Equal(t, domain.SchemaScope, ts.generation.requests[0].Schema)
	assert.Equal(t, domain.SchemaFramework, ts.generation.requests[1].Schema)
	assert.Equal(t, "notes", ts.generation.requests[1].RawInput)
	assert.Contains(t, ts.generation.requests[1].ContextHint, "Acme Storefront")
	assert.Contains(t, out, `"scope": {`)
	assert.Contains(t, out, `"framework": {`)
	assert.Contains(t, out, "[scope] Quality:")
	assert.Contains(t, out, "[framework] Quality:")
}

func TestGenerateCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.generation.err = &domain.FatalGenerationError{Schema: domain.SchemaScope, Attempts: 4, Err: errors.New("boom")}

	_, err := execute(t, "notes", "generate", "scope")

	var fatal *domain.FatalGenerationError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorContains(t, err, "scope generation failed")
}

func TestGenerateCmd_NoService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	generationService = nil

	_, err := execute(t, "notes", "generate", "scope")
	assert.ErrorContains(t, err, "generation service not configured")

	_, err = execute(t, "notes", "generate", "all")
	assert.ErrorContains(t, err, "generation service not configured")
}

func TestGenerateCmd_TooManyArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "generate", "scope", "a.txt", "b.txt")

	assert.ErrorContains(t, err, "accepts at most 1 arg(s)")
}
