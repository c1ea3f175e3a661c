// Package mcp provides an MCP (Model Context Protocol) server adapter for vpm.
// It lets AI assistants generate scope and framework records, query the
// reference store and score output through the core services.
package mcp

import "errors"

// ErrMissingGenerationService is returned when the generation service is not provided.
var ErrMissingGenerationService = errors.New("mcp: generation service is required")

// ErrKnowledgeUnavailable is returned by tools that need the reference store
// when no knowledge service was provided.
var ErrKnowledgeUnavailable = errors.New("mcp: reference store is not configured")
