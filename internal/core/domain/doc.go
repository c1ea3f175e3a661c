// Package domain holds the types every layer of vpm shares: records and
// their schemas, reference documents and their embeddings, match results,
// settings and the sentinel errors the adapters map to
// HTTP statuses and MCP tool errors.
//
// It imports nothing outside the standard library.
package domain
