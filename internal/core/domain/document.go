package domain

import "strings"

// Metadata keys and values used on reference documents.
const (
	// MetaType classifies a reference document.
	MetaType = "type"

	// MetaClient names the client an example was produced for.
	MetaClient = "client"

	// MetaTitle is the title of the source file.
	MetaTitle = "title"

	// MetaChunk is the position of a chunk within its source document.
	MetaChunk = "chunk"

	// TypeExample marks a curated input/expected-output pair.
	TypeExample = "example"

	// TypeFeedback marks a document captured from user feedback.
	TypeFeedback = "feedback"

	// TypeDocument marks free-form reference documents.
	TypeDocument = "document"

	// FeedbackIDPrefix prefixes generated feedback document IDs.
	FeedbackIDPrefix = "feedback-"
)

// Section markers inside reference document content.
const (
	exampleInputMarker    = "INPUT:\n"
	exampleExpectedMarker = "EXPECTED_OUTPUT:\n"
)

// TruncatedSuffix is appended to text cut by Truncate.
const TruncatedSuffix = "... [TRUNCATED]"

// Embedding is a fixed-length vector representing text for similarity comparison.
type Embedding []float32

// ReferenceDocument is a known-good example or feedback entry held by the
// retrieval store. It is immutable once stored.
type ReferenceDocument struct {
	// ID is the caller-supplied or generated identifier.
	ID string `json:"id"`

	// Content is the full text that was embedded.
	Content string `json:"content"`

	// Metadata contains arbitrary key-value pairs (type, client).
	Metadata map[string]string `json:"metadata"`
}

// Type returns the document's type metadata, or "" when unset.
func (d ReferenceDocument) Type() string {
	return d.Metadata[MetaType]
}

// VectorEntry pairs a reference document with its embedding.
// A store holds entries in insertion order; position i is one logical entry.
type VectorEntry struct {
	Document  ReferenceDocument
	Embedding Embedding
}

// MatchResult is a transient nearest-neighbour query result.
type MatchResult struct {
	// Distance is the Euclidean distance between the query and the entry.
	Distance float64 `json:"distance"`

	// Content is the matched document's content.
	Content string `json:"content"`

	// ID is the matched document's ID.
	ID string `json:"id"`

	// Metadata is the matched document's metadata.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ExampleContent formats an input/expected-output pair for indexing.
func ExampleContent(input, expected string) string {
	return exampleInputMarker + input + "\n\n" + exampleExpectedMarker + expected
}

// ParseExpectedOutput returns the expected-output part of an example's
// content, or the content unchanged when it has no marker.
func ParseExpectedOutput(content string) string {
	if _, after, ok := strings.Cut(content, exampleExpectedMarker); ok {
		return after
	}
	return content
}

// FeedbackContent formats captured feedback for indexing. Sections whose
// body is empty are left out.
func FeedbackContent(scopeJSON, frameworkJSON, feedback string) string {
	var parts []string
	if scopeJSON != "" {
		parts = append(parts, "SCOPE\n"+scopeJSON)
	}
	if frameworkJSON != "" {
		parts = append(parts, "FRAMEWORK\n"+frameworkJSON)
	}
	parts = append(parts, "FEEDBACK\n"+feedback)
	return strings.Join(parts, "\n\n")
}

// RecordFeedbackContent formats feedback about a single record of any schema.
func RecordFeedbackContent(recordJSON, feedback string) string {
	if recordJSON == "" {
		return "FEEDBACK\n" + feedback
	}
	return "RECORD\n" + recordJSON + "\n\nFEEDBACK\n" + feedback
}

// Truncate cuts text to at most maxChars runes and appends TruncatedSuffix
// when anything was removed. A non-positive maxChars disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + TruncatedSuffix
}
