package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		size     int
		overlap  int
		expected []string
	}{
		{name: "empty", text: "", size: 4, expected: nil},
		{name: "fits in one chunk", text: "abcd", size: 4, overlap: 1, expected: []string{"abcd"}},
		{name: "overlapping", text: "abcdefghij", size: 4, overlap: 1, expected: []string{"abcd", "defg", "ghij"}},
		{name: "no overlap", text: "abcdefghij", size: 4, expected: []string{"abcd", "efgh", "ij"}},
		{name: "overlap reduced", text: "abcdefghij", size: 4, overlap: 4, expected: []string{"abcd", "defg", "ghij"}},
		{name: "multibyte runes", text: "ééééé", size: 2, expected: []string{"éé", "éé", "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Chunk(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestChunk_Defaults(t *testing.T) {
	text := strings.Repeat("a", DefaultChunkSize+1)

	chunks := Chunk(text, 0, DefaultChunkOverlap)

	assert.Len(t, chunks, 2)
	assert.Len(t, chunks[0], DefaultChunkSize)
	assert.Len(t, chunks[1], DefaultChunkOverlap+1)
}
