// Package extract turns client briefs and meeting notes into plain text.
//
// Briefs arrive as plain text, Markdown, HTML, Word documents or saved
// emails. Each format has an extractor that returns the readable text and
// a title; Chunk splits long text for indexing.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// Format identifies a brief file format.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatDocx     Format = "docx"
	FormatEmail    Format = "eml"
)

// Document is the text extracted from a brief.
type Document struct {
	// Title is the document title, or a name derived from the file name.
	Title string

	// Text is the readable content.
	Text string

	// Format is the format the text was extracted from.
	Format Format

	// Metadata carries format-specific details such as email headers.
	Metadata map[string]string
}

// extractorFunc extracts a document from raw bytes. name is the file name
// used for fallback titles.
type extractorFunc func(name string, data []byte) (Document, error)

var extractors = map[Format]extractorFunc{
	FormatText:     extractText,
	FormatMarkdown: extractMarkdown,
	FormatHTML:     extractHTML,
	FormatDocx:     extractDocx,
	FormatEmail:    extractEmail,
}

var extensions = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".xhtml":    FormatHTML,
	".docx":     FormatDocx,
	".eml":      FormatEmail,
}

// FormatFor returns the format implied by a file name's extension.
// Unknown extensions are treated as plain text.
func FormatFor(name string) Format {
	if f, ok := extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return FormatText
}

// File reads path and extracts its text.
func File(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Bytes(FormatFor(path), filepath.Base(path), data)
}

// Bytes extracts the text of data in the given format.
func Bytes(format Format, name string, data []byte) (Document, error) {
	fn, ok := extractors[format]
	if !ok {
		return Document{}, fmt.Errorf("%w: format %q", domain.ErrUnsupportedType, format)
	}
	doc, err := fn(name, data)
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", name, err)
	}
	doc.Format = format
	if doc.Title == "" {
		doc.Title = titleFromName(name)
	}
	return doc, nil
}

// titleFromName derives a human-readable title from a file name.
func titleFromName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.ReplaceAll(base, "_", " ")
	return strings.ReplaceAll(base, "-", " ")
}
