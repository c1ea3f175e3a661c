package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/extract"
)

// stdinArg names standard input in file arguments.
const stdinArg = "-"

// readInput returns the text of path, or standard input when path is empty
// or "-". Markdown, HTML, Word and email files are reduced to plain text.
func readInput(cmd *cobra.Command, path string) (string, error) {
	doc, err := readDocument(cmd, path)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

// readDocument is readInput keeping the extracted title and metadata.
func readDocument(cmd *cobra.Command, path string) (extract.Document, error) {
	if path == "" || path == stdinArg {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return extract.Document{}, fmt.Errorf("read input: %w", err)
		}
		return extract.Document{Text: string(data), Format: extract.FormatText}, nil
	}

	doc, err := extract.File(path)
	if err != nil {
		return extract.Document{}, fmt.Errorf("read input: %w", err)
	}
	return doc, nil
}

// readRaw returns the bytes of path or standard input unchanged.
func readRaw(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == stdinArg {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// argOrStdin returns args[i], or "" when it was not given.
func argOrStdin(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// readRecord reads and strictly decodes a record of schema from path.
func readRecord(cmd *cobra.Command, schema domain.Schema, path string) (domain.Record, error) {
	data, err := readRaw(cmd, path)
	if err != nil {
		return nil, err
	}
	rec, err := domain.DecodeRecord(schema, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayPath(path), err)
	}
	return rec, nil
}

// printRecord writes rec as indented JSON.
func printRecord(cmd *cobra.Command, rec domain.Record) error {
	data, err := domain.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// printReport writes a quality report in human-readable form.
func printReport(cmd *cobra.Command, report domain.QualityReport) {
	cmd.Printf("Quality: %s (coverage %.2f)\n", report.Status, report.Coverage)
	for _, issue := range report.Issues {
		cmd.Printf("  - %s\n", issue)
	}
}

func displayPath(path string) string {
	if path == "" || path == stdinArg {
		return "stdin"
	}
	return path
}

func requireText(name, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, name)
	}
	return nil
}
