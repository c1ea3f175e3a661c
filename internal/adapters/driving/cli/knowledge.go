package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/extract"
)

var (
	indexID        string
	indexClient    string
	feedbackRecord string
	feedbackScope  string
	feedbackFrame  string
	matchShowAll   bool
	chunkSize      int
	chunkOverlap   int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the reference store",
	Long: `Add documents to the reference store that grounds generation prompts
and evaluation. Requires an embedding provider.`,
}

var indexExampleCmd = &cobra.Command{
	Use:   "example <input-file> <expected-file>",
	Short: "Index an input paired with its expected output",
	Args:  cobra.ExactArgs(2),
	RunE:  runIndexExample,
}

var indexDocCmd = &cobra.Command{
	Use:   "doc [file]",
	Short: "Index a free-form reference document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexDoc,
}

var indexCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runIndexCount,
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <text>",
	Short: "Index reviewer feedback on a generated record",
	Long: `Index reviewer feedback so later generations can learn from it.

Pass the reviewed record with --record, or a scope and framework pair with
--scope and --framework.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

var matchCmd = &cobra.Command{
	Use:   "match [file]",
	Short: "Find the closest indexed document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMatch,
}

func init() {
	indexExampleCmd.Flags().StringVar(&indexID, "id", "", "document ID (generated when empty)")
	indexExampleCmd.Flags().StringVar(&indexClient, "client", "", "client name stored with the example")
	indexDocCmd.Flags().StringVar(&indexID, "id", "", "document ID (generated when empty)")
	indexDocCmd.Flags().IntVar(&chunkSize, "chunk-size", extract.DefaultChunkSize, "characters per indexed chunk (0 = one document)")
	indexDocCmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", extract.DefaultChunkOverlap, "characters shared by consecutive chunks")

	feedbackCmd.Flags().StringVar(&feedbackRecord, "record", "", "reviewed record JSON file")
	feedbackCmd.Flags().StringVar(&feedbackScope, "scope", "", "reviewed scope JSON file")
	feedbackCmd.Flags().StringVar(&feedbackFrame, "framework", "", "reviewed framework JSON file")

	matchCmd.Flags().BoolVar(&matchShowAll, "content", false, "print the full content of the match")

	indexCmd.AddCommand(indexExampleCmd)
	indexCmd.AddCommand(indexDocCmd)
	indexCmd.AddCommand(indexCountCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(matchCmd)
}

func requireKnowledge() error {
	if knowledgeService == nil {
		return fmt.Errorf("%w: configure an embedding provider with 'vpm settings embedding'",
			domain.ErrVectorIndexUnavailable)
	}
	return nil
}

func runIndexExample(cmd *cobra.Command, args []string) error {
	if err := requireKnowledge(); err != nil {
		return err
	}
	input, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	expected, err := readInput(cmd, args[1])
	if err != nil {
		return err
	}

	id, err := knowledgeService.AddExample(cmd.Context(), indexID, input, expected, indexClient)
	if err != nil {
		return fmt.Errorf("failed to index example: %w", err)
	}
	cmd.Printf("Indexed example %s\n", id)
	return nil
}

func runIndexDoc(cmd *cobra.Command, args []string) error {
	if err := requireKnowledge(); err != nil {
		return err
	}
	doc, err := readDocument(cmd, argOrStdin(args, 0))
	if err != nil {
		return err
	}
	if err := requireText("document", doc.Text); err != nil {
		return err
	}

	id := indexID
	if id == "" {
		id = "doc-" + uuid.NewString()
	}

	chunks := []string{doc.Text}
	if chunkSize > 0 {
		chunks = extract.Chunk(doc.Text, chunkSize, chunkOverlap)
	}
	for i, chunk := range chunks {
		metadata := map[string]string{domain.MetaType: domain.TypeDocument}
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		if doc.Title != "" {
			metadata[domain.MetaTitle] = doc.Title
		}

		chunkID := id
		if len(chunks) > 1 {
			chunkID = fmt.Sprintf("%s#%d", id, i)
			metadata[domain.MetaChunk] = strconv.Itoa(i)
		}
		if err := knowledgeService.IndexExample(cmd.Context(), chunkID, chunk, metadata); err != nil {
			return fmt.Errorf("failed to index document: %w", err)
		}
	}

	if len(chunks) > 1 {
		cmd.Printf("Indexed document %s in %d chunks\n", id, len(chunks))
	} else {
		cmd.Printf("Indexed document %s\n", id)
	}
	return nil
}

func runIndexCount(cmd *cobra.Command, _ []string) error {
	if err := requireKnowledge(); err != nil {
		return err
	}
	n, err := knowledgeService.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	cmd.Printf("%d documents indexed\n", n)
	return nil
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if err := requireKnowledge(); err != nil {
		return err
	}
	text := args[0]
	if err := requireText("feedback", text); err != nil {
		return err
	}

	var (
		id  string
		err error
	)
	switch {
	case feedbackScope != "" && feedbackFrame != "":
		var scope, framework domain.Record
		if scope, err = readRecord(cmd, domain.SchemaScope, feedbackScope); err != nil {
			return err
		}
		if framework, err = readRecord(cmd, domain.SchemaFramework, feedbackFrame); err != nil {
			return err
		}
		id, err = knowledgeService.IndexReviewFeedback(cmd.Context(), encoded(scope), encoded(framework), text)
	case feedbackRecord != "":
		var record string
		if record, err = readInput(cmd, feedbackRecord); err != nil {
			return err
		}
		id, err = knowledgeService.IndexFeedback(cmd.Context(), record, text)
	default:
		return errors.New("provide --record, or --scope and --framework")
	}
	if err != nil {
		return fmt.Errorf("failed to index feedback: %w", err)
	}

	cmd.Printf("Feedback indexed as %s\n", id)
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	if err := requireKnowledge(); err != nil {
		return err
	}
	text, err := readInput(cmd, argOrStdin(args, 0))
	if err != nil {
		return err
	}

	match, err := knowledgeService.FindBestHistoricalMatch(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}
	if match == nil {
		cmd.Println("No reference documents indexed.")
		return nil
	}

	cmd.Printf("Best match: %s (distance %.4f)\n", match.ID, match.Distance)
	if matchShowAll {
		cmd.Println()
		cmd.Println(match.Content)
	}
	return nil
}

func encoded(rec domain.Record) string {
	data, err := domain.EncodeRecord(rec)
	if err != nil {
		return ""
	}
	return string(data)
}
