package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

var (
	evaluateExpected string
	evaluateInput    string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <schema> <a-file> <b-file>",
	Short: "Merge two records of the same schema",
	Long: `Merge two records into one. Lists are combined without duplicates and
scalar fields prefer the first record.

Schemas: scope, framework.`,
	Args: cobra.ExactArgs(3),
	RunE: runMerge,
}

var checkCmd = &cobra.Command{
	Use:   "check <schema> [file]",
	Short: "Assess the quality of a record",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCheck,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <generated-file>",
	Short: "Score generated output against an expected output",
	Long: `Score generated output by cosine similarity and token overlap.

Compare against a file with --expected, or let vpm find the expected output
of the closest indexed example for the input given with --input.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateExpected, "expected", "", "expected output file")
	evaluateCmd.Flags().StringVar(&evaluateInput, "input", "", "raw input file used to find a reference example")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(evaluateCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errors.New("generation service not configured")
	}
	schema, err := domain.ParseSchema(args[0])
	if err != nil {
		return err
	}
	a, err := readRecord(cmd, schema, args[1])
	if err != nil {
		return err
	}
	b, err := readRecord(cmd, schema, args[2])
	if err != nil {
		return err
	}

	merged, err := generationService.MergeRecords(a, b)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	return printRecord(cmd, merged)
}

func runCheck(cmd *cobra.Command, args []string) error {
	schema, err := domain.ParseSchema(args[0])
	if err != nil {
		return err
	}
	rec, err := readRecord(cmd, schema, argOrStdin(args, 1))
	if err != nil {
		return err
	}
	report, err := domain.AssessRecord(rec)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return fmt.Errorf("%w: configure an embedding provider with 'vpm settings embedding'",
			domain.ErrEmbeddingUnavailable)
	}
	generated, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	var result domain.EvaluationResult
	switch {
	case evaluateExpected != "":
		expected, err := readInput(cmd, evaluateExpected)
		if err != nil {
			return err
		}
		if result, err = evaluationService.Evaluate(cmd.Context(), generated, expected); err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
	case evaluateInput != "":
		input, err := readInput(cmd, evaluateInput)
		if err != nil {
			return err
		}
		var found bool
		result, found, err = evaluationService.EvaluateAgainstReference(cmd.Context(), input, generated)
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		if !found {
			cmd.Println("No indexed example carries an expected output for this input.")
			return nil
		}
	default:
		return errors.New("provide --expected or --input")
	}

	cmd.Printf("Cosine similarity: %.4f\n", result.CosineSimilarity)
	cmd.Printf("Token overlap:     %.4f\n", result.TokenOverlap)
	if result.Passed {
		cmd.Println("Result: PASS")
	} else {
		cmd.Println("Result: FAIL")
	}
	return nil
}
