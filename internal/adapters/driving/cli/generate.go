package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
)

var (
	generateMode      string
	generateScopeFile string
	generateReport    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate project records from raw notes",
	Long: `Generate structured project records from meeting notes or briefs.

Input is read from the given file, or from standard input when the file is
omitted or "-". Records are printed as JSON.`,
}

var generateScopeCmd = &cobra.Command{
	Use:   "scope [file]",
	Short: "Generate a project scope",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerateScope,
}

var generateFrameworkCmd = &cobra.Command{
	Use:   "framework [file]",
	Short: "Generate a website framework",
	Long: `Generate a website framework. Use --scope to ground the framework in a
previously generated scope record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerateFramework,
}

var generateAllCmd = &cobra.Command{
	Use:   "all [file]",
	Short: "Generate a scope and then a framework built on it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerateAll,
}

func init() {
	generateCmd.PersistentFlags().StringVarP(&generateMode, "mode", "m", "",
		"generation mode: single or hybrid (default from settings)")
	generateCmd.PersistentFlags().BoolVar(&generateReport, "report", false, "print a quality report after each record")
	generateFrameworkCmd.Flags().StringVar(&generateScopeFile, "scope", "", "scope record JSON file to build on")

	generateCmd.AddCommand(generateScopeCmd)
	generateCmd.AddCommand(generateFrameworkCmd)
	generateCmd.AddCommand(generateAllCmd)
	rootCmd.AddCommand(generateCmd)
}

func runGenerateScope(cmd *cobra.Command, args []string) error {
	rec, err := generate(cmd, domain.SchemaScope, argOrStdin(args, 0), "")
	if err != nil {
		return err
	}
	return emit(cmd, rec)
}

func runGenerateFramework(cmd *cobra.Command, args []string) error {
	var hint string
	if generateScopeFile != "" {
		scope, err := readRecord(cmd, domain.SchemaScope, generateScopeFile)
		if err != nil {
			return err
		}
		data, err := domain.EncodeRecord(scope)
		if err != nil {
			return err
		}
		hint = string(data)
	}

	rec, err := generate(cmd, domain.SchemaFramework, argOrStdin(args, 0), hint)
	if err != nil {
		return err
	}
	return emit(cmd, rec)
}

func runGenerateAll(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errors.New("generation service not configured")
	}
	raw, err := readInput(cmd, argOrStdin(args, 0))
	if err != nil {
		return err
	}

	scope, err := generateFrom(cmd, domain.SchemaScope, raw, "")
	if err != nil {
		return err
	}
	scopeJSON, err := domain.EncodeRecord(scope)
	if err != nil {
		return err
	}
	framework, err := generateFrom(cmd, domain.SchemaFramework, raw, string(scopeJSON))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(map[string]domain.Record{
		"scope":     scope,
		"framework": framework,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	cmd.Println(string(data))

	if generateReport {
		for _, rec := range []domain.Record{scope, framework} {
			report, err := domain.AssessRecord(rec)
			if err != nil {
				return err
			}
			cmd.Printf("[%s] ", rec.Schema())
			printReport(cmd, report)
		}
	}
	return nil
}

func generate(cmd *cobra.Command, schema domain.Schema, path, hint string) (domain.Record, error) {
	if generationService == nil {
		return nil, errors.New("generation service not configured")
	}
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	return generateFrom(cmd, schema, raw, hint)
}

func generateFrom(cmd *cobra.Command, schema domain.Schema, raw, hint string) (domain.Record, error) {
	rec, err := generationService.GenerateRecord(cmd.Context(), driving.GenerateRequest{
		Schema:      schema,
		RawInput:    raw,
		ContextHint: hint,
		Mode:        domain.GenerationMode(generateMode),
	})
	if err != nil {
		return nil, fmt.Errorf("%s generation failed: %w", schema, err)
	}
	return rec, nil
}

func emit(cmd *cobra.Command, rec domain.Record) error {
	if err := printRecord(cmd, rec); err != nil {
		return err
	}
	if !generateReport {
		return nil
	}
	report, err := domain.AssessRecord(rec)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return nil
}
