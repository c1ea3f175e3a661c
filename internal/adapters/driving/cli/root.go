// Package cli implements the vpm command line.
//
// Commands are registered on rootCmd from each file's init function and
// reach the core through the package-level services set by SetServices.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/core/ports/driving"
	"github.com/custodia-labs/vpm/internal/logger"
)

// version is overridden at build time with -ldflags.
var version = "dev"

var (
	generationService driving.GenerationService
	knowledgeService  driving.KnowledgeService
	evaluationService driving.EvaluationService
	settingsService   driving.SettingsService
	promptWatcher     func(ctx context.Context) error
)

var verbose bool

// Services holds the core services the commands drive.
// Knowledge and Evaluation are nil when no reference store is available.
type Services struct {
	Generation driving.GenerationService
	Knowledge  driving.KnowledgeService
	Evaluation driving.EvaluationService
	Settings   driving.SettingsService

	// WatchPrompts reloads prompt templates on change until ctx is done.
	// Long-running commands start it in the background when set.
	WatchPrompts func(ctx context.Context) error
}

// SetServices wires the services used by every command.
func SetServices(s *Services) {
	generationService = s.Generation
	knowledgeService = s.Knowledge
	evaluationService = s.Evaluation
	settingsService = s.Settings
	promptWatcher = s.WatchPrompts
}

// SetVersion sets the version reported by 'vpm version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "vpm",
	Short: "Virtual project manager",
	Long: `vpm turns meeting notes and client briefs into structured project
records: a project scope and a website framework.

Generation runs against a primary and a fallback model, recovers malformed
model output, and grounds prompts in previously indexed examples.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// startPromptWatcher runs the prompt watcher in the background until ctx is done.
func startPromptWatcher(ctx context.Context) {
	if promptWatcher == nil {
		return
	}
	go func() {
		if err := promptWatcher(ctx); err != nil {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()
}
