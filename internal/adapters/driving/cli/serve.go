package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/adapters/driving/httpapi"
)

var (
	serveAddr       string
	serveRequestLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON HTTP API.

Routes:
  GET  /                    health message
  POST /analyze/scope       generate a scope from {"title", "content"}
  POST /analyze/framework   generate a framework from {"scope", "raw_input"}
  POST /ingest/feedback     index reviewer feedback
  POST /ingest/example      index an input/expected example
  POST /match               find the closest indexed document
  POST /merge/:schema       merge {"a", "b"}
  POST /quality/:schema     assess a record
  POST /evaluate            score generated output`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8000", "listen address")
	serveCmd.Flags().BoolVar(&serveRequestLog, "log-requests", false, "log every request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := httpapi.NewServer(&httpapi.Ports{
		Generation: generationService,
		Knowledge:  knowledgeService,
		Evaluation: evaluationService,
	}, httpapi.Config{RequestLog: serveRequestLog})
	if err != nil {
		return err
	}

	startPromptWatcher(cmd.Context())

	return server.Run(cmd.Context(), serveAddr)
}
