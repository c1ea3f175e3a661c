package cli

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose vpm as MCP tools",
	Long: `Serve the generation, merge, knowledge and evaluation tools to an MCP
client such as Claude Desktop or an IDE assistant.

JSON-RPC over stdio is used unless --port is given, in which case the
streamable HTTP transport listens on --host:--port.

  vpm mcp serve                # stdio
  vpm mcp serve -p 8080        # http://localhost:8080

Client configuration:
  {"mcpServers": {"vpm": {"command": "vpm", "args": ["mcp", "serve"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "interface for the HTTP transport")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Generation: generationService,
		Knowledge:  knowledgeService,
		Evaluation: evaluationService,
	})
	if err != nil {
		return err
	}

	startPromptWatcher(cmd.Context())

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}
	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.PrintErrf("MCP server listening on http://%s/\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
