package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/keypoints/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server speaks JSON-RPC over stdio and exposes two tools:
  extract_key_points  key points of a transcript
  draft_brd           Markdown BRD from selected key points

Logs go to stderr so stdout stays a clean protocol stream.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ext, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server, err := mcp.NewServer(ext, logger)
	if err != nil {
		return fmt.Errorf("create mcp server: %w", err)
	}
	return server.Run(cmd.Context())
}
