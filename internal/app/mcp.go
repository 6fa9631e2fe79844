package app

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/copilotwatch/internal/config"
	"github.com/blackwell-systems/copilotwatch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server for AI assistants",
	Long: `Start a Model Context Protocol stdio server exposing the usage, segment
adoption, premium request, and metric catalogue queries as tools.

Add to your assistant's MCP configuration:
  {"mcpServers":{"copilotwatch":{"command":"copilotwatch","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	srv := mcp.NewServer(cfg)
	if err := srv.Warm(cmd.Context()); err != nil {
		// Missing datasets fail only the tools that need them.
		log.WithError(err).Warn("dataset preload incomplete")
	}
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}
