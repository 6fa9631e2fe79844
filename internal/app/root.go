// Package app contains the Cobra command tree for copilotwatch.
package app

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/copilotwatch/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "copilotwatch",
	Short: "Analytics over GitHub Copilot usage exports",
	Long: `copilotwatch answers adoption, utilisation, and billing questions over
the monthly GitHub Copilot CSV exports. It joins developer rosters with
interaction telemetry, tracks segment seat coverage, breaks down premium
request billing, and serves the same queries over MCP for AI assistants.

Run 'copilotwatch' with no arguments for an overview of the subcommands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
		log.SetOutput(os.Stderr)
		output.AutoDetectColor()
		if flagNoColor {
			output.SetNoColor(true)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("copilotwatch", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  usage     Adoption, request volume, and acceptance by division")
		fmt.Println("  segments  FTE and Non-FTE seat coverage by business segment")
		fmt.Println("  premium   Premium request volume and billing")
		fmt.Println("  metrics   Governance definitions for reported metrics")
		fmt.Println("  track     Snapshot and compare headline metrics over time")
		fmt.Println("  mcp       Run an MCP stdio server for AI assistants")
		fmt.Println("  doctor    Check whether the copilotwatch setup is healthy")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/copilotwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
