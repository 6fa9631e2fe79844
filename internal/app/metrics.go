package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Governance definitions for reported metrics",
}

var metricsDescribeCmd = &cobra.Command{
	Use:   "describe [metric-id ...]",
	Short: "Describe metrics from the governance catalogue",
	Long: `Print the governance catalogue entry for each named metric: definition,
owning team, minimum aggregation size, and refresh cadence. With no
arguments the whole catalogue is printed in file order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		reg, err := e.metrics.Get()
		if err != nil {
			return err
		}

		var ids []string
		if len(args) > 0 {
			ids = args
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reg.Describe(ids))
		}
		fmt.Println(reg.AsMarkdown(ids))
		return nil
	},
}

func init() {
	metricsCmd.AddCommand(metricsDescribeCmd)
	rootCmd.AddCommand(metricsCmd)
}
