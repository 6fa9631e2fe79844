package app

import (
	"github.com/spf13/cobra"
)

var (
	usageDivision       string
	usageStart          string
	usageEnd            string
	usageTrendLimit     int
	usageModelsLimit    int
	usageBreakdownLimit int
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Adoption, request volume, and acceptance by division",
	Long: `Query the joined developer roster and interaction telemetry. Scope any
subcommand with --division and an inclusive --start/--end month window.`,
}

var usageSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Adoption and acceptance summary for a division",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.usage.Get()
		if err != nil {
			return err
		}
		summary, err := engine.SummarizeUsage(usageDivision, usageStart, usageEnd)
		if err != nil {
			return err
		}
		return emit(summary)
	},
}

var usageTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Month-over-month adoption percentages",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.usage.Get()
		if err != nil {
			return err
		}
		trend, err := engine.AdoptionTrend(usageDivision, usageStart, usageEnd, usageTrendLimit)
		if err != nil {
			return err
		}
		return emit(trend)
	},
}

var usageModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Share of usage by AI model",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.usage.Get()
		if err != nil {
			return err
		}
		mix, err := engine.ModelMix(usageDivision, usageStart, usageEnd, usageModelsLimit)
		if err != nil {
			return err
		}
		return emit(mix)
	},
}

var usageBreakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Divisions ranked by active Copilot developers",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.usage.Get()
		if err != nil {
			return err
		}
		breakdown, err := engine.DivisionBreakdown(usageStart, usageEnd, usageBreakdownLimit)
		if err != nil {
			return err
		}
		return emit(breakdown)
	},
}

var usageDivisionsCmd = &cobra.Command{
	Use:   "divisions",
	Short: "List the divisions present in the usage dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.usage.Get()
		if err != nil {
			return err
		}
		return emit(nameList{
			Header: "Available divisions:",
			Empty:  "No divisions found in the dataset.",
			Names:  engine.AvailableDivisions(),
		})
	},
}

func init() {
	usageCmd.PersistentFlags().StringVar(&usageDivision, "division", "", "Scope to a business division (case-insensitive)")
	usageCmd.PersistentFlags().StringVar(&usageStart, "start", "", "Inclusive start month (YYYY-MM)")
	usageCmd.PersistentFlags().StringVar(&usageEnd, "end", "", "Inclusive end month (YYYY-MM)")

	usageTrendCmd.Flags().IntVar(&usageTrendLimit, "limit", 6, "Number of most recent months to show")
	usageModelsCmd.Flags().IntVar(&usageModelsLimit, "limit", 5, "Maximum number of models to show")
	usageBreakdownCmd.Flags().IntVar(&usageBreakdownLimit, "limit", 5, "Maximum number of divisions to show")

	usageCmd.AddCommand(usageSummaryCmd)
	usageCmd.AddCommand(usageTrendCmd)
	usageCmd.AddCommand(usageModelsCmd)
	usageCmd.AddCommand(usageBreakdownCmd)
	usageCmd.AddCommand(usageDivisionsCmd)
	rootCmd.AddCommand(usageCmd)
}
