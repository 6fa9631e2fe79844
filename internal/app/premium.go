package app

import (
	"github.com/spf13/cobra"
)

var (
	premSegment          string
	premUserType         string
	premTrendMetric      string
	premTopMetric        string
	premStart            string
	premEnd              string
	premTrendLimit       int
	premTopSegmentsLimit int
	premTopModelsLimit   int
)

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Premium request volume and billing",
	Long: `Query the premium request billing export: request volumes, unique users,
gross and net cost, and quota overruns. Scope with --segment, --user-type,
and an inclusive --start/--end month window.`,
}

var premiumSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Volume, users, and billing summary for a scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		summary, err := engine.Summary(premSegment, premUserType, premStart, premEnd)
		if err != nil {
			return err
		}
		return emit(summary)
	},
}

var premiumTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Month-over-month requests, cost, or users",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		trend, err := engine.Trend(premSegment, premUserType, premTrendMetric, premStart, premEnd, premTrendLimit)
		if err != nil {
			return err
		}
		return emit(trend)
	},
}

var premiumTopSegmentsCmd = &cobra.Command{
	Use:   "top-segments",
	Short: "Segments ranked by requests, cost, or users",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		top, err := engine.TopSegments(premUserType, premTopMetric, premStart, premEnd, premTopSegmentsLimit)
		if err != nil {
			return err
		}
		return emit(top)
	},
}

var premiumTopModelsCmd = &cobra.Command{
	Use:   "top-models",
	Short: "AI models ranked by net cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		top, err := engine.TopModels(premSegment, premUserType, premStart, premEnd, premTopModelsLimit)
		if err != nil {
			return err
		}
		return emit(top)
	},
}

var premiumBreakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Volume, cost, and users per GitHub enterprise",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		breakdown, err := engine.EnterpriseBreakdown(premSegment, premUserType, premStart, premEnd)
		if err != nil {
			return err
		}
		return emit(breakdown)
	},
}

var premiumSegmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List the segments present in the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		return emit(nameList{
			Header: "Available segments:",
			Empty:  "No segments found in the dataset.",
			Names:  engine.AvailableSegments(),
		})
	},
}

var premiumEnterprisesCmd = &cobra.Command{
	Use:   "enterprises",
	Short: "List the GitHub enterprises present in the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		return emit(nameList{
			Header: "Available enterprises:",
			Empty:  "No enterprises found in the dataset.",
			Names:  engine.AvailableEnterprises(),
		})
	},
}

var premiumModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the AI models present in the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.premium.Get()
		if err != nil {
			return err
		}
		return emit(nameList{
			Header: "Available models:",
			Empty:  "No models found in the dataset.",
			Names:  engine.AvailableModels(),
		})
	},
}

func init() {
	premiumCmd.PersistentFlags().StringVar(&premSegment, "segment", "", "Scope to a business segment (case-insensitive)")
	premiumCmd.PersistentFlags().StringVar(&premUserType, "user-type", "all", "User population: fte, contractor, all")
	premiumCmd.PersistentFlags().StringVar(&premStart, "start", "", "Inclusive start month (YYYY-MM)")
	premiumCmd.PersistentFlags().StringVar(&premEnd, "end", "", "Inclusive end month (YYYY-MM)")

	premiumTrendCmd.Flags().StringVar(&premTrendMetric, "metric", "requests", "Metric: requests, cost, users")
	premiumTrendCmd.Flags().IntVar(&premTrendLimit, "limit", 6, "Number of most recent months to show")
	premiumTopSegmentsCmd.Flags().StringVar(&premTopMetric, "metric", "cost", "Metric: requests, cost, users")
	premiumTopSegmentsCmd.Flags().IntVar(&premTopSegmentsLimit, "limit", 5, "Number of segments to show")
	premiumTopModelsCmd.Flags().IntVar(&premTopModelsLimit, "limit", 5, "Number of models to show")

	premiumCmd.AddCommand(premiumSummaryCmd)
	premiumCmd.AddCommand(premiumTrendCmd)
	premiumCmd.AddCommand(premiumTopSegmentsCmd)
	premiumCmd.AddCommand(premiumTopModelsCmd)
	premiumCmd.AddCommand(premiumBreakdownCmd)
	premiumCmd.AddCommand(premiumSegmentsCmd)
	premiumCmd.AddCommand(premiumEnterprisesCmd)
	premiumCmd.AddCommand(premiumModelsCmd)
	rootCmd.AddCommand(premiumCmd)
}
