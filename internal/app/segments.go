package app

import (
	"github.com/spf13/cobra"
)

var (
	segScope        string
	segMetric       string
	segStart        string
	segEnd          string
	segMonth        string
	segTrendLimit   int
	segLeadersLimit int
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "FTE and Non-FTE seat coverage by business segment",
	Long: `Query the segment adoption dataset: seat counts, active users, and
billing programme participation split by FTE and Non-FTE populations.`,
}

var segmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the segments present in the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.segments.Get()
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

var segmentsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Seat coverage summary for a segment",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.segments.Get()
		if err != nil {
			return err
		}
		summary, err := engine.Summary(segScope, segStart, segEnd)
		if err != nil {
			return err
		}
		return emit(summary)
	},
}

var segmentsTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Month-over-month trend of an adoption metric",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.segments.Get()
		if err != nil {
			return err
		}
		trend, err := engine.Trend(segScope, segMetric, segStart, segEnd, segTrendLimit)
		if err != nil {
			return err
		}
		return emit(trend)
	},
}

var segmentsLeadersCmd = &cobra.Command{
	Use:   "leaders",
	Short: "Segments ranked by an adoption metric",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngines()
		if err != nil {
			return err
		}
		engine, err := e.segments.Get()
		if err != nil {
			return err
		}
		leaders, err := engine.Leaders(segMonth, segMetric, segLeadersLimit)
		if err != nil {
			return err
		}
		return emit(leaders)
	},
}

func init() {
	segmentsCmd.PersistentFlags().StringVar(&segStart, "start", "", "Inclusive start month (YYYY-MM)")
	segmentsCmd.PersistentFlags().StringVar(&segEnd, "end", "", "Inclusive end month (YYYY-MM)")

	segmentsSummaryCmd.Flags().StringVar(&segScope, "segment", "", "Scope to a business segment (case-insensitive)")
	segmentsTrendCmd.Flags().StringVar(&segScope, "segment", "", "Scope to a business segment (case-insensitive)")
	segmentsTrendCmd.Flags().StringVar(&segMetric, "metric", "fte_adoption", "Metric: fte_adoption, non_fte_adoption, fte_active, non_fte_active")
	segmentsTrendCmd.Flags().IntVar(&segTrendLimit, "limit", 6, "Number of most recent months to show")
	segmentsLeadersCmd.Flags().StringVar(&segMonth, "month", "", "Rank on a single month (YYYY-MM); all months when omitted")
	segmentsLeadersCmd.Flags().StringVar(&segMetric, "metric", "fte_adoption", "Metric: fte_adoption, non_fte_adoption, fte_active, non_fte_active")
	segmentsLeadersCmd.Flags().IntVar(&segLeadersLimit, "limit", 5, "Number of segments to show")

	segmentsCmd.AddCommand(segmentsListCmd)
	segmentsCmd.AddCommand(segmentsSummaryCmd)
	segmentsCmd.AddCommand(segmentsTrendCmd)
	segmentsCmd.AddCommand(segmentsLeadersCmd)
	rootCmd.AddCommand(segmentsCmd)
}
