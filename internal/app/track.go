package app

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/copilotwatch/internal/config"
	"github.com/blackwell-systems/copilotwatch/internal/output"
	"github.com/blackwell-systems/copilotwatch/internal/store"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Snapshot and compare headline metrics over time",
	Long: `Compute the headline adoption and billing metrics from the current
exports, store them as a snapshot, and compare against the previous
snapshot to show deltas with trend arrows. Datasets that are not
configured are skipped with a warning.`,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

// metricDirection maps metric names to whether higher values are better.
var metricDirection = map[string]bool{
	"population":          true,
	"active_developers":   true,
	"adoption_rate":       true,
	"total_requests":      true,
	"acceptance_rate":     true,
	"fte_coverage":        true,
	"contractor_coverage": true,
	"premium_requests":    true,
	"premium_users":       true,
	"net_cost":            false,
	"exceeded_quota":      false,
}

func runTrack(cmd *cobra.Command, args []string) error {
	e, err := loadEngines()
	if err != nil {
		return err
	}

	metrics := collectHeadlineMetrics(e)
	if len(metrics) == 0 {
		return fmt.Errorf("no datasets available; nothing to snapshot")
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	snapshotID, err := db.CreateSnapshot("track", appVersion)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	for _, m := range metrics {
		if err := db.InsertMetric(snapshotID, m.Scope, m.MetricName, m.MetricValue); err != nil {
			return fmt.Errorf("inserting metric %s: %w", m.MetricName, err)
		}
	}

	diff, err := db.Diff()
	if err != nil {
		return fmt.Errorf("comparing snapshots: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diff)
	}

	renderTrackOutput(diff)
	return nil
}

// collectHeadlineMetrics computes the org-wide metrics from every dataset
// that loads. A missing dataset drops its metrics from the snapshot.
func collectHeadlineMetrics(e *engines) []store.Metric {
	var metrics []store.Metric
	add := func(scope, name string, value float64) {
		metrics = append(metrics, store.Metric{Scope: scope, MetricName: name, MetricValue: value})
	}

	if engine, err := e.usage.Get(); err != nil {
		log.WithError(err).Warn("usage dataset unavailable")
	} else if summary, err := engine.SummarizeUsage("", "", ""); err != nil {
		log.WithError(err).Warn("usage summary failed")
	} else {
		add("overall", "population", float64(summary.Population))
		add("overall", "active_developers", float64(summary.ActiveDevelopers))
		add("overall", "adoption_rate", summary.AdoptionRate)
		add("overall", "total_requests", summary.TotalRequests)
		if summary.AcceptanceRate != nil {
			add("overall", "acceptance_rate", *summary.AcceptanceRate)
		}

		if breakdown, err := engine.DivisionBreakdown("", "", -1); err == nil {
			for _, entry := range breakdown.Entries {
				add(entry.Division, "active_developers", float64(entry.Active))
				add(entry.Division, "adoption_rate", entry.AdoptionRate)
			}
		}
	}

	if engine, err := e.segments.Get(); err != nil {
		log.WithError(err).Warn("segment adoption dataset unavailable")
	} else if summary, err := engine.Summary("", "", ""); err != nil {
		log.WithError(err).Warn("segment summary failed")
	} else {
		if summary.FTECoverage != nil {
			add("overall", "fte_coverage", *summary.FTECoverage)
		}
		if summary.ContractorCoverage != nil {
			add("overall", "contractor_coverage", *summary.ContractorCoverage)
		}
	}

	if engine, err := e.premium.Get(); err != nil {
		log.WithError(err).Warn("premium request dataset unavailable")
	} else if summary, err := engine.Summary("", "", "", ""); err != nil {
		log.WithError(err).Warn("premium summary failed")
	} else {
		add("overall", "premium_requests", summary.TotalRequests)
		add("overall", "premium_users", float64(summary.UniqueUsers))
		add("overall", "net_cost", summary.NetCost)
		add("overall", "exceeded_quota", float64(summary.ExceededQuota))
	}

	return metrics
}

func renderTrackOutput(diff *store.SnapshotDiff) {
	fmt.Println(output.Section("Track: Snapshot Comparison"))
	fmt.Println()
	fmt.Printf(" Snapshot #%d taken at %s\n\n", diff.Current.ID, diff.Current.TakenAt.Format("2006-01-02 15:04:05"))

	if diff.Previous == nil {
		fmt.Println(" First snapshot recorded. Run 'copilotwatch track' again later to see trends.")
		return
	}

	fmt.Printf(" Comparing against snapshot #%d (%s)\n\n",
		diff.Previous.ID, diff.Previous.TakenAt.Format("2006-01-02 15:04:05"))

	tbl := output.NewTable("Scope", "Metric", "Previous", "Current", "Delta", "Trend").AlignRight(2, 3, 4)
	for _, d := range diff.Deltas {
		higherIsBetter, known := metricDirection[d.Name]
		if !known {
			higherIsBetter = true
		}
		tbl.AddRow(
			d.Scope,
			d.Name,
			fmt.Sprintf("%.1f", d.Previous),
			fmt.Sprintf("%.1f", d.Current),
			fmt.Sprintf("%+.1f", d.Delta),
			output.TrendArrow(d.Delta, higherIsBetter),
		)
	}
	tbl.Print()
}
