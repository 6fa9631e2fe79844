package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/copilotwatch/internal/config"
	"github.com/blackwell-systems/copilotwatch/internal/output"
	"github.com/blackwell-systems/copilotwatch/internal/registry"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the copilotwatch setup is healthy",
	Long: `Run a series of health checks against the configured dataset paths and
the metrics registry. Prints a pass/fail line for each check and a
summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	checks := []doctorCheck{
		checkDataset("Developer usage CSV", cfg.Datasets.UsageCSV, "COPILOT_USAGE_CSV"),
		checkDataset("Interaction metrics CSV", cfg.Datasets.InteractionsCSV, "COPILOT_INTERACTIONS_CSV"),
		checkDataset("Segment adoption CSV", cfg.Datasets.SegmentAdoptionCSV, "COPILOT_SEGMENT_ADOPTION_CSV"),
		checkDataset("Premium requests CSV", cfg.Datasets.PremiumRequestsCSV, "COPILOT_PREMIUM_REQUESTS_CSV"),
		checkMetricsRegistry(cfg.MetricsFile),
		checkDatabase(),
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		out := doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkDataset verifies that a dataset CSV exists and is a regular file.
func checkDataset(name, path, envVar string) doctorCheck {
	info, err := os.Stat(path)
	if err != nil {
		return doctorCheck{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("not found: %s (set %s)", path, envVar),
		}
	}
	if info.IsDir() {
		return doctorCheck{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("path is a directory: %s", path),
		}
	}
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s (%d bytes)", path, info.Size()),
	}
}

// checkMetricsRegistry verifies that the metric catalogue loads and counts
// its entries.
func checkMetricsRegistry(path string) doctorCheck {
	reg, err := registry.Load(path)
	if err != nil {
		return doctorCheck{
			Name:    "Metrics registry",
			Passed:  false,
			Message: err.Error(),
		}
	}
	return doctorCheck{
		Name:    "Metrics registry",
		Passed:  true,
		Message: fmt.Sprintf("%d metrics defined in %s", len(reg.Describe(nil)), path),
	}
}

// checkDatabase verifies that the snapshot database file exists.
func checkDatabase() doctorCheck {
	dbPath := config.DBPath()
	if _, err := os.Stat(dbPath); err != nil {
		return doctorCheck{
			Name:    "Snapshot database",
			Passed:  false,
			Message: fmt.Sprintf("not found at %s (run 'copilotwatch track' to create)", dbPath),
		}
	}
	return doctorCheck{
		Name:    "Snapshot database",
		Passed:  true,
		Message: dbPath,
	}
}
