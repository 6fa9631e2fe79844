// Package config provides configuration loading and defaults for copilotwatch.
package config

// Default dataset locations, relative to the working directory. Each can
// be overridden in the config file or through its COPILOT_* environment
// variable.
var DefaultDatasets = Datasets{
	UsageCSV:           "data/developer_monthly_usage.csv",
	InteractionsCSV:    "data/copilot_interactions.csv",
	SegmentAdoptionCSV: "data/copilot/segment_adoption.csv",
	PremiumRequestsCSV: "data/copilot/premium_requests_db.csv",
}

// DefaultMetricsFile is the default metric catalogue location.
const DefaultMetricsFile = "config/metrics.yaml"

// DefaultConfigDir is the default location for copilotwatch configuration.
const DefaultConfigDir = "~/.config/copilotwatch"

// DefaultDBName is the filename for the snapshot SQLite database.
const DefaultDBName = "copilotwatch.db"

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
