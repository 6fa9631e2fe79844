package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// A missing config file is not an error; defaults apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDatasets.UsageCSV, cfg.Datasets.UsageCSV)
	assert.Equal(t, DefaultMetricsFile, cfg.MetricsFile)
	assert.True(t, cfg.Output.Color)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COPILOT_USAGE_CSV", "/tmp/usage.csv")
	t.Setenv("COPILOT_METRICS_FILE", "/tmp/metrics.yaml")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/usage.csv", cfg.Datasets.UsageCSV)
	assert.Equal(t, "/tmp/metrics.yaml", cfg.MetricsFile)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `datasets:
  usage_csv: /srv/exports/usage.csv
output:
  color: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/exports/usage.csv", cfg.Datasets.UsageCSV)
	assert.False(t, cfg.Output.Color)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultDatasets.InteractionsCSV, cfg.Datasets.InteractionsCSV)
}
