package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalogue = `metrics:
  adoption_rate:
    name: Adoption rate
    definition: Share of licensed developers with at least one interaction in the period.
    owner: Developer Experience
    min_aggregation_size: 10
    freshness_days: 7
  fte_utilisation:
    name: FTE utilisation
    definition: Active FTE seats divided by allocated FTE seats.
    owner: Workforce Analytics
    min_aggregation_size: 5
    freshness_days: 30
`

func writeCatalogue(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPreservesFileOrder(t *testing.T) {
	reg, err := Load(writeCatalogue(t, sampleCatalogue))
	require.NoError(t, err)

	all := reg.Describe(nil)
	require.Len(t, all, 2)
	assert.Equal(t, "adoption_rate", all[0].ID)
	assert.Equal(t, "Adoption rate", all[0].Name)
	assert.Equal(t, "fte_utilisation", all[1].ID)
	assert.Equal(t, "FTE utilisation", all[1].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, err.Error(), "COPILOT_METRICS_FILE")
}

func TestLoadMissingFieldFailsWholeRegistry(t *testing.T) {
	broken := `metrics:
  adoption_rate:
    name: Adoption rate
    definition: Something.
    owner: Developer Experience
    min_aggregation_size: 10
`
	_, err := Load(writeCatalogue(t, broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adoption_rate")
	assert.Contains(t, err.Error(), "freshness_days")
}

func TestDescribeOmitsUnknownIDs(t *testing.T) {
	reg, err := Load(writeCatalogue(t, sampleCatalogue))
	require.NoError(t, err)

	selected := reg.Describe([]string{"fte_utilisation", "nonexistent"})
	require.Len(t, selected, 1)
	assert.Equal(t, "FTE utilisation", selected[0].Name)
}

func TestAsMarkdown(t *testing.T) {
	reg, err := Load(writeCatalogue(t, sampleCatalogue))
	require.NoError(t, err)

	out := reg.AsMarkdown(nil)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Metric catalogue:", lines[0])
	assert.Contains(t, lines[1], "Adoption rate")
	assert.Contains(t, lines[1], "owner: Developer Experience")
	assert.Contains(t, lines[1], "min aggregation 10")
	assert.Contains(t, lines[1], "refreshed every 7 days")

	assert.Equal(t,
		"No metric definitions available for the requested identifiers.",
		reg.AsMarkdown([]string{"nope"}))
}
