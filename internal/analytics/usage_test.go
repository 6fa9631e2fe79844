package analytics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/copilotwatch/internal/dataset"
)

// writeCSV writes content to a temp file and returns its path.
func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const usageFixture = `developer_id,division,month
dev-1,Wealth,2025-06
dev-2,Wealth,2025-06
dev-3,Retail,2025-06
dev-1,Wealth,2025-07
dev-2,Wealth,2025-07
dev-3,Retail,2025-07
dev-4,Retail,2025-07
`

const interactionsFixture = `developer_id,month,model,request_count,lines_suggested,lines_accepted
dev-1,2025-06,gpt-4o,10,100,50
dev-2,2025-06,claude,30,200,100
dev-1,2025-07,gpt-4o,20,100,80
dev-3,2025-07,claude,40,100,20
`

func newTestUsageEngine(t *testing.T, usageCSV, interactionsCSV string) *UsageEngine {
	t.Helper()
	engine, err := NewUsageEngine(writeCSV(t, "usage.csv", usageCSV), writeCSV(t, "interactions.csv", interactionsCSV))
	require.NoError(t, err)
	return engine
}

func TestAvailableDivisions(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)
	assert.Equal(t, []string{"Retail", "Wealth"}, engine.AvailableDivisions())
}

func TestSummarizeUsage(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	summary, err := engine.SummarizeUsage("", "", "")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Population)
	assert.Equal(t, 3, summary.ActiveDevelopers)
	assert.InDelta(t, 75.0, summary.AdoptionRate, 0.001)
	assert.InDelta(t, 100.0, summary.TotalRequests, 0.001)
	require.NotNil(t, summary.SuggestedLines)
	assert.InDelta(t, 500.0, *summary.SuggestedLines, 0.001)
	require.NotNil(t, summary.AcceptanceRate)
	assert.InDelta(t, 50.0, *summary.AcceptanceRate, 0.001)

	out := summary.Render()
	assert.Contains(t, out, "Scope: all divisions during all available months")
	assert.Contains(t, out, "Active developers: 3 of 4 total (75.0% adoption)")
	assert.Contains(t, out, "Copilot requests: 100")
	assert.Contains(t, out, "(50.0% acceptance)")
	assert.Contains(t, out, "Top models: claude: 70.0%, gpt-4o: 30.0%")
}

func TestSummarizeUsageDivisionFilterIsCaseInsensitive(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	summary, err := engine.SummarizeUsage("wealth", "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Population)
	assert.Equal(t, 2, summary.ActiveDevelopers)
}

func TestSummarizeUsageUnknownDivision(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	summary, err := engine.SummarizeUsage("Nonexistent", "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Population)
	assert.Equal(t,
		"No developers found for the specified division. Verify the COPILOT_USAGE_CSV content.",
		summary.Render())
}

func TestSummarizeUsageInvalidRange(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	_, err := engine.SummarizeUsage("", "2025-08", "2025-06")
	require.Error(t, err)
	var cfgErr *dataset.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "start_month must be earlier than end_month")

	_, err = engine.SummarizeUsage("", "not-a-month", "")
	require.Error(t, err)
	require.ErrorAs(t, err, &cfgErr)
}

func TestAdoptionTrend(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	trend, err := engine.AdoptionTrend("", "", "", 6)
	require.NoError(t, err)
	require.Len(t, trend.Points, 2)

	assert.Equal(t, "2025-06", trend.Points[0].Month.String())
	assert.Equal(t, 2, trend.Points[0].Active)
	assert.Equal(t, 3, trend.Points[0].Population)
	assert.Equal(t, "2025-07", trend.Points[1].Month.String())
	assert.Equal(t, 2, trend.Points[1].Active)
	assert.Equal(t, 4, trend.Points[1].Population)

	out := trend.Render()
	assert.Contains(t, out, "Adoption trend for all divisions, all available months:")
	assert.Contains(t, out, "- 2025-06: 66.7% (2 of 3)")
	assert.Contains(t, out, "- 2025-07: 50.0% (2 of 4)")
}

func TestAdoptionTrendForwardFillsPopulation(t *testing.T) {
	// August has interactions but no usage snapshot; July's population
	// carries forward. May precedes any snapshot and is excluded.
	usage := `developer_id,division,month
dev-1,Wealth,2025-07
dev-2,Wealth,2025-07
`
	interactions := `developer_id,month
dev-1,2025-05
dev-1,2025-07
dev-1,2025-08
dev-2,2025-08
`
	engine := newTestUsageEngine(t, usage, interactions)

	trend, err := engine.AdoptionTrend("", "", "", 6)
	require.NoError(t, err)
	require.Len(t, trend.Points, 2)
	assert.Equal(t, "2025-07", trend.Points[0].Month.String())
	assert.Equal(t, 2, trend.Points[0].Population)
	assert.Equal(t, "2025-08", trend.Points[1].Month.String())
	assert.Equal(t, 2, trend.Points[1].Population)
	assert.Equal(t, 2, trend.Points[1].Active)
}

func TestAdoptionTrendLimitKeepsLatestMonths(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	trend, err := engine.AdoptionTrend("", "", "", 1)
	require.NoError(t, err)
	require.Len(t, trend.Points, 1)
	assert.Equal(t, "2025-07", trend.Points[0].Month.String())
}

func TestAdoptionTrendEmptyScope(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	trend, err := engine.AdoptionTrend("Nonexistent", "", "", 6)
	require.NoError(t, err)
	assert.Equal(t, "No interaction records match the requested scope.", trend.Render())
}

func TestModelMix(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	mix, err := engine.ModelMix("", "", "", 5)
	require.NoError(t, err)
	require.Len(t, mix.Shares, 2)
	assert.Equal(t, "claude", mix.Shares[0].Model)
	assert.InDelta(t, 70.0, mix.Shares[0].Share, 0.001)

	out := mix.Render()
	assert.Contains(t, out, "Model mix for all divisions during all available months:")
	assert.Contains(t, out, "- claude: 70.0% of usage")
}

func TestModelMixWithoutModelColumn(t *testing.T) {
	interactions := `developer_id,month
dev-1,2025-06
`
	engine := newTestUsageEngine(t, usageFixture, interactions)

	mix, err := engine.ModelMix("", "", "", 5)
	require.NoError(t, err)
	assert.Equal(t, "The interaction dataset does not contain a model column.", mix.Render())
}

func TestDivisionBreakdown(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	breakdown, err := engine.DivisionBreakdown("", "", 5)
	require.NoError(t, err)
	require.Len(t, breakdown.Entries, 2)

	assert.Equal(t, "Wealth", breakdown.Entries[0].Division)
	assert.Equal(t, 2, breakdown.Entries[0].Active)
	assert.InDelta(t, 100.0, breakdown.Entries[0].AdoptionRate, 0.001)
	assert.Equal(t, "Retail", breakdown.Entries[1].Division)
	assert.Equal(t, 1, breakdown.Entries[1].Active)
	assert.InDelta(t, 50.0, breakdown.Entries[1].AdoptionRate, 0.001)

	out := breakdown.Render()
	assert.Contains(t, out, "Top divisions by active Copilot users (all available months):")
	assert.Contains(t, out, "- Wealth: 2 active developers (100.0% adoption)")
}

func TestQueriesAreIdempotent(t *testing.T) {
	engine := newTestUsageEngine(t, usageFixture, interactionsFixture)

	first, err := engine.SummarizeUsage("", "", "")
	require.NoError(t, err)
	second, err := engine.SummarizeUsage("", "", "")
	require.NoError(t, err)
	assert.Equal(t, first.Render(), second.Render())

	mixA, err := engine.ModelMix("", "", "", 5)
	require.NoError(t, err)
	mixB, err := engine.ModelMix("", "", "", 5)
	require.NoError(t, err)
	assert.Equal(t, mixA.Render(), mixB.Render())
}
