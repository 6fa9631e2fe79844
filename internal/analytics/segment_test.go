package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const segmentFixture = `month,segment,active_users_fte,total_seats_fte,active_users_nonfte,total_seats_nonfte,billing_adoption_fte
2025-06,Wealth,40,100,5,10,35.0
2025-07,Wealth,60,100,6,10,45.0
2025-08,Wealth,80,100,8,10,55.0
2025-06,Retail,10,50,0,0,
2025-07,Retail,20,50,0,0,
`

func newTestSegmentEngine(t *testing.T, csv string) *SegmentEngine {
	t.Helper()
	engine, err := NewSegmentEngine(writeCSV(t, "segments.csv", csv))
	require.NoError(t, err)
	return engine
}

func TestAvailableSegments(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)
	assert.Equal(t, []string{"Retail", "Wealth"}, engine.AvailableSegments())
}

func TestSegmentSummary(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	summary, err := engine.Summary("Wealth", "", "")
	require.NoError(t, err)

	require.NotNil(t, summary.FTEActive)
	assert.InDelta(t, 180.0, *summary.FTEActive, 0.001)
	require.NotNil(t, summary.FTESeats)
	assert.InDelta(t, 300.0, *summary.FTESeats, 0.001)
	require.NotNil(t, summary.FTECoverage)
	assert.InDelta(t, 60.0, *summary.FTECoverage, 0.001)
	require.NotNil(t, summary.FTEBilling)
	assert.InDelta(t, 45.0, *summary.FTEBilling, 0.001)

	require.NotNil(t, summary.Peak)
	assert.Equal(t, "Wealth", summary.Peak.Segment)
	assert.Equal(t, "2025-08", summary.Peak.Month.String())
	assert.InDelta(t, 80.0, summary.Peak.Utilisation, 0.001)

	out := summary.Render()
	assert.Contains(t, out, "Segment adoption summary for Wealth during all available months:")
	assert.Contains(t, out, "- FTE: 180 active of 300 seats (60.0% utilisation), billing programme 45.0%")
	assert.Contains(t, out, "- Non-FTE: 19 active of 30 seats (63.3% utilisation)")
	assert.Contains(t, out, "Highest FTE coverage: Wealth at 80.0% (2025-08)")
}

func TestSegmentSummarySuppressesEmptyContractorLine(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	summary, err := engine.Summary("Retail", "", "")
	require.NoError(t, err)

	out := summary.Render()
	assert.NotContains(t, out, "Non-FTE:")
}

func TestSegmentSummaryEmptyScope(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	summary, err := engine.Summary("Nonexistent", "", "")
	require.NoError(t, err)
	assert.Equal(t, "No segment adoption records match the requested scope.", summary.Render())
}

func TestSegmentTrendRecomputesRatiosFromMonthlySums(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	trend, err := engine.Trend("", "fte_adoption", "", "", 6)
	require.NoError(t, err)
	require.Len(t, trend.Points, 3)

	// 2025-06: (40+10)/(100+50) = 33.3%, not the 35.0% mean of per-row
	// percentages.
	require.NotNil(t, trend.Points[0].Value)
	assert.InDelta(t, 33.333, *trend.Points[0].Value, 0.01)

	out := trend.Render()
	assert.True(t, strings.HasPrefix(out, "FTE utilisation trend for all segments (all available months):"))
	assert.Contains(t, out, "- 2025-06: 33.3%")
}

func TestSegmentTrendUndefinedRatioRendersNoData(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	trend, err := engine.Trend("Retail", "non_fte_adoption", "", "", 6)
	require.NoError(t, err)
	require.Len(t, trend.Points, 2)
	assert.Nil(t, trend.Points[0].Value)

	out := trend.Render()
	assert.Contains(t, out, "- 2025-06: no data")
	assert.NotContains(t, out, "Inf")
	assert.NotContains(t, out, "NaN")
}

func TestSegmentTrendLimitReturnsLatestMonth(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	trend, err := engine.Trend("Wealth", "fte_active", "", "", 1)
	require.NoError(t, err)
	require.Len(t, trend.Points, 1)
	assert.Equal(t, "2025-08", trend.Points[0].Month.String())
	require.NotNil(t, trend.Points[0].Value)
	assert.InDelta(t, 80.0, *trend.Points[0].Value, 0.001)

	out := trend.Render()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "- 2025-08: 80", lines[1])
}

func TestSegmentTrendUnknownMetricFallsBack(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	trend, err := engine.Trend("Wealth", "bogus", "", "", 6)
	require.NoError(t, err)
	assert.Equal(t, MetricFTEAdoption, trend.Metric)
}

func TestSegmentLeaders(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	leaders, err := engine.Leaders("", "fte_adoption", 5)
	require.NoError(t, err)
	require.Len(t, leaders.Entries, 2)
	assert.Equal(t, "Wealth", leaders.Entries[0].Segment)
	assert.InDelta(t, 60.0, leaders.Entries[0].Value, 0.001)
	assert.Equal(t, "Retail", leaders.Entries[1].Segment)
	assert.InDelta(t, 30.0, leaders.Entries[1].Value, 0.001)

	out := leaders.Render()
	assert.Contains(t, out, "Top segments by FTE utilisation (all available months):")
	assert.Contains(t, out, "- Wealth: 60.0%")
}

func TestSegmentLeadersExcludesUndefinedRatios(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	// Retail has zero non-FTE seats, so its ratio is undefined and it
	// drops out of the ranking instead of showing 0%.
	leaders, err := engine.Leaders("", "non_fte_adoption", 5)
	require.NoError(t, err)
	require.Len(t, leaders.Entries, 1)
	assert.Equal(t, "Wealth", leaders.Entries[0].Segment)
}

func TestSegmentLeadersMonthFilter(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	leaders, err := engine.Leaders("2025-08", "fte_adoption", 5)
	require.NoError(t, err)
	assert.Equal(t, "2025-08", leaders.PeriodLabel)
	require.Len(t, leaders.Entries, 1)
	assert.Equal(t, "Wealth", leaders.Entries[0].Segment)
	assert.InDelta(t, 80.0, leaders.Entries[0].Value, 0.001)

	empty, err := engine.Leaders("2030-01", "fte_adoption", 5)
	require.NoError(t, err)
	assert.Equal(t, "No segment adoption data available for the requested period.", empty.Render())
}

func TestSegmentLeadersInvalidMonth(t *testing.T) {
	engine := newTestSegmentEngine(t, segmentFixture)

	_, err := engine.Leaders("202508", "fte_adoption", 5)
	require.Error(t, err)
}
