package analytics

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/copilotwatch/internal/dataset"
	"github.com/blackwell-systems/copilotwatch/internal/output"
	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// SegmentMetric selects which series a segment trend or leaderboard
// reports on.
type SegmentMetric string

const (
	MetricFTEAdoption    SegmentMetric = "fte_adoption"
	MetricNonFTEAdoption SegmentMetric = "non_fte_adoption"
	MetricFTEActive      SegmentMetric = "fte_active"
	MetricNonFTEActive   SegmentMetric = "non_fte_active"
)

// NormalizeSegmentMetric maps an arbitrary metric argument onto the
// known set, falling back to FTE adoption. Enum arguments have a safe
// default; date ranges do not.
func NormalizeSegmentMetric(raw string) SegmentMetric {
	switch SegmentMetric(raw) {
	case MetricNonFTEAdoption, MetricFTEActive, MetricNonFTEActive:
		return SegmentMetric(raw)
	default:
		return MetricFTEAdoption
	}
}

func (m SegmentMetric) description() string {
	switch m {
	case MetricNonFTEAdoption:
		return "Non-FTE utilisation"
	case MetricFTEActive:
		return "Active FTE"
	case MetricNonFTEActive:
		return "Active Non-FTE"
	default:
		return "FTE utilisation"
	}
}

func (m SegmentMetric) isCount() bool {
	return m == MetricFTEActive || m == MetricNonFTEActive
}

// SegmentEngine answers seat-utilisation and billing-adoption questions
// from the aggregated segment-level export.
type SegmentEngine struct {
	rows []dataset.SegmentAdoptionRow
}

// NewSegmentEngine loads the segment adoption CSV.
func NewSegmentEngine(csvPath string) (*SegmentEngine, error) {
	rows, err := dataset.LoadSegmentAdoption(csvPath)
	if err != nil {
		return nil, err
	}
	return &SegmentEngine{rows: rows}, nil
}

// AvailableSegments returns the sorted distinct segment names.
func (e *SegmentEngine) AvailableSegments() []string {
	segments := make([]string, 0, len(e.rows))
	for _, row := range e.rows {
		segments = append(segments, row.Segment)
	}
	return sortedDistinct(segments)
}

// SegmentPeak identifies the single highest FTE utilisation row in scope.
type SegmentPeak struct {
	Segment     string       `json:"segment"`
	Month       period.Month `json:"month"`
	Utilisation float64      `json:"utilisation"`
}

// SegmentSummary is the structured result of the Summary query.
type SegmentSummary struct {
	Scope  string       `json:"scope,omitempty"`
	Period period.Range `json:"period"`

	FTEActive   *float64 `json:"fte_active"`
	FTESeats    *float64 `json:"fte_seats"`
	FTECoverage *float64 `json:"fte_coverage"`
	FTEBilling  *float64 `json:"fte_billing"`

	ContractorActive   float64  `json:"contractor_active"`
	ContractorSeats    float64  `json:"contractor_seats"`
	ContractorCoverage *float64 `json:"contractor_coverage"`
	ContractorBilling  *float64 `json:"contractor_billing"`

	Peak *SegmentPeak `json:"peak,omitempty"`

	empty string
}

// Summary aggregates seats, active counts, mean utilisation, and mean
// billing adoption for a segment (or all segments) over a month range.
func (e *SegmentEngine) Summary(segment, startMonth, endMonth string) (*SegmentSummary, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	scope := segment
	if scope == "" {
		scope = "all segments"
	}
	summary := &SegmentSummary{Scope: scope, Period: rng}

	scoped := e.filter(segment, rng)
	if len(scoped) == 0 {
		summary.empty = "No segment adoption records match the requested scope."
		return summary, nil
	}

	summary.FTEActive = sumOptional(scoped, func(r dataset.SegmentAdoptionRow) *float64 { return r.ActiveFTE })
	summary.FTESeats = sumOptional(scoped, func(r dataset.SegmentAdoptionRow) *float64 { return r.SeatsFTE })
	summary.FTECoverage = meanOptional(scoped, func(r dataset.SegmentAdoptionRow) *float64 { return r.FTEUtilisation })
	summary.FTEBilling = meanOptional(scoped, func(r dataset.SegmentAdoptionRow) *float64 { return r.BillingFTE })

	for _, row := range scoped {
		summary.ContractorActive += row.ActiveNonFTE
		summary.ContractorSeats += row.SeatsNonFTE
	}
	summary.ContractorCoverage = meanOptional(scoped, func(r dataset.SegmentAdoptionRow) *float64 { return r.NonFTEUtilisation })
	summary.ContractorBilling = meanOptional(scoped, func(r dataset.SegmentAdoptionRow) *float64 { return r.BillingNonFTE })

	for _, row := range scoped {
		if row.FTEUtilisation == nil {
			continue
		}
		if summary.Peak == nil || *row.FTEUtilisation > summary.Peak.Utilisation {
			summary.Peak = &SegmentPeak{
				Segment:     row.Segment,
				Month:       row.Month,
				Utilisation: *row.FTEUtilisation,
			}
		}
	}
	return summary, nil
}

// Render writes the summary block. The contractor line is suppressed
// when seats, active count, and billing are all simultaneously absent,
// which distinguishes "no contractors here" from "zero utilisation".
func (s *SegmentSummary) Render() string {
	if s.empty != "" {
		return s.empty
	}

	lines := []string{fmt.Sprintf("Segment adoption summary for %s during %s:", s.Scope, s.Period.Description())}
	if s.FTEActive != nil && s.FTESeats != nil {
		line := fmt.Sprintf("- FTE: %s active of %s seats",
			output.FormatCount(*s.FTEActive), output.FormatCount(*s.FTESeats))
		if s.FTECoverage != nil {
			line += fmt.Sprintf(" (%.1f%% utilisation)", *s.FTECoverage)
		}
		if s.FTEBilling != nil {
			line += fmt.Sprintf(", billing programme %.1f%%", *s.FTEBilling)
		}
		lines = append(lines, line)
	}
	if !(s.ContractorSeats == 0 && s.ContractorActive == 0 && s.ContractorBilling == nil) {
		line := fmt.Sprintf("- Non-FTE: %s active of %s seats",
			output.FormatCount(s.ContractorActive), output.FormatCount(s.ContractorSeats))
		if s.ContractorCoverage != nil {
			line += fmt.Sprintf(" (%.1f%% utilisation)", *s.ContractorCoverage)
		}
		if s.ContractorBilling != nil {
			line += fmt.Sprintf(", billing programme %.1f%%", *s.ContractorBilling)
		}
		lines = append(lines, line)
	}
	if s.Peak != nil {
		lines = append(lines, fmt.Sprintf("Highest FTE coverage: %s at %.1f%% (%s)",
			s.Peak.Segment, s.Peak.Utilisation, s.Peak.Month))
	}
	return strings.Join(lines, "\n")
}

// SegmentTrendPoint is one month of a segment trend series. A nil value
// marks a month whose ratio is undefined.
type SegmentTrendPoint struct {
	Month period.Month `json:"month"`
	Value *float64     `json:"value"`
}

// SegmentTrend is the structured result of the Trend query.
type SegmentTrend struct {
	Metric SegmentMetric       `json:"metric"`
	Scope  string              `json:"scope,omitempty"`
	Period period.Range        `json:"period"`
	Points []SegmentTrendPoint `json:"points"`

	empty string
}

// Trend builds a monthly series for the chosen metric. Adoption ratios
// are recomputed from monthly-aggregated active and seat sums rather
// than averaging per-row percentages, so small segments do not skew the
// series.
func (e *SegmentEngine) Trend(segment, metric, startMonth, endMonth string, limit int) (*SegmentTrend, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	scope := segment
	if scope == "" {
		scope = "all segments"
	}
	trend := &SegmentTrend{Metric: NormalizeSegmentMetric(metric), Scope: scope, Period: rng}

	scoped := e.filter(segment, rng)
	if len(scoped) == 0 {
		trend.empty = "No segment adoption records match the requested scope."
		return trend, nil
	}

	monthly := aggregateMonthly(scoped)
	months := make(map[period.Month]bool, len(monthly))
	for m := range monthly {
		months[m] = true
	}
	for _, month := range tailMonths(sortedMonths(months), limit) {
		agg := monthly[month]
		trend.Points = append(trend.Points, SegmentTrendPoint{
			Month: month,
			Value: agg.metric(trend.Metric),
		})
	}
	return trend, nil
}

// Render writes the trend series; undefined months render as "no data".
func (t *SegmentTrend) Render() string {
	if t.empty != "" {
		return t.empty
	}
	lines := []string{fmt.Sprintf("%s trend for %s (%s):", t.Metric.description(), t.Scope, t.Period.Description())}
	for _, p := range t.Points {
		switch {
		case p.Value == nil:
			lines = append(lines, fmt.Sprintf("- %s: no data", p.Month))
		case t.Metric.isCount():
			lines = append(lines, fmt.Sprintf("- %s: %s", p.Month, output.FormatCount(*p.Value)))
		default:
			lines = append(lines, fmt.Sprintf("- %s: %.1f%%", p.Month, *p.Value))
		}
	}
	return strings.Join(lines, "\n")
}

// SegmentLeader is one ranked leaderboard row.
type SegmentLeader struct {
	Segment string  `json:"segment"`
	Value   float64 `json:"value"`
}

// SegmentLeaders is the structured result of the Leaders query.
type SegmentLeaders struct {
	Metric      SegmentMetric   `json:"metric"`
	PeriodLabel string          `json:"period"`
	Entries     []SegmentLeader `json:"entries"`

	empty string
}

// Leaders ranks segments by the chosen metric for one month, or across
// all months when no month is given. Segments whose ratio is undefined
// are excluded from the ranking rather than shown as zero.
func (e *SegmentEngine) Leaders(month, metric string, limit int) (*SegmentLeaders, error) {
	leaders := &SegmentLeaders{Metric: NormalizeSegmentMetric(metric), PeriodLabel: "all available months"}

	scoped := e.rows
	if month != "" {
		target, err := period.Parse(month)
		if err != nil {
			return nil, dataset.Configf("%s", err)
		}
		leaders.PeriodLabel = target.String()
		scoped = nil
		for _, row := range e.rows {
			if row.Month.Compare(target) == 0 {
				scoped = append(scoped, row)
			}
		}
	}
	if len(scoped) == 0 {
		leaders.empty = "No segment adoption data available for the requested period."
		return leaders, nil
	}

	bySegment := make(map[string]*segmentAggregate)
	var order []string
	for _, row := range scoped {
		agg, ok := bySegment[row.Segment]
		if !ok {
			agg = &segmentAggregate{}
			bySegment[row.Segment] = agg
			order = append(order, row.Segment)
		}
		agg.add(row)
	}

	ranking := newGroupSum()
	for _, segment := range order {
		if v := bySegment[segment].metric(leaders.Metric); v != nil {
			ranking.Add(segment, *v)
		}
	}
	for _, entry := range ranking.Top(limit) {
		leaders.Entries = append(leaders.Entries, SegmentLeader{Segment: entry.Key, Value: entry.Value})
	}
	if len(leaders.Entries) == 0 {
		leaders.empty = "No segment adoption data available for the requested period."
	}
	return leaders, nil
}

// Render writes the leaderboard as a bulleted ranking.
func (l *SegmentLeaders) Render() string {
	if l.empty != "" {
		return l.empty
	}
	lines := []string{fmt.Sprintf("Top segments by %s (%s):", l.Metric.description(), l.PeriodLabel)}
	for _, entry := range l.Entries {
		if l.Metric.isCount() {
			lines = append(lines, fmt.Sprintf("- %s: %s", entry.Segment, output.FormatCount(entry.Value)))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %.1f%%", entry.Segment, entry.Value))
		}
	}
	return strings.Join(lines, "\n")
}

func (e *SegmentEngine) filter(segment string, rng period.Range) []dataset.SegmentAdoptionRow {
	var out []dataset.SegmentAdoptionRow
	for _, row := range e.rows {
		if segment != "" && !strings.EqualFold(row.Segment, segment) {
			continue
		}
		if !rng.Contains(row.Month) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// segmentAggregate accumulates active and seat sums for one group, then
// recomputes the safe utilisation ratios from the sums.
type segmentAggregate struct {
	activeFTE    float64
	seatsFTE     float64
	activeNonFTE float64
	seatsNonFTE  float64
}

func (a *segmentAggregate) add(row dataset.SegmentAdoptionRow) {
	if row.ActiveFTE != nil {
		a.activeFTE += *row.ActiveFTE
	}
	if row.SeatsFTE != nil {
		a.seatsFTE += *row.SeatsFTE
	}
	a.activeNonFTE += row.ActiveNonFTE
	a.seatsNonFTE += row.SeatsNonFTE
}

func (a *segmentAggregate) metric(m SegmentMetric) *float64 {
	switch m {
	case MetricNonFTEAdoption:
		return dataset.SafePercentage(&a.activeNonFTE, a.seatsNonFTE)
	case MetricFTEActive:
		v := a.activeFTE
		return &v
	case MetricNonFTEActive:
		v := a.activeNonFTE
		return &v
	default:
		return dataset.SafePercentage(&a.activeFTE, a.seatsFTE)
	}
}

func aggregateMonthly(rows []dataset.SegmentAdoptionRow) map[period.Month]*segmentAggregate {
	monthly := make(map[period.Month]*segmentAggregate)
	for _, row := range rows {
		agg, ok := monthly[row.Month]
		if !ok {
			agg = &segmentAggregate{}
			monthly[row.Month] = agg
		}
		agg.add(row)
	}
	return monthly
}

// sumOptional sums the non-missing cells of a nullable column; nil when
// every cell is missing.
func sumOptional(rows []dataset.SegmentAdoptionRow, cell func(dataset.SegmentAdoptionRow) *float64) *float64 {
	sum := 0.0
	any := false
	for _, row := range rows {
		if v := cell(row); v != nil {
			sum += *v
			any = true
		}
	}
	if !any {
		return nil
	}
	return &sum
}

// meanOptional averages the non-missing cells of a nullable column.
func meanOptional(rows []dataset.SegmentAdoptionRow, cell func(dataset.SegmentAdoptionRow) *float64) *float64 {
	sum := 0.0
	count := 0
	for _, row := range rows {
		if v := cell(row); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}
