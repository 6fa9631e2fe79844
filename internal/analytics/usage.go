package analytics

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/copilotwatch/internal/dataset"
	"github.com/blackwell-systems/copilotwatch/internal/output"
	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// UsageEngine answers adoption and acceptance questions from the
// developer monthly usage export joined with the interaction log. The
// usage table is the population source; the interaction table supplies
// activity, requests, and line counts.
type UsageEngine struct {
	usage        []dataset.DeveloperUsageRow
	interactions []dataset.InteractionRow
	columns      dataset.InteractionColumns
}

// NewUsageEngine loads both CSVs and resolves the metric columns once.
func NewUsageEngine(usageCSV, interactionsCSV string) (*UsageEngine, error) {
	usage, err := dataset.LoadDeveloperUsage(usageCSV)
	if err != nil {
		return nil, err
	}
	interactions, columns, err := dataset.LoadInteractions(interactionsCSV, usage)
	if err != nil {
		return nil, err
	}
	return &UsageEngine{usage: usage, interactions: interactions, columns: columns}, nil
}

// AvailableDivisions returns the sorted distinct division names present
// in the developer usage table.
func (e *UsageEngine) AvailableDivisions() []string {
	divisions := make([]string, 0, len(e.usage))
	for _, row := range e.usage {
		divisions = append(divisions, row.Division)
	}
	return sortedDistinct(divisions)
}

// ModelShare is one model's slice of total weighted usage.
type ModelShare struct {
	Model string  `json:"model"`
	Share float64 `json:"share"`
}

// UsageSummary is the structured result of SummarizeUsage.
type UsageSummary struct {
	Division string       `json:"division,omitempty"`
	Period   period.Range `json:"period"`

	Population       int     `json:"population"`
	ActiveDevelopers int     `json:"active_developers"`
	AdoptionRate     float64 `json:"adoption_rate"`

	TotalRequests  float64  `json:"total_requests"`
	SuggestedLines *float64 `json:"suggested_lines"`
	AcceptedLines  *float64 `json:"accepted_lines"`
	AcceptanceRate *float64 `json:"acceptance_rate"`

	TopModels []ModelShare `json:"top_models"`
}

// SummarizeUsage reports adoption and acceptance for a division (or the
// whole organization) over an optional month range.
func (e *UsageEngine) SummarizeUsage(division, startMonth, endMonth string) (*UsageSummary, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	summary := &UsageSummary{Division: division, Period: rng}
	summary.Population = e.populationSize(division)
	if summary.Population == 0 {
		return summary, nil
	}

	scoped := e.filterInteractions(division, rng)

	active := make(map[string]bool)
	for _, row := range scoped {
		if row.DeveloperID != "" {
			active[row.DeveloperID] = true
		}
	}
	summary.ActiveDevelopers = len(active)
	summary.AdoptionRate = float64(summary.ActiveDevelopers) / float64(summary.Population) * 100

	if requests := sumMetric(scoped, e.columns.Request, func(r dataset.InteractionRow) *float64 { return r.Requests }); requests != nil {
		summary.TotalRequests = *requests
	} else {
		summary.TotalRequests = float64(len(scoped))
	}
	summary.SuggestedLines = sumMetric(scoped, e.columns.Suggested, func(r dataset.InteractionRow) *float64 { return r.Suggested })
	summary.AcceptedLines = sumMetric(scoped, e.columns.Accepted, func(r dataset.InteractionRow) *float64 { return r.Accepted })
	if summary.SuggestedLines != nil && *summary.SuggestedLines != 0 {
		accepted := 0.0
		if summary.AcceptedLines != nil {
			accepted = *summary.AcceptedLines
		}
		rate := accepted / *summary.SuggestedLines * 100
		summary.AcceptanceRate = &rate
	}

	summary.TopModels = e.modelShares(scoped, 3)
	return summary, nil
}

// Render writes the summary as the human-readable block returned at the
// query boundary.
func (s *UsageSummary) Render() string {
	if s.Population == 0 {
		return "No developers found for the specified division. Verify the COPILOT_USAGE_CSV content."
	}

	target := s.Division
	if target == "" {
		target = "all divisions"
	}
	lines := []string{
		fmt.Sprintf("Scope: %s during %s", target, s.Period.Description()),
		fmt.Sprintf("Active developers: %d of %d total (%.1f%% adoption)",
			s.ActiveDevelopers, s.Population, s.AdoptionRate),
		fmt.Sprintf("Copilot requests: %s", output.FormatCount(s.TotalRequests)),
	}
	switch {
	case s.SuggestedLines != nil && s.AcceptedLines != nil:
		line := fmt.Sprintf("Lines accepted: %s of %s",
			output.FormatCount(*s.AcceptedLines), output.FormatCount(*s.SuggestedLines))
		if s.AcceptanceRate != nil {
			line += fmt.Sprintf(" (%.1f%% acceptance)", *s.AcceptanceRate)
		}
		lines = append(lines, line)
	case s.AcceptedLines != nil:
		lines = append(lines, fmt.Sprintf("Lines accepted: %s", output.FormatCount(*s.AcceptedLines)))
	}
	if len(s.TopModels) > 0 {
		parts := make([]string, 0, len(s.TopModels))
		for _, m := range s.TopModels {
			parts = append(parts, fmt.Sprintf("%s: %.1f%%", m.Model, m.Share))
		}
		lines = append(lines, "Top models: "+strings.Join(parts, ", "))
	}
	return strings.Join(lines, "\n")
}

// AdoptionPoint is one month of the adoption trend series.
type AdoptionPoint struct {
	Month      period.Month `json:"month"`
	Active     int          `json:"active"`
	Population int          `json:"population"`
	Rate       float64      `json:"rate"`
}

// AdoptionTrend is the structured result of the AdoptionTrend query.
type AdoptionTrend struct {
	Division string          `json:"division,omitempty"`
	Period   period.Range    `json:"period"`
	Points   []AdoptionPoint `json:"points"`

	empty string
}

// AdoptionTrend builds a per-month adoption series. Population counts
// are carried forward across interaction months missing a usage
// snapshot; months with no population data at all are excluded. Only
// the most recent limit months are kept, in ascending order.
func (e *UsageEngine) AdoptionTrend(division, startMonth, endMonth string, limit int) (*AdoptionTrend, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	trend := &AdoptionTrend{Division: division, Period: rng}
	scoped := e.filterInteractions(division, rng)
	if len(scoped) == 0 {
		trend.empty = "No interaction records match the requested scope."
		return trend, nil
	}

	activeByMonth := make(map[period.Month]map[string]bool)
	for _, row := range scoped {
		if row.DeveloperID == "" {
			continue
		}
		set, ok := activeByMonth[row.Month]
		if !ok {
			set = make(map[string]bool)
			activeByMonth[row.Month] = set
		}
		set[row.DeveloperID] = true
	}

	populationByMonth := e.populationByMonth(division)

	months := make(map[period.Month]bool, len(activeByMonth))
	for m := range activeByMonth {
		months[m] = true
	}

	var carried int
	var haveCarried bool
	for _, month := range sortedMonths(months) {
		population, ok := populationByMonth[month]
		if ok {
			carried = population
			haveCarried = true
		} else if haveCarried {
			population = carried
		} else {
			// No population observed yet; drop the month.
			continue
		}
		active := len(activeByMonth[month])
		trend.Points = append(trend.Points, AdoptionPoint{
			Month:      month,
			Active:     active,
			Population: population,
			Rate:       float64(active) / float64(population) * 100,
		})
	}
	if len(trend.Points) == 0 {
		trend.empty = "Population data is missing for the requested period."
		return trend, nil
	}

	if limit < 0 {
		limit = 0
	}
	if len(trend.Points) > limit {
		trend.Points = trend.Points[len(trend.Points)-limit:]
	}
	return trend, nil
}

// Render writes the trend as a bulleted month series.
func (t *AdoptionTrend) Render() string {
	if t.empty != "" {
		return t.empty
	}
	target := t.Division
	if target == "" {
		target = "all divisions"
	}
	lines := []string{fmt.Sprintf("Adoption trend for %s, %s:", target, t.Period.Description())}
	for _, p := range t.Points {
		lines = append(lines, fmt.Sprintf("- %s: %.1f%% (%d of %d)", p.Month, p.Rate, p.Active, p.Population))
	}
	return strings.Join(lines, "\n")
}

// ModelMix is the structured result of the ModelMix query.
type ModelMix struct {
	Division string       `json:"division,omitempty"`
	Period   period.Range `json:"period"`
	Shares   []ModelShare `json:"shares"`

	empty string
}

// ModelMix ranks models by share of total weighted usage in scope.
func (e *UsageEngine) ModelMix(division, startMonth, endMonth string, limit int) (*ModelMix, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	mix := &ModelMix{Division: division, Period: rng}
	scoped := e.filterInteractions(division, rng)
	if len(scoped) == 0 {
		mix.empty = "Model usage data is not available for the requested scope."
		return mix, nil
	}
	if !e.columns.HasModel {
		mix.empty = "The interaction dataset does not contain a model column."
		return mix, nil
	}

	mix.Shares = e.modelShares(scoped, limit)
	if len(mix.Shares) == 0 {
		mix.empty = "No model usage captured for the requested scope."
	}
	return mix, nil
}

// Render writes the model mix as a bulleted share list.
func (m *ModelMix) Render() string {
	if m.empty != "" {
		return m.empty
	}
	target := m.Division
	if target == "" {
		target = "all divisions"
	}
	lines := []string{fmt.Sprintf("Model mix for %s during %s:", target, m.Period.Description())}
	for _, share := range m.Shares {
		lines = append(lines, fmt.Sprintf("- %s: %.1f%% of usage", share.Model, share.Share))
	}
	return strings.Join(lines, "\n")
}

// DivisionStat is one division's activity line.
type DivisionStat struct {
	Division     string  `json:"division"`
	Active       int     `json:"active"`
	AdoptionRate float64 `json:"adoption_rate"`
}

// DivisionBreakdown is the structured result of the DivisionBreakdown query.
type DivisionBreakdown struct {
	Period  period.Range   `json:"period"`
	Entries []DivisionStat `json:"entries"`

	empty string
}

// DivisionBreakdown ranks divisions by distinct active developers, each
// annotated with the division's adoption rate against its own population.
func (e *UsageEngine) DivisionBreakdown(startMonth, endMonth string, limit int) (*DivisionBreakdown, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	breakdown := &DivisionBreakdown{Period: rng}
	scoped := e.filterInteractions("", rng)
	if len(scoped) == 0 {
		breakdown.empty = "No interactions available to compute division breakdown."
		return breakdown, nil
	}

	counts := newGroupDistinct()
	for _, row := range scoped {
		counts.Add(row.Division, row.DeveloperID)
	}
	for _, entry := range counts.Top(limit) {
		population := e.populationSize(entry.Key)
		adoption := 0.0
		if population > 0 {
			adoption = entry.Value / float64(population) * 100
		}
		breakdown.Entries = append(breakdown.Entries, DivisionStat{
			Division:     entry.Key,
			Active:       int(entry.Value),
			AdoptionRate: adoption,
		})
	}
	return breakdown, nil
}

// Render writes the breakdown as a bulleted ranking.
func (b *DivisionBreakdown) Render() string {
	if b.empty != "" {
		return b.empty
	}
	lines := []string{fmt.Sprintf("Top divisions by active Copilot users (%s):", b.Period.Description())}
	for _, entry := range b.Entries {
		lines = append(lines, fmt.Sprintf("- %s: %d active developers (%.1f%% adoption)",
			entry.Division, entry.Active, entry.AdoptionRate))
	}
	return strings.Join(lines, "\n")
}

func (e *UsageEngine) populationSize(division string) int {
	developers := make(map[string]bool)
	for _, row := range e.usage {
		if division != "" && !strings.EqualFold(row.Division, division) {
			continue
		}
		if row.DeveloperID != "" {
			developers[row.DeveloperID] = true
		}
	}
	return len(developers)
}

func (e *UsageEngine) populationByMonth(division string) map[period.Month]int {
	byMonth := make(map[period.Month]map[string]bool)
	for _, row := range e.usage {
		if division != "" && !strings.EqualFold(row.Division, division) {
			continue
		}
		if row.DeveloperID == "" {
			continue
		}
		set, ok := byMonth[row.Month]
		if !ok {
			set = make(map[string]bool)
			byMonth[row.Month] = set
		}
		set[row.DeveloperID] = true
	}
	out := make(map[period.Month]int, len(byMonth))
	for month, set := range byMonth {
		out[month] = len(set)
	}
	return out
}

func (e *UsageEngine) filterInteractions(division string, rng period.Range) []dataset.InteractionRow {
	var out []dataset.InteractionRow
	for _, row := range e.interactions {
		if division != "" && !strings.EqualFold(row.Division, division) {
			continue
		}
		if !rng.Contains(row.Month) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// modelShares computes the top-N models by weighted share of usage.
// When the request column is absent or sums to zero, plain event counts
// weigh the mix instead.
func (e *UsageEngine) modelShares(scoped []dataset.InteractionRow, limit int) []ModelShare {
	if !e.columns.HasModel {
		return nil
	}
	requests := sumMetric(scoped, e.columns.Request, func(r dataset.InteractionRow) *float64 { return r.Requests })
	useWeight := requests != nil && *requests != 0

	mix := newGroupSum()
	for _, row := range scoped {
		if useWeight {
			if row.Requests != nil {
				mix.Add(row.Model, *row.Requests)
			} else {
				mix.Add(row.Model, 0)
			}
		} else {
			mix.Add(row.Model, 1)
		}
	}
	total := mix.Total()
	if total == 0 {
		return nil
	}

	var shares []ModelShare
	for _, entry := range mix.Top(limit) {
		shares = append(shares, ModelShare{Model: entry.Key, Share: entry.Value / total * 100})
	}
	return shares
}

// sumMetric sums a resolved metric column over the scoped rows. A nil
// result means the column was never selected at load time.
func sumMetric(rows []dataset.InteractionRow, column string, cell func(dataset.InteractionRow) *float64) *float64 {
	if column == "" {
		return nil
	}
	sum := 0.0
	for _, row := range rows {
		if v := cell(row); v != nil {
			sum += *v
		}
	}
	return &sum
}
