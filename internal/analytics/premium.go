package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/copilotwatch/internal/dataset"
	"github.com/blackwell-systems/copilotwatch/internal/output"
	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// UserType filters billing records to employees, contractors, or everyone.
type UserType string

const (
	UserTypeFTE        UserType = "fte"
	UserTypeContractor UserType = "contractor"
	UserTypeAll        UserType = "all"
)

// NormalizeUserType maps an arbitrary user_type argument onto the known
// set, falling back to all users.
func NormalizeUserType(raw string) UserType {
	switch UserType(raw) {
	case UserTypeFTE, UserTypeContractor:
		return UserType(raw)
	default:
		return UserTypeAll
	}
}

func (u UserType) label() string {
	switch u {
	case UserTypeFTE:
		return "FTE"
	case UserTypeContractor:
		return "contractors"
	default:
		return "all users"
	}
}

// PremiumMetric selects which series premium trends and rankings report on.
type PremiumMetric string

const (
	PremiumMetricRequests PremiumMetric = "requests"
	PremiumMetricCost     PremiumMetric = "cost"
	PremiumMetricUsers    PremiumMetric = "users"
)

// NormalizePremiumMetric maps an arbitrary metric argument onto the
// known set, falling back to the operation's default.
func NormalizePremiumMetric(raw string, fallback PremiumMetric) PremiumMetric {
	switch PremiumMetric(raw) {
	case PremiumMetricRequests, PremiumMetricCost, PremiumMetricUsers:
		return PremiumMetric(raw)
	default:
		return fallback
	}
}

func (m PremiumMetric) displayName() string {
	switch m {
	case PremiumMetricCost:
		return "net cost"
	case PremiumMetricUsers:
		return "unique users"
	default:
		return "requests"
	}
}

func (m PremiumMetric) format(v float64) string {
	if m == PremiumMetricCost {
		return output.FormatMoney(v)
	}
	return output.FormatCount(v)
}

// PremiumEngine answers volume, cost, and user-count questions from the
// premium request billing export. The same person may appear under a
// different gh_id per enterprise, so unique-user counts deduplicate on
// mfcgd_id.
type PremiumEngine struct {
	rows []dataset.PremiumRequestRow
}

// NewPremiumEngine loads the premium requests CSV.
func NewPremiumEngine(csvPath string) (*PremiumEngine, error) {
	rows, err := dataset.LoadPremiumRequests(csvPath)
	if err != nil {
		return nil, err
	}
	return &PremiumEngine{rows: rows}, nil
}

// AvailableSegments returns the sorted distinct segments in the dataset.
func (e *PremiumEngine) AvailableSegments() []string {
	values := make([]string, 0, len(e.rows))
	for _, row := range e.rows {
		values = append(values, row.Segment)
	}
	return sortedDistinct(values)
}

// AvailableEnterprises returns the sorted distinct enterprises.
func (e *PremiumEngine) AvailableEnterprises() []string {
	values := make([]string, 0, len(e.rows))
	for _, row := range e.rows {
		values = append(values, row.Enterprise)
	}
	return sortedDistinct(values)
}

// AvailableModels returns the sorted distinct models billed.
func (e *PremiumEngine) AvailableModels() []string {
	values := make([]string, 0, len(e.rows))
	for _, row := range e.rows {
		values = append(values, row.Model)
	}
	return sortedDistinct(values)
}

const noPremiumRecords = "No premium request records match the requested scope."

// ModelQuantity is one model's request volume.
type ModelQuantity struct {
	Model    string  `json:"model"`
	Quantity float64 `json:"quantity"`
}

// PremiumSummary is the structured result of the Summary query.
type PremiumSummary struct {
	Scope  string       `json:"scope"`
	Period period.Range `json:"period"`

	TotalRequests float64 `json:"total_requests"`
	UniqueUsers   int     `json:"unique_users"`
	GrossCost     float64 `json:"gross_cost"`
	Discount      float64 `json:"discount"`
	NetCost       float64 `json:"net_cost"`
	ExceededQuota int     `json:"exceeded_quota"`

	TopModels []ModelQuantity `json:"top_models"`

	empty string
}

// Summary totals request volume, costs, and distinct users in scope.
func (e *PremiumEngine) Summary(segment, userType, startMonth, endMonth string) (*PremiumSummary, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	ut := NormalizeUserType(userType)

	summary := &PremiumSummary{Scope: scopeLabel(segment, ut), Period: rng}
	scoped := e.filter(segment, ut, rng)
	if len(scoped) == 0 {
		summary.empty = noPremiumRecords
		return summary, nil
	}

	users := make(map[string]bool)
	models := newGroupSum()
	for _, row := range scoped {
		summary.TotalRequests += row.Quantity
		summary.GrossCost += row.Gross
		summary.Discount += row.Discount
		summary.NetCost += row.Net
		if row.ExceedsQuota {
			summary.ExceededQuota++
		}
		if row.MFCGDID != "" {
			users[row.MFCGDID] = true
		}
		models.Add(row.Model, row.Quantity)
	}
	summary.UniqueUsers = len(users)
	for _, entry := range models.Top(3) {
		summary.TopModels = append(summary.TopModels, ModelQuantity{Model: entry.Key, Quantity: entry.Value})
	}
	return summary, nil
}

// Render writes the summary block.
func (s *PremiumSummary) Render() string {
	if s.empty != "" {
		return s.empty
	}
	lines := []string{
		fmt.Sprintf("Premium request summary for %s during %s:", s.Scope, s.Period.Description()),
		fmt.Sprintf("- Total requests: %s", output.FormatCount(s.TotalRequests)),
		fmt.Sprintf("- Unique users (by Entra ID): %s", output.FormatCount(float64(s.UniqueUsers))),
		fmt.Sprintf("- Gross cost: %s", output.FormatMoney(s.GrossCost)),
		fmt.Sprintf("- Discount (free quota): %s", output.FormatMoney(s.Discount)),
		fmt.Sprintf("- Net billable cost: %s", output.FormatMoney(s.NetCost)),
	}
	if s.ExceededQuota > 0 {
		lines = append(lines, fmt.Sprintf("- Requests exceeding quota: %s", output.FormatCount(float64(s.ExceededQuota))))
	}
	if len(s.TopModels) > 0 {
		parts := make([]string, 0, len(s.TopModels))
		for _, m := range s.TopModels {
			parts = append(parts, fmt.Sprintf("%s (%s)", m.Model, output.FormatCount(m.Quantity)))
		}
		lines = append(lines, "- Top models: "+strings.Join(parts, ", "))
	}
	return strings.Join(lines, "\n")
}

// PremiumTrendPoint is one month of a premium trend series.
type PremiumTrendPoint struct {
	Month period.Month `json:"month"`
	Value float64      `json:"value"`
}

// PremiumTrend is the structured result of the Trend query.
type PremiumTrend struct {
	Metric PremiumMetric       `json:"metric"`
	Scope  string              `json:"scope"`
	Period period.Range        `json:"period"`
	Points []PremiumTrendPoint `json:"points"`

	empty string
}

// Trend builds a month-by-month series of requests, net cost, or
// distinct users.
func (e *PremiumEngine) Trend(segment, userType, metric, startMonth, endMonth string, limit int) (*PremiumTrend, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	ut := NormalizeUserType(userType)

	trend := &PremiumTrend{
		Metric: NormalizePremiumMetric(metric, PremiumMetricRequests),
		Scope:  scopeLabel(segment, ut),
		Period: rng,
	}
	scoped := e.filter(segment, ut, rng)
	if len(scoped) == 0 {
		trend.empty = noPremiumRecords
		return trend, nil
	}

	totals := make(map[period.Month]float64)
	usersByMonth := make(map[period.Month]map[string]bool)
	months := make(map[period.Month]bool)
	for _, row := range scoped {
		months[row.Month] = true
		switch trend.Metric {
		case PremiumMetricCost:
			totals[row.Month] += row.Net
		case PremiumMetricUsers:
			if row.MFCGDID == "" {
				continue
			}
			set, ok := usersByMonth[row.Month]
			if !ok {
				set = make(map[string]bool)
				usersByMonth[row.Month] = set
			}
			set[row.MFCGDID] = true
		default:
			totals[row.Month] += row.Quantity
		}
	}
	for _, month := range tailMonths(sortedMonths(months), limit) {
		value := totals[month]
		if trend.Metric == PremiumMetricUsers {
			value = float64(len(usersByMonth[month]))
		}
		trend.Points = append(trend.Points, PremiumTrendPoint{Month: month, Value: value})
	}
	return trend, nil
}

// Render writes the trend series.
func (t *PremiumTrend) Render() string {
	if t.empty != "" {
		return t.empty
	}
	lines := []string{fmt.Sprintf("Premium request %s trend for %s (%s):",
		t.Metric.displayName(), t.Scope, t.Period.Description())}
	for _, p := range t.Points {
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Month, t.Metric.format(p.Value)))
	}
	return strings.Join(lines, "\n")
}

// SegmentTotal is one ranked segment row.
type SegmentTotal struct {
	Segment string  `json:"segment"`
	Value   float64 `json:"value"`
}

// PremiumTopSegments is the structured result of the TopSegments query.
type PremiumTopSegments struct {
	Metric    PremiumMetric  `json:"metric"`
	UserLabel string         `json:"user_type"`
	Period    period.Range   `json:"period"`
	Entries   []SegmentTotal `json:"entries"`

	empty string
}

// TopSegments ranks segments by requests, net cost, or distinct users.
func (e *PremiumEngine) TopSegments(userType, metric, startMonth, endMonth string, limit int) (*PremiumTopSegments, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	ut := NormalizeUserType(userType)

	top := &PremiumTopSegments{
		Metric:    NormalizePremiumMetric(metric, PremiumMetricCost),
		UserLabel: ut.label(),
		Period:    rng,
	}
	scoped := e.filter("", ut, rng)
	if len(scoped) == 0 {
		top.empty = noPremiumRecords
		return top, nil
	}

	var entries []keyTotal
	if top.Metric == PremiumMetricUsers {
		grouped := newGroupDistinct()
		for _, row := range scoped {
			grouped.Add(row.Segment, row.MFCGDID)
		}
		entries = grouped.Top(limit)
	} else {
		grouped := newGroupSum()
		for _, row := range scoped {
			if top.Metric == PremiumMetricCost {
				grouped.Add(row.Segment, row.Net)
			} else {
				grouped.Add(row.Segment, row.Quantity)
			}
		}
		entries = grouped.Top(limit)
	}
	for _, entry := range entries {
		top.Entries = append(top.Entries, SegmentTotal{Segment: entry.Key, Value: entry.Value})
	}
	return top, nil
}

// Render writes the segment ranking.
func (t *PremiumTopSegments) Render() string {
	if t.empty != "" {
		return t.empty
	}
	lines := []string{fmt.Sprintf("Top segments by premium request %s for %s (%s):",
		t.Metric.displayName(), t.UserLabel, t.Period.Description())}
	for _, entry := range t.Entries {
		lines = append(lines, fmt.Sprintf("- %s: %s", entry.Segment, t.Metric.format(entry.Value)))
	}
	return strings.Join(lines, "\n")
}

// ModelCost is one model's volume and net cost.
type ModelCost struct {
	Model    string  `json:"model"`
	Requests float64 `json:"requests"`
	NetCost  float64 `json:"net_cost"`
}

// PremiumTopModels is the structured result of the TopModels query.
type PremiumTopModels struct {
	Scope   string       `json:"scope"`
	Period  period.Range `json:"period"`
	Entries []ModelCost  `json:"entries"`

	empty string
}

// TopModels ranks models by net cost, each annotated with its request
// volume.
func (e *PremiumEngine) TopModels(segment, userType, startMonth, endMonth string, limit int) (*PremiumTopModels, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	ut := NormalizeUserType(userType)

	top := &PremiumTopModels{Scope: scopeLabel(segment, ut), Period: rng}
	scoped := e.filter(segment, ut, rng)
	if len(scoped) == 0 {
		top.empty = noPremiumRecords
		return top, nil
	}

	quantities := newGroupSum()
	costs := newGroupSum()
	for _, row := range scoped {
		quantities.Add(row.Model, row.Quantity)
		costs.Add(row.Model, row.Net)
	}
	for _, entry := range costs.Top(limit) {
		top.Entries = append(top.Entries, ModelCost{
			Model:    entry.Key,
			Requests: quantities.totals[entry.Key],
			NetCost:  entry.Value,
		})
	}
	return top, nil
}

// Render writes the model ranking.
func (t *PremiumTopModels) Render() string {
	if t.empty != "" {
		return t.empty
	}
	lines := []string{fmt.Sprintf("Top AI models by cost for %s (%s):", t.Scope, t.Period.Description())}
	for _, entry := range t.Entries {
		lines = append(lines, fmt.Sprintf("- %s: %s requests, %s net cost",
			entry.Model, output.FormatCount(entry.Requests), output.FormatMoney(entry.NetCost)))
	}
	return strings.Join(lines, "\n")
}

// EnterpriseStat is one enterprise's totals.
type EnterpriseStat struct {
	Enterprise string  `json:"enterprise"`
	Requests   float64 `json:"requests"`
	NetCost    float64 `json:"net_cost"`
	Users      int     `json:"users"`
}

// Label returns the stable human label for the two known enterprise
// identifiers; unrecognized values pass through as-is.
func (s EnterpriseStat) Label() string {
	switch s.Enterprise {
	case "manulife":
		return "EMU (manulife)"
	case "manulife-financial":
		return "Legacy (manulife-financial)"
	default:
		return s.Enterprise
	}
}

// EnterpriseBreakdown is the structured result of the breakdown query.
type EnterpriseBreakdown struct {
	Scope   string           `json:"scope"`
	Period  period.Range     `json:"period"`
	Entries []EnterpriseStat `json:"entries"`

	empty string
}

// EnterpriseBreakdown compares request volume, net cost, and distinct
// users across the enterprises present in scope.
func (e *PremiumEngine) EnterpriseBreakdown(segment, userType, startMonth, endMonth string) (*EnterpriseBreakdown, error) {
	rng, err := parseRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	ut := NormalizeUserType(userType)

	breakdown := &EnterpriseBreakdown{Scope: scopeLabel(segment, ut), Period: rng}
	scoped := e.filter(segment, ut, rng)
	if len(scoped) == 0 {
		breakdown.empty = noPremiumRecords
		return breakdown, nil
	}

	stats := make(map[string]*EnterpriseStat)
	users := make(map[string]map[string]bool)
	for _, row := range scoped {
		stat, ok := stats[row.Enterprise]
		if !ok {
			stat = &EnterpriseStat{Enterprise: row.Enterprise}
			stats[row.Enterprise] = stat
			users[row.Enterprise] = make(map[string]bool)
		}
		stat.Requests += row.Quantity
		stat.NetCost += row.Net
		if row.MFCGDID != "" {
			users[row.Enterprise][row.MFCGDID] = true
		}
	}

	enterprises := make([]string, 0, len(stats))
	for name := range stats {
		enterprises = append(enterprises, name)
	}
	sort.Strings(enterprises)
	for _, name := range enterprises {
		stat := stats[name]
		stat.Users = len(users[name])
		breakdown.Entries = append(breakdown.Entries, *stat)
	}
	return breakdown, nil
}

// Render writes the per-enterprise comparison.
func (b *EnterpriseBreakdown) Render() string {
	if b.empty != "" {
		return b.empty
	}
	lines := []string{fmt.Sprintf("Enterprise breakdown for %s (%s):", b.Scope, b.Period.Description())}
	for _, entry := range b.Entries {
		lines = append(lines, fmt.Sprintf("- %s: %s requests, %s cost, %s users",
			entry.Label(), output.FormatCount(entry.Requests),
			output.FormatMoney(entry.NetCost), output.FormatCount(float64(entry.Users))))
	}
	return strings.Join(lines, "\n")
}

func (e *PremiumEngine) filter(segment string, userType UserType, rng period.Range) []dataset.PremiumRequestRow {
	var out []dataset.PremiumRequestRow
	for _, row := range e.rows {
		if segment != "" && !strings.EqualFold(row.Segment, segment) {
			continue
		}
		if userType == UserTypeFTE && !row.IsEmployee {
			continue
		}
		if userType == UserTypeContractor && row.IsEmployee {
			continue
		}
		if !rng.Contains(row.Month) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// scopeLabel describes the segment and user-type filters for report
// headers.
func scopeLabel(segment string, userType UserType) string {
	var parts []string
	if segment != "" {
		parts = append(parts, segment)
	}
	switch userType {
	case UserTypeFTE:
		parts = append(parts, "FTE")
	case UserTypeContractor:
		parts = append(parts, "contractors")
	}
	if len(parts) == 0 {
		return "all users"
	}
	return strings.Join(parts, " ")
}
