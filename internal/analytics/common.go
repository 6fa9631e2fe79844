// Package analytics implements the query engines over the normalized
// Copilot datasets: developer usage and interactions, segment-level
// adoption, and premium request billing. Each engine owns an immutable
// in-memory table built once at construction; query operations filter,
// aggregate, and return structured results whose Render methods produce
// the final text blocks.
package analytics

import (
	"sort"

	"github.com/blackwell-systems/copilotwatch/internal/dataset"
	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// parseRange validates the optional start/end month arguments. A
// malformed month or an inverted range is a configuration error, unlike
// the enum arguments which fall back to defaults.
func parseRange(startMonth, endMonth string) (period.Range, error) {
	r, err := period.NewRange(startMonth, endMonth)
	if err != nil {
		return period.Range{}, dataset.Configf("%s", err)
	}
	return r, nil
}

// keyTotal is one (group key, aggregate) pair.
type keyTotal struct {
	Key   string
	Value float64
}

// groupSum accumulates per-key float totals, remembering first-appearance
// order so that equal totals rank deterministically. Blank keys are
// skipped, mirroring how missing values drop out of a grouping.
type groupSum struct {
	keys   []string
	totals map[string]float64
}

func newGroupSum() *groupSum {
	return &groupSum{totals: make(map[string]float64)}
}

func (g *groupSum) Add(key string, value float64) {
	if key == "" {
		return
	}
	if _, ok := g.totals[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.totals[key] += value
}

func (g *groupSum) Total() float64 {
	sum := 0.0
	for _, v := range g.totals {
		sum += v
	}
	return sum
}

// Top returns up to limit entries ordered descending by total. The sort
// is stable, so ties keep first-appearance order.
func (g *groupSum) Top(limit int) []keyTotal {
	out := make([]keyTotal, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, keyTotal{Key: k, Value: g.totals[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// groupDistinct counts distinct members per key, same ordering rules as
// groupSum. Blank keys and blank members are skipped.
type groupDistinct struct {
	keys    []string
	members map[string]map[string]bool
}

func newGroupDistinct() *groupDistinct {
	return &groupDistinct{members: make(map[string]map[string]bool)}
}

func (g *groupDistinct) Add(key, member string) {
	if key == "" || member == "" {
		return
	}
	set, ok := g.members[key]
	if !ok {
		set = make(map[string]bool)
		g.members[key] = set
		g.keys = append(g.keys, key)
	}
	set[member] = true
}

// Top returns up to limit entries ordered descending by distinct count.
func (g *groupDistinct) Top(limit int) []keyTotal {
	out := make([]keyTotal, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, keyTotal{Key: k, Value: float64(len(g.members[k]))})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortedMonths sorts a month set ascending.
func sortedMonths(set map[period.Month]bool) []period.Month {
	months := make([]period.Month, 0, len(set))
	for m := range set {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// tailMonths keeps the most recent limit months of an ascending slice.
func tailMonths(months []period.Month, limit int) []period.Month {
	if limit < 0 {
		limit = 0
	}
	if len(months) > limit {
		return months[len(months)-limit:]
	}
	return months
}

// sortedDistinct returns the sorted unique non-blank values of a string
// column projection.
func sortedDistinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
