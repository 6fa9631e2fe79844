// Package period provides the calendar-month value types used to scope
// analytics queries. A Month is a year+month pair with total ordering;
// a Range is an optional inclusive lower/upper bound on months.
package period

import (
	"encoding/json"
	"fmt"
	"time"
)

// Month is a calendar month (year + month, no day or time component).
// The zero value is not a valid month; use Parse or FromTime.
type Month struct {
	year  int
	month time.Month
}

// dateLayouts are the timestamp/date formats accepted when truncating a
// full date down to its month. Tried in order.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Parse parses a "YYYY-MM" string into a Month.
func Parse(value string) (Month, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Month{}, fmt.Errorf("unable to parse %q as YYYY-MM month value", value)
	}
	return FromTime(t), nil
}

// ParseDate truncates a full date or timestamp string to its Month.
// It first tries the plain "YYYY-MM" form, then the common date layouts.
func ParseDate(value string) (Month, error) {
	if m, err := Parse(value); err == nil {
		return m, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return FromTime(t), nil
		}
	}
	return Month{}, fmt.Errorf("unable to parse %q as a date", value)
}

// FromTime truncates t to its calendar month.
func FromTime(t time.Time) Month {
	return Month{year: t.Year(), month: t.Month()}
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.year == 0 && m.month == 0
}

// String renders the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

// MarshalJSON encodes the month as its "YYYY-MM" string.
func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Compare returns -1, 0, or +1 comparing m against other chronologically.
func (m Month) Compare(other Month) int {
	a := m.year*12 + int(m.month)
	b := other.year*12 + int(other.month)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	return m.Compare(other) < 0
}

// After reports whether m is strictly later than other.
func (m Month) After(other Month) bool {
	return m.Compare(other) > 0
}

// Range is an optional inclusive month window. A nil bound means unbounded
// on that side.
type Range struct {
	Start *Month `json:"start"`
	End   *Month `json:"end"`
}

// NewRange parses the optional start/end month strings into a Range.
// Empty strings mean unbounded. A malformed month or start > end is an
// error; callers at the query boundary surface it as a configuration error.
func NewRange(startMonth, endMonth string) (Range, error) {
	var r Range
	if startMonth != "" {
		m, err := Parse(startMonth)
		if err != nil {
			return Range{}, err
		}
		r.Start = &m
	}
	if endMonth != "" {
		m, err := Parse(endMonth)
		if err != nil {
			return Range{}, err
		}
		r.End = &m
	}
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return Range{}, fmt.Errorf("start_month must be earlier than end_month")
	}
	return r, nil
}

// Contains reports whether m falls inside the range.
func (r Range) Contains(m Month) bool {
	if r.Start != nil && m.Before(*r.Start) {
		return false
	}
	if r.End != nil && m.After(*r.End) {
		return false
	}
	return true
}

// Description renders the range in one of four human-readable forms:
// a single month, "X to Y", "from X", "up to Y", or "all available months".
func (r Range) Description() string {
	switch {
	case r.Start != nil && r.End != nil:
		if r.Start.Compare(*r.End) == 0 {
			return r.Start.String()
		}
		return fmt.Sprintf("%s to %s", r.Start, r.End)
	case r.Start != nil:
		return fmt.Sprintf("from %s", r.Start)
	case r.End != nil:
		return fmt.Sprintf("up to %s", r.End)
	default:
		return "all available months"
	}
}
