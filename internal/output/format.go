package output

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatCount renders a float request or line count as a whole number
// with thousands separators.
func FormatCount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// FormatMoney renders a dollar amount with two decimal places and
// thousands separators.
func FormatMoney(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatPercent renders a ratio already scaled to 0-100 with one
// decimal place.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatOptionalPercent renders a nullable percentage, using "n/a" for
// values that could not be computed.
func FormatOptionalPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatPercent(*v)
}
