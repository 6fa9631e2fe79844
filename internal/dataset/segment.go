package dataset

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// SegmentAdoptionRow is one (segment, month) rollup from the seat
// utilisation export. FTE figures may be missing per cell; non-FTE
// figures default to zero. The derived utilisation percentages are nil
// whenever the denominator is zero or the numerator is missing, so an
// undefined ratio can never leak into rendered output as Inf or NaN.
type SegmentAdoptionRow struct {
	Segment string
	Month   period.Month

	ActiveFTE    *float64
	SeatsFTE     *float64
	ActiveNonFTE float64
	SeatsNonFTE  float64

	BillingFTE    *float64
	BillingNonFTE *float64

	FTEUtilisation    *float64
	NonFTEUtilisation *float64
}

var segmentSchema = Schema{
	Rename: map[string]string{
		"active_users_fte":        "active_fte",
		"active_users_nonfte":     "active_non_fte",
		"total_seats_fte":         "seats_fte",
		"total_seats_nonfte":      "seats_non_fte",
		"billing_adoption_nonfte": "billing_adoption_non_fte",
	},
	Required: []string{"month", "segment", "active_fte", "seats_fte"},
}

// SafePercentage computes 100*numerator/denominator, or nil when the
// denominator is not positive or the numerator is missing.
func SafePercentage(numerator *float64, denominator float64) *float64 {
	if numerator == nil || denominator <= 0 {
		return nil
	}
	v := *numerator / denominator * 100
	return &v
}

// LoadSegmentAdoption loads the segment-level adoption CSV. Rows with an
// unparsable month or a blank segment are dropped.
func LoadSegmentAdoption(path string) ([]SegmentAdoptionRow, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, Configf("segment adoption CSV not found at %s. Set COPILOT_SEGMENT_ADOPTION_CSV.", path)
	}

	table, err := readTable(path, segmentSchema)
	if err != nil {
		return nil, err
	}

	rows := make([]SegmentAdoptionRow, 0, table.Len())
	dropped := 0
	for i := 0; i < table.Len(); i++ {
		segment, ok := table.Cell(i, "segment")
		if !ok {
			dropped++
			continue
		}
		rawMonth, ok := table.Cell(i, "month")
		if !ok {
			dropped++
			continue
		}
		month, err := period.ParseDate(rawMonth)
		if err != nil {
			dropped++
			continue
		}

		row := SegmentAdoptionRow{
			Segment:       segment,
			Month:         month,
			ActiveFTE:     table.floatCell(i, "active_fte"),
			SeatsFTE:      table.floatCell(i, "seats_fte"),
			ActiveNonFTE:  table.floatCellOr(i, "active_non_fte", 0),
			SeatsNonFTE:   table.floatCellOr(i, "seats_non_fte", 0),
			BillingFTE:    table.floatCell(i, "billing_adoption_fte"),
			BillingNonFTE: table.floatCell(i, "billing_adoption_non_fte"),
		}

		seatsFTE := 0.0
		if row.SeatsFTE != nil {
			seatsFTE = *row.SeatsFTE
		}
		row.FTEUtilisation = SafePercentage(row.ActiveFTE, seatsFTE)
		activeNonFTE := row.ActiveNonFTE
		row.NonFTEUtilisation = SafePercentage(&activeNonFTE, row.SeatsNonFTE)

		rows = append(rows, row)
	}

	if len(rows) == 0 && table.Len() > 0 {
		return nil, Configf("failed to parse month values in segment adoption CSV %s; ensure YYYY-MM format", path)
	}
	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"dataset": "segment_adoption",
			"dropped": dropped,
			"kept":    len(rows),
		}).Debug("dropped rows with missing segment or unparsable month")
	}

	return rows, nil
}
