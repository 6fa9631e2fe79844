package dataset

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// PremiumRequestRow is one metered billing record. The same person may
// hold a distinct gh_id in each enterprise; MFCGDID is the cross-enterprise
// identity used to deduplicate "unique users".
type PremiumRequestRow struct {
	Enterprise string
	GHID       string
	MFCGDID    string
	Model      string
	Segment    string
	Month      period.Month

	Quantity float64
	Gross    float64
	Discount float64
	Net      float64

	IsEmployee   bool
	ExceedsQuota bool
}

// UnknownEnterprise is substituted when a billing row has no enterprise.
const UnknownEnterprise = "unknown"

var premiumSchema = Schema{
	Required: []string{
		"request_date", "mfcgd_id", "enterprise", "model", "quantity",
		"gross_amount", "discount_amount", "net_amount", "segment", "is_employee",
	},
}

// LoadPremiumRequests loads the premium request billing CSV. Rows whose
// request_date fails to parse are dropped; numeric cells that fail to
// parse count as zero rather than poisoning the row.
func LoadPremiumRequests(path string) ([]PremiumRequestRow, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, Configf("premium requests CSV not found at %s. Set COPILOT_PREMIUM_REQUESTS_CSV.", path)
	}

	table, err := readTable(path, premiumSchema)
	if err != nil {
		return nil, err
	}

	rows := make([]PremiumRequestRow, 0, table.Len())
	dropped := 0
	for i := 0; i < table.Len(); i++ {
		rawDate, ok := table.Cell(i, "request_date")
		if !ok {
			dropped++
			continue
		}
		month, err := period.ParseDate(rawDate)
		if err != nil {
			dropped++
			continue
		}

		row := PremiumRequestRow{
			Month:      month,
			Quantity:   table.floatCellOr(i, "quantity", 0),
			Gross:      table.floatCellOr(i, "gross_amount", 0),
			Discount:   table.floatCellOr(i, "discount_amount", 0),
			Net:        table.floatCellOr(i, "net_amount", 0),
			Enterprise: UnknownEnterprise,
			Segment:    UnassignedDivision,
		}
		if v, ok := table.Cell(i, "enterprise"); ok {
			row.Enterprise = v
		}
		if v, ok := table.Cell(i, "segment"); ok {
			row.Segment = v
		}
		if v, ok := table.Cell(i, "gh_id"); ok {
			row.GHID = v
		}
		if v, ok := table.Cell(i, "mfcgd_id"); ok {
			row.MFCGDID = v
		}
		if v, ok := table.Cell(i, "model"); ok {
			row.Model = v
		}
		if v, ok := table.Cell(i, "is_employee"); ok {
			row.IsEmployee = parseBool(v)
		}
		if table.HasColumn("exceeds_quota") {
			if v, ok := table.Cell(i, "exceeds_quota"); ok {
				row.ExceedsQuota = parseBool(v)
			}
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 && table.Len() > 0 {
		return nil, Configf("failed to parse request_date values in premium requests CSV %s", path)
	}
	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"dataset": "premium_requests",
			"dropped": dropped,
			"kept":    len(rows),
		}).Debug("dropped rows with unparsable request_date")
	}

	return rows, nil
}
