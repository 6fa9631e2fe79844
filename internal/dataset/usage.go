package dataset

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// DeveloperUsageRow is one (developer, month) membership record from the
// monthly usage export. The table is the population source: a developer
// counts toward a division's population once per distinct identifier, no
// matter how many rows repeat it.
type DeveloperUsageRow struct {
	DeveloperID string
	Division    string
	Month       period.Month
}

// UnassignedDivision is substituted when a usage row has no division.
const UnassignedDivision = "Unassigned"

var usageSchema = Schema{
	Required: []string{"developer_id", "division", "month"},
}

// LoadDeveloperUsage loads the developer monthly usage CSV. Rows whose
// month fails to parse are dropped; if every month fails, the dataset is
// considered malformed and loading fails.
func LoadDeveloperUsage(path string) ([]DeveloperUsageRow, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, Configf("developer usage CSV not found at %s. Set COPILOT_USAGE_CSV.", path)
	}

	table, err := readTable(path, usageSchema)
	if err != nil {
		return nil, err
	}

	rows := make([]DeveloperUsageRow, 0, table.Len())
	dropped := 0
	for i := 0; i < table.Len(); i++ {
		id, ok := table.Cell(i, "developer_id")
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
		division := UnassignedDivision
		if d, ok := table.Cell(i, "division"); ok {
			division = d
		}
		rows = append(rows, DeveloperUsageRow{
			DeveloperID: id,
			Division:    division,
			Month:       month,
		})
	}

	if len(rows) == 0 && table.Len() > 0 {
		return nil, Configf("failed to parse month values in developer usage CSV %s; ensure YYYY-MM format", path)
	}
	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"dataset": "developer_usage",
			"dropped": dropped,
			"kept":    len(rows),
		}).Debug("dropped rows with missing identifier or unparsable month")
	}

	return rows, nil
}
