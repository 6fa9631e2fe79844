package dataset

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/copilotwatch/internal/period"
)

// InteractionRow is one Copilot interaction event. Division is back-filled
// from the developer usage table when the interactions export lacks the
// column; it stays empty for developers the usage table does not know.
type InteractionRow struct {
	DeveloperID string
	Division    string
	Model       string
	Month       period.Month

	// Metric cells resolved through the synonym columns; nil when the
	// column is absent or the individual cell did not parse.
	Requests  *float64
	Suggested *float64
	Accepted  *float64
}

// InteractionColumns records which synonym column was selected for each
// interaction metric at load time. An empty name means no candidate
// column was present. The selection is fixed for the life of the engine.
type InteractionColumns struct {
	Request   string
	Suggested string
	Accepted  string

	// HasModel reports whether the export carried a model column at all,
	// which is different from every model cell being blank.
	HasModel bool
}

// Synonym preference lists, in resolution order.
var (
	requestColumns   = []string{"request_count", "requests", "num_requests", "total_requests"}
	suggestedColumns = []string{"lines_suggested", "suggested_lines", "lines_generated", "tokens_suggested"}
	acceptedColumns  = []string{"lines_accepted", "accepted_lines", "lines_committed", "tokens_accepted"}
)

var interactionsSchema = Schema{
	Required: []string{"developer_id"},
}

// LoadInteractions loads the interaction metrics CSV. The month comes from
// a "month" column or from truncating a "timestamp" column; one of the two
// must be present and at least one row must parse, otherwise loading
// fails. usage supplies the developer→division join when the export has
// no division column.
func LoadInteractions(path string, usage []DeveloperUsageRow) ([]InteractionRow, InteractionColumns, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, InteractionColumns{}, Configf("interaction metrics CSV not found at %s. Set COPILOT_INTERACTIONS_CSV.", path)
	}

	table, err := readTable(path, interactionsSchema)
	if err != nil {
		return nil, InteractionColumns{}, err
	}

	monthColumn := ""
	switch {
	case table.HasColumn("month"):
		monthColumn = "month"
	case table.HasColumn("timestamp"):
		monthColumn = "timestamp"
	default:
		return nil, InteractionColumns{}, Configf("interaction metrics CSV %s must include a 'month' column or a 'timestamp' column", path)
	}

	columns := InteractionColumns{
		Request:   selectNumericColumn(table, requestColumns),
		Suggested: selectNumericColumn(table, suggestedColumns),
		Accepted:  selectNumericColumn(table, acceptedColumns),
		HasModel:  table.HasColumn("model"),
	}

	joinDivision := !table.HasColumn("division")
	divisionByDeveloper := map[string]string{}
	if joinDivision {
		for _, u := range usage {
			if _, seen := divisionByDeveloper[u.DeveloperID]; !seen {
				divisionByDeveloper[u.DeveloperID] = u.Division
			}
		}
	}

	rows := make([]InteractionRow, 0, table.Len())
	dropped := 0
	for i := 0; i < table.Len(); i++ {
		id, ok := table.Cell(i, "developer_id")
		if !ok {
			dropped++
			continue
		}
		rawMonth, ok := table.Cell(i, monthColumn)
		if !ok {
			dropped++
			continue
		}
		month, err := period.ParseDate(rawMonth)
		if err != nil {
			dropped++
			continue
		}

		row := InteractionRow{
			DeveloperID: id,
			Month:       month,
		}
		if model, ok := table.Cell(i, "model"); ok {
			row.Model = model
		}
		if joinDivision {
			row.Division = divisionByDeveloper[id]
		} else if d, ok := table.Cell(i, "division"); ok {
			row.Division = d
		}
		if columns.Request != "" {
			row.Requests = table.floatCell(i, columns.Request)
		}
		if columns.Suggested != "" {
			row.Suggested = table.floatCell(i, columns.Suggested)
		}
		if columns.Accepted != "" {
			row.Accepted = table.floatCell(i, columns.Accepted)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 && table.Len() > 0 {
		return nil, InteractionColumns{}, Configf("interaction metrics CSV %s contains no parseable %s values", path, monthColumn)
	}
	if dropped > 0 {
		logrus.WithFields(logrus.Fields{
			"dataset": "interactions",
			"dropped": dropped,
			"kept":    len(rows),
		}).Debug("dropped rows with missing identifier or unparsable month")
	}

	return rows, columns, nil
}

// selectNumericColumn picks the first candidate column that exists and
// holds at least one numeric cell. Resolution happens once at load time.
func selectNumericColumn(table *Table, candidates []string) string {
	for _, name := range candidates {
		if !table.HasColumn(name) {
			continue
		}
		for i := 0; i < table.Len(); i++ {
			if v := table.floatCell(i, name); v != nil {
				return name
			}
		}
	}
	return ""
}
