// Package dataset loads the periodic Copilot CSV exports into normalized,
// immutable in-memory tables. Every cell is read as text, cleaned, and
// coerced explicitly; schema problems surface as a ConfigError naming all
// missing columns at once.
package dataset

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Schema describes how to normalize one dataset file: header renames to
// apply after lower-casing, and the set of columns that must be present.
type Schema struct {
	Rename   map[string]string
	Required []string
}

// Table is a cleaned, header-normalized view of a delimited file. Cells
// are stored as text; typed coercion happens in the per-dataset loaders.
type Table struct {
	columns map[string]int
	rows    [][]string
}

// readTable reads the delimited file at path, cleans every cell, and
// normalizes headers according to schema. Missing required columns are
// reported together in a single ConfigError.
func readTable(path string, schema Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Configf("unable to open %s: %v", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, Configf("unable to read %s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, Configf("%s is empty", path)
	}

	columns := make(map[string]int, len(records[0]))
	for i, raw := range records[0] {
		name := normalizeHeader(raw)
		if renamed, ok := schema.Rename[name]; ok {
			name = renamed
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, req := range schema.Required {
		if _, ok := columns[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, Configf("%s is missing required columns: %s", path, strings.Join(missing, ", "))
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		cleaned := make([]string, len(record))
		for i, cell := range record {
			cleaned[i] = cleanCell(cell)
		}
		rows = append(rows, cleaned)
	}

	return &Table{columns: columns, rows: rows}, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the normalized column name is present.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Cell returns the cleaned text of a cell. ok is false when the column is
// absent or the cell is missing (blank after cleaning).
func (t *Table) Cell(row int, column string) (string, bool) {
	idx, ok := t.columns[column]
	if !ok || idx >= len(t.rows[row]) {
		return "", false
	}
	v := t.rows[row][idx]
	if v == "" {
		return "", false
	}
	return v, true
}

// normalizeHeader lower-cases a header name and replaces spaces with
// underscores.
func normalizeHeader(raw string) string {
	name := strings.ToLower(strings.TrimSpace(cleanCell(raw)))
	return strings.ReplaceAll(name, " ", "_")
}

// missingTokens are cell values treated as "missing" after cleaning.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"none": true,
}

// cleanCell normalizes a raw CSV cell: non-breaking spaces become regular
// spaces, surrounding whitespace and quotes are stripped, and the usual
// empty markers ("", NA, N/A, None, bare dashes) collapse to the empty
// string, which the Table treats as missing.
func cleanCell(raw string) string {
	cleaned := strings.ReplaceAll(raw, " ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, `"`)
	cleaned = strings.TrimSpace(cleaned)
	if missingTokens[strings.ToLower(cleaned)] {
		return ""
	}
	if strings.Trim(cleaned, "- ") == "" {
		// A cell of only dashes is a placeholder, not a value.
		return ""
	}
	return cleaned
}

// parseFloat coerces numeric-looking text to a float, tolerating thousands
// separators and a trailing percent sign. ok is false for anything else.
func parseFloat(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// truthyTokens is the fixed token set accepted as boolean true.
var truthyTokens = map[string]bool{
	"TRUE": true,
	"T":    true,
	"1":    true,
	"YES":  true,
}

// parseBool reports whether s is a truthy token, case-insensitively.
// Everything else, including missing, is false.
func parseBool(s string) bool {
	return truthyTokens[strings.ToUpper(strings.TrimSpace(s))]
}

// floatCell reads a cell as a float pointer: nil when the cell is missing
// or unparsable.
func (t *Table) floatCell(row int, column string) *float64 {
	raw, ok := t.Cell(row, column)
	if !ok {
		return nil
	}
	v, ok := parseFloat(raw)
	if !ok {
		return nil
	}
	return &v
}

// floatCellOr reads a cell as a float, substituting fallback when missing
// or unparsable.
func (t *Table) floatCellOr(row int, column string, fallback float64) float64 {
	if v := t.floatCell(row, column); v != nil {
		return *v
	}
	return fallback
}
