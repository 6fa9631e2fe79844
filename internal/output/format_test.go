package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(1234567.4))
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "1,000", FormatCount(999.6))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(1234.5))
	assert.Equal(t, "$0.00", FormatMoney(0))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "42.5%", FormatPercent(42.5))
	assert.Equal(t, "n/a", FormatOptionalPercent(nil))
	v := 12.34
	assert.Equal(t, "12.3%", FormatOptionalPercent(&v))
}

func TestTableRender(t *testing.T) {
	SetNoColor(true)

	tbl := NewTable("Segment", "Requests").AlignRight(1)
	tbl.AddRow("Wealth", "1,200")
	tbl.AddRow("Retail Banking", "87")

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Contains(t, lines[0], "Segment")
	assert.Contains(t, lines[0], "Requests")
	// Right-aligned numeric column.
	assert.True(t, strings.HasSuffix(lines[2], "1,200"))
	assert.True(t, strings.HasSuffix(lines[3], "   87"))
}
