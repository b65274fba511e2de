package resolver

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estimate-cli/internal/match"
	"github.com/sells-group/estimate-cli/internal/model"
)

// DefaultHeaderScanRows bounds the header search: uploaded files are not
// guaranteed to start data at a fixed row, but headers buried deeper than
// this are treated as absent.
const DefaultHeaderScanRows = 10

// columnMap maps canonical fields to column indexes; -1 means absent.
type columnMap struct {
	description int
	unit        int
	count       int
	length      int
	breadth     int
	height      int
	quantity    int
	rate        int
	amount      int
	code        int
}

// headerKeywords maps canonical fields to the header spellings seen in the
// wild, in match priority order so a cell like "Item No." resolves the same
// way every run. Single letters match only as exact cells.
var headerKeywords = []struct {
	field    string
	keywords []string
}{
	{"description", []string{"description", "particulars", "item", "work"}},
	{"code", []string{"code", "ssr", "ref"}},
	{"unit", []string{"unit", "uom", "per"}},
	{"quantity", []string{"quantity", "qty"}},
	// "No." alone is a serial column, not a count; only the plural forms map.
	{"count", []string{"nos", "count"}},
	{"length", []string{"length", "l"}},
	{"breadth", []string{"breadth", "width", "b", "w"}},
	{"height", []string{"height", "depth", "h", "d"}},
	{"rate", []string{"rate"}},
	{"amount", []string{"amount", "cost"}},
}

// expectedFields lists, per sheet type, the fields whose presence identifies
// a header row. A row qualifies when at least two are found.
var expectedFields = map[model.SheetType][]string{
	model.SheetTypeMeasurement: {"quantity", "count", "length", "breadth", "height"},
	model.SheetTypeAbstract:    {"quantity", "rate", "amount"},
}

const minHeaderHits = 2

// findHeader scans the first scanRows rows for a header row for the given
// sheet type and returns its index and column mapping. No qualifying row
// within the window is an ErrStructure.
func findHeader(rows [][]string, typ model.SheetType, scanRows int) (int, columnMap, error) {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	if scanRows > len(rows) {
		scanRows = len(rows)
	}

	expected := expectedFields[typ]
	for i := 0; i < scanRows; i++ {
		cols := mapColumns(rows[i])
		hits := 0
		for _, field := range expected {
			if cols.field(field) >= 0 {
				hits++
			}
		}
		if hits >= minHeaderHits {
			return i, cols, nil
		}
	}
	return 0, columnMap{}, eris.Wrapf(model.ErrStructure,
		"resolver: no %s header row in first %d rows", typ, scanRows)
}

// mapColumns resolves each cell of a candidate header row to a canonical
// field. First claim per field wins, matching left to right.
func mapColumns(row []string) columnMap {
	cols := columnMap{
		description: -1, unit: -1, count: -1, length: -1, breadth: -1,
		height: -1, quantity: -1, rate: -1, amount: -1, code: -1,
	}
	for i, cell := range row {
		field := classifyHeaderCell(cell)
		if field == "" {
			continue
		}
		if cols.field(field) < 0 {
			cols.setField(field, i)
		}
	}
	return cols
}

// classifyHeaderCell matches one header cell against the keyword table.
// Multi-letter keywords match as any token of the cell ("Length (m)" →
// length); single letters require the whole cell to be that letter.
func classifyHeaderCell(cell string) string {
	tokens := match.Tokenize(cell)
	if len(tokens) == 0 {
		return ""
	}
	whole := strings.ToLower(strings.TrimSpace(cell))

	for _, entry := range headerKeywords {
		for _, kw := range entry.keywords {
			if len(kw) == 1 {
				if whole == kw {
					return entry.field
				}
				continue
			}
			for _, tok := range tokens {
				if tok == kw {
					return entry.field
				}
			}
		}
	}
	return ""
}

func (c *columnMap) field(name string) int {
	switch name {
	case "description":
		return c.description
	case "unit":
		return c.unit
	case "count":
		return c.count
	case "length":
		return c.length
	case "breadth":
		return c.breadth
	case "height":
		return c.height
	case "quantity":
		return c.quantity
	case "rate":
		return c.rate
	case "amount":
		return c.amount
	case "code":
		return c.code
	}
	return -1
}

func (c *columnMap) setField(name string, idx int) {
	switch name {
	case "description":
		c.description = idx
	case "unit":
		c.unit = idx
	case "count":
		c.count = idx
	case "length":
		c.length = idx
	case "breadth":
		c.breadth = idx
	case "height":
		c.height = idx
	case "quantity":
		c.quantity = idx
	case "rate":
		c.rate = idx
	case "amount":
		c.amount = idx
	case "code":
		c.code = idx
	}
}
