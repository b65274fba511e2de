package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

// LoadFile reads rate schedule items from a CSV, YAML, or XLSX file,
// dispatching on the extension.
func LoadFile(path string) ([]Item, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: open csv")
		}
		defer f.Close()
		return ParseCSV(f)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: read yaml")
		}
		return ParseYAML(data)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("catalog: unsupported file type %q", filepath.Ext(path))
	}
}

// ParseCSV reads items from CSV with a code,description,category,unit,rate
// header row.
func ParseCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "catalog: parse csv")
	}
	if len(records) == 0 {
		return nil, eris.New("catalog: empty csv")
	}

	cols := headerIndex(records[0])
	var items []Item
	for i, rec := range records[1:] {
		it, err := itemFromRecord(rec, cols)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: csv row %d", i+2)
		}
		if it.Code == "" {
			continue // blank row
		}
		items = append(items, it)
	}
	return items, nil
}

// ParseYAML reads a YAML list of items.
func ParseYAML(data []byte) ([]Item, error) {
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, eris.Wrap(err, "catalog: parse yaml")
	}
	return items, nil
}

// LoadXLSX reads items from the first sheet of an XLSX workbook laid out
// like the CSV form.
func LoadXLSX(path string) ([]Item, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("catalog: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("catalog: empty sheet")
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		header[i] = cell.String()
	}
	cols := headerIndex(header)

	var items []Item
	for i, row := range sheet.Rows[1:] {
		rec := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			rec[j] = cell.String()
		}
		it, err := itemFromRecord(rec, cols)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: xlsx row %d", i+2)
		}
		if it.Code == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

type columnIndex struct {
	code, description, category, unit, rate int
}

func headerIndex(header []string) columnIndex {
	cols := columnIndex{code: -1, description: -1, category: -1, unit: -1, rate: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "code", "item code", "ssr no":
			cols.code = i
		case "description", "item", "particulars":
			cols.description = i
		case "category", "chapter":
			cols.category = i
		case "unit", "uom":
			cols.unit = i
		case "rate", "unit rate":
			cols.rate = i
		}
	}
	return cols
}

func itemFromRecord(rec []string, cols columnIndex) (Item, error) {
	it := Item{
		Code:        fieldAt(rec, cols.code),
		Description: fieldAt(rec, cols.description),
		Category:    fieldAt(rec, cols.category),
		Unit:        fieldAt(rec, cols.unit),
	}
	if raw := fieldAt(rec, cols.rate); raw != "" {
		rate, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return Item{}, eris.Wrapf(err, "bad rate %q", raw)
		}
		it.Rate = rate
	}
	return it, nil
}

func fieldAt(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
