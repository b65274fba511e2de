// Package fetcher reads workbooks into the generic tabular form the resolver
// consumes, and downloads rate schedule files from remote sources.
package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/estimate-cli/internal/model"
)

// ReadWorkbook reads every sheet of an XLSX file into generic {name, rows}
// form. Cell values arrive as their string rendering; the resolver owns all
// further interpretation.
func ReadWorkbook(path string) ([]model.Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open workbook %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("fetcher: workbook %s has no sheets", path)
	}

	sheets := make([]model.Sheet, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		s := model.Sheet{Name: sheet.Name, Rows: make([][]string, 0, len(sheet.Rows))}
		for _, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}
			s.Rows = append(s.Rows, cells)
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}
