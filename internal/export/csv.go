// Package export renders estimate trees back to tabular files: CSV for
// piping into other tools, XLSX for handing to people who live in
// spreadsheets.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/estimate-cli/internal/model"
)

var printer = message.NewPrinter(language.English)

// money renders an amount with digit grouping, e.g. 727500 -> "727,500.00".
func money(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the whole estimate as one CSV stream: a measurement and an
// abstract section per part, then the general abstract. Section boundaries
// are marked with a single-cell title row so the output survives a round
// trip through a spreadsheet.
func WriteCSV(w io.Writer, tree *model.EstimateTree) error {
	cw := csv.NewWriter(w)

	for _, part := range tree.Parts {
		if err := writeMeasurementSection(cw, part); err != nil {
			return err
		}
		if err := writeAbstractSection(cw, part); err != nil {
			return err
		}
	}
	if err := writeGeneralSection(cw, tree); err != nil {
		return err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

func writeMeasurementSection(cw *csv.Writer, part *model.Part) error {
	rows := [][]string{
		{part.Name + " Measurement"},
		{"No.", "Description", "Unit", "Nos", "Length", "Breadth", "Height", "Quantity"},
	}
	for _, m := range part.Measurements {
		row := []string{strconv.Itoa(m.ID), m.Description, m.Unit}
		for f := 0; f < model.MaxFactors; f++ {
			if f < len(m.Factors) {
				row = append(row, num(m.Factors[f]))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, num(m.Total))
		rows = append(rows, row)
	}
	rows = append(rows, nil) // blank separator

	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "export: write %s measurements", part.Name)
	}
	return nil
}

func writeAbstractSection(cw *csv.Writer, part *model.Part) error {
	rows := [][]string{
		{part.Name + " Abstract"},
		{"No.", "Description", "Unit", "Quantity", "Rate", "Amount"},
	}
	for _, a := range part.Abstracts {
		rows = append(rows, []string{
			strconv.Itoa(a.ID), a.Description, a.Unit,
			num(a.Quantity), num(a.Rate), money(a.Amount),
		})
	}
	rows = append(rows,
		[]string{"", "Total", "", "", "", money(part.Subtotal)},
		nil,
	)

	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "export: write %s abstract", part.Name)
	}
	return nil
}

func writeGeneralSection(cw *csv.Writer, tree *model.EstimateTree) error {
	rows := [][]string{
		{"General Abstract"},
		{"Particulars", "Amount"},
	}
	for _, r := range tree.General.Rows {
		rows = append(rows, []string{r.PartName, money(r.Amount)})
	}
	for _, s := range tree.General.Surcharges {
		label := printer.Sprintf("%s @ %v%%", s.Label, s.Percent)
		rows = append(rows, []string{label, money(s.Amount)})
	}
	rows = append(rows, []string{"Grand Total", money(tree.General.GrandTotal)})

	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "export: write general abstract")
	}
	return nil
}
