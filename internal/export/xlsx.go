package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/estimate-cli/internal/model"
)

// WriteXLSX writes the estimate as a workbook: one measurement and one
// abstract sheet per part, then a General Abstract sheet. The layout mirrors
// the shape the importer accepts, so an exported workbook re-imports cleanly.
func WriteXLSX(path string, tree *model.EstimateTree) error {
	f := xlsx.NewFile()

	for _, part := range tree.Parts {
		if err := addMeasurementSheet(f, part); err != nil {
			return err
		}
		if err := addAbstractSheet(f, part); err != nil {
			return err
		}
	}
	if err := addGeneralSheet(f, tree); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func addMeasurementSheet(f *xlsx.File, part *model.Part) error {
	sheet, err := f.AddSheet(part.Name + " Measurement")
	if err != nil {
		return eris.Wrapf(err, "export: add sheet for %s", part.Name)
	}

	addRow(sheet, "No.", "Description", "Unit", "Nos", "Length", "Breadth", "Height", "Quantity")
	for _, m := range part.Measurements {
		row := sheet.AddRow()
		row.AddCell().SetInt(m.ID)
		row.AddCell().SetString(m.Description)
		row.AddCell().SetString(m.Unit)
		for i := 0; i < model.MaxFactors; i++ {
			cell := row.AddCell()
			if i < len(m.Factors) {
				cell.SetFloat(m.Factors[i])
			}
		}
		row.AddCell().SetFloat(m.Total)
	}
	return nil
}

func addAbstractSheet(f *xlsx.File, part *model.Part) error {
	sheet, err := f.AddSheet(part.Name + " Abstract")
	if err != nil {
		return eris.Wrapf(err, "export: add sheet for %s", part.Name)
	}

	addRow(sheet, "No.", "Description", "Unit", "Quantity", "Rate", "Amount")
	for _, a := range part.Abstracts {
		row := sheet.AddRow()
		row.AddCell().SetInt(a.ID)
		row.AddCell().SetString(a.Description)
		row.AddCell().SetString(a.Unit)
		row.AddCell().SetFloat(a.Quantity)
		row.AddCell().SetFloat(a.Rate)
		row.AddCell().SetFloat(a.Amount)
	}

	total := sheet.AddRow()
	total.AddCell()
	total.AddCell().SetString("Total")
	total.AddCell()
	total.AddCell()
	total.AddCell()
	total.AddCell().SetFloat(part.Subtotal)
	return nil
}

func addGeneralSheet(f *xlsx.File, tree *model.EstimateTree) error {
	sheet, err := f.AddSheet("General Abstract")
	if err != nil {
		return eris.Wrap(err, "export: add general abstract sheet")
	}

	addRow(sheet, "Particulars", "Amount")
	for _, r := range tree.General.Rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.PartName)
		row.AddCell().SetFloat(r.Amount)
	}
	for _, s := range tree.General.Surcharges {
		row := sheet.AddRow()
		row.AddCell().SetString(printer.Sprintf("%s @ %v%%", s.Label, s.Percent))
		row.AddCell().SetFloat(s.Amount)
	}
	row := sheet.AddRow()
	row.AddCell().SetString("Grand Total")
	row.AddCell().SetFloat(tree.General.GrandTotal)
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
