// Package resolver reconstructs an estimate tree from an arbitrary uploaded
// workbook: it classifies sheets by name, finds header rows, maps columns
// onto canonical fields, infers measurement→abstract linkages, and suggests
// rate catalog codes. One malformed sheet never aborts the rest.
package resolver

import (
	"strings"

	"github.com/sells-group/estimate-cli/internal/match"
	"github.com/sells-group/estimate-cli/internal/model"
)

// measurementKeywords are the sheet-name tokens that mark a measurement
// sheet, including abbreviations seen in field workbooks.
var measurementKeywords = map[string]bool{
	"measurement":  true,
	"measurements": true,
	"meas":         true,
	"mes":          true,
	"mst":          true,
}

// Classify determines the sheet type from its name. Rules apply in priority
// order, first match wins; anything unrecognized is Other and gets skipped.
func Classify(sheetName string) model.SheetType {
	tokens := match.Tokenize(sheetName)
	var hasGeneral, hasAbstract, hasMeasurement bool
	for _, tok := range tokens {
		switch {
		case tok == "general":
			hasGeneral = true
		case tok == "abstract" || tok == "abstracts" || tok == "abs":
			hasAbstract = true
		case measurementKeywords[tok]:
			hasMeasurement = true
		}
	}

	switch {
	case hasGeneral && hasAbstract:
		return model.SheetTypeGeneral
	case hasAbstract:
		return model.SheetTypeAbstract
	case hasMeasurement:
		return model.SheetTypeMeasurement
	default:
		return model.SheetTypeOther
	}
}

// PartName infers the part a sheet belongs to by stripping the sheet-type
// keywords from its name. "Ground Floor Measurement" and "Ground Floor
// Abstract" both collapse to "Ground Floor". Returns "" when nothing
// remains, letting the caller fall back to auto naming.
func PartName(sheetName string) string {
	var kept []string
	for _, tok := range strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(sheetName)) {
		lower := strings.ToLower(strings.Trim(tok, " .,()"))
		if lower == "general" || lower == "abstract" || lower == "abstracts" ||
			lower == "abs" || lower == "of" || lower == "sheet" || measurementKeywords[lower] {
			continue
		}
		kept = append(kept, strings.Trim(tok, " .,()"))
	}
	return strings.Join(kept, " ")
}
