package model

// SheetType classifies an imported worksheet.
type SheetType string

const (
	SheetTypeGeneral     SheetType = "general"
	SheetTypeAbstract    SheetType = "abstract"
	SheetTypeMeasurement SheetType = "measurement"
	SheetTypeOther       SheetType = "other"
)

// Sheet is one worksheet in the generic tabular form handed to the resolver.
// Reading actual workbook bytes into this form is the fetcher's job.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// SkippedSheet records a sheet the resolver could not import and why.
type SkippedSheet struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RateHint is a non-binding rate catalog suggestion for an imported item
// that arrived without a catalog code. The resolver never applies these.
type RateHint struct {
	Part        string    `json:"part"`
	ItemType    SheetType `json:"item_type"`
	ItemID      int       `json:"item_id"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Score       float64   `json:"score"`
}

// ImportReport summarizes one resolver run.
type ImportReport struct {
	SheetsClassified  map[SheetType]int `json:"sheets_classified"`
	ItemsMatched      int               `json:"items_matched"`
	ItemsUnmatched    int               `json:"items_unmatched"`
	AverageConfidence float64           `json:"average_confidence"`
	SkippedSheets     []SkippedSheet    `json:"skipped_sheets"`
	RateHints         []RateHint        `json:"rate_hints"`
}
