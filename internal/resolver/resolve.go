package resolver

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/catalog"
	"github.com/sells-group/estimate-cli/internal/editor"
	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/match"
	"github.com/sells-group/estimate-cli/internal/model"
)

// Options tunes the resolver.
type Options struct {
	// HeaderScanRows bounds the header-row search window per sheet.
	HeaderScanRows int
	// Surcharges are the percentage rows applied in the general abstract of
	// every imported estimate. Empty means the standard set.
	Surcharges []model.Surcharge
}

// Resolver turns generic tabular sheets into a populated estimate tree.
type Resolver struct {
	catalog *catalog.Catalog
	matcher *match.Matcher
	opts    Options
}

// New creates a Resolver. catalog may be nil, which disables rate hints.
func New(cat *catalog.Catalog, matcher *match.Matcher, opts Options) *Resolver {
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = DefaultHeaderScanRows
	}
	if len(opts.Surcharges) == 0 {
		opts.Surcharges = model.DefaultSurcharges()
	}
	if matcher == nil {
		matcher = match.NewMatcher(match.DefaultThreshold)
	}
	return &Resolver{catalog: cat, matcher: matcher, opts: opts}
}

// Resolve classifies and imports every sheet, infers measurement→abstract
// linkages, and returns the populated tree with an import report. Sheet
// failures are collected into the report, never raised; only an empty input
// is an error.
func (r *Resolver) Resolve(name string, sheets []model.Sheet) (*model.EstimateTree, *model.ImportReport, error) {
	if len(sheets) == 0 {
		return nil, nil, eris.New("resolver: no sheets")
	}

	tree := model.NewEstimateTree(name, r.opts.Surcharges)
	ed := editor.New(tree)
	report := &model.ImportReport{SheetsClassified: map[model.SheetType]int{}}

	var defaultPart string
	for _, sheet := range sheets {
		if err := r.importSheet(ed, sheet, report, &defaultPart); err != nil {
			report.SkippedSheets = append(report.SkippedSheets, model.SkippedSheet{
				Name:   sheet.Name,
				Reason: err.Error(),
			})
			zap.L().Warn("resolver: sheet skipped",
				zap.String("sheet", sheet.Name),
				zap.Error(err),
			)
		}
	}

	r.inferLinks(tree, report)
	r.suggestRates(tree, report)
	engine.Recompute(tree)

	zap.L().Info("resolver: import complete",
		zap.String("estimate", name),
		zap.Int("parts", len(tree.Parts)),
		zap.Int("matched", report.ItemsMatched),
		zap.Int("unmatched", report.ItemsUnmatched),
		zap.Int("skipped", len(report.SkippedSheets)),
	)
	return tree, report, nil
}

// importSheet classifies and loads a single sheet into the tree. An error
// means the whole sheet was skipped.
func (r *Resolver) importSheet(ed *editor.Editor, sheet model.Sheet, report *model.ImportReport, defaultPart *string) error {
	typ := Classify(sheet.Name)
	switch typ {
	case model.SheetTypeOther:
		return eris.Errorf("resolver: unrecognized sheet name %q", sheet.Name)
	case model.SheetTypeGeneral:
		// The general abstract is derived from the parts; its imported rows
		// carry nothing the recompute won't rebuild.
		report.SheetsClassified[typ]++
		return nil
	}

	headerIdx, cols, err := findHeader(sheet.Rows, typ, r.opts.HeaderScanRows)
	if err != nil {
		return err
	}

	part, err := r.ensurePart(ed, PartName(sheet.Name), defaultPart)
	if err != nil {
		return err
	}

	for _, row := range sheet.Rows[headerIdx+1:] {
		desc := rowDescription(row, cols)
		if desc == "" || isSummaryRow(desc) {
			continue
		}

		switch typ {
		case model.SheetTypeMeasurement:
			item, addErr := ed.AddMeasurementItem(part.Name, desc, cellAt(row, cols.unit), rowFactors(row, cols))
			if addErr != nil {
				zap.L().Debug("resolver: measurement row dropped", zap.String("description", desc), zap.Error(addErr))
				continue
			}
			item.RateCode = cellAt(row, cols.code)
		case model.SheetTypeAbstract:
			qty, _ := parseNumber(cellAt(row, cols.quantity))
			rate, _ := parseNumber(cellAt(row, cols.rate))
			item, addErr := ed.AddAbstractItem(part.Name, desc, cellAt(row, cols.unit), qty, rate)
			if addErr != nil {
				zap.L().Debug("resolver: abstract row dropped", zap.String("description", desc), zap.Error(addErr))
				continue
			}
			item.RateCode = cellAt(row, cols.code)
		}
	}

	report.SheetsClassified[typ]++
	return nil
}

// ensurePart finds or creates the part for a sheet. Measurement and abstract
// sheets of the same section resolve to the same part; sheets named only by
// type ("Measurement", "Abstract") all land in one shared auto-named part.
func (r *Resolver) ensurePart(ed *editor.Editor, name string, defaultPart *string) (*model.Part, error) {
	if name == "" {
		name = *defaultPart
	}
	if name != "" {
		if p := ed.Tree().Part(name); p != nil {
			return p, nil
		}
		return ed.AddPart(name)
	}

	p, err := ed.AddPart("")
	if err != nil {
		return nil, err
	}
	*defaultPart = p.Name
	return p, nil
}

// inferLinks proposes a measurement source for every unlinked abstract item
// by description similarity. Ambiguity never fails: the best guess below
// threshold simply stays unlinked.
func (r *Resolver) inferLinks(tree *model.EstimateTree, report *model.ImportReport) {
	var confidenceSum float64
	var inferred int

	for _, p := range tree.Parts {
		for ai := range p.Abstracts {
			a := &p.Abstracts[ai]
			if a.Linked {
				report.ItemsMatched++
				continue
			}

			bestIdx, bestScore := -1, 0.0
			for mi := range p.Measurements {
				if p.Measurements[mi].AbstractID != 0 {
					continue
				}
				if s := match.Score(a.Description, p.Measurements[mi].Description); s > bestScore {
					bestIdx, bestScore = mi, s
				}
			}

			if bestIdx >= 0 && bestScore >= r.matcher.Threshold() {
				p.Measurements[bestIdx].AbstractID = a.ID
				report.ItemsMatched++
				inferred++
				confidenceSum += bestScore
				zap.L().Debug("resolver: linked",
					zap.String("part", p.Name),
					zap.String("abstract", a.Description),
					zap.String("measurement", p.Measurements[bestIdx].Description),
					zap.Float64("score", bestScore),
				)
			} else {
				report.ItemsUnmatched++
			}
		}
	}

	// The average covers inferred links only; items that arrived already
	// linked carry no similarity score.
	if inferred > 0 {
		report.AverageConfidence = confidenceSum / float64(inferred)
	}
}

// suggestRates attaches the top catalog candidate for every item that
// arrived without a rate code. Hints are report-only; imported rates are
// never overwritten.
func (r *Resolver) suggestRates(tree *model.EstimateTree, report *model.ImportReport) {
	if r.catalog == nil || r.catalog.Len() == 0 {
		return
	}

	for _, p := range tree.Parts {
		for _, m := range p.Measurements {
			if m.RateCode == "" {
				r.appendHint(report, p.Name, model.SheetTypeMeasurement, m.ID, m.Description)
			}
		}
		for _, a := range p.Abstracts {
			if a.RateCode == "" {
				r.appendHint(report, p.Name, model.SheetTypeAbstract, a.ID, a.Description)
			}
		}
	}
}

func (r *Resolver) appendHint(report *model.ImportReport, part string, typ model.SheetType, id int, desc string) {
	suggestions := r.catalog.Search(desc, 1)
	if len(suggestions) == 0 {
		return
	}
	report.RateHints = append(report.RateHints, model.RateHint{
		Part:        part,
		ItemType:    typ,
		ItemID:      id,
		Description: desc,
		Code:        suggestions[0].Item.Code,
		Score:       suggestions[0].Score,
	})
}

// rowDescription picks the item description: the mapped column when present,
// otherwise the first cell with letters in it.
func rowDescription(row []string, cols columnMap) string {
	if cols.description >= 0 {
		return strings.TrimSpace(cellAt(row, cols.description))
	}
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if _, err := parseNumber(cell); err != nil {
			return cell
		}
	}
	return ""
}

// rowFactors collects the present dimension values in canonical order
// (count, length, breadth, height). A row with only a quantity column
// becomes a single-factor item.
func rowFactors(row []string, cols columnMap) []float64 {
	var factors []float64
	for _, idx := range []int{cols.count, cols.length, cols.breadth, cols.height} {
		if idx < 0 {
			continue
		}
		if v, err := parseNumber(cellAt(row, idx)); err == nil {
			factors = append(factors, v)
		}
	}
	if len(factors) == 0 && cols.quantity >= 0 {
		if v, err := parseNumber(cellAt(row, cols.quantity)); err == nil {
			factors = append(factors, v)
		}
	}
	return factors
}

// isSummaryRow filters derived rows like "Total" or "Carried over" that
// would otherwise import as items.
func isSummaryRow(desc string) bool {
	lower := strings.ToLower(desc)
	return strings.HasPrefix(lower, "total") ||
		strings.HasPrefix(lower, "grand total") ||
		strings.HasPrefix(lower, "carried") ||
		strings.HasPrefix(lower, "sub total") ||
		strings.HasPrefix(lower, "subtotal")
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, eris.New("empty")
	}
	return strconv.ParseFloat(s, 64)
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
