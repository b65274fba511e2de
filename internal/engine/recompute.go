// Package engine re-derives every computed field of an estimate tree.
//
// The dependency order is fixed by the data model — measurement totals feed
// linked abstract quantities, abstract amounts feed part subtotals, part
// subtotals feed the general abstract — so a four-level pass replaces any
// general formula graph.
package engine

import "github.com/sells-group/estimate-cli/internal/model"

// Recompute derives all computed fields of the tree in place, in dependency
// order. It is idempotent, performs no I/O, and never fails for a tree
// satisfying the structural invariants: a measurement link pointing at a
// missing abstract id simply contributes nothing. Descriptions, units, and
// rates are never touched.
func Recompute(t *model.EstimateTree) {
	base := 0.0
	rows := make([]model.GeneralAbstractRow, 0, len(t.Parts))

	for _, p := range t.Parts {
		recomputePart(p)
		base += p.Subtotal
		rows = append(rows, model.GeneralAbstractRow{PartName: p.Name, Amount: p.Subtotal})
	}

	t.General.Rows = rows
	total := base
	for i := range t.General.Surcharges {
		t.General.Surcharges[i].Amount = base * t.General.Surcharges[i].Percent / 100
		total += t.General.Surcharges[i].Amount
	}
	t.General.GrandTotal = total
}

func recomputePart(p *model.Part) {
	for i := range p.Measurements {
		p.Measurements[i].Total = FactorProduct(p.Measurements[i].Factors)
	}

	p.Subtotal = 0
	for i := range p.Abstracts {
		a := &p.Abstracts[i]

		sum, linked := 0.0, false
		for j := range p.Measurements {
			if p.Measurements[j].AbstractID == a.ID {
				sum += p.Measurements[j].Total
				linked = true
			}
		}
		// An abstract item with no remaining sources keeps its last quantity
		// and becomes independently editable.
		if linked {
			a.Quantity = sum
		}
		a.Linked = linked

		a.Amount = a.Quantity * a.Rate
		p.Subtotal += a.Amount
	}
}

// FactorProduct multiplies the present factors of a measurement item. An
// item with no factors totals zero.
func FactorProduct(factors []float64) float64 {
	if len(factors) == 0 {
		return 0
	}
	total := 1.0
	for _, f := range factors {
		total *= f
	}
	return total
}
