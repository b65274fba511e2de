// Package model holds the in-memory estimate data model shared by the
// engine, editor, resolver, and store.
package model

// Factor positions in MeasurementItem.Factors. Trailing factors are omitted
// for lower-dimensional items: an area item carries count/length/breadth, a
// linear item count/length, a counted item just count.
const (
	FactorCount = iota
	FactorLength
	FactorBreadth
	FactorHeight
	MaxFactors
)

// MeasurementItem is one dimensioned quantity entry in a part's measurement
// list. Total is derived (product of the present factors). AbstractID links
// the item to the abstract item it feeds; zero means unlinked.
type MeasurementItem struct {
	ID          int       `json:"id"`
	Description string    `json:"description"`
	Unit        string    `json:"unit"`
	Factors     []float64 `json:"factors"`
	Total       float64   `json:"total"`
	AbstractID  int       `json:"abstract_id,omitempty"`
	RateCode    string    `json:"rate_code,omitempty"`
}

// AbstractItem is one priced line item. Quantity is derived from linked
// measurement items while Linked is true; once its sources are gone the
// quantity freezes at the last computed value and becomes editable.
type AbstractItem struct {
	ID          int     `json:"id"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
	RateCode    string  `json:"rate_code,omitempty"`
	Linked      bool    `json:"linked"`
}

// Part is a named section of the estimate (typically a floor) owning one
// measurement list and one abstract list. Item IDs within each list are a
// dense 1..N sequence.
type Part struct {
	Name         string            `json:"name"`
	Measurements []MeasurementItem `json:"measurements"`
	Abstracts    []AbstractItem    `json:"abstracts"`
	Subtotal     float64           `json:"subtotal"`
}

// Measurement returns the measurement item with the given id, or nil.
func (p *Part) Measurement(id int) *MeasurementItem {
	for i := range p.Measurements {
		if p.Measurements[i].ID == id {
			return &p.Measurements[i]
		}
	}
	return nil
}

// Abstract returns the abstract item with the given id, or nil.
func (p *Part) Abstract(id int) *AbstractItem {
	for i := range p.Abstracts {
		if p.Abstracts[i].ID == id {
			return &p.Abstracts[i]
		}
	}
	return nil
}

// Surcharge is a percentage row applied to the general abstract base
// subtotal. Amount is derived on recompute.
type Surcharge struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
}

// GeneralAbstractRow mirrors one part's subtotal in the general abstract.
type GeneralAbstractRow struct {
	PartName string  `json:"part_name"`
	Amount   float64 `json:"amount"`
}

// GeneralAbstract is the single top-level rollup: one row per part, the
// surcharge rows, and the grand total. It exists for the lifetime of the
// estimate; only its part rows come and go.
type GeneralAbstract struct {
	Rows       []GeneralAbstractRow `json:"rows"`
	Surcharges []Surcharge          `json:"surcharges"`
	GrandTotal float64              `json:"grand_total"`
}

// EstimateTree is the whole estimate: a forest of parts rolling up into one
// general abstract. The tree is exclusively owned by a single caller; all
// mutation goes through the editor and all derived fields through the engine.
type EstimateTree struct {
	Name    string          `json:"name"`
	Parts   []*Part         `json:"parts"`
	General GeneralAbstract `json:"general"`
}

// NewEstimateTree creates an empty estimate with the given surcharge rows.
func NewEstimateTree(name string, surcharges []Surcharge) *EstimateTree {
	return &EstimateTree{
		Name:    name,
		General: GeneralAbstract{Surcharges: surcharges},
	}
}

// Part returns the part with the given name, or nil.
func (t *EstimateTree) Part(name string) *Part {
	for _, p := range t.Parts {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// DefaultSurcharges returns the standard surcharge rows applied to new
// estimates when none are configured.
func DefaultSurcharges() []Surcharge {
	return []Surcharge{
		{Label: "Contingencies", Percent: 3},
		{Label: "Petty supervision charges", Percent: 2},
	}
}
