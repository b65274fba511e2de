// Package editor is the structural edit surface of an estimate tree. Every
// operation mutates the tree, restores the id and linkage invariants, and
// finishes with a full recompute so callers never observe stale totals.
package editor

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estimate-cli/internal/engine"
	"github.com/sells-group/estimate-cli/internal/model"
)

// floorNames seed the auto-naming sequence for new parts; after the floors
// run out, parts continue as "Part A", "Part B", ...
var floorNames = []string{"Ground Floor", "First Floor", "Second Floor"}

// Editor applies structural edits to a single estimate tree. It is not safe
// for concurrent use; the tree has exactly one owner at a time.
type Editor struct {
	tree *model.EstimateTree
}

// New creates an Editor over the given tree.
func New(tree *model.EstimateTree) *Editor {
	return &Editor{tree: tree}
}

// Tree returns the tree under edit.
func (e *Editor) Tree() *model.EstimateTree { return e.tree }

// AddPart creates an empty part and its general abstract row. An empty name
// picks the next free auto name; an explicit name that collides with an
// existing part fails with ErrDuplicateName.
func (e *Editor) AddPart(name string) (*model.Part, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = e.nextPartName()
	} else if e.tree.Part(name) != nil {
		return nil, eris.Wrapf(model.ErrDuplicateName, "editor: part %q", name)
	}

	p := &model.Part{Name: name}
	e.tree.Parts = append(e.tree.Parts, p)
	engine.Recompute(e.tree)
	return p, nil
}

// DeletePart removes the part, both its lists, and its general abstract row.
// It reports whether either list held data at delete time; a non-empty part
// is still deleted — confirming with the user is the caller's job.
func (e *Editor) DeletePart(name string) (hadData bool, err error) {
	for i, p := range e.tree.Parts {
		if p.Name != name {
			continue
		}
		hadData = len(p.Measurements) > 0 || len(p.Abstracts) > 0
		e.tree.Parts = append(e.tree.Parts[:i], e.tree.Parts[i+1:]...)
		engine.Recompute(e.tree)
		return hadData, nil
	}
	return false, eris.Wrapf(model.ErrNotFound, "editor: part %q", name)
}

// AddMeasurementItem appends a measurement item with the next sequential id.
func (e *Editor) AddMeasurementItem(part, description, unit string, factors []float64) (*model.MeasurementItem, error) {
	p, err := e.validateItemInput(part, description)
	if err != nil {
		return nil, err
	}
	if len(factors) > model.MaxFactors {
		return nil, eris.Wrapf(model.ErrValidation, "editor: at most %d factors", model.MaxFactors)
	}
	for _, f := range factors {
		if f < 0 {
			return nil, eris.Wrap(model.ErrValidation, "editor: negative factor")
		}
	}

	p.Measurements = append(p.Measurements, model.MeasurementItem{
		ID:          len(p.Measurements) + 1,
		Description: strings.TrimSpace(description),
		Unit:        unit,
		Factors:     factors,
	})
	engine.Recompute(e.tree)
	return &p.Measurements[len(p.Measurements)-1], nil
}

// SetMeasurementFactors replaces an item's dimension factors; totals and any
// linked abstract quantity follow on recompute.
func (e *Editor) SetMeasurementFactors(part string, id int, factors []float64) error {
	p := e.tree.Part(part)
	if p == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: part %q", part)
	}
	m := p.Measurement(id)
	if m == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: measurement %d in %q", id, part)
	}
	if len(factors) > model.MaxFactors {
		return eris.Wrapf(model.ErrValidation, "editor: at most %d factors", model.MaxFactors)
	}
	for _, f := range factors {
		if f < 0 {
			return eris.Wrap(model.ErrValidation, "editor: negative factor")
		}
	}

	m.Factors = factors
	engine.Recompute(e.tree)
	return nil
}

// DeleteMeasurementItem removes the item and renumbers the remaining ids to
// a dense 1..N. Any abstract item fed only by the deleted measurement is
// unlinked with its quantity frozen at the last computed value.
func (e *Editor) DeleteMeasurementItem(part string, id int) error {
	p := e.tree.Part(part)
	if p == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: part %q", part)
	}
	idx := indexByID(len(p.Measurements), id, func(i int) int { return p.Measurements[i].ID })
	if idx < 0 {
		return eris.Wrapf(model.ErrNotFound, "editor: measurement %d in %q", id, part)
	}

	p.Measurements = append(p.Measurements[:idx], p.Measurements[idx+1:]...)
	for i := range p.Measurements {
		p.Measurements[i].ID = i + 1
	}
	engine.Recompute(e.tree)
	return nil
}

// AddAbstractItem appends an abstract item with the next sequential id. The
// quantity is taken as entered; it becomes derived as soon as a measurement
// links to the item.
func (e *Editor) AddAbstractItem(part, description, unit string, quantity, rate float64) (*model.AbstractItem, error) {
	p, err := e.validateItemInput(part, description)
	if err != nil {
		return nil, err
	}
	if quantity < 0 || rate < 0 {
		return nil, eris.Wrap(model.ErrValidation, "editor: negative quantity or rate")
	}

	p.Abstracts = append(p.Abstracts, model.AbstractItem{
		ID:          len(p.Abstracts) + 1,
		Description: strings.TrimSpace(description),
		Unit:        unit,
		Quantity:    quantity,
		Rate:        rate,
	})
	engine.Recompute(e.tree)
	return &p.Abstracts[len(p.Abstracts)-1], nil
}

// SetAbstractItem updates an item's quantity and rate. A quantity set on a
// linked item is overwritten by the next recompute; setting it only sticks
// once the item has no measurement sources.
func (e *Editor) SetAbstractItem(part string, id int, quantity, rate float64) error {
	p := e.tree.Part(part)
	if p == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: part %q", part)
	}
	a := p.Abstract(id)
	if a == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: abstract %d in %q", id, part)
	}
	if quantity < 0 || rate < 0 {
		return eris.Wrap(model.ErrValidation, "editor: negative quantity or rate")
	}

	a.Quantity = quantity
	a.Rate = rate
	engine.Recompute(e.tree)
	return nil
}

// DeleteAbstractItem removes the item, renumbers the remaining ids, and
// remaps measurement links: links to the deleted item are cleared, links to
// later items follow the renumbering.
func (e *Editor) DeleteAbstractItem(part string, id int) error {
	p := e.tree.Part(part)
	if p == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: part %q", part)
	}
	idx := indexByID(len(p.Abstracts), id, func(i int) int { return p.Abstracts[i].ID })
	if idx < 0 {
		return eris.Wrapf(model.ErrNotFound, "editor: abstract %d in %q", id, part)
	}

	p.Abstracts = append(p.Abstracts[:idx], p.Abstracts[idx+1:]...)
	for i := range p.Abstracts {
		p.Abstracts[i].ID = i + 1
	}
	for i := range p.Measurements {
		switch {
		case p.Measurements[i].AbstractID == id:
			p.Measurements[i].AbstractID = 0
		case p.Measurements[i].AbstractID > id:
			p.Measurements[i].AbstractID--
		}
	}
	engine.Recompute(e.tree)
	return nil
}

// LinkMeasurement points a measurement item at an abstract item in the same
// part, making the abstract quantity derived. An abstractID of zero clears
// the link.
func (e *Editor) LinkMeasurement(part string, measurementID, abstractID int) error {
	p := e.tree.Part(part)
	if p == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: part %q", part)
	}
	m := p.Measurement(measurementID)
	if m == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: measurement %d in %q", measurementID, part)
	}
	if abstractID != 0 && p.Abstract(abstractID) == nil {
		return eris.Wrapf(model.ErrNotFound, "editor: abstract %d in %q", abstractID, part)
	}

	m.AbstractID = abstractID
	engine.Recompute(e.tree)
	return nil
}

func (e *Editor) validateItemInput(part, description string) (*model.Part, error) {
	if strings.TrimSpace(description) == "" {
		return nil, eris.Wrap(model.ErrValidation, "editor: empty description")
	}
	p := e.tree.Part(part)
	if p == nil {
		return nil, eris.Wrapf(model.ErrValidation, "editor: unknown part %q", part)
	}
	return p, nil
}

func (e *Editor) nextPartName() string {
	for i := 0; ; i++ {
		var candidate string
		switch {
		case i < len(floorNames):
			candidate = floorNames[i]
		case i-len(floorNames) < 26:
			candidate = fmt.Sprintf("Part %c", rune('A'+i-len(floorNames)))
		default:
			candidate = fmt.Sprintf("Part %d", i-len(floorNames)+1)
		}
		if e.tree.Part(candidate) == nil {
			return candidate
		}
	}
}

func indexByID(n, id int, idAt func(int) int) int {
	for i := 0; i < n; i++ {
		if idAt(i) == id {
			return i
		}
	}
	return -1
}
