package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estimate-cli/internal/model"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	return New(model.NewEstimateTree("Test Estimate", nil))
}

// --- AddPart ---

func TestAddPart_AutoNames(t *testing.T) {
	e := newTestEditor(t)

	for _, want := range []string{"Ground Floor", "First Floor", "Second Floor", "Part A", "Part B"} {
		p, err := e.AddPart("")
		require.NoError(t, err)
		assert.Equal(t, want, p.Name)
	}
}

func TestAddPart_AutoNameSkipsTaken(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	p, err := e.AddPart("")
	require.NoError(t, err)
	assert.Equal(t, "First Floor", p.Name)
}

func TestAddPart_DuplicateName(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Terrace")
	require.NoError(t, err)

	_, err = e.AddPart("Terrace")
	assert.True(t, errors.Is(err, model.ErrDuplicateName))
}

func TestAddPart_AppendsGeneralRow(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	require.Len(t, e.Tree().General.Rows, 1)
	assert.Equal(t, "Ground Floor", e.Tree().General.Rows[0].PartName)
}

// --- DeletePart ---

func TestDeletePart_Empty(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	hadData, err := e.DeletePart("Ground Floor")
	require.NoError(t, err)
	assert.False(t, hadData)
	assert.Empty(t, e.Tree().Parts)
	assert.Empty(t, e.Tree().General.Rows)
}

func TestDeletePart_ReportsData(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	_, err = e.AddMeasurementItem("Ground Floor", "Earthwork", "cum", []float64{1, 10, 5})
	require.NoError(t, err)

	hadData, err := e.DeletePart("Ground Floor")
	require.NoError(t, err)
	assert.True(t, hadData)
	assert.Empty(t, e.Tree().Parts)
}

func TestDeletePart_NotFound(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.DeletePart("Basement")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

// --- AddMeasurementItem ---

func TestAddMeasurementItem_SequentialIDs(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	m1, err := e.AddMeasurementItem("Ground Floor", "Earthwork", "cum", []float64{1, 10, 5, 1})
	require.NoError(t, err)
	m2, err := e.AddMeasurementItem("Ground Floor", "PCC bed", "cum", []float64{1, 10, 5, 0.1})
	require.NoError(t, err)

	assert.Equal(t, 1, m1.ID)
	assert.Equal(t, 2, m2.ID)
	assert.Equal(t, 50.0, e.Tree().Parts[0].Measurements[0].Total)
}

func TestAddMeasurementItem_UnknownPart(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddMeasurementItem("Basement", "Earthwork", "cum", nil)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestAddMeasurementItem_EmptyDescription(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	_, err = e.AddMeasurementItem("Ground Floor", "  ", "cum", nil)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestAddMeasurementItem_NegativeFactor(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	_, err = e.AddMeasurementItem("Ground Floor", "Earthwork", "cum", []float64{1, -10})
	assert.True(t, errors.Is(err, model.ErrValidation))
}

// --- SetMeasurementFactors ---

func TestSetMeasurementFactors_Propagates(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	m, err := e.AddMeasurementItem("Ground Floor", "RCC slab", "cum", []float64{1, 10, 5, 3})
	require.NoError(t, err)
	a, err := e.AddAbstractItem("Ground Floor", "RCC 1:2:4", "cum", 0, 4850)
	require.NoError(t, err)
	require.NoError(t, e.LinkMeasurement("Ground Floor", m.ID, a.ID))
	require.Equal(t, 727500.0, e.Tree().General.GrandTotal)

	require.NoError(t, e.SetMeasurementFactors("Ground Floor", m.ID, []float64{1, 12, 5, 3}))

	p := e.Tree().Parts[0]
	assert.Equal(t, 180.0, p.Measurements[0].Total)
	assert.Equal(t, 180.0, p.Abstracts[0].Quantity)
	assert.Equal(t, 873000.0, p.Abstracts[0].Amount)
	assert.Equal(t, 873000.0, e.Tree().General.GrandTotal)
}

func TestSetMeasurementFactors_Invalid(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	m, err := e.AddMeasurementItem("Ground Floor", "slab", "cum", []float64{5})
	require.NoError(t, err)

	err = e.SetMeasurementFactors("Ground Floor", m.ID, []float64{-1})
	assert.True(t, errors.Is(err, model.ErrValidation))
	err = e.SetMeasurementFactors("Ground Floor", 9, []float64{1})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

// --- SetAbstractItem ---

func TestSetAbstractItem_EditableWhenUnlinked(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	a, err := e.AddAbstractItem("Ground Floor", "Brickwork", "cum", 12, 5200)
	require.NoError(t, err)

	require.NoError(t, e.SetAbstractItem("Ground Floor", a.ID, 15, 5300))
	got := e.Tree().Parts[0].Abstracts[0]
	assert.Equal(t, 15.0, got.Quantity)
	assert.Equal(t, 79500.0, got.Amount)
}

func TestSetAbstractItem_LinkedQuantityRederived(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	m, err := e.AddMeasurementItem("Ground Floor", "slab", "cum", []float64{5})
	require.NoError(t, err)
	a, err := e.AddAbstractItem("Ground Floor", "slab concrete", "cum", 0, 100)
	require.NoError(t, err)
	require.NoError(t, e.LinkMeasurement("Ground Floor", m.ID, a.ID))

	// Quantity loses to the linked sources; the rate change sticks.
	require.NoError(t, e.SetAbstractItem("Ground Floor", a.ID, 99, 200))
	got := e.Tree().Parts[0].Abstracts[0]
	assert.Equal(t, 5.0, got.Quantity)
	assert.Equal(t, 1000.0, got.Amount)
}

// --- DeleteMeasurementItem ---

func TestDeleteMeasurementItem_Renumbers(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	for _, desc := range []string{"a", "b", "c", "d"} {
		_, err = e.AddMeasurementItem("Ground Floor", desc, "cum", []float64{1})
		require.NoError(t, err)
	}

	require.NoError(t, e.DeleteMeasurementItem("Ground Floor", 2))

	got := e.Tree().Parts[0].Measurements
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, i+1, m.ID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, []string{got[0].Description, got[1].Description, got[2].Description})
}

func TestDeleteMeasurementItem_NotFound(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	err = e.DeleteMeasurementItem("Ground Floor", 7)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDeleteMeasurementItem_FreezesLinkedAbstract(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	m, err := e.AddMeasurementItem("Ground Floor", "RCC slab", "cum", []float64{1, 12, 5, 3})
	require.NoError(t, err)
	a, err := e.AddAbstractItem("Ground Floor", "RCC 1:2:4", "cum", 0, 4850)
	require.NoError(t, err)
	require.NoError(t, e.LinkMeasurement("Ground Floor", m.ID, a.ID))

	abs := e.Tree().Parts[0].Abstract(1)
	require.True(t, abs.Linked)
	require.Equal(t, 180.0, abs.Quantity)

	require.NoError(t, e.DeleteMeasurementItem("Ground Floor", 1))

	abs = e.Tree().Parts[0].Abstract(1)
	assert.False(t, abs.Linked)
	assert.Equal(t, 180.0, abs.Quantity) // frozen, not zeroed
	assert.Equal(t, 873000.0, abs.Amount)
}

// --- AddAbstractItem / DeleteAbstractItem ---

func TestAddAbstractItem_ComputesAmount(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	a, err := e.AddAbstractItem("Ground Floor", "Brickwork CM 1:6", "cum", 12, 5200)
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 62400.0, e.Tree().Parts[0].Abstracts[0].Amount)
	assert.Equal(t, 62400.0, e.Tree().Parts[0].Subtotal)
	assert.Equal(t, 62400.0, e.Tree().General.GrandTotal)
}

func TestDeleteAbstractItem_RenumbersAndRemapsLinks(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	for _, desc := range []string{"one", "two", "three"} {
		_, err = e.AddAbstractItem("Ground Floor", desc, "cum", 1, 100)
		require.NoError(t, err)
	}
	m1, err := e.AddMeasurementItem("Ground Floor", "feeds two", "cum", []float64{2})
	require.NoError(t, err)
	m2, err := e.AddMeasurementItem("Ground Floor", "feeds three", "cum", []float64{3})
	require.NoError(t, err)
	require.NoError(t, e.LinkMeasurement("Ground Floor", m1.ID, 2))
	require.NoError(t, e.LinkMeasurement("Ground Floor", m2.ID, 3))

	require.NoError(t, e.DeleteAbstractItem("Ground Floor", 2))

	p := e.Tree().Parts[0]
	require.Len(t, p.Abstracts, 2)
	assert.Equal(t, 1, p.Abstracts[0].ID)
	assert.Equal(t, 2, p.Abstracts[1].ID)
	assert.Equal(t, "three", p.Abstracts[1].Description)

	// Link to the deleted item is cleared; link to "three" followed it down.
	assert.Equal(t, 0, p.Measurements[0].AbstractID)
	assert.Equal(t, 2, p.Measurements[1].AbstractID)
	assert.Equal(t, 3.0, p.Abstracts[1].Quantity)
}

func TestDeleteAbstractItem_NotFound(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)

	err = e.DeleteAbstractItem("Ground Floor", 1)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

// --- LinkMeasurement ---

func TestLinkMeasurement_Unlink(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	m, err := e.AddMeasurementItem("Ground Floor", "slab", "cum", []float64{5})
	require.NoError(t, err)
	a, err := e.AddAbstractItem("Ground Floor", "slab concrete", "cum", 0, 100)
	require.NoError(t, err)
	require.NoError(t, e.LinkMeasurement("Ground Floor", m.ID, a.ID))
	require.True(t, e.Tree().Parts[0].Abstracts[0].Linked)

	require.NoError(t, e.LinkMeasurement("Ground Floor", m.ID, 0))
	assert.False(t, e.Tree().Parts[0].Abstracts[0].Linked)
}

func TestLinkMeasurement_UnknownAbstract(t *testing.T) {
	e := newTestEditor(t)
	_, err := e.AddPart("Ground Floor")
	require.NoError(t, err)
	m, err := e.AddMeasurementItem("Ground Floor", "slab", "cum", []float64{5})
	require.NoError(t, err)

	err = e.LinkMeasurement("Ground Floor", m.ID, 9)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
