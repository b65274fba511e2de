package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estimate-cli/internal/model"
)

func groundFloorTree() *model.EstimateTree {
	t := model.NewEstimateTree("Residential Building", nil)
	t.Parts = append(t.Parts, &model.Part{
		Name: "Ground Floor",
		Measurements: []model.MeasurementItem{
			{ID: 1, Description: "RCC slab", Unit: "cum", Factors: []float64{1, 10, 5, 3}, AbstractID: 1},
		},
		Abstracts: []model.AbstractItem{
			{ID: 1, Description: "RCC 1:2:4", Unit: "cum", Rate: 4850},
		},
	})
	return t
}

func TestRecompute_MeasurementTotal(t *testing.T) {
	tree := groundFloorTree()
	Recompute(tree)

	assert.Equal(t, 150.0, tree.Parts[0].Measurements[0].Total)
}

func TestRecompute_LinkedQuantityAndAmount(t *testing.T) {
	tree := groundFloorTree()
	Recompute(tree)

	abs := tree.Parts[0].Abstracts[0]
	assert.True(t, abs.Linked)
	assert.Equal(t, 150.0, abs.Quantity)
	assert.Equal(t, 727500.0, abs.Amount)
	assert.Equal(t, 727500.0, tree.Parts[0].Subtotal)
	assert.Equal(t, 727500.0, tree.General.GrandTotal)
}

func TestRecompute_EditPropagation(t *testing.T) {
	tree := groundFloorTree()
	Recompute(tree)

	// Length edited from 10 to 12.
	tree.Parts[0].Measurements[0].Factors[model.FactorLength] = 12
	Recompute(tree)

	assert.Equal(t, 180.0, tree.Parts[0].Measurements[0].Total)
	assert.Equal(t, 873000.0, tree.Parts[0].Abstracts[0].Amount)
	assert.Equal(t, 873000.0, tree.Parts[0].Subtotal)
	assert.Equal(t, 873000.0, tree.General.GrandTotal)
}

func TestRecompute_Idempotent(t *testing.T) {
	tree := groundFloorTree()
	Recompute(tree)
	first := *tree.Parts[0]
	firstGeneral := tree.General

	Recompute(tree)
	assert.Equal(t, first.Subtotal, tree.Parts[0].Subtotal)
	assert.Equal(t, first.Abstracts, tree.Parts[0].Abstracts)
	assert.Equal(t, firstGeneral.GrandTotal, tree.General.GrandTotal)
}

func TestRecompute_UnlinkedQuantityPreserved(t *testing.T) {
	tree := groundFloorTree()
	Recompute(tree)
	require.Equal(t, 150.0, tree.Parts[0].Abstracts[0].Quantity)

	// Measurement deleted: quantity must stay frozen, not zero out.
	tree.Parts[0].Measurements = nil
	Recompute(tree)

	abs := tree.Parts[0].Abstracts[0]
	assert.False(t, abs.Linked)
	assert.Equal(t, 150.0, abs.Quantity)
	assert.Equal(t, 727500.0, abs.Amount)
}

func TestRecompute_DanglingLinkTreatedAsUnlinked(t *testing.T) {
	tree := groundFloorTree()
	tree.Parts[0].Measurements[0].AbstractID = 99 // no such abstract item
	tree.Parts[0].Abstracts[0].Quantity = 42

	Recompute(tree)

	abs := tree.Parts[0].Abstracts[0]
	assert.False(t, abs.Linked)
	assert.Equal(t, 42.0, abs.Quantity)
}

func TestRecompute_MultipleSourcesSum(t *testing.T) {
	tree := groundFloorTree()
	tree.Parts[0].Measurements = append(tree.Parts[0].Measurements,
		model.MeasurementItem{ID: 2, Description: "RCC slab rear", Factors: []float64{2, 5, 5, 1}, AbstractID: 1},
	)
	Recompute(tree)

	assert.Equal(t, 200.0, tree.Parts[0].Abstracts[0].Quantity) // 150 + 50
}

func TestRecompute_Surcharges(t *testing.T) {
	tree := groundFloorTree()
	tree.General.Surcharges = []model.Surcharge{
		{Label: "Contingencies", Percent: 3},
		{Label: "Petty supervision charges", Percent: 2},
	}
	Recompute(tree)

	base := 727500.0
	assert.Equal(t, base*0.03, tree.General.Surcharges[0].Amount)
	assert.Equal(t, base*0.02, tree.General.Surcharges[1].Amount)
	assert.Equal(t, base*1.05, tree.General.GrandTotal)
}

func TestRecompute_GeneralRowsMirrorParts(t *testing.T) {
	tree := groundFloorTree()
	tree.Parts = append(tree.Parts, &model.Part{
		Name: "First Floor",
		Abstracts: []model.AbstractItem{
			{ID: 1, Description: "Brickwork", Quantity: 10, Rate: 100},
		},
	})
	Recompute(tree)

	require.Len(t, tree.General.Rows, 2)
	assert.Equal(t, "Ground Floor", tree.General.Rows[0].PartName)
	assert.Equal(t, 727500.0, tree.General.Rows[0].Amount)
	assert.Equal(t, "First Floor", tree.General.Rows[1].PartName)
	assert.Equal(t, 1000.0, tree.General.Rows[1].Amount)
	assert.Equal(t, 728500.0, tree.General.GrandTotal)
}

func TestFactorProduct(t *testing.T) {
	assert.Equal(t, 0.0, FactorProduct(nil))
	assert.Equal(t, 5.0, FactorProduct([]float64{5}))
	assert.Equal(t, 50.0, FactorProduct([]float64{1, 10, 5}))
	assert.Equal(t, 150.0, FactorProduct([]float64{1, 10, 5, 3}))
}

func TestRecompute_EmptyTree(t *testing.T) {
	tree := model.NewEstimateTree("Empty", model.DefaultSurcharges())
	Recompute(tree)

	assert.Empty(t, tree.General.Rows)
	assert.Equal(t, 0.0, tree.General.GrandTotal)
}
