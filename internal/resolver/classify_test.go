package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/estimate-cli/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want model.SheetType
	}{
		{"General Abstract", model.SheetTypeGeneral},
		{"GENERAL ABSTRACT", model.SheetTypeGeneral},
		{"Abstract - Ground Floor", model.SheetTypeAbstract},
		{"Ground Floor Abstract", model.SheetTypeAbstract},
		{"First Floor Abs", model.SheetTypeAbstract},
		{"Ground Floor Measurement", model.SheetTypeMeasurement},
		{"Measurements", model.SheetTypeMeasurement},
		{"GF Meas", model.SheetTypeMeasurement},
		{"Mes Sheet 1", model.SheetTypeMeasurement},
		{"Rate Analysis", model.SheetTypeOther},
		{"Sheet1", model.SheetTypeOther},
		{"", model.SheetTypeOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.name), "sheet %q", tt.name)
	}
}

func TestClassify_GeneralBeatsAbstract(t *testing.T) {
	// Priority order: a name with both keywords is the general abstract, not
	// a part abstract.
	assert.Equal(t, model.SheetTypeGeneral, Classify("Abstract General"))
}

func TestPartName_StripsTypeKeyword(t *testing.T) {
	assert.Equal(t, "Ground Floor", PartName("Ground Floor Measurement"))
	assert.Equal(t, "Ground Floor", PartName("Ground Floor Abstract"))
	assert.Equal(t, "First Floor", PartName("Abstract - First Floor"))
	assert.Equal(t, "GF", PartName("GF_Meas"))
}

func TestPartName_SameForBothSheetKinds(t *testing.T) {
	assert.Equal(t, PartName("Second Floor Measurement"), PartName("Second Floor Abstract"))
}

func TestPartName_EmptyWhenOnlyKeyword(t *testing.T) {
	assert.Equal(t, "", PartName("Measurement"))
	assert.Equal(t, "", PartName("Abstract"))
}
