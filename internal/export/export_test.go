package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estimate-cli/internal/editor"
	"github.com/sells-group/estimate-cli/internal/fetcher"
	"github.com/sells-group/estimate-cli/internal/model"
)

func sampleTree(t *testing.T) *model.EstimateTree {
	t.Helper()

	ed := editor.New(model.NewEstimateTree("Residence", model.DefaultSurcharges()))
	_, err := ed.AddPart("Ground Floor")
	require.NoError(t, err)
	_, err = ed.AddAbstractItem("Ground Floor", "Cement concrete 1:2:4", "cum", 0, 4850)
	require.NoError(t, err)
	m, err := ed.AddMeasurementItem("Ground Floor", "Cement concrete 1:2:4 footing", "cum", []float64{1, 10, 5, 3})
	require.NoError(t, err)
	require.NoError(t, ed.LinkMeasurement("Ground Floor", m.ID, 1))
	return ed.Tree()
}

func TestWriteCSV(t *testing.T) {
	tree := sampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tree))

	out := buf.String()
	assert.Contains(t, out, "Ground Floor Measurement")
	assert.Contains(t, out, "Ground Floor Abstract")
	assert.Contains(t, out, "General Abstract")
	assert.Contains(t, out, "727,500.00")
	assert.Contains(t, out, "Grand Total")
	// 727500 * 1.05 with 3% contingencies and 2% petty supervision
	assert.Contains(t, out, "763,875.00")
}

func TestWriteCSV_SurchargeLabels(t *testing.T) {
	tree := sampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tree))

	assert.Contains(t, buf.String(), "Contingencies @ 3%")
	assert.Contains(t, buf.String(), "Petty supervision charges @ 2%")
}

func TestWriteXLSX_RoundTrips(t *testing.T) {
	tree := sampleTree(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, tree))

	sheets, err := fetcher.ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, sheets, 3)

	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Ground Floor Measurement")
	assert.Contains(t, names, "Ground Floor Abstract")
	assert.Contains(t, names, "General Abstract")

	for _, s := range sheets {
		if s.Name != "Ground Floor Abstract" {
			continue
		}
		var found bool
		for _, row := range s.Rows {
			if len(row) > 1 && strings.Contains(row[1], "Cement concrete") {
				found = true
			}
		}
		assert.True(t, found, "abstract row missing from exported sheet")
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "727,500.00", money(727500))
	assert.Equal(t, "0.00", money(0))
}
