package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newSheet(t *testing.T, name string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", name))
	return f
}

func TestDetectLayoutSentinelAndStep(t *testing.T) {
	f := newSheet(t, "Resistor")
	require.NoError(t, f.SetCellValue("Resistor", "A1", "No."))
	require.NoError(t, f.SetCellValue("Resistor", "A4", 1))
	require.NoError(t, f.MergeCell("Resistor", "A4", "A6"))

	layout, err := DetectLayout(f, "Resistor", 300)
	require.NoError(t, err)
	assert.Equal(t, Layout{StartRow: 4, Step: 3}, layout)
}

func TestDetectLayoutNoColumnAMergeMeansStepOne(t *testing.T) {
	f := newSheet(t, "IC")
	require.NoError(t, f.SetCellValue("IC", "A2", 1))
	// A merge that does not include column A must not define the step.
	require.NoError(t, f.MergeCell("IC", "B2", "B5"))

	layout, err := DetectLayout(f, "IC", 300)
	require.NoError(t, err)
	assert.Equal(t, Layout{StartRow: 2, Step: 1}, layout)
}

func TestDetectLayoutFallback(t *testing.T) {
	f := newSheet(t, "Empty")

	layout, err := DetectLayout(f, "Empty", 300)
	require.NoError(t, err)
	assert.Equal(t, Layout{StartRow: 6, Step: 1}, layout)
}

func TestRecordMergesExcludesBoundaryCrossers(t *testing.T) {
	f := newSheet(t, "S")
	require.NoError(t, f.SetCellValue("S", "A2", 1))
	require.NoError(t, f.MergeCell("S", "A2", "A3")) // inside the block
	require.NoError(t, f.MergeCell("S", "B2", "C2")) // inside the block
	require.NoError(t, f.MergeCell("S", "F3", "F4")) // crosses the boundary

	layout, err := DetectLayout(f, "S", 300)
	require.NoError(t, err)
	require.Equal(t, Layout{StartRow: 2, Step: 2}, layout)

	merges, err := RecordMerges(f, "S", layout)
	require.NoError(t, err)
	assert.ElementsMatch(t, []MergeRange{
		{MinRow: 2, MinCol: 1, MaxRow: 3, MaxCol: 1},
		{MinRow: 2, MinCol: 2, MaxRow: 2, MaxCol: 3},
	}, merges)
}

func TestMergeRangeShift(t *testing.T) {
	m := MergeRange{MinRow: 2, MinCol: 1, MaxRow: 3, MaxCol: 1}
	assert.Equal(t, MergeRange{MinRow: 6, MinCol: 1, MaxRow: 7, MaxCol: 1}, m.Shift(4))
}
