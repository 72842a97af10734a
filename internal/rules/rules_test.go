package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDecodes(t *testing.T) {
	r := Default()
	require.NotNil(t, r)

	assert.Len(t, r.ManagedSheets, 9)
	assert.True(t, r.IsManaged("Resistor"))
	assert.True(t, r.IsManaged("DCDC & LDO"))
	assert.False(t, r.IsManaged("Unclassified"))
	assert.Equal(t, 300, r.ScanRows)
	assert.Equal(t, 5, r.ResistorPrefixLen)
}

func TestSheetColumns(t *testing.T) {
	r := Default()

	res, ok := r.Sheet("Resistor")
	require.True(t, ok)
	assert.Equal(t, SheetConfig{Name: "Resistor", DetailCol: 4, SpecCol: 5, ActualCol: 6}, res)

	// IC and Connector have no detail column and shifted spec/actual columns.
	ic, ok := r.Sheet("IC")
	require.True(t, ok)
	assert.Zero(t, ic.DetailCol)
	assert.Equal(t, 4, ic.SpecCol)
	assert.Equal(t, 5, ic.ActualCol)
}

func TestRatingSlots(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"VRWM", "VBR_VPT"}, r.RatingSlots["Diode(ESD_Zener_Surge)"])
	assert.Equal(t, []string{"V_MAX", "I_MAX", "P_MAX"}, r.RatingSlots["DCDC & LDO"])
	assert.NotContains(t, r.RatingSlots, "Resistor")
}

func TestSuggest(t *testing.T) {
	r := Default()
	available := map[string]bool{"V_RATED": true, "VRWM": true}

	assert.Equal(t, []string{"V_RATED", "VRWM"}, r.Suggest("V_MAX", available))
	assert.Empty(t, r.Suggest("I_MAX", available))
	assert.Empty(t, r.Suggest("UNKNOWN_FIELD", available))
}

func TestBaseCategories(t *testing.T) {
	r := Default()
	assert.Equal(t, "FET&TR", r.BaseCategorySheet["TR"])
	assert.Equal(t, "Diode(ESD_Zener_Surge)", r.BaseCategorySheet["DIODE"])
}
