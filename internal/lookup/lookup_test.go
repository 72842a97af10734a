package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/bom_derating/internal/domain"
	"github.com/locvowork/bom_derating/internal/rules"
)

func setRows(t *testing.T, f *excelize.File, sheet string, rows [][]interface{}) {
	t.Helper()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
}

func buildLookupFile(t *testing.T, table, routing [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "TABLE"))
	_, err := f.NewSheet("ROUTING_RULES")
	require.NoError(t, err)
	setRows(t, f, "TABLE", table)
	setRows(t, f, "ROUTING_RULES", routing)
	return f
}

var tableHeader = []interface{}{
	"Category", "Subcategory", "Part_Name", "Rating_Field", "Rating_Value", "Rating_Unit", "Priority",
}

var routingHeader = []interface{}{"Category", "Subcategory", "Output_Sheet"}

func TestLoadAggregatesByPriority(t *testing.T) {
	f := buildLookupFile(t,
		[][]interface{}{
			tableHeader,
			{"IC", "", "PART-A", "Vmax", "30", "V", 2},
			{"IC", "", "PART-A", "V max", "25", "V", 1},
			{"IC", "", "PART-A", "Imax", "2", "A", 1},
		},
		[][]interface{}{routingHeader},
	)
	tbl, err := Load(f, rules.Default())
	require.NoError(t, err)

	got := tbl.RatingsFor("IC", "PART-A")
	// Priority 1 wins over priority 2 for the same canonical field.
	assert.Equal(t, "25V", got["V_MAX"])
	assert.Equal(t, "2A", got["I_MAX"])
}

func TestLoadEqualPriorityKeepsFirstSeen(t *testing.T) {
	// Two spellings of the same canonical field at equal priority.
	f := buildLookupFile(t,
		[][]interface{}{
			tableHeader,
			{"RESISTOR", "", "RC123", "Power_Rated", "0.1", "W", 1},
			{"RESISTOR", "", "RC123", "Pmax", "0.25", "W", 1},
		},
		[][]interface{}{routingHeader},
	)
	tbl, err := Load(f, rules.Default())
	require.NoError(t, err)

	// Both normalize to P_MAX and tie on (priority, field); the stable sort
	// keeps input order, so the first row read survives.
	assert.Equal(t, "0.1W", tbl.RatingsFor("RESISTOR", "RC123")["P_MAX"])
}

func TestLoadTracksRawFieldsAndCategories(t *testing.T) {
	f := buildLookupFile(t,
		[][]interface{}{
			tableHeader,
			{"IC", "MCU", "PART-A", "Vdd max", "3.6", "V", 1},
			{"FILTER", "", "PART-A", "Imax", "1", "A", 1},
		},
		[][]interface{}{routingHeader},
	)
	tbl, err := Load(f, rules.Default())
	require.NoError(t, err)

	key := domain.PartKey{Category: "IC", Part: "PART-A"}
	assert.True(t, tbl.RawFields[key]["Vdd max"])
	assert.Equal(t, "MCU", tbl.Subcategory[key])
	assert.True(t, tbl.PartCategories["PART-A"]["IC"])
	assert.True(t, tbl.PartCategories["PART-A"]["FILTER"])
}

func TestRouteForPrecedence(t *testing.T) {
	f := buildLookupFile(t,
		[][]interface{}{tableHeader},
		[][]interface{}{
			routingHeader,
			{"DIODE", "Zener", "Diode(ESD_Zener_Surge)"},
			{"DIODE", "", "Diode(Schottky_switching)"},
		},
	)
	tbl, err := Load(f, rules.Default())
	require.NoError(t, err)

	assert.Equal(t, "Diode(ESD_Zener_Surge)", tbl.RouteFor("DIODE", "Zener", "base"))
	assert.Equal(t, "Diode(Schottky_switching)", tbl.RouteFor("DIODE", "Other", "base"))
	assert.Equal(t, "base", tbl.RouteFor("IC", "", "base"))
}

func TestLoadMissingSheetIsFatal(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "TABLE"))
	setRows(t, f, "TABLE", [][]interface{}{tableHeader})

	_, err := Load(f, rules.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROUTING_RULES")
}

func TestLoadMissingHeaderIsFatal(t *testing.T) {
	f := buildLookupFile(t,
		[][]interface{}{{"Category", "Part_Name"}},
		[][]interface{}{routingHeader},
	)
	_, err := Load(f, rules.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Subcategory")
}

func TestLoadResistorPrefixRules(t *testing.T) {
	f := buildLookupFile(t,
		[][]interface{}{tableHeader},
		[][]interface{}{routingHeader},
	)
	_, err := f.NewSheet("RESISTOR_PREFIX")
	require.NoError(t, err)
	setRows(t, f, "RESISTOR_PREFIX", [][]interface{}{
		{"Prefix", "Rating_Value", "Rating_Unit", "Vendor", "Priority"},
		{"rc020", "0.0625", "W", "walsin", 2},
		{"RC020", "0.1", "W", "OTHER", 1},
		{"", "1", "W", "", 1},
	})

	tbl, err := Load(f, rules.Default())
	require.NoError(t, err)

	cands := tbl.ResistorPrefix["RC020"]
	require.Len(t, cands, 2)
	assert.Equal(t, domain.PrefixRule{Vendor: "WALSIN", Priority: 2, ValueUnit: "0.0625W"}, cands[0])
	assert.Equal(t, domain.PrefixRule{Vendor: "OTHER", Priority: 1, ValueUnit: "0.1W"}, cands[1])
}
