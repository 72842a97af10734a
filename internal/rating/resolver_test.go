package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/bom_derating/internal/domain"
	"github.com/locvowork/bom_derating/internal/lookup"
	"github.com/locvowork/bom_derating/internal/rules"
)

func newTable() *lookup.Table {
	return &lookup.Table{
		Ratings:        make(map[domain.PartKey]map[string]string),
		RawFields:      make(map[domain.PartKey]map[string]bool),
		Subcategory:    make(map[domain.PartKey]string),
		PartCategories: make(map[string]map[string]bool),
		Routing:        make(map[domain.RouteKey]string),
		ResistorPrefix: make(map[string][]domain.PrefixRule),
	}
}

func item(sheet, category, part, detail string) domain.ClassifiedItem {
	return domain.ClassifiedItem{
		BOMRow:   2,
		Category: category,
		Ref:      "X1",
		Part:     part,
		Detail:   detail,
		Sheet:    sheet,
	}
}

func TestExtractVoltage(t *testing.T) {
	assert.Equal(t, "16V", ExtractVoltage("X5R 16V 10%"))
	assert.Equal(t, "6.3V", ExtractVoltage("0402 6.3v X7R"))
	assert.Equal(t, "50V", ExtractVoltage("25V ceramic, rated 50V"), "last token wins")
	assert.Equal(t, "", ExtractVoltage("0603 10% X5R"))
	assert.Equal(t, "", ExtractVoltage("5VA transformer"), "requires a word boundary after V")
}

func TestCapacitorPrefersDetailVoltage(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "CAPACITOR", Part: "CAP-1"}] = map[string]string{"V_RATED": "25V"}
	r := NewResolver(tbl, rules.Default())

	res := r.Resolve(item("Capacitor", "CAPACITOR", "CAP-1", "X5R 16V 10%"), 1)
	assert.Equal(t, []string{"16V"}, res.Values)
	assert.Nil(t, res.Issue)
}

func TestCapacitorFallsBackToLookup(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "CAPACITOR", Part: "CAP-1"}] = map[string]string{"V_RATED": "25V"}
	r := NewResolver(tbl, rules.Default())

	res := r.Resolve(item("Capacitor", "CAPACITOR", "CAP-1", "0603 10% X5R"), 1)
	assert.Equal(t, []string{"25V"}, res.Values)
	assert.Nil(t, res.Issue)
}

func TestCapacitorMissingVoltage(t *testing.T) {
	r := NewResolver(newTable(), rules.Default())

	res := r.Resolve(item("Capacitor", "CAPACITOR", "CAP-X", "0603"), 1)
	assert.Equal(t, []string{""}, res.Values)
	require.NotNil(t, res.Issue)
	assert.Equal(t, []string{"(CAP_VOLTAGE)"}, res.Issue.MissingFields)
	assert.False(t, res.Issue.LookupHasAny)
	assert.Empty(t, res.Issue.Suggestions)
}

func TestResistorPrefixVendorBeatsPriority(t *testing.T) {
	tbl := newTable()
	tbl.ResistorPrefix["RC020"] = []domain.PrefixRule{
		{Vendor: "OTHER", Priority: 1, ValueUnit: "0.1W"},
		{Vendor: "WALSIN", Priority: 2, ValueUnit: "0.0625W"},
	}
	r := NewResolver(tbl, rules.Default())

	res := r.Resolve(item("Resistor", "RESISTOR", "rc0201f103", ""), 1)
	assert.Equal(t, []string{"0.0625W"}, res.Values)
	assert.Nil(t, res.Issue)
}

func TestResistorPrefixTieBreak(t *testing.T) {
	tbl := newTable()
	tbl.ResistorPrefix["RC020"] = []domain.PrefixRule{
		{Vendor: "B", Priority: 1, ValueUnit: "0.2W"},
		{Vendor: "A", Priority: 1, ValueUnit: "0.1W"},
	}
	r := NewResolver(tbl, rules.Default())

	// No preferred vendor present: lowest (priority, value) pair wins.
	res := r.Resolve(item("Resistor", "RESISTOR", "RC0201", ""), 1)
	assert.Equal(t, []string{"0.1W"}, res.Values)
}

func TestResistorFieldOrderFallback(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "RESISTOR", Part: "R-GEN"}] = map[string]string{
		"W_MAX":     "0.25W",
		"POWER_MAX": "0.125W",
	}
	r := NewResolver(tbl, rules.Default())

	// Order is P_MAX, POWER_MAX, W_MAX; P_MAX is absent.
	res := r.Resolve(item("Resistor", "RESISTOR", "R-GEN", ""), 1)
	assert.Equal(t, []string{"0.125W"}, res.Values)
}

func TestResistorMissingWithSuggestions(t *testing.T) {
	tbl := newTable()
	key := domain.PartKey{Category: "RESISTOR", Part: "R-ODD"}
	tbl.Ratings[key] = map[string]string{"V_RATED": "50V"}
	tbl.RawFields[key] = map[string]bool{"Vrated": true}
	r := NewResolver(tbl, rules.Default())

	res := r.Resolve(item("Resistor", "RESISTOR", "R-ODD", ""), 1)
	require.NotNil(t, res.Issue)
	assert.Equal(t, []string{"(NO_MATCHED_FIELD)"}, res.Issue.MissingFields)
	assert.True(t, res.Issue.LookupHasAny)
	assert.Equal(t, []string{"V_RATED"}, res.Issue.AvailableFields)
	assert.Equal(t, []string{"Vrated"}, res.Issue.AvailableRawFields)
	assert.Equal(t, []string{"V_RATED"}, res.Issue.Suggestions["V_MAX"])
	assert.NotContains(t, res.Issue.Suggestions, "I_MAX", "no current alternates available")
}

func TestConnectorCurrentOnly(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "CONNECTOR", Part: "CON-1"}] = map[string]string{
		"I_MAX":   "3A",
		"V_RATED": "250V",
	}
	r := NewResolver(tbl, rules.Default())

	res := r.Resolve(item("Connector", "CONNECTOR", "CON-1", ""), 1)
	assert.Equal(t, []string{"3A"}, res.Values)
	assert.Nil(t, res.Issue)

	// Voltage alone never satisfies and never triggers voltage suggestions.
	tbl.Ratings[domain.PartKey{Category: "CONNECTOR", Part: "CON-2"}] = map[string]string{"V_RATED": "250V"}
	res = r.Resolve(item("Connector", "CONNECTOR", "CON-2", ""), 1)
	require.NotNil(t, res.Issue)
	assert.Equal(t, []string{"I_RATED/I_MAX"}, res.Issue.MissingFields)
	assert.Empty(t, res.Issue.Suggestions)
}

func TestSlotSheetIndependentSlots(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "DIODE", Part: "D-1"}] = map[string]string{
		"VRWM":    "24V",
		"V_RATED": "30V",
	}
	r := NewResolver(tbl, rules.Default())

	// Diode(ESD) slots are [VRWM, VBR_VPT]; block has 3 rows, so the third
	// slot value stays empty for clearing.
	res := r.Resolve(item("Diode(ESD_Zener_Surge)", "DIODE", "D-1", ""), 3)
	assert.Equal(t, []string{"24V", "", ""}, res.Values)
	require.NotNil(t, res.Issue)
	assert.Equal(t, []string{"VBR_VPT"}, res.Issue.MissingFields)
	assert.Empty(t, res.Issue.Suggestions["VBR_VPT"], "VBR alternate not available")
}

func TestSlotSheetComplete(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "TR", Part: "Q-1"}] = map[string]string{
		"V_MAX": "60V",
		"I_MAX": "2A",
	}
	r := NewResolver(tbl, rules.Default())

	res := r.Resolve(item("FET&TR", "TR", "Q-1", ""), 2)
	assert.Equal(t, []string{"60V", "2A"}, res.Values)
	assert.Nil(t, res.Issue)
}

func TestSlotSheetStepBoundsSlots(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "IC", Part: "PMIC"}] = map[string]string{
		"V_MAX": "40V",
		"I_MAX": "3A",
		"P_MAX": "2W",
	}
	r := NewResolver(tbl, rules.Default())

	// DCDC & LDO wants three slots but the block only has two rows.
	res := r.Resolve(item("DCDC & LDO", "IC", "PMIC", ""), 2)
	assert.Equal(t, []string{"40V", "3A"}, res.Values)
	assert.Nil(t, res.Issue)
}

func TestGenericSheetFieldOrder(t *testing.T) {
	tbl := newTable()
	tbl.Ratings[domain.PartKey{Category: "INDUCTOR", Part: "L-1"}] = map[string]string{
		"I_MAX": "1.2A",
		"DCR":   "0.1Ohm",
	}
	r := NewResolver(tbl, rules.Default())

	// Inductor order: I_RATED, I_MAX, CURRENT, DCR.
	res := r.Resolve(item("Inductor", "INDUCTOR", "L-1", ""), 1)
	assert.Equal(t, []string{"1.2A"}, res.Values)
	assert.Nil(t, res.Issue)
}
