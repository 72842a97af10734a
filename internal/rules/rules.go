// Package rules holds the fixed mapping tables the run is driven by:
// managed sheet layout, rating slots, field preference orders, synonym and
// suggestion tables, and the base category-to-sheet map. The tables are
// embedded as YAML, decoded once, and treated as immutable afterwards.
package rules

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed rules.yaml
var rulesYAML []byte

// SheetConfig describes the data-bearing columns of one managed sheet.
// DetailCol is 0 when the sheet has no detail-spec column.
type SheetConfig struct {
	Name      string `yaml:"name"`
	DetailCol int    `yaml:"detail_col"`
	SpecCol   int    `yaml:"spec_col"`
	ActualCol int    `yaml:"actual_col"`
}

// LookupSheets names the sheets required (or optionally read) from the
// lookup workbook.
type LookupSheets struct {
	Rating         string `yaml:"rating"`
	Routing        string `yaml:"routing"`
	ResistorPrefix string `yaml:"resistor_prefix"`
}

// Rules is the decoded rules document.
type Rules struct {
	UnclassifiedSheet string                `yaml:"unclassified_sheet"`
	ScanRows          int                   `yaml:"scan_rows"`
	RecordBudget      int                   `yaml:"record_budget"`
	ResistorPrefixLen int                   `yaml:"resistor_prefix_len"`
	PreferredVendor   string                `yaml:"preferred_vendor"`
	ManagedSheets     []SheetConfig         `yaml:"managed_sheets"`
	RatingSlots       map[string][]string   `yaml:"rating_slots"`
	FieldOrder        map[string][]string   `yaml:"field_order"`
	SuggestAltFields  map[string][]string   `yaml:"suggest_alt_fields"`
	SuggestionTargets []string              `yaml:"suggestion_targets"`
	Synonyms          map[string]string     `yaml:"synonyms"`
	BaseCategorySheet map[string]string     `yaml:"base_category_sheets"`
	LookupSheets      LookupSheets          `yaml:"lookup_sheets"`
	BOMHeaders        map[string][]string   `yaml:"bom_headers"`

	sheetByName map[string]SheetConfig
}

var (
	defaultRules *Rules
	loadOnce     sync.Once
	loadErr      error
)

// Default returns the embedded rules document. The document ships inside
// the binary, so a decode failure is a build defect and panics.
func Default() *Rules {
	loadOnce.Do(func() {
		defaultRules, loadErr = decode(rulesYAML)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("rules: embedded rules.yaml is invalid: %v", loadErr))
	}
	return defaultRules
}

func decode(raw []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode rules yaml: %w", err)
	}
	if len(r.ManagedSheets) == 0 {
		return nil, fmt.Errorf("rules yaml lists no managed sheets")
	}
	r.sheetByName = make(map[string]SheetConfig, len(r.ManagedSheets))
	for _, sc := range r.ManagedSheets {
		if sc.Name == "" || sc.SpecCol == 0 || sc.ActualCol == 0 {
			return nil, fmt.Errorf("managed sheet %q has incomplete column config", sc.Name)
		}
		r.sheetByName[sc.Name] = sc
	}
	return &r, nil
}

// Sheet returns the column config for a managed sheet name.
func (r *Rules) Sheet(name string) (SheetConfig, bool) {
	sc, ok := r.sheetByName[name]
	return sc, ok
}

// IsManaged reports whether name is one of the managed template sheets.
func (r *Rules) IsManaged(name string) bool {
	_, ok := r.sheetByName[name]
	return ok
}

// SheetNames returns the managed sheet names in document order.
func (r *Rules) SheetNames() []string {
	names := make([]string, len(r.ManagedSheets))
	for i, sc := range r.ManagedSheets {
		names[i] = sc.Name
	}
	return names
}

// Suggest returns the alternates configured for a missing canonical field,
// filtered down to the fields actually available for the part.
func (r *Rules) Suggest(missingField string, available map[string]bool) []string {
	var out []string
	for _, cand := range r.SuggestAltFields[missingField] {
		if available[cand] {
			out = append(out, cand)
		}
	}
	return out
}
