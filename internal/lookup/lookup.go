// Package lookup loads the lookup workbook: the rating table, the routing
// rules and the optional resistor prefix overrides. It aggregates rating
// records into one value per canonical field per (category, part) key.
package lookup

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/bom_derating/internal/domain"
	"github.com/locvowork/bom_derating/internal/rules"
)

// Table is the in-memory lookup dataset for one run.
type Table struct {
	// Ratings maps each (category, part) key to its surviving value per
	// canonical field, already formatted as value+unit.
	Ratings map[domain.PartKey]map[string]string
	// RawFields keeps the raw field spellings seen per key, for the report.
	RawFields map[domain.PartKey]map[string]bool
	// Subcategory is the first non-empty subcategory seen per key.
	Subcategory map[domain.PartKey]string
	// PartCategories lists every category a part name appears under.
	PartCategories map[string]map[string]bool
	// Routing maps (category, subcategory) to an output sheet. The entry
	// with empty subcategory is the category default.
	Routing map[domain.RouteKey]string
	// ResistorPrefix maps a part-name prefix to its override candidates.
	ResistorPrefix map[string][]domain.PrefixRule
}

// Load reads and aggregates the lookup workbook. Missing required sheets or
// header columns are fatal: no sensible output can be produced without them.
func Load(f *excelize.File, cfg *rules.Rules) (*Table, error) {
	sheets := cfg.LookupSheets
	for _, required := range []string{sheets.Rating, sheets.Routing} {
		if idx, _ := f.GetSheetIndex(required); idx == -1 {
			return nil, fmt.Errorf("lookup workbook is missing required sheet %q", required)
		}
	}

	t := &Table{
		Ratings:        make(map[domain.PartKey]map[string]string),
		RawFields:      make(map[domain.PartKey]map[string]bool),
		Subcategory:    make(map[domain.PartKey]string),
		PartCategories: make(map[string]map[string]bool),
		Routing:        make(map[domain.RouteKey]string),
		ResistorPrefix: make(map[string][]domain.PrefixRule),
	}

	if err := t.loadRatings(f, sheets.Rating); err != nil {
		return nil, err
	}
	if err := t.loadRouting(f, sheets.Routing); err != nil {
		return nil, err
	}
	if err := t.loadResistorPrefix(f, sheets.ResistorPrefix); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) loadRatings(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	hdr, err := headerMap(rows, sheet,
		"Category", "Subcategory", "Part_Name", "Rating_Field", "Rating_Value", "Rating_Unit")
	if err != nil {
		return err
	}
	_, hasPriority := hdr["Priority"]

	records := make(map[domain.PartKey][]domain.RatingRecord)

	for _, row := range rows[1:] {
		cat := NormalizeCategory(cellAt(row, hdr["Category"]))
		part := NormalizePart(cellAt(row, hdr["Part_Name"]))
		if cat == "" || part == "" {
			continue
		}
		key := domain.PartKey{Category: cat, Part: part}

		if t.PartCategories[part] == nil {
			t.PartCategories[part] = make(map[string]bool)
		}
		t.PartCategories[part][cat] = true

		sub := NormalizeSubcategory(cellAt(row, hdr["Subcategory"]))
		if cur, ok := t.Subcategory[key]; !ok || (cur == "" && sub != "") {
			t.Subcategory[key] = sub
		}

		rawField := cellAt(row, hdr["Rating_Field"])
		if nf := NormalizeText(rawField); nf != "" {
			if t.RawFields[key] == nil {
				t.RawFields[key] = make(map[string]bool)
			}
			t.RawFields[key][nf] = true
		}

		field := NormalizeField(rawField)
		if field == "" {
			continue
		}
		priority := 1
		if hasPriority {
			priority = parsePriority(cellAt(row, hdr["Priority"]))
		}
		records[key] = append(records[key], domain.RatingRecord{
			Field:    field,
			Value:    NormalizeText(cellAt(row, hdr["Rating_Value"])),
			Unit:     NormalizeText(cellAt(row, hdr["Rating_Unit"])),
			Priority: priority,
		})
	}

	// Per key: lowest priority wins, field name breaks ties, first record
	// per canonical field survives.
	for key, recs := range records {
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].Priority != recs[j].Priority {
				return recs[i].Priority < recs[j].Priority
			}
			return recs[i].Field < recs[j].Field
		})
		kept := make(map[string]string)
		for _, rec := range recs {
			if _, seen := kept[rec.Field]; seen {
				continue
			}
			kept[rec.Field] = FormatValueUnit(rec.Value, rec.Unit)
		}
		t.Ratings[key] = kept
	}
	return nil
}

func (t *Table) loadRouting(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	hdr, err := headerMap(rows, sheet, "Category", "Subcategory", "Output_Sheet")
	if err != nil {
		return err
	}
	for _, row := range rows[1:] {
		cat := NormalizeCategory(cellAt(row, hdr["Category"]))
		sub := NormalizeSubcategory(cellAt(row, hdr["Subcategory"]))
		out := NormalizeText(cellAt(row, hdr["Output_Sheet"]))
		if cat != "" && out != "" {
			t.Routing[domain.RouteKey{Category: cat, Subcategory: sub}] = out
		}
	}
	return nil
}

// loadResistorPrefix reads the optional prefix-override sheet. Absence of
// the sheet is fine; a present sheet with missing headers is fatal.
func (t *Table) loadResistorPrefix(f *excelize.File, sheet string) error {
	if sheet == "" {
		return nil
	}
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		return nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	hdr, err := headerMap(rows, sheet, "Prefix", "Rating_Value", "Rating_Unit")
	if err != nil {
		return err
	}
	_, hasVendor := hdr["Vendor"]
	_, hasPriority := hdr["Priority"]

	for _, row := range rows[1:] {
		prefix := strings.ToUpper(NormalizeText(cellAt(row, hdr["Prefix"])))
		if prefix == "" {
			continue
		}
		value := cellAt(row, hdr["Rating_Value"])
		unit := cellAt(row, hdr["Rating_Unit"])
		if NormalizeText(value) == "" && NormalizeText(unit) == "" {
			continue
		}
		rule := domain.PrefixRule{
			Priority:  1,
			ValueUnit: FormatValueUnit(value, unit),
		}
		if hasVendor {
			rule.Vendor = strings.ToUpper(NormalizeText(cellAt(row, hdr["Vendor"])))
		}
		if hasPriority {
			rule.Priority = parsePriority(cellAt(row, hdr["Priority"]))
		}
		t.ResistorPrefix[prefix] = append(t.ResistorPrefix[prefix], rule)
	}
	return nil
}

// RouteFor resolves a (category, subcategory) pair through the routing
// table: exact match first, then the category default, then fallback.
func (t *Table) RouteFor(category, subcategory, fallback string) string {
	if sheet, ok := t.Routing[domain.RouteKey{Category: category, Subcategory: subcategory}]; ok {
		return sheet
	}
	if sheet, ok := t.Routing[domain.RouteKey{Category: category}]; ok {
		return sheet
	}
	return fallback
}

// RatingsFor returns the canonical field values for a key; nil when the
// lookup holds nothing for the part.
func (t *Table) RatingsFor(category, part string) map[string]string {
	return t.Ratings[domain.PartKey{Category: category, Part: part}]
}

// headerMap binds required header names to 0-based column indexes from the
// first row, failing when any required column is absent.
func headerMap(rows [][]string, sheet string, required ...string) (map[string]int, error) {
	hdr := make(map[string]int)
	if len(rows) > 0 {
		for c, raw := range rows[0] {
			if name := NormalizeText(raw); name != "" {
				if _, dup := hdr[name]; !dup {
					hdr[name] = c
				}
			}
		}
	}
	for _, name := range required {
		if _, ok := hdr[name]; !ok {
			return nil, fmt.Errorf("sheet %q is missing required header column %q", sheet, name)
		}
	}
	return hdr, nil
}

// cellAt returns the cell at a 0-based column, tolerating short rows.
func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// parsePriority reads an optional numeric priority cell; anything
// unparsable falls back to priority 1, matching a blank cell.
func parsePriority(raw string) int {
	s := NormalizeText(raw)
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if fv, err := strconv.ParseFloat(s, 64); err == nil {
		return int(fv)
	}
	return 1
}
