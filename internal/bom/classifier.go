// Package bom reads the BOM workbook and classifies every reference
// designator: category normalization, routing-rule resolution, FILTER
// re-interpretation, duplicate-reference grouping and capture of rows that
// cannot be routed to a managed sheet.
package bom

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/bom_derating/internal/domain"
	"github.com/locvowork/bom_derating/internal/lookup"
	"github.com/locvowork/bom_derating/internal/rules"
)

// Dataset is the classified view of one BOM workbook.
type Dataset struct {
	// Header is the BOM's first row verbatim, reused by the catch-all sheet.
	Header []string
	// Groups holds the classified items per target managed sheet.
	Groups map[string][]domain.ClassifiedItem
	// Occurrences indexes every exploded reference designator.
	Occurrences map[string][]domain.RefOccurrence
	// RoutingHits lists items whose resolved sheet differs from the
	// category's base sheet.
	RoutingHits []domain.ClassifiedItem
	// Unclassified keeps unroutable rows verbatim.
	Unclassified []domain.UnclassifiedRow
}

// columns are the resolved 0-based BOM column indexes.
type columns struct {
	part, category, detail, refs int
}

// LoadAndClassify reads the BOM's active sheet and routes every row.
// A missing required header column is fatal.
func LoadAndClassify(f *excelize.File, tbl *lookup.Table, cfg *rules.Rules) (*Dataset, error) {
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read BOM sheet %q: %w", sheet, err)
	}

	cols, header, err := bindColumns(rows, cfg)
	if err != nil {
		return nil, err
	}

	baseSheets := baseCategorySheets(tbl, cfg)

	ds := &Dataset{
		Header:      header,
		Groups:      make(map[string][]domain.ClassifiedItem),
		Occurrences: make(map[string][]domain.RefOccurrence),
	}

	for i, row := range rows[1:] {
		bomRow := i + 2

		rawCat := cellAt(row, cols.category)
		rawPart := cellAt(row, cols.part)
		rawDetail := cellAt(row, cols.detail)
		rawRefs := cellAt(row, cols.refs)
		if rawCat == "" && rawPart == "" && rawDetail == "" && rawRefs == "" {
			continue // blank row
		}

		cat := lookup.NormalizeCategory(rawCat)
		part := lookup.NormalizePart(rawPart)
		detail := lookup.NormalizeText(rawDetail)

		if cat == "FILTER" {
			if resolved, ok := reinterpretFilter(part, tbl, cfg, baseSheets); ok {
				cat = resolved
			}
		}

		base, known := baseSheets[cat]
		if cat == "" || !known {
			ds.Unclassified = append(ds.Unclassified, domain.UnclassifiedRow{BOMRow: bomRow, Values: row})
			continue
		}

		sub := tbl.Subcategory[domain.PartKey{Category: cat, Part: part}]
		sheetName := tbl.RouteFor(cat, sub, base)
		if !cfg.IsManaged(sheetName) {
			ds.Unclassified = append(ds.Unclassified, domain.UnclassifiedRow{BOMRow: bomRow, Values: row})
			continue
		}

		for _, ref := range lookup.SplitRefs(rawRefs) {
			item := domain.ClassifiedItem{
				BOMRow:      bomRow,
				Category:    cat,
				Subcategory: sub,
				Ref:         ref,
				Part:        part,
				Detail:      detail,
				Sheet:       sheetName,
				BaseSheet:   base,
			}
			ds.Groups[sheetName] = append(ds.Groups[sheetName], item)
			ds.Occurrences[ref] = append(ds.Occurrences[ref], domain.RefOccurrence{
				BOMRow:      bomRow,
				Category:    cat,
				Subcategory: sub,
				Part:        part,
				Sheet:       sheetName,
			})
			if sheetName != base {
				ds.RoutingHits = append(ds.RoutingHits, item)
			}
		}
	}
	return ds, nil
}

// DuplicateRefs returns the reference designators that appeared more than
// once across the whole BOM, with every conflicting occurrence.
func (ds *Dataset) DuplicateRefs() map[string][]domain.RefOccurrence {
	dups := make(map[string][]domain.RefOccurrence)
	for ref, occs := range ds.Occurrences {
		if len(occs) > 1 {
			dups[ref] = occs
		}
	}
	return dups
}

// reinterpretFilter resolves a FILTER row to a concrete category when the
// part name appears under exactly one category that routes to a managed
// sheet. Zero or several matches leave the row as FILTER (unclassified).
func reinterpretFilter(part string, tbl *lookup.Table, cfg *rules.Rules, baseSheets map[string]string) (string, bool) {
	var candidates []string
	for cat := range tbl.PartCategories[part] {
		sub := tbl.Subcategory[domain.PartKey{Category: cat, Part: part}]
		sheet := tbl.RouteFor(cat, sub, baseSheets[cat])
		if cfg.IsManaged(sheet) {
			candidates = append(candidates, cat)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return "", false
}

// baseCategorySheets copies the hard-coded base map, letting a
// (category, "") routing rule override the DIODE and IC defaults.
func baseCategorySheets(tbl *lookup.Table, cfg *rules.Rules) map[string]string {
	base := make(map[string]string, len(cfg.BaseCategorySheet))
	for cat, sheet := range cfg.BaseCategorySheet {
		base[cat] = sheet
	}
	for _, cat := range []string{"DIODE", "IC"} {
		if sheet, ok := tbl.Routing[domain.RouteKey{Category: cat}]; ok {
			base[cat] = sheet
		}
	}
	return base
}

// bindColumns binds the required BOM columns by header text, accepting any
// configured alias per column role.
func bindColumns(rows [][]string, cfg *rules.Rules) (columns, []string, error) {
	if len(rows) == 0 {
		return columns{}, nil, fmt.Errorf("BOM sheet is empty")
	}
	header := rows[0]

	find := func(role string) (int, error) {
		aliases := cfg.BOMHeaders[role]
		for c, raw := range header {
			name := lookup.NormalizeText(raw)
			for _, alias := range aliases {
				if name == alias {
					return c, nil
				}
			}
		}
		return 0, fmt.Errorf("BOM is missing required header column for %s (accepted: %v)", role, aliases)
	}

	var cols columns
	var err error
	if cols.part, err = find("part"); err != nil {
		return columns{}, nil, err
	}
	if cols.category, err = find("category"); err != nil {
		return columns{}, nil, err
	}
	if cols.detail, err = find("detail"); err != nil {
		return columns{}, nil, err
	}
	if cols.refs, err = find("refs"); err != nil {
		return columns{}, nil, err
	}
	return cols, header, nil
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
