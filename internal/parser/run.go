// Package parser orchestrates one derating run: lookup loading, template
// layout detection, BOM classification, record-block replication, rating
// fill and issue reporting. One run is synchronous and self-contained; the
// output files are only written after every in-memory mutation succeeded.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/bom_derating/internal/bom"
	"github.com/locvowork/bom_derating/internal/config"
	"github.com/locvowork/bom_derating/internal/domain"
	"github.com/locvowork/bom_derating/internal/logger"
	"github.com/locvowork/bom_derating/internal/lookup"
	"github.com/locvowork/bom_derating/internal/rating"
	"github.com/locvowork/bom_derating/internal/report"
	"github.com/locvowork/bom_derating/internal/rules"
	"github.com/locvowork/bom_derating/internal/workbook"
	"github.com/locvowork/bom_derating/pkg/refdes"
)

// Inputs are the three workbook paths of one run.
type Inputs struct {
	BOMPath      string
	TemplatePath string
	LookupPath   string
}

// Outputs are the two artifact paths of one run.
type Outputs struct {
	WorkbookPath string
	ReportPath   string
}

// OutputsFor derives the artifact paths from the BOM filename, matching
// the front ends' convention: <stem>_out.xlsx and <stem>_issues.txt.
func OutputsFor(bomPath, outDir string) Outputs {
	stem := filepath.Base(bomPath)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	if outDir == "" {
		outDir = filepath.Dir(bomPath)
	}
	return Outputs{
		WorkbookPath: filepath.Join(outDir, stem+"_out.xlsx"),
		ReportPath:   filepath.Join(outDir, stem+"_issues.txt"),
	}
}

// Run executes one full parse. Fatal input errors (missing sheets or
// header columns) abort before anything is written; soft issues accumulate
// into the report.
func Run(ctx context.Context, in Inputs, out Outputs) (*domain.RunResult, error) {
	cfg := rules.Default()

	lkFile, err := excelize.OpenFile(in.LookupPath)
	if err != nil {
		return nil, fmt.Errorf("open lookup workbook: %w", err)
	}
	defer lkFile.Close()
	tbl, err := lookup.Load(lkFile, cfg)
	if err != nil {
		return nil, err
	}

	tpl, err := excelize.OpenFile(in.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("open template workbook: %w", err)
	}
	defer tpl.Close()

	bomFile, err := excelize.OpenFile(in.BOMPath)
	if err != nil {
		return nil, fmt.Errorf("open BOM workbook: %w", err)
	}
	defer bomFile.Close()

	ds, err := bom.LoadAndClassify(bomFile, tbl, cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "BOM classified: %d sheets with items, %d unclassified rows",
		len(ds.Groups), len(ds.Unclassified))

	missing, counts, err := populate(ctx, tpl, ds, tbl, cfg)
	if err != nil {
		return nil, err
	}

	if len(ds.Unclassified) > 0 {
		if err := writeUnclassified(tpl, ds, cfg.UnclassifiedSheet); err != nil {
			return nil, err
		}
	}

	// All mutation succeeded; persisting is the last step.
	if err := tpl.SaveAs(out.WorkbookPath); err != nil {
		return nil, fmt.Errorf("save result workbook: %w", err)
	}

	dups := ds.DuplicateRefs()
	text := report.Build(filepath.Base(out.ReportPath), time.Now(), ds.RoutingHits, dups, missing)
	if err := os.WriteFile(out.ReportPath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("write issue report: %w", err)
	}

	logger.InfoLog(ctx, "Run complete: %s (%d duplicate refs, %d missing ratings, %d routing hits)",
		filepath.Base(out.WorkbookPath), len(dups), len(missing), len(ds.RoutingHits))

	return &domain.RunResult{
		WorkbookPath:  out.WorkbookPath,
		ReportPath:    out.ReportPath,
		WrittenCounts: counts,
		Unclassified:  len(ds.Unclassified),
		DuplicateRefs: len(dups),
		MissingCount:  len(missing),
	}, nil
}

// populate resizes every managed sheet's record area to its item count and
// fills the per-item values. Missing-rating issues come back in fill order.
func populate(ctx context.Context, tpl *excelize.File, ds *bom.Dataset, tbl *lookup.Table, cfg *rules.Rules) ([]domain.MissingRating, map[string]int, error) {
	type sheetState struct {
		cfg    rules.SheetConfig
		layout workbook.Layout
		merges []workbook.MergeRange
		editor *workbook.Editor
		width  int
	}

	scanRows := cfg.ScanRows
	if config.DefaultEnvConfig != nil && config.DefaultEnvConfig.SCAN_ROWS > 0 {
		scanRows = config.DefaultEnvConfig.SCAN_ROWS
	}

	states := make(map[string]*sheetState, len(cfg.ManagedSheets))
	for _, sc := range cfg.ManagedSheets {
		if idx, _ := tpl.GetSheetIndex(sc.Name); idx == -1 {
			return nil, nil, fmt.Errorf("template is missing managed sheet %q", sc.Name)
		}
		layout, err := workbook.DetectLayout(tpl, sc.Name, scanRows)
		if err != nil {
			return nil, nil, err
		}
		merges, err := workbook.RecordMerges(tpl, sc.Name, layout)
		if err != nil {
			return nil, nil, err
		}
		editor, err := workbook.NewEditor(tpl, sc.Name)
		if err != nil {
			return nil, nil, err
		}
		width, err := workbook.MaxColumn(tpl, sc.Name)
		if err != nil {
			return nil, nil, err
		}
		states[sc.Name] = &sheetState{cfg: sc, layout: layout, merges: merges, editor: editor, width: width}
	}

	// Wipe the data columns of every block after the first, so records left
	// over from the template (or a prior output used as template) never
	// survive past the new item count.
	for _, sc := range cfg.ManagedSheets {
		st := states[sc.Name]
		err := st.editor.ClearRecordValues(
			st.layout.StartRow+st.layout.Step, st.layout.Step, dataColumns(sc), cfg.RecordBudget)
		if err != nil {
			return nil, nil, err
		}
	}

	resolver := rating.NewResolver(tbl, cfg)
	var missing []domain.MissingRating
	counts := make(map[string]int)

	for _, sc := range cfg.ManagedSheets {
		st := states[sc.Name]
		items := ds.Groups[sc.Name]
		if len(items) == 0 {
			// Blank the example record so template data never leaks.
			if err := st.editor.ClearFirstRecord(st.layout, dataColumns(sc)); err != nil {
				return nil, nil, err
			}
			continue
		}

		sort.SliceStable(items, func(i, j int) bool {
			return refdes.Compare(items[i].Ref, items[j].Ref) < 0
		})

		// Clone every block before filling any: the first block is the clone
		// source and must stay pristine until replication is done.
		for i := range items {
			top := st.layout.StartRow + i*st.layout.Step
			if err := st.editor.CloneBlock(st.layout.StartRow, top, st.layout.Step, st.width, st.merges); err != nil {
				return nil, nil, err
			}
		}

		for i, item := range items {
			top := st.layout.StartRow + i*st.layout.Step
			if err := fillItem(st.editor, sc, top, i+1, item); err != nil {
				return nil, nil, err
			}

			res := resolver.Resolve(item, st.layout.Step)
			for off, v := range res.Values {
				if err := st.editor.SetValue(top+off, sc.SpecCol, valueOrNil(v)); err != nil {
					return nil, nil, err
				}
			}
			if res.Issue != nil {
				missing = append(missing, *res.Issue)
			}
		}
		counts[sc.Name] = len(items)
		logger.DebugLog(ctx, "Sheet %s: wrote %d records", sc.Name, len(items))
	}
	return missing, counts, nil
}

// fillItem writes the identity cells of one record block: running index,
// reference designator, part name, detail text; the actual-value column is
// cleared for the reviewer.
func fillItem(ed *workbook.Editor, sc rules.SheetConfig, top, index int, item domain.ClassifiedItem) error {
	if err := ed.SetValue(top, 1, index); err != nil {
		return err
	}
	if err := ed.SetValue(top, 2, item.Ref); err != nil {
		return err
	}
	if err := ed.SetValue(top, 3, item.Part); err != nil {
		return err
	}
	if sc.DetailCol > 0 {
		if err := ed.SetValue(top, sc.DetailCol, item.Detail); err != nil {
			return err
		}
	}
	return ed.SetValue(top, sc.ActualCol, nil)
}

// writeUnclassified rewrites the catch-all sheet: BOM header row first,
// then every unroutable row verbatim, ordered by BOM row.
func writeUnclassified(tpl *excelize.File, ds *bom.Dataset, sheet string) error {
	if idx, _ := tpl.GetSheetIndex(sheet); idx == -1 {
		if _, err := tpl.NewSheet(sheet); err != nil {
			return fmt.Errorf("create catch-all sheet: %w", err)
		}
	} else {
		// Drop stale rows from a template that carried the sheet already.
		maxRow, err := workbook.MaxRow(tpl, sheet)
		if err != nil {
			return err
		}
		for r := maxRow; r >= 2; r-- {
			if err := tpl.RemoveRow(sheet, r); err != nil {
				return fmt.Errorf("clear catch-all sheet: %w", err)
			}
		}
	}

	if err := setRow(tpl, sheet, 1, ds.Header); err != nil {
		return err
	}

	rows := make([]domain.UnclassifiedRow, len(ds.Unclassified))
	copy(rows, ds.Unclassified)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].BOMRow < rows[j].BOMRow })

	for i, row := range rows {
		if err := setRow(tpl, sheet, i+2, row.Values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// dataColumns lists the data-bearing columns of a managed sheet, sorted
// and without duplicates.
func dataColumns(sc rules.SheetConfig) []int {
	set := map[int]bool{1: true, 2: true, 3: true, sc.SpecCol: true, sc.ActualCol: true}
	if sc.DetailCol > 0 {
		set[sc.DetailCol] = true
	}
	cols := make([]int, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	return cols
}

func valueOrNil(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
