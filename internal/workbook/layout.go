// Package workbook implements the template record engine: detecting the
// repeating record block of a template sheet and cloning it, merged-cell
// geometry and formulas included, to an arbitrary destination block.
package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Layout is the detected record-block geometry of one managed sheet:
// the first row of the first record block and the row span of one block.
type Layout struct {
	StartRow int
	Step     int
}

// defaultLayout is the soft fallback when a template sheet carries no
// sentinel; an empty template is not an error.
var defaultLayout = Layout{StartRow: 6, Step: 1}

// MergeRange is one merged cell range in coordinates.
type MergeRange struct {
	MinRow, MinCol int
	MaxRow, MaxCol int
}

// Shift returns the range moved down by rowOffset rows.
func (m MergeRange) Shift(rowOffset int) MergeRange {
	m.MinRow += rowOffset
	m.MaxRow += rowOffset
	return m
}

func (m MergeRange) overlapsRows(r0, r1 int) bool {
	return m.MaxRow >= r0 && m.MinRow <= r1
}

// DetectLayout scans column A of the first scanRows rows for the literal
// sentinel value 1; that row starts the first record block. The block's
// row span is the tallest merged range anchored in column A that covers
// the start row, defaulting to 1.
func DetectLayout(f *excelize.File, sheet string, scanRows int) (Layout, error) {
	startRow := 0
	for r := 1; r <= scanRows; r++ {
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return Layout{}, err
		}
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return Layout{}, fmt.Errorf("scan %s!%s: %w", sheet, cell, err)
		}
		if v == "1" {
			startRow = r
			break
		}
	}
	if startRow == 0 {
		return defaultLayout, nil
	}

	step := 1
	merges, err := mergeRanges(f, sheet)
	if err != nil {
		return Layout{}, err
	}
	for _, m := range merges {
		if m.MinCol == 1 && m.MinRow <= startRow && startRow <= m.MaxRow {
			if span := m.MaxRow - m.MinRow + 1; span > step {
				step = span
			}
		}
	}
	return Layout{StartRow: startRow, Step: step}, nil
}

// RecordMerges snapshots the merged ranges fully contained in the first
// record block. Ranges crossing the block boundary are unsafe to replicate
// and are excluded. The snapshot must be taken before any mutation.
func RecordMerges(f *excelize.File, sheet string, layout Layout) ([]MergeRange, error) {
	r0 := layout.StartRow
	r1 := layout.StartRow + layout.Step - 1

	merges, err := mergeRanges(f, sheet)
	if err != nil {
		return nil, err
	}
	var inside []MergeRange
	for _, m := range merges {
		if m.MinRow >= r0 && m.MaxRow <= r1 {
			inside = append(inside, m)
		}
	}
	return inside, nil
}

func mergeRanges(f *excelize.File, sheet string) ([]MergeRange, error) {
	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merges of %s: %w", sheet, err)
	}
	out := make([]MergeRange, 0, len(cells))
	for _, mc := range cells {
		minCol, minRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, err
		}
		maxCol, maxRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, err
		}
		out = append(out, MergeRange{MinRow: minRow, MinCol: minCol, MaxRow: maxRow, MaxCol: maxCol})
	}
	return out, nil
}

// MaxRow returns the last row carrying any content on the sheet.
func MaxRow(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// MaxColumn returns the widest populated column of the sheet, with a floor
// of 1 so an empty sheet still has a copy width.
func MaxColumn(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	width := 1
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width, nil
}
