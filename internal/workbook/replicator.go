package workbook

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// CellKind classifies a cell for the write path: a follower cell inside a
// merged range never receives an independent value.
type CellKind int

const (
	CellIndependent CellKind = iota
	CellMergeFollower
)

type cellPos struct {
	row, col int
}

// Editor mutates one sheet while tracking merge geometry, so value writes
// can be routed away from merge-follower cells instead of being silently
// dropped by the file format.
type Editor struct {
	f         *excelize.File
	sheet     string
	followers map[cellPos]bool
	maxRow    int
}

// NewEditor wraps a sheet and indexes its current merge geometry.
func NewEditor(f *excelize.File, sheet string) (*Editor, error) {
	e := &Editor{
		f:         f,
		sheet:     sheet,
		followers: make(map[cellPos]bool),
	}
	merges, err := mergeRanges(f, sheet)
	if err != nil {
		return nil, err
	}
	for _, m := range merges {
		e.indexFollowers(m)
	}
	e.maxRow, err = MaxRow(f, sheet)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Sheet returns the sheet name under edit.
func (e *Editor) Sheet() string { return e.sheet }

// MaxRow returns the highest row written or found so far.
func (e *Editor) MaxRow() int { return e.maxRow }

func (e *Editor) indexFollowers(m MergeRange) {
	for r := m.MinRow; r <= m.MaxRow; r++ {
		for c := m.MinCol; c <= m.MaxCol; c++ {
			if r == m.MinRow && c == m.MinCol {
				continue
			}
			e.followers[cellPos{r, c}] = true
		}
	}
}

func (e *Editor) dropFollowers(m MergeRange) {
	for r := m.MinRow; r <= m.MaxRow; r++ {
		for c := m.MinCol; c <= m.MaxCol; c++ {
			delete(e.followers, cellPos{r, c})
		}
	}
}

// Kind reports whether a cell holds its own value or follows a merge anchor.
func (e *Editor) Kind(row, col int) CellKind {
	if e.followers[cellPos{row, col}] {
		return CellMergeFollower
	}
	return CellIndependent
}

// SetValue writes a value to an independent cell; writes aimed at merge
// followers are skipped. Passing nil clears the cell.
func (e *Editor) SetValue(row, col int, value interface{}) error {
	if e.Kind(row, col) == CellMergeFollower {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := e.f.SetCellValue(e.sheet, cell, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", e.sheet, cell, err)
	}
	if row > e.maxRow {
		e.maxRow = row
	}
	return nil
}

// UnmergeRows removes every merged range overlapping the row span, making
// all its cells independent before values are written.
func (e *Editor) UnmergeRows(r0, r1 int) error {
	merges, err := mergeRanges(e.f, e.sheet)
	if err != nil {
		return err
	}
	for _, m := range merges {
		if !m.overlapsRows(r0, r1) {
			continue
		}
		start, err := excelize.CoordinatesToCellName(m.MinCol, m.MinRow)
		if err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(m.MaxCol, m.MaxRow)
		if err != nil {
			return err
		}
		if err := e.f.UnmergeCell(e.sheet, start, end); err != nil {
			return fmt.Errorf("unmerge %s %s:%s: %w", e.sheet, start, end, err)
		}
		e.dropFollowers(m)
	}
	return nil
}

// ApplyMerges re-applies the template merge set shifted down by rowOffset.
func (e *Editor) ApplyMerges(merges []MergeRange, rowOffset int) error {
	for _, m := range merges {
		shifted := m.Shift(rowOffset)
		start, err := excelize.CoordinatesToCellName(shifted.MinCol, shifted.MinRow)
		if err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(shifted.MaxCol, shifted.MaxRow)
		if err != nil {
			return err
		}
		if err := e.f.MergeCell(e.sheet, start, end); err != nil {
			return fmt.Errorf("merge %s %s:%s: %w", e.sheet, start, end, err)
		}
		e.indexFollowers(shifted)
		if shifted.MaxRow > e.maxRow {
			e.maxRow = shifted.MaxRow
		}
	}
	return nil
}

// CloneBlock copies the record block starting at srcTop onto the block
// starting at dstTop: destination merges are cleared, then every cell of
// the span gets the source style and value, formulas retargeted by the row
// delta, and finally the template merge geometry is re-applied shifted.
// After CloneBlock the destination is structurally identical to the source
// until the caller overwrites the data-bearing cells.
func (e *Editor) CloneBlock(srcTop, dstTop, step, width int, templateMerges []MergeRange) error {
	if err := e.UnmergeRows(dstTop, dstTop+step-1); err != nil {
		return err
	}
	rowDelta := dstTop - srcTop
	for off := 0; off < step; off++ {
		for col := 1; col <= width; col++ {
			if err := e.copyCell(srcTop+off, dstTop+off, col, rowDelta); err != nil {
				return err
			}
		}
	}
	return e.ApplyMerges(templateMerges, rowDelta)
}

// copyCell transfers style, value and formula of one cell. Source merge
// followers contribute style only; their value is owned by the anchor.
func (e *Editor) copyCell(srcRow, dstRow, col, rowDelta int) error {
	src, err := excelize.CoordinatesToCellName(col, srcRow)
	if err != nil {
		return err
	}
	dst, err := excelize.CoordinatesToCellName(col, dstRow)
	if err != nil {
		return err
	}

	if styleID, err := e.f.GetCellStyle(e.sheet, src); err == nil && styleID != 0 {
		if err := e.f.SetCellStyle(e.sheet, dst, dst, styleID); err != nil {
			return fmt.Errorf("copy style %s -> %s: %w", src, dst, err)
		}
	}

	if e.Kind(srcRow, col) == CellMergeFollower {
		return nil
	}

	formula, err := e.f.GetCellFormula(e.sheet, src)
	if err != nil {
		return fmt.Errorf("read formula %s!%s: %w", e.sheet, src, err)
	}
	if formula != "" {
		shifted := RetargetFormula(formula, rowDelta, 0)
		if err := e.f.SetCellFormula(e.sheet, dst, shifted); err != nil {
			return fmt.Errorf("set formula %s!%s: %w", e.sheet, dst, err)
		}
		if dstRow > e.maxRow {
			e.maxRow = dstRow
		}
		return nil
	}

	raw, err := e.f.GetCellValue(e.sheet, src, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read %s!%s: %w", e.sheet, src, err)
	}
	return e.SetValue(dstRow, col, cellValue(raw))
}

// cellValue keeps numeric cells numeric across the copy; everything else
// travels as text. Empty source cells clear the destination.
func cellValue(raw string) interface{} {
	if raw == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

// ClearRecordValues blanks the given columns of up to budget record blocks
// starting at startRow, leaving styles, merges and untouched columns alone.
// Rows past the sheet's current extent stop the sweep.
func (e *Editor) ClearRecordValues(startRow, step int, cols []int, budget int) error {
	for i := 0; i < budget; i++ {
		top := startRow + i*step
		if top > e.maxRow {
			break
		}
		for r := top; r < top+step && r <= e.maxRow; r++ {
			for _, c := range cols {
				if err := e.SetValue(r, c, nil); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ClearFirstRecord blanks the data-bearing columns of the first record
// block so a template's example row never leaks into output for a sheet
// that received zero items. Formatting, merges and formulas stay.
func (e *Editor) ClearFirstRecord(layout Layout, cols []int) error {
	for r := layout.StartRow; r < layout.StartRow+layout.Step; r++ {
		for _, c := range cols {
			if err := e.SetValue(r, c, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
