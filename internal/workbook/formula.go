package workbook

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RetargetFormula rewrites the cell references of a formula copied
// rowDelta/colDelta cells away, the way a spreadsheet shifts formulas on
// insert. Relative row and column components shift; components anchored
// with '$' stay; references qualified with a sheet name never shift; text
// inside double-quoted string literals is untouched. This is a reference
// rewriter, not a string substitution: "A1" inside "SUMA1X" or "LOG10("
// is left alone.
func RetargetFormula(formula string, rowDelta, colDelta int) string {
	var out strings.Builder
	out.Grow(len(formula) + 8)

	prev := byte(0) // last significant byte already emitted
	i := 0
	for i < len(formula) {
		c := formula[i]

		// String literal: copy verbatim, "" escapes included.
		if c == '"' {
			j := i + 1
			for j < len(formula) {
				if formula[j] == '"' {
					if j+1 < len(formula) && formula[j+1] == '"' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			out.WriteString(formula[i:j])
			prev = '"'
			i = j
			continue
		}

		// Quoted sheet name: copy verbatim; the '!' that follows marks the
		// next reference as sheet-qualified.
		if c == '\'' {
			j := i + 1
			for j < len(formula) && formula[j] != '\'' {
				j++
			}
			if j < len(formula) {
				j++
			}
			out.WriteString(formula[i:j])
			prev = '\''
			i = j
			continue
		}

		if ref, width, ok := matchRef(formula, i, prev); ok {
			out.WriteString(shiftRef(ref, rowDelta, colDelta))
			prev = formula[i+width-1]
			i += width
			continue
		}

		out.WriteByte(c)
		if c != ' ' {
			prev = c
		}
		i++
	}
	return out.String()
}

type cellRef struct {
	absCol bool
	col    string
	absRow bool
	row    int
}

// matchRef tries to read an A1-style reference starting at position i.
// The previous significant byte and the byte after the candidate decide
// whether this is a standalone reference or part of an identifier or a
// sheet-qualified reference.
func matchRef(s string, i int, prev byte) (cellRef, int, bool) {
	if isIdentByte(prev) || prev == '!' || prev == '$' || prev == '\'' {
		return cellRef{}, 0, false
	}
	j := i
	var ref cellRef
	if j < len(s) && s[j] == '$' {
		ref.absCol = true
		j++
	}
	colStart := j
	for j < len(s) && isAlpha(s[j]) {
		j++
	}
	if j == colStart || j-colStart > 3 {
		return cellRef{}, 0, false
	}
	ref.col = s[colStart:j]
	if j < len(s) && s[j] == '$' {
		ref.absRow = true
		j++
	}
	rowStart := j
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j == rowStart {
		return cellRef{}, 0, false
	}
	row, err := strconv.Atoi(s[rowStart:j])
	if err != nil || row < 1 {
		return cellRef{}, 0, false
	}
	ref.row = row

	// A trailing identifier byte or '(' means this was a name, not a ref.
	if j < len(s) && (isIdentByte(s[j]) || s[j] == '(') {
		return cellRef{}, 0, false
	}
	// An unquoted sheet name directly before '!' (e.g. AB1!C2) is not a
	// shiftable reference either.
	if j < len(s) && s[j] == '!' {
		return cellRef{}, 0, false
	}
	return ref, j - i, true
}

func shiftRef(ref cellRef, rowDelta, colDelta int) string {
	col := ref.col
	if !ref.absCol && colDelta != 0 {
		n, err := excelize.ColumnNameToNumber(strings.ToUpper(col))
		if err == nil {
			if n += colDelta; n >= 1 {
				if name, err := excelize.ColumnNumberToName(n); err == nil {
					col = name
				}
			}
		}
	}
	row := ref.row
	if !ref.absRow {
		if row += rowDelta; row < 1 {
			row = 1
		}
	}

	var b strings.Builder
	if ref.absCol {
		b.WriteByte('$')
	}
	b.WriteString(col)
	if ref.absRow {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(row))
	return b.String()
}

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentByte(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '.'
}
