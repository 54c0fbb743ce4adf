// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"regexp"
	"strconv"
	"strings"
)

// adjustDirection picks which axis a structural edit shifts references
// along.
type adjustDirection int

const (
	rows adjustDirection = iota
	columns
)

// cellRefPattern matches one A1-style reference, with optional "$" anchors
// and an optional sheet-name prefix ("Sheet 1"!A1 or Sheet1!A1). It is
// intentionally permissive: adjustFormulas only needs to find candidate
// references inside formula text, not fully validate formula syntax.
var cellRefPattern = regexp.MustCompile(`(?:('(?:[^']|'')+'|[A-Za-z_][A-Za-z0-9_.]*)!)?(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)`)

// adjustFormulas rewrites every formula cell in the workbook whose reference
// falls on or after the edit point on the given sheet/axis, shifting it by
// offset columns or rows. References that would fall inside a removed band
// (offset < 0 and the reference lands in [at, at-offset)) become #REF!,
// per §3's "dangling reference" rule. Same-sheet unqualified references are
// adjusted only when editedSheet matches the formula's own sheet; a
// reference explicitly qualified with another sheet name is left alone
// unless that sheet is editedSheet.
func (f *File) adjustFormulas(editedSheet string, dir adjustDirection, at, offset int) {
	f.mu.RLock()
	names := append([]string(nil), f.sheetOrder...)
	f.mu.RUnlock()
	for _, name := range names {
		sh, err := f.sheet(name)
		if err != nil {
			continue
		}
		for _, row := range sh.NonEmptyRows() {
			for _, cv := range sh.RowCells(row) {
				if cv.Cell.Type != CellFormula {
					continue
				}
				adjusted := adjustFormulaText(cv.Cell.Formula, name, editedSheet, dir, at, offset)
				if adjusted == cv.Cell.Formula {
					continue
				}
				newCell := cv.Cell
				newCell.Formula = adjusted
				newCell.FormulaCache = nil
				sh.SetCell(cv.Col, row, newCell)
			}
		}
	}
}

// adjustFormulaText rewrites every reference in expr that qualifies for the
// shift described by dir/at/offset. formulaSheet is the sheet the formula
// cell itself lives on (used to resolve unqualified references).
func adjustFormulaText(expr, formulaSheet, editedSheet string, dir adjustDirection, at, offset int) string {
	return cellRefPattern.ReplaceAllStringFunc(expr, func(match string) string {
		parts := cellRefPattern.FindStringSubmatch(match)
		sheetPart, colAbs, colStr, rowAbs, rowStr := parts[1], parts[2], parts[3], parts[4], parts[5]

		refSheet := formulaSheet
		if sheetPart != "" {
			refSheet = strings.Trim(sheetPart, "'")
			refSheet = strings.ReplaceAll(refSheet, "''", "'")
			sheetPart = strings.TrimSuffix(sheetPart, "!") + "!"
		}
		if refSheet != editedSheet {
			return match
		}

		col, err1 := ColumnNameToNumber(colStr)
		row, err2 := strconv.Atoi(rowStr)
		if err1 != nil || err2 != nil {
			return match
		}

		if dir == rows {
			switch {
			case offset < 0 && row >= at && row < at-offset:
				return "#REF!"
			case row >= at:
				row += offset
			}
			rowStr = strconv.Itoa(row)
		} else {
			switch {
			case offset < 0 && col >= at && col < at-offset:
				return "#REF!"
			case col >= at:
				col += offset
			}
			newCol, err := ColumnNumberToName(col)
			if err != nil {
				return "#REF!"
			}
			colStr = newCol
		}
		return sheetPart + colAbs + colStr + rowAbs + rowStr
	})
}
