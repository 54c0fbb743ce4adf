// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"strconv"
	"strings"
)

// SplitCellName splits an A1-style cell name into its column-letter and
// row-number parts.
//
// Example:
//
//	sheetkit.SplitCellName("AK74") // returns "AK", 74, nil
func SplitCellName(cell string) (string, int, error) {
	alpha := func(r rune) bool {
		return ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z') || r == '$'
	}
	if strings.IndexFunc(cell, alpha) == 0 {
		i := strings.LastIndexFunc(cell, alpha)
		if i >= 0 && i < len(cell)-1 {
			col, rowStr := strings.ReplaceAll(cell[:i+1], "$", ""), cell[i+1:]
			if row, err := strconv.Atoi(rowStr); err == nil && row > 0 {
				return col, row, nil
			}
		}
	}
	return "", -1, newInvalidCellNameError(cell)
}

// JoinCellName joins a column name and a row number into an A1-style cell
// name.
func JoinCellName(col string, row int) (string, error) {
	normCol := strings.Map(func(r rune) rune {
		switch {
		case 'A' <= r && r <= 'Z':
			return r
		case 'a' <= r && r <= 'z':
			return r - 32
		}
		return -1
	}, col)
	if len(col) == 0 || len(col) != len(normCol) {
		return "", newInvalidColumnNameError(col)
	}
	if row < 1 {
		return "", newInvalidRowNumberError(row)
	}
	return normCol + strconv.Itoa(row), nil
}

// ColumnNameToNumber converts an Excel column name (case-insensitive, e.g.
// "AK") to its 1-based column number.
//
// Example:
//
//	sheetkit.ColumnNameToNumber("AK") // returns 37, nil
func ColumnNameToNumber(name string) (int, error) {
	if len(name) == 0 {
		return -1, newInvalidColumnNameError(name)
	}
	col, multi := 0, 1
	for i := len(name) - 1; i >= 0; i-- {
		r := name[i]
		switch {
		case r >= 'A' && r <= 'Z':
			col += int(r-'A'+1) * multi
		case r >= 'a' && r <= 'z':
			col += int(r-'a'+1) * multi
		default:
			return -1, newInvalidColumnNameError(name)
		}
		multi *= 26
	}
	if col > MaxColumns {
		return -1, ErrColumnNumber
	}
	return col, nil
}

// ColumnNumberToName converts a 1-based column number to an Excel column
// name.
//
// Example:
//
//	sheetkit.ColumnNumberToName(37) // returns "AK", nil
func ColumnNumberToName(num int) (string, error) {
	if num < MinColumns || num > MaxColumns {
		return "", ErrColumnNumber
	}
	var col string
	for num > 0 {
		col = string(rune((num-1)%26+'A')) + col
		num = (num - 1) / 26
	}
	return col, nil
}

// CellNameToCoordinates converts an A1-style cell name to 1-based [col, row]
// coordinates.
//
// Example:
//
//	sheetkit.CellNameToCoordinates("A1") // returns 1, 1, nil
//	sheetkit.CellNameToCoordinates("Z3") // returns 26, 3, nil
func CellNameToCoordinates(cell string) (int, int, error) {
	colName, row, err := SplitCellName(cell)
	if err != nil {
		return -1, -1, newCellNameToCoordinatesError(cell, err)
	}
	if row > TotalRows {
		return -1, -1, ErrMaxRows
	}
	col, err := ColumnNameToNumber(colName)
	if err != nil {
		return -1, -1, err
	}
	return col, row, nil
}

// CoordinatesToCellName converts 1-based [col, row] coordinates to an
// A1-style cell name. Pass abs=true to anchor both components with "$".
//
// Example:
//
//	sheetkit.CoordinatesToCellName(1, 1)       // returns "A1", nil
//	sheetkit.CoordinatesToCellName(1, 1, true) // returns "$A$1", nil
func CoordinatesToCellName(col, row int, abs ...bool) (string, error) {
	if col < 1 || row < 1 {
		return "", newCoordinatesToCellNameError(col, row)
	}
	if row > TotalRows {
		return "", ErrMaxRows
	}
	sign := ""
	for _, a := range abs {
		if a {
			sign = "$"
		}
	}
	colName, err := ColumnNumberToName(col)
	if err != nil {
		return "", err
	}
	return sign + colName + sign + strconv.Itoa(row), nil
}

// rangeRefToCoordinates converts a "A1:B10"-style range reference to a
// [c1, r1, c2, r2] coordinate slice.
func rangeRefToCoordinates(ref string) ([]int, error) {
	rng := strings.Split(strings.ReplaceAll(ref, "$", ""), ":")
	if len(rng) < 2 {
		return nil, ErrParameterInvalid
	}
	return cellRefsToCoordinates(rng[0], rng[1])
}

// cellRefsToCoordinates converts a pair of cell references to a
// [c1, r1, c2, r2] coordinate slice.
func cellRefsToCoordinates(firstCell, lastCell string) ([]int, error) {
	coordinates := make([]int, 4)
	var err error
	coordinates[0], coordinates[1], err = CellNameToCoordinates(firstCell)
	if err != nil {
		return coordinates, err
	}
	coordinates[2], coordinates[3], err = CellNameToCoordinates(lastCell)
	return coordinates, err
}

// sortCoordinates normalizes a range so the corners are top-left/bottom-right,
// e.g. turning "C1:B3" into an equivalent "B1:C3" ordering.
func sortCoordinates(coordinates []int) error {
	if len(coordinates) != 4 {
		return ErrCoordinates
	}
	if coordinates[2] < coordinates[0] {
		coordinates[2], coordinates[0] = coordinates[0], coordinates[2]
	}
	if coordinates[3] < coordinates[1] {
		coordinates[3], coordinates[1] = coordinates[1], coordinates[3]
	}
	return nil
}

// coordinatesToRangeRef converts a [c1, r1, c2, r2] coordinate slice back to
// a range reference string.
func coordinatesToRangeRef(coordinates []int, abs ...bool) (string, error) {
	if len(coordinates) != 4 {
		return "", ErrCoordinates
	}
	firstCell, err := CoordinatesToCellName(coordinates[0], coordinates[1], abs...)
	if err != nil {
		return "", err
	}
	lastCell, err := CoordinatesToCellName(coordinates[2], coordinates[3], abs...)
	if err != nil {
		return "", err
	}
	return firstCell + ":" + lastCell, nil
}

// flatSqref expands a data-validation/conditional-format sqref (a
// space-separated list of cells and ranges) into the set of covered
// coordinates, keyed by column for efficient membership checks.
func flatSqref(sqref string) (map[int][][2]int, error) {
	cells := make(map[int][][2]int)
	for _, ref := range strings.Fields(sqref) {
		rng := strings.Split(ref, ":")
		switch len(rng) {
		case 1:
			col, row, err := CellNameToCoordinates(rng[0])
			if err != nil {
				return nil, err
			}
			cells[col] = append(cells[col], [2]int{col, row})
		case 2:
			coordinates, err := rangeRefToCoordinates(ref)
			if err != nil {
				return nil, err
			}
			_ = sortCoordinates(coordinates)
			for c := coordinates[0]; c <= coordinates[2]; c++ {
				for r := coordinates[1]; r <= coordinates[3]; r++ {
					cells[c] = append(cells[c], [2]int{c, r})
				}
			}
		}
	}
	return cells, nil
}

// needsQuoting reports whether a sheet name must be single-quoted when used
// in a sheet-qualified formula reference like 'My Sheet'!A1.
func needsQuoting(name string) bool {
	for _, r := range name {
		if !(r == '_' || ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9')) {
			return true
		}
	}
	return name == "" || (name[0] >= '0' && name[0] <= '9')
}

// quoteSheetName quotes a sheet name for use in a formula reference,
// doubling any embedded single quotes.
func quoteSheetName(name string) string {
	if !needsQuoting(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
