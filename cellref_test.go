// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCellName(t *testing.T) {
	col, row, err := SplitCellName("AK74")
	require.NoError(t, err)
	assert.Equal(t, "AK", col)
	assert.Equal(t, 74, row)

	col, row, err = SplitCellName("$B$3")
	require.NoError(t, err)
	assert.Equal(t, "B", col)
	assert.Equal(t, 3, row)

	_, _, err = SplitCellName("74")
	assert.Error(t, err)

	_, _, err = SplitCellName("AK")
	assert.Error(t, err)

	_, _, err = SplitCellName("AK0")
	assert.Error(t, err)
}

func TestColumnNameToNumberAndBack(t *testing.T) {
	cases := []struct {
		name string
		num  int
	}{
		{"A", 1},
		{"Z", 26},
		{"AA", 27},
		{"AK", 37},
		{"ak", 37},
	}
	for _, c := range cases {
		num, err := ColumnNameToNumber(c.name)
		require.NoError(t, err)
		assert.Equal(t, c.num, num)
	}

	name, err := ColumnNumberToName(37)
	require.NoError(t, err)
	assert.Equal(t, "AK", name)

	_, err = ColumnNameToNumber("A1")
	assert.Error(t, err)

	_, err = ColumnNumberToName(0)
	assert.Error(t, err)
}

func TestCellNameToCoordinatesAndBack(t *testing.T) {
	col, row, err := CellNameToCoordinates("A1")
	require.NoError(t, err)
	assert.Equal(t, 1, col)
	assert.Equal(t, 1, row)

	col, row, err = CellNameToCoordinates("Z3")
	require.NoError(t, err)
	assert.Equal(t, 26, col)
	assert.Equal(t, 3, row)

	name, err := CoordinatesToCellName(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "A1", name)

	name, err = CoordinatesToCellName(1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, "$A$1", name)

	_, _, err = CellNameToCoordinates("A0")
	assert.Error(t, err)
}

func TestRangeRefToCoordinatesNormalizesOrder(t *testing.T) {
	coords, err := rangeRefToCoordinates("C1:B3")
	require.NoError(t, err)
	require.NoError(t, sortCoordinates(coords))
	assert.Equal(t, []int{2, 1, 3, 3}, coords)

	ref, err := coordinatesToRangeRef(coords)
	require.NoError(t, err)
	assert.Equal(t, "B1:C3", ref)
}

func TestFlatSqrefExpandsRangesAndSingles(t *testing.T) {
	cells, err := flatSqref("A1 B1:B2")
	require.NoError(t, err)
	assert.Len(t, cells[1], 1)
	assert.Len(t, cells[2], 2)
}

func TestNeedsQuotingAndQuoteSheetName(t *testing.T) {
	assert.False(t, needsQuoting("Sheet1"))
	assert.True(t, needsQuoting("My Sheet"))
	assert.True(t, needsQuoting("2024"))

	assert.Equal(t, "Sheet1", quoteSheetName("Sheet1"))
	assert.Equal(t, "'My Sheet'", quoteSheetName("My Sheet"))
	assert.Equal(t, "'It''s Mine'", quoteSheetName("It's Mine"))
}
