// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSheetAndSheetList(t *testing.T) {
	f := NewFile()
	idx, err := f.NewSheet("Data")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{defaultSheetName, "Data"}, f.SheetList())

	_, err = f.NewSheet("Data")
	assert.Error(t, err, "duplicate sheet names must be rejected")
}

func TestDeleteSheetKeepsAtLeastOneVisible(t *testing.T) {
	f := NewFile()
	err := f.DeleteSheet(defaultSheetName)
	assert.Error(t, err, "the workbook's only sheet cannot be deleted")

	_, err = f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet(defaultSheetName))
	assert.Equal(t, []string{"Data"}, f.SheetList())
}

func TestSetSheetVisibleRejectsHidingLastVisibleSheet(t *testing.T) {
	f := NewFile()
	err := f.SetSheetVisible(defaultSheetName, VisibilityHidden)
	assert.Error(t, err)

	_, err = f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetVisible(defaultSheetName, VisibilityHidden))

	v, err := f.GetSheetVisible(defaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, VisibilityHidden, v)
}

func TestInsertRowsShiftsFormulaReferences(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A5", 10.0))
	require.NoError(t, f.SetCellFormula(defaultSheetName, "B5", "A5*2"))

	require.NoError(t, f.InsertRows(defaultSheetName, 2, 3))

	// the value that was at A5 is now at A8, and the formula that
	// referenced it has been rewritten to follow it down.
	v, err := f.GetCellValue(defaultSheetName, "A8")
	require.NoError(t, err)
	assert.Equal(t, "10", v)

	formulaText, err := f.GetCellFormula(defaultSheetName, "B8")
	require.NoError(t, err)
	assert.Equal(t, "A8*2", formulaText)
}

func TestRemoveRowsShiftsRowsUp(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", "keep-above"))
	require.NoError(t, f.SetCellValue(defaultSheetName, "A5", "below"))

	require.NoError(t, f.RemoveRows(defaultSheetName, 2, 2))

	v, err := f.GetCellValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "keep-above", v)

	v, err = f.GetCellValue(defaultSheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "below", v)
}

func TestMergeCellNormalizesCornerOrder(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.MergeCell(defaultSheetName, "C3", "A1"))

	sh := f.sheets[defaultSheetName]
	require.Len(t, sh.Merges, 1)
	assert.Equal(t, 1, sh.Merges[0].StartCol)
	assert.Equal(t, 1, sh.Merges[0].StartRow)
	assert.Equal(t, 3, sh.Merges[0].EndCol)
	assert.Equal(t, 3, sh.Merges[0].EndRow)
}

func TestAddStyleDedupesAcrossFile(t *testing.T) {
	f := NewFile()
	id1 := f.AddStyle(Style{Font: Font{Bold: true}})
	id2 := f.AddStyle(Style{Font: Font{Bold: true}})
	assert.Equal(t, id1, id2)
}
