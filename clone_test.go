// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCloneIndependence(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", "original"))
	f.AddStyle(Style{NumberFormat: NumberFormat{CustomCode: "0.00"}})

	clone := f.Clone()

	require.NoError(t, clone.SetCellValue(defaultSheetName, "A1", "mutated"))
	orig, err := f.GetCellValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "original", orig, "mutating the clone must not affect the source")

	cloned, err := clone.GetCellValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "mutated", cloned)
}

func TestFileCloneMatchesSourceBeforeMutation(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "B2", 42.0))
	require.NoError(t, f.SetCellFormula(defaultSheetName, "C2", "SUM(B2,1)"))

	clone := f.Clone()

	diff := cmp.Diff(f.sheets[defaultSheetName].grid, clone.sheets[defaultSheetName].grid,
		cmpopts.EquateEmpty(), cmp.AllowUnexported(Cell{}))
	assert.Empty(t, diff, "a fresh clone's grid should be structurally identical to its source")
}
