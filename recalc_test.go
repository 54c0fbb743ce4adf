// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateAllEvaluatesSimpleChain(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", 2.0))
	require.NoError(t, f.SetCellValue(defaultSheetName, "A2", 3.0))
	require.NoError(t, f.SetCellFormula(defaultSheetName, "A3", "SUM(A1,A2)"))
	require.NoError(t, f.SetCellFormula(defaultSheetName, "A4", "A3*2"))

	require.NoError(t, f.CalculateAll())

	v, err := f.GetCellValue(defaultSheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "5", v)

	v, err = f.GetCellValue(defaultSheetName, "A4")
	require.NoError(t, err)
	assert.Equal(t, "10", v)
}

func TestCalculateAllResolvesCyclesToRef(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellFormula(defaultSheetName, "A1", "A2+1"))
	require.NoError(t, f.SetCellFormula(defaultSheetName, "A2", "A1+1"))

	require.NoError(t, f.CalculateAll())

	v, err := f.GetCellValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "#REF!", v)

	v, err = f.GetCellValue(defaultSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "#REF!", v)
}

func TestCalculateAllHandlesUnknownFunctionAsNameError(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellFormula(defaultSheetName, "A1", "NOTAREALFUNC("))

	require.NoError(t, f.CalculateAll())

	v, err := f.GetCellValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "#NAME?", v)
}

func TestDefinedNameScopeShadowsWorkbookScope(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetDefinedName(DefinedName{Name: "X", Scope: "Workbook", RefersTo: "Sheet1!$A$1"}))
	require.NoError(t, f.SetDefinedName(DefinedName{Name: "X", Scope: defaultSheetName, RefersTo: "Sheet1!$A$2"}))

	ref, ok := f.DefinedName("X", defaultSheetName)
	require.True(t, ok)
	assert.Equal(t, "Sheet1!$A$2", ref)

	ref, ok = f.DefinedName("X", "SomeOtherSheet")
	require.True(t, ok)
	assert.Equal(t, "Sheet1!$A$1", ref)
}
