// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormattedValueGeneralNumber(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", 1234.0))

	v, err := f.FormattedValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "1234", v)
}

func TestFormattedValuePercent(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", 0.5))
	id := f.AddStyle(Style{NumberFormat: NumberFormat{CustomCode: "0%"}})
	require.NoError(t, f.SetCellStyle(defaultSheetName, "A1", "A1", id))

	v, err := f.FormattedValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "50%", v)
}

func TestFormattedValueThousandsSeparator(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", 1234567.0))
	id := f.AddStyle(Style{NumberFormat: NumberFormat{CustomCode: "#,##0"}})
	require.NoError(t, f.SetCellStyle(defaultSheetName, "A1", "A1", id))

	v, err := f.FormattedValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "1,234,567", v)
}

func TestFormattedValueBoolAndString(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", true))
	require.NoError(t, f.SetCellValue(defaultSheetName, "A2", "plain text"))

	v, err := f.FormattedValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", v)

	v, err = f.FormattedValue(defaultSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "plain text", v)
}
