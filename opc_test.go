// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSaveAndReopenRoundTrip(t *testing.T) {
	f := NewFile()
	require.NoError(t, f.SetCellValue(defaultSheetName, "A1", "hello"))
	require.NoError(t, f.SetCellValue(defaultSheetName, "A2", 3.5))
	f.AddStyle(Style{Font: Font{Bold: true}})

	data, err := f.Bytes()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	reopened, err := OpenReader(bytes.NewReader(data))
	require.NoError(t, err)

	v, err := reopened.GetCellValue(defaultSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = reopened.GetCellValue(defaultSheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "3.5", v)
}

func TestDeterministicPartOrderPrioritizesWorkbookFamily(t *testing.T) {
	in := []string{"xl/worksheets/sheet1.xml", sharedStringsPath, stylesPath, contentTypesPath, rootRelsPath, workbookDefaultPath, workbookRelsPath}
	out := deterministicPartOrder(in)
	assert.Equal(t, contentTypesPath, out[0])
	assert.Equal(t, rootRelsPath, out[1])
	assert.Equal(t, workbookDefaultPath, out[2])
	assert.Equal(t, workbookRelsPath, out[3])
	assert.Equal(t, stylesPath, out[4])
	assert.Equal(t, sharedStringsPath, out[5])
}

func TestResolveTargetHandlesRelativeAndAbsolute(t *testing.T) {
	assert.Equal(t, "xl/worksheets/sheet1.xml", resolveTarget("xl/workbook.xml", "worksheets/sheet1.xml"))
	assert.Equal(t, "xl/media/image1.png", resolveTarget("xl/drawings/drawing1.xml", "../media/image1.png"))
	assert.Equal(t, "xl/workbook.xml", resolveTarget("anything.xml", "/xl/workbook.xml"))
}

func TestParseRelationshipsRoundTrip(t *testing.T) {
	list := &relationshipList{Relationships: []Relationship{
		{ID: "rId1", Type: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet", Target: "worksheets/sheet1.xml"},
	}}
	data := marshalRelationships(list)
	parsed, err := parseRelationships(data)
	require.NoError(t, err)
	require.Len(t, parsed.Relationships, 1)
	assert.Equal(t, "rId1", parsed.Relationships[0].ID)
	assert.Equal(t, "worksheets/sheet1.xml", parsed.Relationships[0].Target)
}
