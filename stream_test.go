// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamWriterWritesRowsInOrder(t *testing.T) {
	f := NewFile()
	w, err := NewStreamWriter(f, "Streamed")
	require.NoError(t, err)

	require.NoError(t, w.SetColWidth(1, 1, 20))
	require.NoError(t, w.SetRow("A1", []interface{}{"name", "score"}))
	require.NoError(t, w.SetRow("A2", []interface{}{"alice", 9.5}))

	idx, err := w.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	v, err := f.GetCellValue("Streamed", "A1")
	require.NoError(t, err)
	assert.Equal(t, "name", v)

	v, err = f.GetCellValue("Streamed", "B2")
	require.NoError(t, err)
	assert.Equal(t, "9.5", v)
}

func TestStreamWriterRejectsOutOfOrderRows(t *testing.T) {
	f := NewFile()
	w, err := NewStreamWriter(f, "Streamed")
	require.NoError(t, err)

	require.NoError(t, w.SetRow("A2", []interface{}{"second"}))
	err = w.SetRow("A1", []interface{}{"first"})
	assert.Error(t, err)
}

func TestStreamWriterRejectsColumnSettingsAfterFirstRow(t *testing.T) {
	f := NewFile()
	w, err := NewStreamWriter(f, "Streamed")
	require.NoError(t, err)

	require.NoError(t, w.SetRow("A1", []interface{}{"first"}))
	err = w.SetColWidth(1, 1, 10)
	assert.Error(t, err)
}

func TestStreamWriterApplyIsOneShot(t *testing.T) {
	f := NewFile()
	w, err := NewStreamWriter(f, "Streamed")
	require.NoError(t, err)
	require.NoError(t, w.SetRow("A1", []interface{}{"v"}))

	_, err = w.Apply()
	require.NoError(t, err)

	_, err = w.Apply()
	assert.Error(t, err)

	err = w.SetRow("A2", []interface{}{"too late"})
	assert.Error(t, err)
}

func TestNewStreamWriterRejectsDuplicateSheetName(t *testing.T) {
	f := NewFile()
	_, err := NewStreamWriter(f, defaultSheetName)
	assert.Error(t, err)
}
