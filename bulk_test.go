// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBulkDecodeBulkRoundTripDense(t *testing.T) {
	sh := newSheet()
	for row := 1; row <= 4; row++ {
		for col := 1; col <= 4; col++ {
			sh.SetCell(col, row, NewNumberCell(float64(row*10+col)))
		}
	}
	sh.SetCell(2, 2, NewStringCell("hello"))
	sh.SetCell(3, 3, NewBoolCell(true))
	sh.SetCell(4, 4, NewErrorCell("#DIV/0!"))

	data, err := EncodeBulk(sh)
	require.NoError(t, err)
	assert.Equal(t, uint32(skrdMagic), leUint32(data[0:4]))

	got, err := DecodeBulk(data)
	require.NoError(t, err)

	for row := 1; row <= 4; row++ {
		for col := 1; col <= 4; col++ {
			want := sh.GetCell(col, row)
			have := got.GetCell(col, row)
			assert.Equal(t, want.Type, have.Type, "cell %d,%d", col, row)
			switch want.Type {
			case CellNumber:
				assert.Equal(t, want.Number, have.Number)
			case CellString, CellError:
				assert.Equal(t, want.String, have.String)
			case CellBool:
				assert.Equal(t, want.Bool, have.Bool)
			}
		}
	}
}

func TestEncodeBulkDecodeBulkRoundTripSparse(t *testing.T) {
	sh := newSheet()
	sh.SetCell(1, 1, NewStringCell("a1"))
	sh.SetCell(50, 1, NewNumberCell(3.5))
	sh.SetCell(1, 100, NewFormulaCell("SUM(A1:A99)"))

	data, err := EncodeBulk(sh)
	require.NoError(t, err)
	flags := leUint32(data[12:16])
	assert.NotZero(t, flags&flagSparse, "sparsely populated sheet should pick sparse layout")

	got, err := DecodeBulk(data)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.GetCell(1, 1).String)
	assert.Equal(t, 3.5, got.GetCell(50, 1).Number)
	assert.Equal(t, "SUM(A1:A99)", got.GetCell(1, 100).Formula)
}

func TestEncodeBulkEmptySheet(t *testing.T) {
	sh := newSheet()
	data, err := EncodeBulk(sh)
	require.NoError(t, err)
	got, err := DecodeBulk(data)
	require.NoError(t, err)
	assert.True(t, got.GetCell(1, 1).IsEmpty())
}

func TestDecodeBulkRejectsBadMagic(t *testing.T) {
	_, err := DecodeBulk(make([]byte, 16))
	assert.Error(t, err)
}

func TestBulkStringTableDedups(t *testing.T) {
	strs := newBulkStringTable()
	a := strs.intern("x")
	b := strs.intern("y")
	c := strs.intern("x")
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.Len(t, strs.order, 2)
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
