// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleRegistryDedupesStructurallyEqualStyles(t *testing.T) {
	r := newStyleRegistry()
	id1 := r.add(Style{Font: Font{Name: "Calibri", Size: 11, Color: "ff0000ff"}})
	id2 := r.add(Style{Font: Font{Name: "Calibri", Size: 11, Color: "FF0000FF"}})
	assert.Equal(t, id1, id2, "colors should dedup case-insensitively")
	assert.Equal(t, 2, r.count(), "default style plus one distinct style")

	id3 := r.add(Style{Font: Font{Name: "Arial", Size: 11}})
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, 3, r.count())
}

func TestStyleRegistryDefaultStyleIsZero(t *testing.T) {
	r := newStyleRegistry()
	s, err := r.get(0)
	require.NoError(t, err)
	assert.Equal(t, Style{}, s)

	_, err = r.get(99)
	assert.Error(t, err)
}

func TestSharedPoolInternDedupesAndTracksRefs(t *testing.T) {
	p := newSharedPool()
	id1 := p.intern("hello")
	id2 := p.intern("hello")
	id3 := p.intern("world")
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, 2, p.count())

	assert.False(t, p.isUsed())
	p.addRef()
	assert.True(t, p.isUsed())
	p.removeRef()
	assert.False(t, p.isUsed())
}

func TestNumberFormatCodeResolution(t *testing.T) {
	assert.Equal(t, "General", numberFormatCode(NumberFormat{}))
	assert.Equal(t, "0.00%", numberFormatCode(NumberFormat{BuiltinID: 10}))
	assert.Equal(t, "0.0", numberFormatCode(NumberFormat{CustomCode: "0.0"}))
}

func TestStyleIsDateDetection(t *testing.T) {
	assert.True(t, styleIsDate(Style{NumberFormat: NumberFormat{BuiltinID: 14}}))
	assert.False(t, styleIsDate(Style{NumberFormat: NumberFormat{BuiltinID: 1}}))
	assert.True(t, styleIsDate(Style{NumberFormat: NumberFormat{CustomCode: "yyyy-mm-dd"}}))
	assert.False(t, styleIsDate(Style{NumberFormat: NumberFormat{CustomCode: "0.00"}}))
}
