// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAddPictureAnchorsADrawing(t *testing.T) {
	f := NewFile()
	data := tinyPNG(t)

	require.NoError(t, f.AddPicture(defaultSheetName, "B2", Picture{Data: data, Name: "logo.png"}))

	sh := f.sheets[defaultSheetName]
	require.Len(t, sh.Drawings, 1)
	assert.Equal(t, "B2", sh.Drawings[0].AnchorCell)
	assert.Equal(t, "logo.png", sh.Drawings[0].Name)
}

func TestMediaPoolInternDedupesIdenticalBlobs(t *testing.T) {
	p := newMediaPool()
	data := tinyPNG(t)

	k1 := p.intern(data)
	k2 := p.intern(append([]byte(nil), data...))
	assert.Equal(t, k1, k2)
	assert.Len(t, p.order, 1)

	k3 := p.intern([]byte("different blob"))
	assert.NotEqual(t, k1, k3)
	assert.Len(t, p.order, 2)
}

func TestAddPictureRejectsUndecodableData(t *testing.T) {
	f := NewFile()
	err := f.AddPicture(defaultSheetName, "A1", Picture{Data: []byte("not an image")})
	assert.Error(t, err)
}
