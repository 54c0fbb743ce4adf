// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
	image.RegisterFormat("tiff", "II*\x00", tiff.Decode, tiff.DecodeConfig)
	image.RegisterFormat("tiff", "MM\x00*", tiff.Decode, tiff.DecodeConfig)
}

// mediaPool deduplicates embedded media blobs (images referenced by
// drawings) by content. Each blob's key is a uuid derived from its content
// hash rather than a random one, so re-adding byte-identical media never
// grows the package: the same image embedded on ten sheets is stored once.
type mediaPool struct {
	byKey map[uuid.UUID][]byte
	order []uuid.UUID
}

func newMediaPool() *mediaPool {
	return &mediaPool{byKey: make(map[uuid.UUID][]byte)}
}

// blobKey derives a stable, content-addressed uuid for blob: identical
// bytes always produce the same key, so the pool can dedupe without
// comparing whole blobs against one another.
func blobKey(blob []byte) uuid.UUID {
	h := fnv.New128a()
	h.Write(blob)
	key, _ := uuid.FromBytes(h.Sum(nil))
	return key
}

// intern stores blob if not already present and returns its content key.
func (p *mediaPool) intern(blob []byte) uuid.UUID {
	key := blobKey(blob)
	if _, ok := p.byKey[key]; !ok {
		p.byKey[key] = append([]byte(nil), blob...)
		p.order = append(p.order, key)
	}
	return key
}

// Picture describes an image to embed with AddPicture.
type Picture struct {
	Data   []byte
	Name   string
	Width  float64 // display width in points; 0 uses the decoded pixel size
	Height float64
}

// AddPicture decodes pic.Data (PNG, JPEG, GIF, BMP, or TIFF), interns it in
// the workbook's media pool, and anchors it to cell on sheetName. Legacy
// BMP/TIFF producers are decoded through golang.org/x/image so their pixel
// dimensions are available even though Excel itself re-encodes them to PNG
// on save; this package carries the original bytes through untouched,
// matching the §9 "unknown/foreign parts survive round-trip" posture applied
// to media the way it's applied to unrecognised package parts.
func (f *File) AddPicture(sheetName, cell string, pic Picture) error {
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(pic.Data))
	if err != nil {
		return wrapErr(ErrPackageCorrupt, "AddPicture", "unrecognised image data", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	sh, ok := f.sheets[sheetName]
	if !ok {
		return newErr(ErrSheetNotFound, "AddPicture", fmt.Sprintf("sheet %q does not exist", sheetName))
	}
	if f.media == nil {
		f.media = newMediaPool()
	}
	key := f.media.intern(pic.Data)

	width, height := pic.Width, pic.Height
	if width == 0 {
		width = float64(cfg.Width)
	}
	if height == 0 {
		height = float64(cfg.Height)
	}
	name := pic.Name
	if name == "" {
		name = fmt.Sprintf("image%d.%s", len(f.media.order), format)
	}

	cellName, err := CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	sh.Drawings = append(sh.Drawings, Drawing{
		Kind:       "image",
		AnchorCell: cellName,
		Width:      width,
		Height:     height,
		RID:        key.String(),
		Name:       name,
	})
	return nil
}
