// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"encoding/binary"
	"math"
)

// §4.7's bulk-transfer wire format: a compact single-allocation encoding of
// a sheet's cells for crossing an in-process FFI boundary, independent of
// the OPC/XML codec. The wire format is fixed by the external contract, not
// by this implementation, so an independent decoder can be written from the
// layout alone.

const skrdMagic = 0x44524B53 // "SKRD" little-endian
const skrdVersion = 1

const flagSparse = 1 << 0

const (
	bulkTagEmpty uint8 = iota
	bulkTagNumber
	bulkTagString
	bulkTagBool
	bulkTagDate
	bulkTagError
	bulkTagFormula
	bulkTagRichString
)

const emptyRowOffset = 0xFFFFFFFF

// EncodeBulk serializes sh's used range into the SKRD wire format. The
// encoder picks one row layout for the whole sheet by overall occupancy: if
// the used range is more than half populated, every row is stored dense
// (fixed col_count*9-byte stride, letting a reader seek directly to a
// column without scanning); otherwise every row is stored sparse.
func EncodeBulk(sh *Sheet) ([]byte, error) {
	minCol, minRow, maxCol, maxRow := sh.Dimension()
	rowCount, colCount := 0, 0
	if maxRow >= minRow && maxCol >= minCol {
		rowCount = maxRow - minRow + 1
		colCount = maxCol - minCol + 1
	} else {
		minCol, minRow = 0, 0
	}

	nonEmptyRows := sh.NonEmptyRows()
	used := 0
	for _, row := range nonEmptyRows {
		if row < minRow || row > maxRow {
			continue
		}
		used += len(sh.RowCells(row))
	}
	sparse := colCount == 0 || used*2 <= rowCount*colCount

	strs := newBulkStringTable()
	rowData := make(map[int][]byte, len(nonEmptyRows))
	for _, row := range nonEmptyRows {
		if row < minRow || row > maxRow {
			continue
		}
		cells := sh.RowCells(row)
		if len(cells) == 0 {
			continue
		}
		if sparse {
			buf := make([]byte, 2, 2+len(cells)*11)
			binary.LittleEndian.PutUint16(buf[0:2], uint16(len(cells)))
			for _, rc := range cells {
				entry := make([]byte, 11)
				binary.LittleEndian.PutUint16(entry[0:2], uint16(rc.Col-minCol))
				encodeCellTag(entry[2:11], rc.Cell, strs)
				buf = append(buf, entry...)
			}
			rowData[row] = buf
		} else {
			buf := make([]byte, colCount*9)
			for c := minCol; c <= maxCol; c++ {
				encodeCellTag(buf[(c-minCol)*9:(c-minCol)*9+9], sh.GetCell(c, row), strs)
			}
			rowData[row] = buf
		}
	}

	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:4], skrdMagic)
	binary.LittleEndian.PutUint16(header[4:6], skrdVersion)
	binary.LittleEndian.PutUint32(header[6:10], uint32(rowCount))
	binary.LittleEndian.PutUint16(header[10:12], uint16(colCount))
	flags := uint32(minCol&0xFFFF) << 16
	if sparse {
		flags |= flagSparse
	}
	binary.LittleEndian.PutUint32(header[12:16], flags)

	rowIndex := make([]byte, rowCount*8)
	var cellData []byte
	for i := 0; i < rowCount; i++ {
		rn := minRow + i
		binary.LittleEndian.PutUint32(rowIndex[i*8:i*8+4], uint32(rn))
		if buf, ok := rowData[rn]; ok {
			binary.LittleEndian.PutUint32(rowIndex[i*8+4:i*8+8], uint32(len(cellData)))
			cellData = append(cellData, buf...)
		} else {
			binary.LittleEndian.PutUint32(rowIndex[i*8+4:i*8+8], emptyRowOffset)
		}
	}

	out := make([]byte, 0, len(header)+len(rowIndex)+len(cellData)+64)
	out = append(out, header...)
	out = append(out, rowIndex...)
	out = append(out, strs.encode()...)
	out = append(out, cellData...)
	return out, nil
}

// bulkStringTable interns strings referenced by string/error/formula/rich-
// string cells, assigning each a stable u32 index into the wire format's
// string table.
type bulkStringTable struct {
	index map[string]uint32
	order []string
}

func newBulkStringTable() *bulkStringTable {
	return &bulkStringTable{index: make(map[string]uint32)}
}

func (t *bulkStringTable) intern(s string) uint32 {
	if idx, ok := t.index[s]; ok {
		return idx
	}
	idx := uint32(len(t.order))
	t.index[s] = idx
	t.order = append(t.order, s)
	return idx
}

func (t *bulkStringTable) encode() []byte {
	offsets := make([]uint32, len(t.order))
	var blob []byte
	for i, s := range t.order {
		offsets[i] = uint32(len(blob))
		blob = append(blob, []byte(s)...)
	}
	out := make([]byte, 8+4*len(offsets))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(t.order)))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(blob)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(out[8+i*4:12+i*4], off)
	}
	out = append(out, blob...)
	return out
}

// encodeCellTag writes one 9-byte type-tag+payload cell entry into dst.
func encodeCellTag(dst []byte, c Cell, strs *bulkStringTable) {
	switch c.Type {
	case CellEmpty:
		dst[0] = bulkTagEmpty
	case CellNumber:
		dst[0] = bulkTagNumber
		binary.LittleEndian.PutUint64(dst[1:9], float64Bits(c.Number))
	case CellString, CellInlineString:
		dst[0] = bulkTagString
		binary.LittleEndian.PutUint32(dst[1:5], strs.intern(c.String))
	case CellBool:
		dst[0] = bulkTagBool
		if c.Bool {
			dst[1] = 1
		}
	case CellDate:
		dst[0] = bulkTagDate
		binary.LittleEndian.PutUint64(dst[1:9], float64Bits(c.Number))
	case CellError:
		dst[0] = bulkTagError
		binary.LittleEndian.PutUint32(dst[1:5], strs.intern(c.String))
	case CellFormula:
		dst[0] = bulkTagFormula
		binary.LittleEndian.PutUint32(dst[1:5], strs.intern(c.Formula))
	case CellRichString:
		dst[0] = bulkTagRichString
		var plain string
		for _, r := range c.Runs {
			plain += r.Text
		}
		binary.LittleEndian.PutUint32(dst[1:5], strs.intern(plain))
	}
}

// DecodeBulk parses the SKRD wire format produced by EncodeBulk back into a
// fresh Sheet.
func DecodeBulk(data []byte) (*Sheet, error) {
	if len(data) < 16 {
		return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated SKRD header")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != skrdMagic {
		return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "bad SKRD magic")
	}
	rowCount := int(binary.LittleEndian.Uint32(data[6:10]))
	colCount := int(binary.LittleEndian.Uint16(data[10:12]))
	flags := binary.LittleEndian.Uint32(data[12:16])
	minCol := int(flags >> 16)
	sparse := flags&flagSparse != 0

	off := 16
	if len(data) < off+rowCount*8 {
		return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated row index")
	}
	type rowEntry struct {
		row    int
		offset uint32
	}
	rowEntries := make([]rowEntry, rowCount)
	for i := 0; i < rowCount; i++ {
		base := off + i*8
		rowEntries[i] = rowEntry{
			row:    int(binary.LittleEndian.Uint32(data[base : base+4])),
			offset: binary.LittleEndian.Uint32(data[base+4 : base+8]),
		}
	}
	off += rowCount * 8

	if len(data) < off+8 {
		return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated string table header")
	}
	strCount := int(binary.LittleEndian.Uint32(data[off : off+4]))
	blobSize := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
	off += 8
	if len(data) < off+strCount*4 {
		return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated string offsets")
	}
	strOffsets := make([]uint32, strCount)
	for i := 0; i < strCount; i++ {
		strOffsets[i] = binary.LittleEndian.Uint32(data[off+i*4 : off+i*4+4])
	}
	off += strCount * 4
	if len(data) < off+blobSize {
		return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated string blob")
	}
	blob := data[off : off+blobSize]
	off += blobSize

	strAt := func(idx uint32) string {
		if int(idx) >= len(strOffsets) {
			return ""
		}
		start := strOffsets[idx]
		end := uint32(blobSize)
		if int(idx)+1 < len(strOffsets) {
			end = strOffsets[idx+1]
		}
		return string(blob[start:end])
	}

	cellData := data[off:]
	sh := newSheet()
	for _, re := range rowEntries {
		if re.offset == emptyRowOffset {
			continue
		}
		p := int(re.offset)
		if !sparse {
			if colCount == 0 || p+colCount*9 > len(cellData) {
				return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated dense row")
			}
			for c := 0; c < colCount; c++ {
				cell, err := decodeCellTag(cellData[p+c*9:p+c*9+9], strAt)
				if err != nil {
					return nil, err
				}
				if !cell.IsEmpty() {
					sh.SetCell(minCol+c, re.row, cell)
				}
			}
			continue
		}
		if p+2 > len(cellData) {
			return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated sparse row")
		}
		n := int(binary.LittleEndian.Uint16(cellData[p : p+2]))
		p += 2
		for i := 0; i < n; i++ {
			if p+11 > len(cellData) {
				return nil, newErr(ErrPackageCorrupt, "DecodeBulk", "truncated sparse cell entry")
			}
			colOff := int(binary.LittleEndian.Uint16(cellData[p : p+2]))
			cell, err := decodeCellTag(cellData[p+2:p+11], strAt)
			if err != nil {
				return nil, err
			}
			sh.SetCell(minCol+colOff, re.row, cell)
			p += 11
		}
	}
	return sh, nil
}

func float64Bits(f float64) uint64     { return math.Float64bits(f) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }

func decodeCellTag(src []byte, strAt func(uint32) string) (Cell, error) {
	switch src[0] {
	case bulkTagEmpty:
		return Cell{}, nil
	case bulkTagNumber:
		return NewNumberCell(float64FromBits(binary.LittleEndian.Uint64(src[1:9]))), nil
	case bulkTagString:
		return NewStringCell(strAt(binary.LittleEndian.Uint32(src[1:5]))), nil
	case bulkTagBool:
		return NewBoolCell(src[1] != 0), nil
	case bulkTagDate:
		return NewDateCell(float64FromBits(binary.LittleEndian.Uint64(src[1:9]))), nil
	case bulkTagError:
		return NewErrorCell(strAt(binary.LittleEndian.Uint32(src[1:5]))), nil
	case bulkTagFormula:
		return NewFormulaCell(strAt(binary.LittleEndian.Uint32(src[1:5]))), nil
	case bulkTagRichString:
		return NewStringCell(strAt(binary.LittleEndian.Uint32(src[1:5]))), nil
	default:
		return Cell{}, newErr(ErrPackageCorrupt, "DecodeBulk", "unknown cell type tag")
	}
}
