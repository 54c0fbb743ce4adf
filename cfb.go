// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"encoding/base64"
	"encoding/binary"
)

// writeMinimalCFB builds the smallest OLE Compound File Binary container
// that can hold the named streams as top-level children of the root
// storage, for crypt.go's encryptPackage. It covers the header-DIFAT-only
// case (at most 109 FAT sectors, root and stream directory entries chained
// by sibling pointers rather than a balanced red-black tree) with no mini
// stream, which is every
// file this package itself produces; it is not a general-purpose CFB
// writer for arbitrary third-party containers.
func writeMinimalCFB(streams map[string][]byte) ([]byte, error) {
	const sectorSize = 512

	names := []string{encryptionInfoStream, encryptedPackageStream}
	data := make([][]byte, len(names))
	for i, n := range names {
		data[i] = streams[n]
	}

	sectorsFor := func(n int) int {
		if n == 0 {
			return 0
		}
		return (n + sectorSize - 1) / sectorSize
	}
	streamSectorCounts := make([]int, len(names))
	totalStreamSectors := 0
	for i, d := range data {
		streamSectorCounts[i] = sectorsFor(len(d))
		totalStreamSectors += streamSectorCounts[i]
	}

	const dirEntries = 4 // Root Entry + 2 streams + 1 unused, one directory sector
	dirSectors := 1

	numFAT := 1
	for {
		capacity := numFAT * (sectorSize / 4)
		total := numFAT + dirSectors + totalStreamSectors
		if total <= capacity {
			break
		}
		numFAT++
		if numFAT > 109 {
			return nil, newErr(ErrFileEncrypted, "writeMinimalCFB", "package too large for a single-DIFAT CFB container")
		}
	}

	totalSectors := numFAT + dirSectors + totalStreamSectors
	fat := make([]uint32, totalSectors)
	const freeSect = 0xFFFFFFFF
	const endOfChain = 0xFFFFFFFE
	const fatSect = 0xFFFFFFFD
	for i := range fat {
		fat[i] = freeSect
	}
	for i := 0; i < numFAT; i++ {
		fat[i] = fatSect
	}
	dirStart := numFAT
	for i := 0; i < dirSectors; i++ {
		if i == dirSectors-1 {
			fat[dirStart+i] = endOfChain
		} else {
			fat[dirStart+i] = uint32(dirStart + i + 1)
		}
	}

	streamStart := make([]int, len(names))
	cursor := numFAT + dirSectors
	for i, n := range streamSectorCounts {
		streamStart[i] = cursor
		for s := 0; s < n; s++ {
			if s == n-1 {
				fat[cursor+s] = endOfChain
			} else {
				fat[cursor+s] = uint32(cursor + s + 1)
			}
		}
		cursor += n
	}

	// --- header ---
	header := make([]byte, sectorSize)
	copy(header[0:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(header[24:26], 0x003E) // minor version
	binary.LittleEndian.PutUint16(header[26:28], 0x0003) // major version 3
	binary.LittleEndian.PutUint16(header[28:30], 0xFFFE) // byte order
	binary.LittleEndian.PutUint16(header[30:32], 9)      // sector shift: 2^9 = 512
	binary.LittleEndian.PutUint16(header[32:34], 6)      // mini sector shift: 2^6 = 64
	binary.LittleEndian.PutUint32(header[44:48], 0)      // number of directory sectors (v3: unused)
	binary.LittleEndian.PutUint32(header[48:52], uint32(numFAT))
	binary.LittleEndian.PutUint32(header[52:56], uint32(dirStart))
	binary.LittleEndian.PutUint32(header[60:64], 0x00001000) // mini stream cutoff: 4096
	binary.LittleEndian.PutUint32(header[64:68], endOfChain) // first mini FAT sector: none
	binary.LittleEndian.PutUint32(header[68:72], 0)
	binary.LittleEndian.PutUint32(header[72:76], endOfChain) // first DIFAT sector: none
	binary.LittleEndian.PutUint32(header[76:80], 0)
	for i := 0; i < 109; i++ {
		off := 76 + i*4
		if i < numFAT {
			binary.LittleEndian.PutUint32(header[off:off+4], uint32(i))
		} else {
			binary.LittleEndian.PutUint32(header[off:off+4], freeSect)
		}
	}

	out := append([]byte(nil), header...)

	for i := 0; i < numFAT; i++ {
		sec := make([]byte, sectorSize)
		for j := 0; j < sectorSize/4; j++ {
			idx := i*(sectorSize/4) + j
			v := uint32(freeSect)
			if idx < len(fat) {
				v = fat[idx]
			}
			binary.LittleEndian.PutUint32(sec[j*4:j*4+4], v)
		}
		out = append(out, sec...)
	}

	out = append(out, dirEntry("Root Entry", 5, 1, freeSect, freeSect, 0, 0)...)
	out = append(out, dirEntry(names[0], 2, freeSect, freeSect, 2, uint32(streamStart[0]), uint64(len(data[0])))...)
	out = append(out, dirEntry(names[1], 2, freeSect, freeSect, freeSect, uint32(streamStart[1]), uint64(len(data[1])))...)
	out = append(out, dirEntry("", 0, freeSect, freeSect, freeSect, 0, 0)...)

	for i, d := range data {
		padded := make([]byte, streamSectorCounts[i]*sectorSize)
		copy(padded, d)
		out = append(out, padded...)
	}

	return out, nil
}

// dirEntry encodes one 128-byte CFB directory entry.
func dirEntry(name string, objectType byte, child, left, right uint32, startSector uint32, size uint64) []byte {
	e := make([]byte, 128)
	u16 := utf16LEBytes(name)
	u16 = append(u16, 0, 0) // NUL terminator
	copy(e[0:64], u16)
	binary.LittleEndian.PutUint16(e[64:66], uint16(len(u16)))
	e[66] = objectType
	e[67] = 1 // color: black, irrelevant for this simplified non-balanced tree
	binary.LittleEndian.PutUint32(e[68:72], left)
	binary.LittleEndian.PutUint32(e[72:76], right)
	binary.LittleEndian.PutUint32(e[76:80], child)
	binary.LittleEndian.PutUint32(e[96:100], startSector)
	binary.LittleEndian.PutUint64(e[100:108], size)
	return e
}

func base64Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func base64Decode(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }
