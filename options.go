// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

// Options configures OpenFile/OpenReader and the Save family. Every field
// is optional; the zero value applies sensible defaults.
type Options struct {
	// Password unlocks an ECMA-376 encrypted package on open, or encrypts
	// one on save (§4.6). Ignored when the package isn't encrypted.
	Password string

	// UnzipSizeLimit caps the total uncompressed size the reader will
	// accept across all parts, guarding against zip-bomb packages. Zero
	// means the library default (16 GiB).
	UnzipSizeLimit int64

	// UnzipXMLSizeLimit caps the uncompressed size of any single XML part.
	// Zero means the library default (largest worksheet the in-memory
	// grid model is prepared to hold, per §5's resource-model budget).
	UnzipXMLSizeLimit int64

	// ShortDatePattern is carried with the other options but is not read
	// anywhere: SetCellValue stores a time.Time as a CellDate with no
	// number-format style of its own, whatever this field holds.
	ShortDatePattern string
}

const (
	defaultUnzipSizeLimit    = 16 << 30
	defaultUnzipXMLSizeLimit = 512 << 20
)

func (o Options) withDefaults() Options {
	if o.UnzipSizeLimit == 0 {
		o.UnzipSizeLimit = defaultUnzipSizeLimit
	}
	if o.UnzipXMLSizeLimit == 0 {
		o.UnzipXMLSizeLimit = defaultUnzipXMLSizeLimit
	}
	return o
}

func mergeOptions(opts []Options) Options {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	return o.withDefaults()
}
