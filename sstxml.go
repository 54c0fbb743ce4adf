// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"encoding/xml"
)

type xlsxSI struct {
	T string `xml:"t"`
}

type xlsxSST struct {
	XMLName xml.Name `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main sst"`
	Count   int      `xml:"count,attr"`
	Unique  int      `xml:"uniqueCount,attr"`
	SI      []xlsxSI `xml:"si"`
}

// marshalSharedStringsXML serializes the shared-string pool. Per §3, the
// pool is emitted only if at least one cell currently references it — the
// caller checks sharedPool.isUsed() before calling this.
func marshalSharedStringsXML(p *sharedPool) []byte {
	p.mu.Lock()
	values := append([]string(nil), p.values...)
	p.mu.Unlock()
	out := xlsxSST{Count: len(values), Unique: len(values)}
	for _, v := range values {
		out.SI = append(out.SI, xlsxSI{T: legacyHexEscape(v)})
	}
	b, _ := xml.Marshal(out)
	return append([]byte(xml.Header), b...)
}

func parseSharedStringsXML(data []byte) (*sharedPool, error) {
	p := newSharedPool()
	if len(data) == 0 {
		return p, nil
	}
	var parsed xlsxSST
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "parseSharedStringsXML", "malformed xl/sharedStrings.xml", err)
	}
	for _, si := range parsed.SI {
		s := legacyHexUnescape(si.T)
		p.byValue[s] = len(p.values)
		p.values = append(p.values, s)
	}
	return p, nil
}
