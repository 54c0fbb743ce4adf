// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"
)

// opcFixedTime is the local timestamp every ZIP local-file-header carries
// on save, so re-saving an unchanged workbook produces byte-identical
// output modulo nothing at all (§4.1's determinism requirement).
var opcFixedTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// xlsxDefault is a [Content_Types].xml <Default> entry (by extension).
type xlsxDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// xlsxOverride is a [Content_Types].xml <Override> entry (by part path).
type xlsxOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// xlsxTypes is the parsed [Content_Types].xml stream.
type xlsxTypes struct {
	XMLName   xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []xlsxDefault  `xml:"Default"`
	Overrides []xlsxOverride `xml:"Override"`
}

// xlsxRelationship is one <Relationship> entry inside a .rels part.
type xlsxRelationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// xlsxRelationships is the parsed form of a .rels part.
type xlsxRelationships struct {
	XMLName       xml.Name            `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Relationships []xlsxRelationship `xml:"Relationship"`
}

// zipEntry is one raw entry read out of the package ZIP, before the model
// layer has decided whether it understands it.
type zipEntry struct {
	path string
	data []byte
}

// readZip parses the ZIP central directory and returns every entry's raw
// bytes, normalizing path separators and mapping the well-known-but-miscased
// paths some third-party writers emit to their canonical spelling.
func readZip(b []byte) ([]zipEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "readZip", "invalid ZIP central directory", err)
	}
	docPart := map[string]string{
		"[content_types].xml":  contentTypesPath,
		"xl/sharedstrings.xml": sharedStringsPath,
	}
	entries := make([]zipEntry, 0, len(zr.File))
	for _, zf := range zr.File {
		name := strings.ReplaceAll(zf.Name, "\\", "/")
		if canon, ok := docPart[strings.ToLower(name)]; ok {
			name = canon
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, wrapErr(ErrPackageCorrupt, "readZip", fmt.Sprintf("opening entry %q", name), err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, wrapErr(ErrPackageCorrupt, "readZip", fmt.Sprintf("reading entry %q", name), err)
		}
		entries = append(entries, zipEntry{path: name, data: data})
	}
	return entries, nil
}

// parseContentTypes decodes the [Content_Types].xml stream.
func parseContentTypes(b []byte) (*xlsxTypes, error) {
	ct := &xlsxTypes{}
	if len(b) == 0 {
		return ct, nil
	}
	if err := xml.Unmarshal(b, ct); err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "parseContentTypes", "malformed [Content_Types].xml", err)
	}
	return ct, nil
}

// parseRelationships decodes a .rels part's bytes into a relationshipList.
func parseRelationships(b []byte) (*relationshipList, error) {
	if len(b) == 0 {
		return &relationshipList{}, nil
	}
	var parsed xlsxRelationships
	if err := xml.Unmarshal(b, &parsed); err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "parseRelationships", "malformed relationships part", err)
	}
	list := &relationshipList{}
	for _, r := range parsed.Relationships {
		list.Relationships = append(list.Relationships, Relationship{
			ID: r.ID, Type: r.Type, Target: r.Target, TargetMode: r.TargetMode,
		})
	}
	return list, nil
}

// marshalRelationships serializes a relationshipList back to a .rels part.
func marshalRelationships(list *relationshipList) []byte {
	list.Lock()
	defer list.Unlock()
	out := xlsxRelationships{}
	for _, r := range list.Relationships {
		out.Relationships = append(out.Relationships, xlsxRelationship{
			ID: r.ID, Type: r.Type, Target: r.Target, TargetMode: r.TargetMode,
		})
	}
	b, _ := xml.Marshal(out)
	return append([]byte(xml.Header), b...)
}

// resolveTarget resolves a relationship Target (which is relative to the
// directory the owning part lives in) to an absolute package path.
func resolveTarget(ownerPath, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	dir := path.Dir(ownerPath)
	if dir == "." {
		dir = ""
	}
	joined := path.Join(dir, target)
	return strings.TrimPrefix(joined, "/")
}

// deterministicPartOrder sorts known part paths for stable, reproducible
// ZIP output (§4.1): workbook-family parts first in a fixed priority order,
// then everything else lexically.
func deterministicPartOrder(paths []string) []string {
	priority := map[string]int{
		contentTypesPath:  0,
		rootRelsPath:      1,
		workbookDefaultPath: 2,
		workbookRelsPath:  3,
		stylesPath:        4,
		sharedStringsPath: 5,
	}
	sorted := append([]string(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool {
		pi, oki := priority[sorted[i]]
		pj, okj := priority[sorted[j]]
		switch {
		case oki && okj:
			return pi < pj
		case oki:
			return true
		case okj:
			return false
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted
}

// writeZip emits a deterministic ZIP archive: part order from
// deterministicPartOrder, fixed local-file-header timestamps, known parts
// first and unknown parts last.
func writeZip(known map[string][]byte, knownOrder []string, unknown map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) error {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.Modified = opcFixedTime
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	for _, name := range deterministicPartOrder(knownOrder) {
		if err := write(name, known[name]); err != nil {
			return nil, wrapErr(ErrPackageCorrupt, "writeZip", fmt.Sprintf("writing part %q", name), err)
		}
	}
	unknownNames := make([]string, 0, len(unknown))
	for name := range unknown {
		unknownNames = append(unknownNames, name)
	}
	sort.Strings(unknownNames)
	for _, name := range unknownNames {
		if err := write(name, unknown[name]); err != nil {
			return nil, wrapErr(ErrPackageCorrupt, "writeZip", fmt.Sprintf("writing unknown part %q", name), err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "writeZip", "closing ZIP writer", err)
	}
	return buf.Bytes(), nil
}

// buildContentTypes derives [Content_Types].xml from the set of parts the
// library is about to write, per §4.1's content-types policy: Default
// entries for common extensions, Override entries for parts whose content
// type isn't implied by extension alone. Overrides present in the original
// package that referred to parts the library doesn't itself model are
// never re-added; this is the documented limitation in §4.1.
func buildContentTypes(overridesByPath map[string]string) *xlsxTypes {
	ct := &xlsxTypes{
		Defaults: []xlsxDefault{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
	}
	paths := make([]string, 0, len(overridesByPath))
	for p := range overridesByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		ct.Overrides = append(ct.Overrides, xlsxOverride{PartName: "/" + p, ContentType: overridesByPath[p]})
	}
	return ct
}

func marshalContentTypes(ct *xlsxTypes) []byte {
	b, _ := xml.Marshal(ct)
	return append([]byte(xml.Header), b...)
}
