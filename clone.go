// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

// Clone returns an independent deep copy of f: mutating the returned File's
// sheets, styles, or shared strings never affects f. Clone is the cheap way
// to fan a loaded template out into several worksheets-in-progress without
// reopening the package from disk for each one.
//
// This is a hand-written deep copy rather than a reflection-based one: the
// sheet grid, style registry, and shared-string pool all carry unexported
// map fields that hold their actual data, and a reflection copier that
// skips unexported fields (the mohae/deepcopy behavior used elsewhere in
// this ecosystem, but only ever against fully-exported XML DOM structs)
// would silently produce a Clone that shares its source's cells.
func (f *File) Clone() *File {
	f.mu.RLock()
	defer f.mu.RUnlock()

	clone := &File{
		path:         f.path,
		format:       f.format,
		sheetOrder:   append([]string(nil), f.sheetOrder...),
		sheets:       make(map[string]*Sheet, len(f.sheets)),
		visibility:   make(map[string]Visibility, len(f.visibility)),
		nextSheet:    f.nextSheet,
		styles:       cloneStyleRegistry(f.styles),
		sst:          cloneSharedPool(f.sst),
		definedNames: append([]DefinedName(nil), f.definedNames...),
		docProps:     f.docProps,
		appProps:     f.appProps,
		customProps:  append([]CustomProperty(nil), f.customProps...),
		protection:   f.protection,
		Date1904:     f.Date1904,
		CodeName:     f.CodeName,
		vbaProject:   append([]byte(nil), f.vbaProject...),
		rels:         cloneRelGraph(f.rels),
		media:        cloneMediaPool(f.media),
		unknownParts: make(map[string][]byte, len(f.unknownParts)),
		partOrder:    append([]string(nil), f.partOrder...),
		opts:         f.opts,
	}
	for name, sh := range f.sheets {
		clone.sheets[name] = cloneSheet(sh)
	}
	for name, v := range f.visibility {
		clone.visibility[name] = v
	}
	for path, data := range f.unknownParts {
		clone.unknownParts[path] = append([]byte(nil), data...)
	}
	return clone
}

func cloneSheet(sh *Sheet) *Sheet {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	out := &Sheet{
		grid:           make(map[cellKey]Cell, len(sh.grid)),
		rows:           make(map[int]*RowMeta, len(sh.rows)),
		cols:           append([]ColMeta(nil), sh.cols...),
		Merges:         append([]MergeRange(nil), sh.Merges...),
		AutoFilterRng:  sh.AutoFilterRng,
		Pane:           sh.Pane,
		Protection:     sh.Protection,
		Visibility:     sh.Visibility,
		Hyperlinks:     make(map[string]Hyperlink, len(sh.Hyperlinks)),
		Comments:       make(map[string]Comment, len(sh.Comments)),
		ConditionalFmt: append([]ConditionalFormat(nil), sh.ConditionalFmt...),
		Validations:    append([]DataValidation(nil), sh.Validations...),
		Drawings:       append([]Drawing(nil), sh.Drawings...),
		Sparklines:     append([]Sparkline(nil), sh.Sparklines...),
		Tables:         append([]Table(nil), sh.Tables...),
		FormControls:   append([]FormControl(nil), sh.FormControls...),
		PivotRefs:      append([]string(nil), sh.PivotRefs...),
		maxRow:         sh.maxRow,
		maxCol:         sh.maxCol,
	}
	for k, v := range sh.grid {
		out.grid[k] = v
	}
	for row, rm := range sh.rows {
		cp := *rm
		out.rows[row] = &cp
	}
	for cell, h := range sh.Hyperlinks {
		out.Hyperlinks[cell] = h
	}
	for cell, c := range sh.Comments {
		out.Comments[cell] = c
	}
	return out
}

func cloneStyleRegistry(r *styleRegistry) *styleRegistry {
	out := &styleRegistry{
		byHash:  make(map[string]int, len(r.byHash)),
		styles:  append([]Style(nil), r.styles...),
		numFmts: make(map[int]string, len(r.numFmts)),
	}
	for k, v := range r.byHash {
		out.byHash[k] = v
	}
	for k, v := range r.numFmts {
		out.numFmts[k] = v
	}
	return out
}

func cloneSharedPool(p *sharedPool) *sharedPool {
	out := &sharedPool{
		byValue: make(map[string]int, len(p.byValue)),
		values:  append([]string(nil), p.values...),
		refs:    p.refs,
	}
	for k, v := range p.byValue {
		out.byValue[k] = v
	}
	return out
}

func cloneMediaPool(p *mediaPool) *mediaPool {
	if p == nil {
		return nil
	}
	out := newMediaPool()
	for _, key := range p.order {
		out.byKey[key] = append([]byte(nil), p.byKey[key]...)
		out.order = append(out.order, key)
	}
	return out
}

func cloneRelGraph(g *relGraph) *relGraph {
	out := newRelGraph()
	for path, l := range g.parts {
		out.parts[path] = &relationshipList{Relationships: append([]Relationship(nil), l.Relationships...)}
	}
	return out
}
