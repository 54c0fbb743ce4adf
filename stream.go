// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"fmt"
)

// streamState tracks a StreamWriter's position in its one-shot protocol
// (§4.5): column settings only before the first row, rows only in strictly
// ascending order, Apply only once.
type streamState int

const (
	streamOpen streamState = iota // accepting column settings or the first row
	streamWriting
	streamApplied
)

// RowOpts carries the per-row settings SetRow accepts alongside a row's
// values: height, visibility, outline level, and a default style for cells
// that don't specify their own.
type RowOpts struct {
	Height     float64
	Hidden     bool
	OutlineLvl int
	StyleID    int
}

// StreamWriter is a forward-only builder for a new worksheet, for the
// write-many-rows-without-materializing-the-grid path §4.5 targets. Create
// one with NewStreamWriter, configure columns, write rows in ascending
// order, then call Apply exactly once to install the finished sheet into
// the workbook.
type StreamWriter struct {
	file  *File
	name  string
	state streamState

	sheet *Sheet

	cols      []ColMeta
	freezeCol int
	freezeRow int

	lastRow int
	tables  []Table
}

// NewStreamWriter begins a streaming sheet named name. name must not
// already exist in the workbook.
func NewStreamWriter(f *File, name string) (*StreamWriter, error) {
	f.mu.RLock()
	_, exists := f.sheets[name]
	f.mu.RUnlock()
	if exists {
		return nil, newErr(ErrDuplicateName, "NewStreamWriter", fmt.Sprintf("sheet %q already exists", name))
	}
	return &StreamWriter{file: f, name: name, sheet: newSheet()}, nil
}

// SetColWidth sets the width of columns [fromCol, toCol] (1-based,
// inclusive). Must be called before the first SetRow.
func (w *StreamWriter) SetColWidth(fromCol, toCol int, width float64) error {
	if w.state != streamOpen {
		return newErr(ErrStreamSealed, "SetColWidth", "column settings must be issued before the first row")
	}
	w.cols = append(w.cols, ColMeta{Min: fromCol, Max: toCol, Width: width})
	return nil
}

// SetColVisible hides or shows columns [fromCol, toCol]. Must be called
// before the first SetRow.
func (w *StreamWriter) SetColVisible(fromCol, toCol int, visible bool) error {
	if w.state != streamOpen {
		return newErr(ErrStreamSealed, "SetColVisible", "column settings must be issued before the first row")
	}
	w.cols = append(w.cols, ColMeta{Min: fromCol, Max: toCol, Hidden: !visible})
	return nil
}

// SetColStyle applies styleID to columns [fromCol, toCol] as their default
// cell style. Must be called before the first SetRow.
func (w *StreamWriter) SetColStyle(fromCol, toCol, styleID int) error {
	if w.state != streamOpen {
		return newErr(ErrStreamSealed, "SetColStyle", "column settings must be issued before the first row")
	}
	w.cols = append(w.cols, ColMeta{Min: fromCol, Max: toCol, StyleID: styleID})
	return nil
}

// SetColOutlineLevel sets the outline (grouping) level of columns
// [fromCol, toCol]. Must be called before the first SetRow.
func (w *StreamWriter) SetColOutlineLevel(fromCol, toCol, level int) error {
	if w.state != streamOpen {
		return newErr(ErrStreamSealed, "SetColOutlineLevel", "column settings must be issued before the first row")
	}
	w.cols = append(w.cols, ColMeta{Min: fromCol, Max: toCol, OutlineLvl: level})
	return nil
}

// SetPanes freezes rows/columns above/left of the given 1-based cell. Must
// be called before the first SetRow.
func (w *StreamWriter) SetPanes(col, row int) error {
	if w.state != streamOpen {
		return newErr(ErrStreamSealed, "SetPanes", "pane settings must be issued before the first row")
	}
	w.freezeCol, w.freezeRow = col, row
	return nil
}

// MergeCell schedules a merge over [topLeft, bottomRight]. Must be called
// before the first SetRow, since the streaming writer never revisits
// earlier rows.
func (w *StreamWriter) MergeCell(topLeft, bottomRight string) error {
	if w.state != streamOpen {
		return newErr(ErrStreamSealed, "MergeCell", "merges must be issued before the first row")
	}
	c1, r1, err := CellNameToCoordinates(topLeft)
	if err != nil {
		return err
	}
	c2, r2, err := CellNameToCoordinates(bottomRight)
	if err != nil {
		return err
	}
	return w.sheet.addMerge(MergeRange{StartCol: c1, StartRow: r1, EndCol: c2, EndRow: r2})
}

// AddTable registers a worksheet table over the streamed range. Must be
// called before the first SetRow; the table's header row is whatever the
// caller later writes at its range's first row.
func (w *StreamWriter) AddTable(t Table) error {
	if w.state != streamOpen {
		return newErr(ErrStreamSealed, "AddTable", "tables must be issued before the first row")
	}
	w.tables = append(w.tables, t)
	return nil
}

// SetRow writes one row of values starting at the given cell's column, at
// the cell's row. Row numbers across successive calls must strictly
// increase. values are converted the same way File.SetCellValue converts
// them (string, bool, numeric kinds, time.Time).
func (w *StreamWriter) SetRow(cell string, values []interface{}, opts ...RowOpts) error {
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return err
	}
	if w.state == streamApplied {
		return newErr(ErrStreamConsumed, "SetRow", "writer already applied")
	}
	if w.state == streamWriting && row <= w.lastRow {
		return newErr(ErrStreamOutOfOrder, "SetRow", fmt.Sprintf("row %d is not after the last written row %d", row, w.lastRow))
	}
	w.state = streamWriting
	w.lastRow = row

	if len(opts) > 0 {
		o := opts[0]
		*w.sheet.RowMetaFor(row) = RowMeta{Height: o.Height, Hidden: o.Hidden, OutlineLvl: o.OutlineLvl, StyleID: o.StyleID, CustomHeight: o.Height > 0}
	}
	for i, v := range values {
		c, err := valueToCell(v, w.file.Date1904)
		if err != nil {
			return err
		}
		w.sheet.SetCell(col+i, row, c)
	}
	return nil
}

// SetRowFormula writes a single formula cell within a streamed row, for
// callers building a sheet with computed columns without materializing a
// mutable grid.
func (w *StreamWriter) SetRowFormula(cell, formula string) error {
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return err
	}
	if w.state == streamApplied {
		return newErr(ErrStreamConsumed, "SetRowFormula", "writer already applied")
	}
	w.sheet.SetCell(col, row, NewFormulaCell(formula))
	return nil
}

// Apply installs the finished sheet into the workbook and returns its tab
// index. A writer may be applied at most once.
func (w *StreamWriter) Apply() (int, error) {
	if w.state == streamApplied {
		return 0, newErr(ErrStreamConsumed, "Apply", "writer already applied")
	}
	w.sheet.cols = w.cols
	w.sheet.Tables = w.tables
	if w.freezeRow > 0 || w.freezeCol > 0 {
		w.sheet.Pane = PaneState{Frozen: true, XSplit: float64(w.freezeCol - 1), YSplit: float64(w.freezeRow - 1)}
	}

	w.file.mu.Lock()
	defer w.file.mu.Unlock()
	if _, exists := w.file.sheets[w.name]; exists {
		return 0, newErr(ErrDuplicateName, "Apply", fmt.Sprintf("sheet %q already exists", w.name))
	}
	w.file.sheets[w.name] = w.sheet
	w.file.sheetOrder = append(w.file.sheetOrder, w.name)
	w.file.visibility[w.name] = VisibilityVisible
	w.file.nextSheet++
	w.state = streamApplied
	return len(w.file.sheetOrder) - 1, nil
}
