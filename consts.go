// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

// Column and row bounds, matching the limits Excel itself enforces.
const (
	// MinColumns is the smallest legal 1-based column number.
	MinColumns = 1
	// MaxColumns is XFD, the largest legal 1-based column number.
	MaxColumns = 16384
	// TotalRows is the largest legal 1-based row number.
	TotalRows = 1048576
)

// OPC well-known paths.
const (
	contentTypesPath      = "[Content_Types].xml"
	rootRelsPath          = "_rels/.rels"
	workbookDefaultPath   = "xl/workbook.xml"
	workbookRelsPath      = "xl/_rels/workbook.xml.rels"
	stylesPath            = "xl/styles.xml"
	sharedStringsPath     = "xl/sharedStrings.xml"
	themePath             = "xl/theme/theme1.xml"
	docPropsCorePath      = "docProps/core.xml"
	docPropsAppPath       = "docProps/app.xml"
	docPropsCustomPath    = "docProps/custom.xml"
	vbaProjectPath        = "xl/vbaProject.bin"
)

// Relationship type URIs the model understands. Unrecognized rel types are
// left in the unknown-parts pool untouched.
const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeWorksheet      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	relTypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeSharedStrings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	relTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypeCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relTypeCustomProps    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/custom-properties"
	relTypeHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relTypeDrawing        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/drawing"
	relTypeChart          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeComments       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	relTypeVMLDrawing     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/vmlDrawing"
	relTypeTable          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/table"
	relTypePivotTable     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotTable"
	relTypePivotCacheDef  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotCacheDefinition"
	relTypeVBAProject     = "http://schemas.microsoft.com/office/2006/relationships/vbaProject"
	relTypeSlicer         = "http://schemas.microsoft.com/office/2007/relationships/slicer"

	relModeInternal = "Internal"
	relModeExternal = "External"
)

// Content types for parts the library emits directly.
const (
	ctWorkbook       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	ctWorkbookMacro  = "application/vnd.ms-excel.sheet.macroEnabled.main+xml"
	ctWorksheet      = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ctStyles         = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	ctSharedStrings  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ctTheme          = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctCoreProps      = "application/vnd.openxmlformats-package.core-properties+xml"
	ctExtendedProps  = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctCustomProps    = "application/vnd.openxmlformats-officedocument.custom-properties+xml"
	ctDrawing        = "application/vnd.openxmlformats-officedocument.drawing+xml"
	ctChart          = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"
	ctComments       = "application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml"
	ctVMLDrawing     = "application/vnd.openxmlformats-officedocument.vmlDrawing"
	ctTable          = "application/vnd.openxmlformats-officedocument.spreadsheetml.table+xml"
	ctPivotTable     = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotTable+xml"
	ctPivotCacheDef  = "application/vnd.openxmlformats-officedocument.spreadsheetml.pivotCacheDefinition+xml"
	ctSlicer         = "application/vnd.ms-excel.slicer+xml"
	ctVBAProject     = "application/vnd.ms-office.vbaProject"
)

// builtInDateFormats is the set of built-in number-format ids that the
// reader treats as dates per §4.3's date-detection rule.
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true,
	21: true, 22: true, 45: true, 46: true, 47: true,
}

// Format is the workbook's package-format tag.
type Format int

const (
	// FormatXLSX is a standard workbook.
	FormatXLSX Format = iota
	// FormatXLSM is a macro-enabled workbook.
	FormatXLSM
	// FormatXLTX is a template.
	FormatXLTX
	// FormatXLTM is a macro-enabled template.
	FormatXLTM
	// FormatXLAM is a macro-enabled add-in.
	FormatXLAM
)

// Visibility is a sheet's tab-bar visibility state.
type Visibility string

const (
	// VisibilityVisible is the default, shown in the tab bar.
	VisibilityVisible Visibility = "visible"
	// VisibilityHidden can be unhidden from the Excel UI.
	VisibilityHidden Visibility = "hidden"
	// VisibilityVeryHidden can only be unhidden programmatically.
	VisibilityVeryHidden Visibility = "veryHidden"
)

// defaultSheetName is assigned to the first sheet of a brand-new workbook.
const defaultSheetName = "Sheet1"
