// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// File is the in-memory representation of one .xlsx/.xlsm/.xltx/.xltm/.xlam
// package, tying together the OPC part set, the workbook data model, and
// the style/shared-string registries. The zero value is not usable;
// construct one with NewFile or OpenReader.
type File struct {
	mu sync.RWMutex

	path   string
	format Format

	sheetOrder []string
	sheets     map[string]*Sheet
	visibility map[string]Visibility
	nextSheet  int // next sheetId to assign in xl/workbook.xml

	styles *styleRegistry
	sst    *sharedPool

	definedNames []DefinedName
	docProps     DocProperties
	appProps     AppProperties
	customProps  []CustomProperty
	protection   WorkbookProtection

	Date1904 bool
	CodeName string

	vbaProject []byte

	rels *relGraph

	media *mediaPool

	// unknownParts holds every package part the model doesn't itself
	// understand (charts, pivot caches, custom XML, media, ...), keyed by
	// path. They are carried through read-modify-write untouched, per
	// §9's "unknown parts survive round-trip" invariant.
	unknownParts map[string][]byte
	partOrder    []string // original order, for parts this session didn't touch

	opts Options
}

// NewFile returns an empty workbook with a single visible sheet named
// "Sheet1".
func NewFile() *File {
	f := &File{
		sheets:       make(map[string]*Sheet),
		visibility:   make(map[string]Visibility),
		styles:       newStyleRegistry(),
		sst:          newSharedPool(),
		rels:         newRelGraph(),
		unknownParts: make(map[string][]byte),
		opts:         Options{}.withDefaults(),
		nextSheet:    1,
	}
	f.sheets[defaultSheetName] = newSheet()
	f.sheetOrder = append(f.sheetOrder, defaultSheetName)
	f.visibility[defaultSheetName] = VisibilityVisible
	f.nextSheet = 2
	return f
}

// OpenFile reads a workbook from disk.
func OpenFile(filename string, opts ...Options) (*File, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "OpenFile", fmt.Sprintf("reading %q", filename), err)
	}
	f, err := OpenReader(bytes.NewReader(b), opts...)
	if err != nil {
		return nil, err
	}
	f.path = filename
	return f, nil
}

// OpenReader reads a workbook package from r.
func OpenReader(r io.Reader, opts ...Options) (*File, error) {
	o := mergeOptions(opts)
	raw, err := io.ReadAll(io.LimitReader(r, o.UnzipSizeLimit+1))
	if err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "OpenReader", "reading package stream", err)
	}
	if int64(len(raw)) > o.UnzipSizeLimit {
		return nil, newErr(ErrPackageCorrupt, "OpenReader", "package exceeds UnzipSizeLimit")
	}
	if isCFBContainer(raw) {
		if o.Password == "" {
			return nil, newErr(ErrFileEncrypted, "OpenReader", "package is encrypted, a password is required")
		}
		raw, err = decryptPackage(raw, o.Password)
		if err != nil {
			return nil, err
		}
	}
	return parsePackage(raw, o)
}

func parsePackage(raw []byte, o Options) (*File, error) {
	entries, err := readZip(raw)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string][]byte, len(entries))
	order := make([]string, 0, len(entries))
	var total int64
	for _, e := range entries {
		total += int64(len(e.data))
		if total > o.UnzipSizeLimit {
			return nil, newErr(ErrPackageCorrupt, "OpenReader", "uncompressed package exceeds UnzipSizeLimit")
		}
		if strings.HasSuffix(e.path, ".xml") && int64(len(e.data)) > o.UnzipXMLSizeLimit {
			return nil, newErr(ErrPackageCorrupt, "OpenReader", fmt.Sprintf("part %q exceeds UnzipXMLSizeLimit", e.path))
		}
		byPath[e.path] = e.data
		order = append(order, e.path)
	}

	f := &File{
		sheets:       make(map[string]*Sheet),
		visibility:   make(map[string]Visibility),
		rels:         newRelGraph(),
		unknownParts: make(map[string][]byte),
		opts:         o,
		partOrder:    order,
	}

	wbData, ok := byPath[workbookDefaultPath]
	if !ok {
		return nil, newErr(ErrPackageCorrupt, "OpenReader", "missing xl/workbook.xml")
	}
	pw, err := parseWorkbookXML(wbData)
	if err != nil {
		return nil, err
	}
	f.Date1904 = pw.date1904
	f.CodeName = pw.codeName

	wbRels, err := parseRelationships(byPath[workbookRelsPath])
	if err != nil {
		return nil, err
	}
	ridToTarget := make(map[string]string, len(wbRels.Relationships))
	for _, rel := range wbRels.Relationships {
		ridToTarget[rel.ID] = resolveTarget(workbookDefaultPath, rel.Target)
	}

	f.styles, err = parseStylesXML(byPath[stylesPath])
	if err != nil {
		return nil, err
	}
	f.sst, err = parseSharedStringsXML(byPath[sharedStringsPath])
	if err != nil {
		return nil, err
	}

	for _, xs := range pw.sheets {
		target, ok := ridToTarget[xs.ID]
		if !ok {
			return nil, wrapErr(ErrPartMissing, "OpenReader", fmt.Sprintf("sheet %q has no matching relationship", xs.Name), nil)
		}
		data, ok := byPath[target]
		if !ok {
			return nil, wrapErr(ErrPartMissing, "OpenReader", fmt.Sprintf("sheet part %q is missing", target), nil)
		}
		sh, err := readWorksheetXML(data, f.styles, f.sst)
		if err != nil {
			return nil, err
		}
		sh.Visibility = parseVisibility(xs.State)
		f.sheets[xs.Name] = sh
		f.sheetOrder = append(f.sheetOrder, xs.Name)
		f.visibility[xs.Name] = sh.Visibility
		delete(byPath, target)
	}
	if len(f.sheetOrder) == 0 {
		return nil, newErr(ErrPackageCorrupt, "OpenReader", "workbook has no sheets")
	}
	f.nextSheet = len(f.sheetOrder) + 1
	f.definedNames = pw.definedNames

	if cp, ok := byPath[docPropsCorePath]; ok {
		f.docProps, err = parseCoreProps(cp)
		if err != nil {
			return nil, err
		}
		delete(byPath, docPropsCorePath)
	}
	if ap, ok := byPath[docPropsAppPath]; ok {
		f.appProps, err = parseAppProps(ap)
		if err != nil {
			return nil, err
		}
		delete(byPath, docPropsAppPath)
	}
	if cp, ok := byPath[docPropsCustomPath]; ok {
		f.customProps, err = parseCustomProps(cp)
		if err != nil {
			return nil, err
		}
		delete(byPath, docPropsCustomPath)
	}
	if vba, ok := byPath[vbaProjectPath]; ok {
		f.vbaProject = vba
		delete(byPath, vbaProjectPath)
		f.format = FormatXLSM
	}

	delete(byPath, contentTypesPath)
	delete(byPath, rootRelsPath)
	delete(byPath, workbookDefaultPath)
	delete(byPath, workbookRelsPath)
	delete(byPath, stylesPath)
	delete(byPath, sharedStringsPath)
	for p, data := range byPath {
		f.unknownParts[p] = data
	}
	return f, nil
}

// isCFBContainer reports whether raw begins with the OLE Compound File
// Binary magic number, which is how ECMA-376 Standard/Agile encrypted
// packages are framed (§4.6): the ZIP package becomes the EncryptedPackage
// stream inside a CFB container instead of being the top-level file.
func isCFBContainer(raw []byte) bool {
	magic := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	return len(raw) >= 8 && bytes.Equal(raw[:8], magic)
}

// SheetList returns the sheet names in workbook tab order.
func (f *File) SheetList() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.sheetOrder...)
}

// NewSheet appends a new empty visible sheet and returns its tab index.
func (f *File) NewSheet(name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.sheets[name]; exists {
		return 0, newErr(ErrDuplicateName, "NewSheet", fmt.Sprintf("sheet %q already exists", name))
	}
	f.sheets[name] = newSheet()
	f.sheetOrder = append(f.sheetOrder, name)
	f.visibility[name] = VisibilityVisible
	f.nextSheet++
	return len(f.sheetOrder) - 1, nil
}

// DeleteSheet removes a sheet. Per §3's invariant, the workbook must always
// keep at least one visible sheet; deleting the last visible one is refused.
func (f *File) DeleteSheet(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sheets[name]; !ok {
		return newNoExistSheetError(name)
	}
	visibleLeft := 0
	for _, n := range f.sheetOrder {
		if n != name && f.visibility[n] == VisibilityVisible {
			visibleLeft++
		}
	}
	if visibleLeft == 0 {
		return newErr(ErrProtectionViolation, "DeleteSheet", "workbook must retain at least one visible sheet")
	}
	delete(f.sheets, name)
	delete(f.visibility, name)
	for i, n := range f.sheetOrder {
		if n == name {
			f.sheetOrder = append(f.sheetOrder[:i], f.sheetOrder[i+1:]...)
			break
		}
	}
	return nil
}

// SetSheetVisible sets a sheet's tab-bar visibility. Hiding the last visible
// sheet is refused, matching DeleteSheet's invariant.
func (f *File) SetSheetVisible(name string, v Visibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sheets[name]; !ok {
		return newNoExistSheetError(name)
	}
	if v != VisibilityVisible {
		visibleLeft := 0
		for _, n := range f.sheetOrder {
			if n != name && f.visibility[n] == VisibilityVisible {
				visibleLeft++
			}
		}
		if visibleLeft == 0 {
			return newErr(ErrProtectionViolation, "SetSheetVisible", "workbook must retain at least one visible sheet")
		}
	}
	f.visibility[name] = v
	f.sheets[name].Visibility = v
	return nil
}

// GetSheetVisible returns a sheet's tab-bar visibility.
func (f *File) GetSheetVisible(name string) (Visibility, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.visibility[name]
	if !ok {
		return "", newNoExistSheetError(name)
	}
	return v, nil
}

func (f *File) sheet(name string) (*Sheet, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	sh, ok := f.sheets[name]
	if !ok {
		return nil, newNoExistSheetError(name)
	}
	return sh, nil
}

// SetCellValue sets a cell's value from a native Go type: string, bool, any
// integer/float kind (stored as CellNumber), or time.Time (stored as
// CellDate, converted to the workbook's date system). Any other type is
// stored via its fmt.Sprintf("%v") text form.
func (f *File) SetCellValue(sheetName, cell string, value interface{}) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return err
	}
	c, err := valueToCell(value, f.Date1904)
	if err != nil {
		return err
	}
	sh.SetCell(col, row, c)
	return nil
}

func valueToCell(value interface{}, date1904 bool) (Cell, error) {
	switch v := value.(type) {
	case nil:
		return Cell{}, nil
	case Cell:
		return v, nil
	case bool:
		return NewBoolCell(v), nil
	case string:
		return NewStringCell(v), nil
	case int:
		return NewNumberCell(float64(v)), nil
	case int8:
		return NewNumberCell(float64(v)), nil
	case int16:
		return NewNumberCell(float64(v)), nil
	case int32:
		return NewNumberCell(float64(v)), nil
	case int64:
		return NewNumberCell(float64(v)), nil
	case uint:
		return NewNumberCell(float64(v)), nil
	case uint8:
		return NewNumberCell(float64(v)), nil
	case uint16:
		return NewNumberCell(float64(v)), nil
	case uint32:
		return NewNumberCell(float64(v)), nil
	case uint64:
		return NewNumberCell(float64(v)), nil
	case float32:
		return NewNumberCell(float64(v)), nil
	case float64:
		return NewNumberCell(v), nil
	case time.Time:
		return NewDateCell(TimeToExcelSerial(v, date1904)), nil
	default:
		return NewStringCell(fmt.Sprintf("%v", v)), nil
	}
}

// GetCellValue returns a cell's display-oriented string form: formula cells
// return their cached result's text, and numeric and date cells use a short
// round-trippable decimal form (a date cell returns its serial number; the
// style's number format is not applied, see FormattedValue).
func (f *File) GetCellValue(sheetName, cell string) (string, error) {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return "", err
	}
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return "", err
	}
	c := sh.GetCell(col, row)
	return cellDisplayString(c), nil
}

func cellDisplayString(c Cell) string {
	switch c.Type {
	case CellEmpty:
		return ""
	case CellNumber, CellDate:
		return formatFloatTrim(c.Number)
	case CellBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	case CellString, CellInlineString, CellError:
		return c.String
	case CellRichString:
		var b strings.Builder
		for _, r := range c.Runs {
			b.WriteString(r.Text)
		}
		return b.String()
	case CellFormula:
		if c.FormulaCache == nil {
			return ""
		}
		return cellDisplayString(Cell{Type: c.FormulaCache.Type, Number: c.FormulaCache.Number, String: c.FormulaCache.String, Bool: c.FormulaCache.Bool})
	default:
		return ""
	}
}

// SetCellFormula sets a formula cell. The formula is not evaluated until
// CalculateAll runs; until then GetCellValue on the same cell returns "".
func (f *File) SetCellFormula(sheetName, cell, formula string) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return err
	}
	sh.SetCell(col, row, NewFormulaCell(strings.TrimPrefix(formula, "=")))
	return nil
}

// GetCellFormula returns a formula cell's expression text, without the
// leading "=".
func (f *File) GetCellFormula(sheetName, cell string) (string, error) {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return "", err
	}
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return "", err
	}
	c := sh.GetCell(col, row)
	if c.Type != CellFormula {
		return "", nil
	}
	return c.Formula, nil
}

// AddStyle interns a Style and returns its id, for use with SetCellStyle.
func (f *File) AddStyle(s Style) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.styles.add(s)
}

// SetCellStyle applies a previously-interned style id to every cell in the
// [topLeft, bottomRight] range (a single cell if the two are equal). Cells
// in the range that hold no value are not stored, so they do not keep the
// style.
func (f *File) SetCellStyle(sheetName, topLeft, bottomRight string, styleID int) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	f.mu.RLock()
	_, err = f.styles.get(styleID)
	f.mu.RUnlock()
	if err != nil {
		return err
	}
	c1, r1, err := CellNameToCoordinates(topLeft)
	if err != nil {
		return err
	}
	c2, r2, err := CellNameToCoordinates(bottomRight)
	if err != nil {
		return err
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			cell := sh.GetCell(c, r)
			cell.StyleID = styleID
			sh.SetCell(c, r, cell)
		}
	}
	return nil
}

// GetCellStyle returns a cell's style id (0 if never set).
func (f *File) GetCellStyle(sheetName, cell string) (int, error) {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return 0, err
	}
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return 0, err
	}
	return sh.GetCell(col, row).StyleID, nil
}

// MergeCell merges the rectangular range [topLeft, bottomRight].
func (f *File) MergeCell(sheetName, topLeft, bottomRight string) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	c1, r1, err := CellNameToCoordinates(topLeft)
	if err != nil {
		return err
	}
	c2, r2, err := CellNameToCoordinates(bottomRight)
	if err != nil {
		return err
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	return sh.addMerge(MergeRange{StartCol: c1, StartRow: r1, EndCol: c2, EndRow: r2})
}

// InsertRows inserts n blank rows before row at, shifting cells, row
// metadata and merges at or below down and adjusting every formula
// reference in the workbook (§3).
func (f *File) InsertRows(sheetName string, at, n int) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	if n <= 0 {
		return newErr(ErrCellRefInvalid, "InsertRows", "n must be positive")
	}
	sh.insertRows(at, n)
	f.adjustFormulas(sheetName, rows, at, n)
	return nil
}

// RemoveRows deletes the n rows starting at at, shifting rows below up.
func (f *File) RemoveRows(sheetName string, at, n int) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	if n <= 0 {
		return newErr(ErrCellRefInvalid, "RemoveRows", "n must be positive")
	}
	sh.removeRows(at, n)
	f.adjustFormulas(sheetName, rows, at, -n)
	return nil
}

// InsertCols inserts n blank columns before column at.
func (f *File) InsertCols(sheetName string, at, n int) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	if n <= 0 {
		return newErr(ErrCellRefInvalid, "InsertCols", "n must be positive")
	}
	sh.insertCols(at, n)
	f.adjustFormulas(sheetName, columns, at, n)
	return nil
}

// RemoveCols deletes the n columns starting at at.
func (f *File) RemoveCols(sheetName string, at, n int) error {
	sh, err := f.sheet(sheetName)
	if err != nil {
		return err
	}
	if n <= 0 {
		return newErr(ErrCellRefInvalid, "RemoveCols", "n must be positive")
	}
	sh.removeCols(at, n)
	f.adjustFormulas(sheetName, columns, at, -n)
	return nil
}

// AddVBAProject attaches a raw xl/vbaProject.bin stream and switches the
// package format to a macro-enabled one, promoting .xlsx to .xlsm on save.
func (f *File) AddVBAProject(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vbaProject = append([]byte(nil), data...)
	switch f.format {
	case FormatXLTX:
		f.format = FormatXLTM
	default:
		f.format = FormatXLSM
	}
}

// SetDocProps replaces the workbook's core document properties.
func (f *File) SetDocProps(p DocProperties) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docProps = p
}

// GetDocProps returns the workbook's core document properties.
func (f *File) GetDocProps() DocProperties {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.docProps
}

// SetDefinedName adds or replaces (by Name+Scope) a defined name.
func (f *File) SetDefinedName(dn DefinedName) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.definedNames {
		if existing.Name == dn.Name && existing.Scope == dn.Scope {
			f.definedNames[i] = dn
			return nil
		}
	}
	f.definedNames = append(f.definedNames, dn)
	return nil
}

// GetDefinedNames returns every workbook- and sheet-scoped defined name.
func (f *File) GetDefinedNames() []DefinedName {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]DefinedName(nil), f.definedNames...)
}

// Bytes serializes the workbook to its package bytes, applying Password
// from opts (if any) to encrypt the result per §4.6.
func (f *File) Bytes(opts ...Options) ([]byte, error) {
	o := f.opts
	if len(opts) > 0 {
		o = opts[0].withDefaults()
	}
	raw, err := f.buildPackage()
	if err != nil {
		return nil, err
	}
	if o.Password != "" {
		return encryptPackage(raw, o.Password)
	}
	return raw, nil
}

// WriteTo writes the serialized package to w, satisfying io.WriterTo.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// SaveAs writes the workbook to filename, optionally encrypting it first.
func (f *File) SaveAs(filename string, opts ...Options) error {
	b, err := f.Bytes(opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, b, 0o644); err != nil {
		return wrapErr(ErrPackageCorrupt, "SaveAs", fmt.Sprintf("writing %q", filename), err)
	}
	f.path = filename
	return nil
}

// Save writes the workbook back to the path it was opened from (or last
// saved to); it is an error to call Save on a File with no known path.
func (f *File) Save(opts ...Options) error {
	if f.path == "" {
		return newErr(ErrPackageCorrupt, "Save", "file has no path; use SaveAs")
	}
	return f.SaveAs(f.path, opts...)
}

// buildPackage renders every known part plus the untouched unknown-part
// pool into a deterministic ZIP/OPC byte stream.
func (f *File) buildPackage() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	visibleLeft := 0
	for _, n := range f.sheetOrder {
		if f.visibility[n] == VisibilityVisible {
			visibleLeft++
		}
	}
	if visibleLeft == 0 {
		return nil, newErr(ErrProtectionViolation, "buildPackage", "workbook must retain at least one visible sheet")
	}

	known := make(map[string][]byte)
	var order []string
	put := func(p string, data []byte) {
		known[p] = data
		order = append(order, p)
	}

	put(workbookDefaultPath, f.marshalWorkbookXML())
	put(stylesPath, marshalStylesXML(f.styles))
	if f.sst != nil && f.sst.isUsed() {
		put(sharedStringsPath, marshalSharedStringsXML(f.sst))
	}
	put(docPropsCorePath, marshalCoreProps(f.docProps))
	put(docPropsAppPath, marshalAppProps(f.appProps))
	if len(f.customProps) > 0 {
		put(docPropsCustomPath, marshalCustomProps(f.customProps))
	}

	wbRels := &relationshipList{}
	overrides := map[string]string{
		workbookDefaultPath: contentTypeForFormat(f.format),
		stylesPath:          ctStyles,
		docPropsCorePath:    ctCoreProps,
		docPropsAppPath:     ctExtendedProps,
	}
	if len(f.customProps) > 0 {
		overrides[docPropsCustomPath] = ctCustomProps
	}
	if f.sst != nil && f.sst.isUsed() {
		overrides[sharedStringsPath] = ctSharedStrings
	}
	for i, name := range f.sheetOrder {
		partPath := fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		put(partPath, writeWorksheetXML(f.sheets[name]))
		overrides[partPath] = ctWorksheet
		wbRels.Relationships = append(wbRels.Relationships, Relationship{
			ID: "rId" + strconv.Itoa(i+1), Type: relTypeWorksheet, Target: fmt.Sprintf("worksheets/sheet%d.xml", i+1),
		})
	}
	wbRels.Relationships = append(wbRels.Relationships,
		Relationship{ID: "rId" + strconv.Itoa(len(f.sheetOrder)+1), Type: relTypeStyles, Target: "styles.xml"})
	if f.sst != nil && f.sst.isUsed() {
		wbRels.Relationships = append(wbRels.Relationships,
			Relationship{ID: "rId" + strconv.Itoa(len(f.sheetOrder)+2), Type: relTypeSharedStrings, Target: "sharedStrings.xml"})
	}
	put(workbookRelsPath, marshalRelationships(wbRels))

	rootRels := &relationshipList{Relationships: []Relationship{
		{ID: "rId1", Type: relTypeOfficeDocument, Target: "xl/workbook.xml"},
		{ID: "rId2", Type: relTypeCoreProps, Target: "docProps/core.xml"},
		{ID: "rId3", Type: relTypeExtendedProps, Target: "docProps/app.xml"},
	}}
	if len(f.customProps) > 0 {
		rootRels.Relationships = append(rootRels.Relationships,
			Relationship{ID: "rId4", Type: relTypeCustomProps, Target: "docProps/custom.xml"})
	}
	put(rootRelsPath, marshalRelationships(rootRels))

	if f.vbaProject != nil {
		put(vbaProjectPath, f.vbaProject)
		overrides[vbaProjectPath] = ctVBAProject
	}

	ct := buildContentTypes(overrides)
	put(contentTypesPath, marshalContentTypes(ct))

	return writeZip(known, order, f.unknownParts)
}

func contentTypeForFormat(fm Format) string {
	switch fm {
	case FormatXLSM, FormatXLTM:
		return ctWorkbookMacro
	default:
		return ctWorkbook
	}
}
