// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"encoding/xml"
	"strconv"
)

// DefinedName is a workbook- or sheet-scoped named range (§3 EXPANSION).
type DefinedName struct {
	Name     string
	Scope    string // "Workbook" or a sheet name
	RefersTo string
	Comment  string
	Hidden   bool
}

// WorkbookProtection mirrors a sheet's SheetProtection but at workbook
// scope (structure/windows locking).
type WorkbookProtection struct {
	Enabled        bool
	PasswordHash   string
	LockStructure  bool
	LockWindows    bool
}

// xlsxWorkbookPr models the <workbookPr> element.
type xlsxWorkbookPr struct {
	Date1904      bool   `xml:"date1904,attr,omitempty"`
	FilterPrivacy bool   `xml:"filterPrivacy,attr,omitempty"`
	CodeName      string `xml:"codeName,attr,omitempty"`
}

// xlsxSheet is one <sheet> entry in <sheets>.
type xlsxSheet struct {
	Name       string `xml:"name,attr"`
	SheetID    int    `xml:"sheetId,attr"`
	State      string `xml:"state,attr,omitempty"`
	ID         string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// xlsxDefinedName is one <definedName> entry.
type xlsxDefinedName struct {
	Name         string `xml:"name,attr"`
	LocalSheetID *int   `xml:"localSheetId,attr"`
	Hidden       bool   `xml:"hidden,attr,omitempty"`
	Comment      string `xml:"comment,attr,omitempty"`
	Data         string `xml:",chardata"`
}

// xlsxWorkbook is the parsed form of xl/workbook.xml.
type xlsxWorkbook struct {
	XMLName      xml.Name          `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main workbook"`
	WorkbookPr   *xlsxWorkbookPr   `xml:"workbookPr"`
	Sheets       []xlsxSheet       `xml:"sheets>sheet"`
	DefinedNames []xlsxDefinedName `xml:"definedNames>definedName"`
}

// marshalWorkbookXML serializes the workbook-level XML part from a File's
// in-memory sheet order, defined names, and Date1904 setting.
func (f *File) marshalWorkbookXML() []byte {
	wb := xlsxWorkbook{
		WorkbookPr: &xlsxWorkbookPr{Date1904: f.Date1904, CodeName: f.CodeName},
	}
	for i, name := range f.sheetOrder {
		wb.Sheets = append(wb.Sheets, xlsxSheet{
			Name:    name,
			SheetID: i + 1,
			State:   visibilityState(f.visibility[name]),
			ID:      "rId" + strconv.Itoa(i+1),
		})
	}
	for _, dn := range f.definedNames {
		localID := (*int)(nil)
		if dn.Scope != "Workbook" {
			if idx := f.sheetIndex(dn.Scope); idx >= 0 {
				v := idx
				localID = &v
			}
		}
		wb.DefinedNames = append(wb.DefinedNames, xlsxDefinedName{
			Name: dn.Name, LocalSheetID: localID, Hidden: dn.Hidden, Comment: dn.Comment, Data: dn.RefersTo,
		})
	}
	b, _ := xml.Marshal(wb)
	return append([]byte(xml.Header), b...)
}

func visibilityState(v Visibility) string {
	switch v {
	case VisibilityHidden:
		return "hidden"
	case VisibilityVeryHidden:
		return "veryHidden"
	default:
		return ""
	}
}

func (f *File) sheetIndex(name string) int {
	for i, n := range f.sheetOrder {
		if n == name {
			return i
		}
	}
	return -1
}

// parsedWorkbook is what parseWorkbookXML extracts from xl/workbook.xml
// before the rels graph has been consulted to turn each <sheet>'s r:id into
// a part path; the caller (OpenReader) joins the two.
type parsedWorkbook struct {
	date1904     bool
	codeName     string
	sheets       []xlsxSheet
	definedNames []DefinedName
}

func parseWorkbookXML(data []byte) (*parsedWorkbook, error) {
	var wb xlsxWorkbook
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "parseWorkbookXML", "malformed xl/workbook.xml", err)
	}
	pw := &parsedWorkbook{sheets: wb.Sheets}
	if wb.WorkbookPr != nil {
		pw.date1904 = wb.WorkbookPr.Date1904
		pw.codeName = wb.WorkbookPr.CodeName
	}
	for _, dn := range wb.DefinedNames {
		scope := "Workbook"
		if dn.LocalSheetID != nil && *dn.LocalSheetID < len(wb.Sheets) {
			scope = wb.Sheets[*dn.LocalSheetID].Name
		}
		pw.definedNames = append(pw.definedNames, DefinedName{
			Name: dn.Name, Scope: scope, RefersTo: dn.Data, Hidden: dn.Hidden, Comment: dn.Comment,
		})
	}
	return pw, nil
}

func parseVisibility(state string) Visibility {
	switch state {
	case "hidden":
		return VisibilityHidden
	case "veryHidden":
		return VisibilityVeryHidden
	default:
		return VisibilityVisible
	}
}
