// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// DocProperties holds the core document-properties fields SetDocProps
// accepts: the Dublin Core terms the core.xml part carries.
type DocProperties struct {
	Title          string
	Subject        string
	Creator        string
	Keywords       string
	Description    string
	LastModifiedBy string
	Language       string
	Identifier     string
	Revision       string
	ContentStatus  string
	Category       string
	Version        string
	Created        string
	Modified       string
}

// AppProperties holds the docProps/app.xml fields this package models.
// Other app.xml content, such as HeadingPairs and TitlesOfParts, is not
// kept: it is dropped on open and not written on save.
type AppProperties struct {
	Application string
	Company     string
}

// CustomProperty is one docProps/custom.xml entry; Value holds the
// stringified form, Type records the original VT_* tag so a re-save can
// round-trip the original VT type.
type CustomProperty struct {
	Name  string
	Value string
	Type  string // "lpwstr", "i4", "bool", "filetime", ...
}

type xlsxCoreProperties struct {
	XMLName        xml.Name `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties coreProperties"`
	Title          string   `xml:"http://purl.org/dc/elements/1.1/ title,omitempty"`
	Subject        string   `xml:"http://purl.org/dc/elements/1.1/ subject,omitempty"`
	Creator        string   `xml:"http://purl.org/dc/elements/1.1/ creator,omitempty"`
	Keywords       string   `xml:"keywords,omitempty"`
	Description    string   `xml:"http://purl.org/dc/elements/1.1/ description,omitempty"`
	LastModifiedBy string   `xml:"lastModifiedBy,omitempty"`
	Language       string   `xml:"http://purl.org/dc/elements/1.1/ language,omitempty"`
	Identifier     string   `xml:"http://purl.org/dc/elements/1.1/ identifier,omitempty"`
	Revision       string   `xml:"revision,omitempty"`
	ContentStatus  string   `xml:"contentStatus,omitempty"`
	Category       string   `xml:"category,omitempty"`
	Version        string   `xml:"version,omitempty"`
	Created        *dcTerm  `xml:"http://purl.org/dc/terms/ created,omitempty"`
	Modified       *dcTerm  `xml:"http://purl.org/dc/terms/ modified,omitempty"`
}

type dcTerm struct {
	Type string `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr"`
	Text string `xml:",chardata"`
}

func marshalCoreProps(p DocProperties) []byte {
	out := xlsxCoreProperties{
		Title: p.Title, Subject: p.Subject, Creator: p.Creator, Keywords: p.Keywords,
		Description: p.Description, LastModifiedBy: p.LastModifiedBy, Language: p.Language,
		Identifier: p.Identifier, Revision: p.Revision, ContentStatus: p.ContentStatus,
		Category: p.Category, Version: p.Version,
	}
	if p.Created != "" {
		out.Created = &dcTerm{Type: "dcterms:W3CDTF", Text: p.Created}
	}
	if p.Modified != "" {
		out.Modified = &dcTerm{Type: "dcterms:W3CDTF", Text: p.Modified}
	}
	b, _ := xml.Marshal(out)
	return append([]byte(xml.Header), b...)
}

func parseCoreProps(data []byte) (DocProperties, error) {
	var parsed xlsxCoreProperties
	if len(data) == 0 {
		return DocProperties{}, nil
	}
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return DocProperties{}, wrapErr(ErrPackageCorrupt, "parseCoreProps", "malformed docProps/core.xml", err)
	}
	p := DocProperties{
		Title: parsed.Title, Subject: parsed.Subject, Creator: parsed.Creator, Keywords: parsed.Keywords,
		Description: parsed.Description, LastModifiedBy: parsed.LastModifiedBy, Language: parsed.Language,
		Identifier: parsed.Identifier, Revision: parsed.Revision, ContentStatus: parsed.ContentStatus,
		Category: parsed.Category, Version: parsed.Version,
	}
	if parsed.Created != nil {
		p.Created = parsed.Created.Text
	}
	if parsed.Modified != nil {
		p.Modified = parsed.Modified.Text
	}
	return p, nil
}

type xlsxAppProperties struct {
	XMLName     xml.Name `xml:"http://schemas.openxmlformats.org/officeDocument/2006/extended-properties Properties"`
	Application string   `xml:"Application,omitempty"`
	Company     string   `xml:"Company,omitempty"`
}

// marshalAppProps renders docProps/app.xml. Application/Company are the
// only fields this package models and the only ones it writes.
func marshalAppProps(p AppProperties) []byte {
	out := xlsxAppProperties{Application: p.Application, Company: p.Company}
	b, _ := xml.Marshal(out)
	return append([]byte(xml.Header), b...)
}

func parseAppProps(data []byte) (AppProperties, error) {
	var parsed xlsxAppProperties
	if len(data) == 0 {
		return AppProperties{}, nil
	}
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return AppProperties{}, wrapErr(ErrPackageCorrupt, "parseAppProps", "malformed docProps/app.xml", err)
	}
	return AppProperties{Application: parsed.Application, Company: parsed.Company}, nil
}

// marshalCustomProps renders docProps/custom.xml. The vt: type element is
// written by hand rather than through encoding/xml, which has no clean way
// to emit a caller-chosen namespace prefix; fmtid is the fixed GUID every
// custom property in the part shares, and pid starts at 2 since 0 and 1 are
// reserved by the OOXML custom-properties schema.
func marshalCustomProps(props []CustomProperty) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/custom-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">`)
	for i, p := range props {
		typ := p.Type
		if typ == "" {
			typ = "lpwstr"
		}
		fmt.Fprintf(&b, `<property fmtid="{D5CDD505-2E9C-101B-9397-08002B2CF9AE}" pid="%d" name="%s">`, i+2, xmlEscape(p.Name))
		fmt.Fprintf(&b, `<vt:%s>%s</vt:%s>`, typ, xmlEscape(p.Value), typ)
		b.WriteString(`</property>`)
	}
	b.WriteString(`</Properties>`)
	return b.Bytes()
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type xlsxCustomProperties struct {
	XMLName    xml.Name             `xml:"Properties"`
	Properties []xlsxCustomProperty `xml:"property"`
}

type xlsxCustomProperty struct {
	Name  string `xml:"name,attr"`
	Value struct {
		XMLName xml.Name
		Text    string `xml:",chardata"`
	} `xml:",any"`
}

func parseCustomProps(data []byte) ([]CustomProperty, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var parsed xlsxCustomProperties
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "parseCustomProps", "malformed docProps/custom.xml", err)
	}
	props := make([]CustomProperty, 0, len(parsed.Properties))
	for _, p := range parsed.Properties {
		props = append(props, CustomProperty{Name: p.Name, Value: p.Value.Text, Type: p.Value.XMLName.Local})
	}
	return props, nil
}
