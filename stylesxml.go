// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"encoding/xml"
	"strconv"
)

type xlsxNumFmt struct {
	NumFmtID   int    `xml:"numFmtId,attr"`
	FormatCode string `xml:"formatCode,attr"`
}

type xlsxFontXML struct {
	Name      *xlsxVal `xml:"name"`
	Sz        *xlsxVal `xml:"sz"`
	B         *struct{} `xml:"b"`
	I         *struct{} `xml:"i"`
	U         *struct{} `xml:"u"`
	Strike    *struct{} `xml:"strike"`
	Color     *xlsxColor `xml:"color"`
	Family    *xlsxVal `xml:"family"`
}

type xlsxVal struct {
	Val string `xml:"val,attr"`
}

type xlsxColor struct {
	RGB     string `xml:"rgb,attr,omitempty"`
	Theme   *int   `xml:"theme,attr"`
	Tint    float64 `xml:"tint,attr,omitempty"`
	Indexed *int   `xml:"indexed,attr"`
}

type xlsxPatternFill struct {
	PatternType string     `xml:"patternType,attr,omitempty"`
	FgColor     *xlsxColor `xml:"fgColor"`
	BgColor     *xlsxColor `xml:"bgColor"`
}

type xlsxFillXML struct {
	PatternFill *xlsxPatternFill `xml:"patternFill"`
}

type xlsxBorderPr struct {
	Style string     `xml:"style,attr,omitempty"`
	Color *xlsxColor `xml:"color"`
}

type xlsxBorderXML struct {
	Left     xlsxBorderPr `xml:"left"`
	Right    xlsxBorderPr `xml:"right"`
	Top      xlsxBorderPr `xml:"top"`
	Bottom   xlsxBorderPr `xml:"bottom"`
	Diagonal xlsxBorderPr `xml:"diagonal"`
}

type xlsxAlignmentXML struct {
	Horizontal   string `xml:"horizontal,attr,omitempty"`
	Vertical     string `xml:"vertical,attr,omitempty"`
	WrapText     bool   `xml:"wrapText,attr,omitempty"`
	TextRotation int    `xml:"textRotation,attr,omitempty"`
	Indent       int    `xml:"indent,attr,omitempty"`
	ShrinkToFit  bool   `xml:"shrinkToFit,attr,omitempty"`
}

type xlsxProtectionXML struct {
	Locked bool `xml:"locked,attr"`
	Hidden bool `xml:"hidden,attr"`
}

type xlsxXf struct {
	NumFmtID      int                `xml:"numFmtId,attr"`
	FontID        int                `xml:"fontId,attr"`
	FillID        int                `xml:"fillId,attr"`
	BorderID      int                `xml:"borderId,attr"`
	ApplyNumFmt   bool               `xml:"applyNumberFormat,attr,omitempty"`
	Alignment     *xlsxAlignmentXML  `xml:"alignment"`
	Protection    *xlsxProtectionXML `xml:"protection"`
}

type xlsxStyleSheet struct {
	XMLName xml.Name        `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main styleSheet"`
	NumFmts []xlsxNumFmt    `xml:"numFmts>numFmt"`
	Fonts   []xlsxFontXML   `xml:"fonts>font"`
	Fills   []xlsxFillXML   `xml:"fills>fill"`
	Borders []xlsxBorderXML `xml:"borders>border"`
	CellXfs []xlsxXf        `xml:"cellXfs>xf"`
}

// marshalStylesXML serializes the full style registry to xl/styles.xml.
// Every style currently interned is emitted as one <xf>, one <font>, one
// <fill>, and one <border> entry at the same index — the registry's
// dedup guarantee means this is never wasteful for documents built purely
// through the API, and for round-tripped documents it preserves the
// original part's id assignment because reads populate the registry in
// file order.
func marshalStylesXML(r *styleRegistry) []byte {
	r.mu.Lock()
	styles := append([]Style(nil), r.styles...)
	r.mu.Unlock()

	out := xlsxStyleSheet{}
	customFmtID := 164 // first available custom numFmtId per ECMA-376
	fmtIDs := make(map[string]int)
	for _, s := range styles {
		if s.NumberFormat.CustomCode != "" {
			if _, ok := fmtIDs[s.NumberFormat.CustomCode]; !ok {
				fmtIDs[s.NumberFormat.CustomCode] = customFmtID
				out.NumFmts = append(out.NumFmts, xlsxNumFmt{NumFmtID: customFmtID, FormatCode: s.NumberFormat.CustomCode})
				customFmtID++
			}
		}
	}
	for i, s := range styles {
		font := xlsxFontXML{Name: &xlsxVal{Val: s.Font.Name}, Sz: &xlsxVal{Val: formatFloatTrim(s.Font.Size)}}
		if s.Font.Bold {
			font.B = &struct{}{}
		}
		if s.Font.Italic {
			font.I = &struct{}{}
		}
		if s.Font.Underline {
			font.U = &struct{}{}
		}
		if s.Font.Strike {
			font.Strike = &struct{}{}
		}
		if s.Font.Color != "" {
			font.Color = &xlsxColor{RGB: s.Font.Color}
		}
		out.Fonts = append(out.Fonts, font)

		fill := xlsxFillXML{PatternFill: &xlsxPatternFill{PatternType: s.Fill.Pattern}}
		if s.Fill.FgColor != "" {
			fill.PatternFill.FgColor = &xlsxColor{RGB: s.Fill.FgColor}
		}
		if s.Fill.BgColor != "" {
			fill.PatternFill.BgColor = &xlsxColor{RGB: s.Fill.BgColor}
		}
		out.Fills = append(out.Fills, fill)

		border := xlsxBorderXML{
			Left:     xlsxBorderPr{Style: s.Border.Left.Style, Color: colorOrNil(s.Border.Left.Color)},
			Right:    xlsxBorderPr{Style: s.Border.Right.Style, Color: colorOrNil(s.Border.Right.Color)},
			Top:      xlsxBorderPr{Style: s.Border.Top.Style, Color: colorOrNil(s.Border.Top.Color)},
			Bottom:   xlsxBorderPr{Style: s.Border.Bottom.Style, Color: colorOrNil(s.Border.Bottom.Color)},
			Diagonal: xlsxBorderPr{Style: s.Border.Diagonal.Style, Color: colorOrNil(s.Border.Diagonal.Color)},
		}
		out.Borders = append(out.Borders, border)

		numFmtID := s.NumberFormat.BuiltinID
		if s.NumberFormat.CustomCode != "" {
			numFmtID = fmtIDs[s.NumberFormat.CustomCode]
		}
		xf := xlsxXf{NumFmtID: numFmtID, FontID: i, FillID: i, BorderID: i, ApplyNumFmt: numFmtID != 0}
		if s.Alignment != (Alignment{}) {
			xf.Alignment = &xlsxAlignmentXML{
				Horizontal: s.Alignment.Horizontal, Vertical: s.Alignment.Vertical, WrapText: s.Alignment.WrapText,
				TextRotation: s.Alignment.TextRotation, Indent: s.Alignment.Indent, ShrinkToFit: s.Alignment.ShrinkToFit,
			}
		}
		if s.Protection != (Protection{}) {
			xf.Protection = &xlsxProtectionXML{Locked: s.Protection.Locked, Hidden: s.Protection.Hidden}
		}
		out.CellXfs = append(out.CellXfs, xf)
	}
	b, _ := xml.Marshal(out)
	return append([]byte(xml.Header), b...)
}

func colorOrNil(c string) *xlsxColor {
	if c == "" {
		return nil
	}
	return &xlsxColor{RGB: c}
}

// parseStylesXML rebuilds a styleRegistry from an xl/styles.xml part,
// preserving the original cellXfs index-for-index as style ids so that
// cell s= attributes elsewhere in the package keep referring to the right
// style after open.
func parseStylesXML(data []byte) (*styleRegistry, error) {
	r := newStyleRegistry()
	if len(data) == 0 {
		return r, nil
	}
	var parsed xlsxStyleSheet
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, wrapErr(ErrPackageCorrupt, "parseStylesXML", "malformed xl/styles.xml", err)
	}
	customFmts := make(map[int]string)
	for _, nf := range parsed.NumFmts {
		customFmts[nf.NumFmtID] = nf.FormatCode
	}
	r.styles = r.styles[:0]
	r.byHash = make(map[string]int)
	for i, xf := range parsed.CellXfs {
		s := Style{}
		if xf.FontID < len(parsed.Fonts) {
			f := parsed.Fonts[xf.FontID]
			if f.Name != nil {
				s.Font.Name = f.Name.Val
			}
			if f.Sz != nil {
				s.Font.Size, _ = strconv.ParseFloat(f.Sz.Val, 64)
			}
			s.Font.Bold = f.B != nil
			s.Font.Italic = f.I != nil
			s.Font.Underline = f.U != nil
			s.Font.Strike = f.Strike != nil
			if f.Color != nil {
				s.Font.Color = f.Color.RGB
			}
		}
		if xf.FillID < len(parsed.Fills) {
			fl := parsed.Fills[xf.FillID]
			if fl.PatternFill != nil {
				s.Fill.Pattern = fl.PatternFill.PatternType
				if fl.PatternFill.FgColor != nil {
					s.Fill.FgColor = fl.PatternFill.FgColor.RGB
				}
				if fl.PatternFill.BgColor != nil {
					s.Fill.BgColor = fl.PatternFill.BgColor.RGB
				}
			}
		}
		if xf.BorderID < len(parsed.Borders) {
			bd := parsed.Borders[xf.BorderID]
			s.Border.Left = BorderSide{Style: bd.Left.Style, Color: colorRGB(bd.Left.Color)}
			s.Border.Right = BorderSide{Style: bd.Right.Style, Color: colorRGB(bd.Right.Color)}
			s.Border.Top = BorderSide{Style: bd.Top.Style, Color: colorRGB(bd.Top.Color)}
			s.Border.Bottom = BorderSide{Style: bd.Bottom.Style, Color: colorRGB(bd.Bottom.Color)}
			s.Border.Diagonal = BorderSide{Style: bd.Diagonal.Style, Color: colorRGB(bd.Diagonal.Color)}
		}
		if xf.Alignment != nil {
			s.Alignment = Alignment{
				Horizontal: xf.Alignment.Horizontal, Vertical: xf.Alignment.Vertical, WrapText: xf.Alignment.WrapText,
				TextRotation: xf.Alignment.TextRotation, Indent: xf.Alignment.Indent, ShrinkToFit: xf.Alignment.ShrinkToFit,
			}
		}
		if xf.Protection != nil {
			s.Protection = Protection{Locked: xf.Protection.Locked, Hidden: xf.Protection.Hidden}
		}
		if code, ok := customFmts[xf.NumFmtID]; ok {
			s.NumberFormat.CustomCode = code
		} else {
			s.NumberFormat.BuiltinID = xf.NumFmtID
		}
		s = normalizeStyle(s)
		if i == 0 {
			r.styles = append(r.styles, s)
			r.byHash[r.hash(s)] = 0
			continue
		}
		r.styles = append(r.styles, s)
		r.byHash[r.hash(s)] = len(r.styles) - 1
	}
	if len(r.styles) == 0 {
		r.styles = []Style{{}}
		r.byHash[r.hash(Style{})] = 0
	}
	return r, nil
}

func colorRGB(c *xlsxColor) string {
	if c == nil {
		return ""
	}
	return c.RGB
}
