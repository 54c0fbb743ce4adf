// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Font is the font component of a Style.
type Font struct {
	Name      string
	Size      float64
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Color     string // ARGB, e.g. "FF000000"
	Family    int
}

// GradientStop is one color stop of a Fill's gradient.
type GradientStop struct {
	Position float64
	Color    string
}

// Fill is the fill component of a Style: either a solid/patterned fill
// (Pattern != "") or a gradient (len(Stops) > 0).
type Fill struct {
	Pattern string // "none", "solid", "darkGray", ...
	FgColor string
	BgColor string
	Type    string // "pattern" or "gradient"
	Stops   []GradientStop
	Angle   float64
}

// BorderSide is one edge of a Border.
type BorderSide struct {
	Style string // "thin", "medium", "dashed", ...
	Color string
}

// Border is the five-sided border component of a Style.
type Border struct {
	Left     BorderSide
	Right    BorderSide
	Top      BorderSide
	Bottom   BorderSide
	Diagonal BorderSide
}

// Alignment is the alignment component of a Style.
type Alignment struct {
	Horizontal   string
	Vertical     string
	WrapText     bool
	TextRotation int
	Indent       int
	ShrinkToFit  bool
}

// NumberFormat is the number-format component of a Style: either a built-in
// id (CustomCode == "") or a custom format code.
type NumberFormat struct {
	BuiltinID  int
	CustomCode string
}

// Protection is the locked/hidden component of a Style.
type Protection struct {
	Locked bool
	Hidden bool
}

// Style is the composition of the five style sub-records: font, fill,
// border, alignment, number format, plus cell protection.
type Style struct {
	Font         Font
	Fill         Fill
	Border       Border
	Alignment    Alignment
	NumberFormat NumberFormat
	Protection   Protection
}

// styleRegistry deduplicates Style values by structural hash: two
// structurally equal styles (after color normalization) always receive the
// same id, and the registry never deletes an entry once allocated. Style id
// 0 is reserved for the default style.
type styleRegistry struct {
	mu      sync.Mutex
	byHash  map[string]int
	styles  []Style // index 0 is the reserved default
	numFmts map[int]string
}

func newStyleRegistry() *styleRegistry {
	r := &styleRegistry{
		byHash:  make(map[string]int),
		styles:  []Style{{}},
		numFmts: make(map[int]string),
	}
	r.byHash[r.hash(Style{})] = 0
	return r
}

// add interns a Style and returns its id. Structurally equal styles
// (colors normalized to uppercase ARGB, custom number-format codes compared
// literally) always return the same id — this is a hard invariant, so every
// mutation path that wants a style id must come through here.
func (r *styleRegistry) add(s Style) int {
	s = normalizeStyle(s)
	h := r.hash(s)
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byHash[h]; ok {
		return id
	}
	id := len(r.styles)
	r.styles = append(r.styles, s)
	r.byHash[h] = id
	return id
}

// get returns the Style for id, or ErrStyleIDUnknown if it was never
// allocated.
func (r *styleRegistry) get(id int) (Style, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.styles) {
		return Style{}, newErr(ErrStyleIDUnknown, "GetStyle", fmt.Sprintf("style id %d does not exist", id))
	}
	return r.styles[id], nil
}

func (r *styleRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.styles)
}

// normalizeStyle uppercases ARGB colors so that "ff0000ff" and "FF0000FF"
// dedupe to the same style, per §4.2's dedup rule.
func normalizeStyle(s Style) Style {
	s.Font.Color = strings.ToUpper(s.Font.Color)
	s.Fill.FgColor = strings.ToUpper(s.Fill.FgColor)
	s.Fill.BgColor = strings.ToUpper(s.Fill.BgColor)
	s.Border.Left.Color = strings.ToUpper(s.Border.Left.Color)
	s.Border.Right.Color = strings.ToUpper(s.Border.Right.Color)
	s.Border.Top.Color = strings.ToUpper(s.Border.Top.Color)
	s.Border.Bottom.Color = strings.ToUpper(s.Border.Bottom.Color)
	s.Border.Diagonal.Color = strings.ToUpper(s.Border.Diagonal.Color)
	for i := range s.Fill.Stops {
		s.Fill.Stops[i].Color = strings.ToUpper(s.Fill.Stops[i].Color)
	}
	return s
}

// hash computes a structural digest of a (already normalized) Style. It is
// a plain concatenation of the component fields through SHA-1, which is
// adequate here: this hash is used only for in-process deduplication, never
// as a security boundary.
func (r *styleRegistry) hash(s Style) string {
	var b strings.Builder
	fmt.Fprintf(&b, "font:%s|%g|%t|%t|%t|%t|%s|%d;", s.Font.Name, s.Font.Size, s.Font.Bold, s.Font.Italic, s.Font.Underline, s.Font.Strike, s.Font.Color, s.Font.Family)
	fmt.Fprintf(&b, "fill:%s|%s|%s|%s|%g;", s.Fill.Pattern, s.Fill.FgColor, s.Fill.BgColor, s.Fill.Type, s.Fill.Angle)
	for _, st := range s.Fill.Stops {
		fmt.Fprintf(&b, "stop:%g|%s;", st.Position, st.Color)
	}
	for _, side := range []BorderSide{s.Border.Left, s.Border.Right, s.Border.Top, s.Border.Bottom, s.Border.Diagonal} {
		fmt.Fprintf(&b, "border:%s|%s;", side.Style, side.Color)
	}
	fmt.Fprintf(&b, "align:%s|%s|%t|%d|%d|%t;", s.Alignment.Horizontal, s.Alignment.Vertical, s.Alignment.WrapText, s.Alignment.TextRotation, s.Alignment.Indent, s.Alignment.ShrinkToFit)
	fmt.Fprintf(&b, "numfmt:%d|%s;", s.NumberFormat.BuiltinID, s.NumberFormat.CustomCode)
	fmt.Fprintf(&b, "protect:%t|%t;", s.Protection.Locked, s.Protection.Hidden)
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// sharedPool is the workbook-wide interned string table. A string is
// added once and returned an id; identical strings
// return the same id.
type sharedPool struct {
	mu      sync.Mutex
	byValue map[string]int
	values  []string
	refs    int // number of cells currently referencing the pool; 0 means the SST part is omitted on save
}

func newSharedPool() *sharedPool {
	return &sharedPool{byValue: make(map[string]int)}
}

// intern returns the pool id for s, allocating a new one if s has not been
// seen before.
func (p *sharedPool) intern(s string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.byValue[s]; ok {
		return id
	}
	id := len(p.values)
	p.values = append(p.values, s)
	p.byValue[s] = id
	return id
}

func (p *sharedPool) get(id int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.values) {
		return "", false
	}
	return p.values[id], true
}

func (p *sharedPool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.values)
}

func (p *sharedPool) addRef()    { p.mu.Lock(); p.refs++; p.mu.Unlock() }
func (p *sharedPool) removeRef() { p.mu.Lock(); p.refs--; p.mu.Unlock() }
func (p *sharedPool) isUsed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs > 0
}

// builtinNumFmtCode returns the standard Excel number format code string
// for a built-in format id, used by the date-detection heuristic and by
// value rendering. Only the ids relevant to date detection and common
// numeric display are populated; an unknown id renders as "General".
var builtinNumFmtCode = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	14: "m/d/yyyy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yyyy h:mm",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	49: "@",
}

// numberFormatCode resolves the effective format string for a NumberFormat:
// its custom code if set, else the built-in table, else "General".
func numberFormatCode(nf NumberFormat) string {
	if nf.CustomCode != "" {
		return nf.CustomCode
	}
	if s, ok := builtinNumFmtCode[nf.BuiltinID]; ok {
		return s
	}
	return "General"
}

// styleIsDate reports whether a style's number format marks its cell as a
// date per the §4.3 detection rule: a built-in date format id, or a custom
// code containing an unescaped date/time token.
func styleIsDate(s Style) bool {
	if s.NumberFormat.CustomCode != "" {
		return isDateFormatCode(s.NumberFormat.CustomCode)
	}
	return isBuiltinDateFormat(s.NumberFormat.BuiltinID)
}

func formatStyleID(id int) string { return strconv.Itoa(id) }
