// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/nfp"
)

// FormattedValue renders the cell at sheetName!cell to the text Excel would
// display, applying the cell's number format (date/time, percent, thousands
// separators, fixed decimal places, ...) rather than returning the stored
// value's plain textual form the way GetCellValue does.
func (f *File) FormattedValue(sheetName, cell string) (string, error) {
	col, row, err := CellNameToCoordinates(cell)
	if err != nil {
		return "", err
	}
	f.mu.RLock()
	sh, ok := f.sheets[sheetName]
	if !ok {
		f.mu.RUnlock()
		return "", newErr(ErrSheetNotFound, "FormattedValue", fmt.Sprintf("sheet %q not found", sheetName))
	}
	c := sh.GetCell(col, row)
	style, _ := f.styles.get(c.StyleID)
	f.mu.RUnlock()

	code := numberFormatCode(style.NumberFormat)
	return formatCellForDisplay(c, code, f.Date1904), nil
}

// formatCellForDisplay renders one cell's value under format code, dispatching
// on the cell's own type for text/bool/empty and delegating numeric and date
// rendering to xuri/nfp's format-code parser, grounded the same way a
// rendering layer built on that library structures the dispatch: type
// short-circuit first, then section selection, then date-or-number token
// walk.
func formatCellForDisplay(c Cell, code string, date1904 bool) string {
	switch c.Type {
	case CellEmpty:
		return ""
	case CellBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	case CellString, CellInlineString:
		return c.String
	case CellError:
		return c.String
	case CellRichString:
		var b strings.Builder
		for _, r := range c.Runs {
			b.WriteString(r.Text)
		}
		return b.String()
	case CellNumber, CellDate:
		return formatNumberOrDate(c.Number, code, date1904)
	case CellFormula:
		if c.FormulaCache == nil {
			return ""
		}
		return formatCellForDisplay(Cell{Type: c.FormulaCache.Type, Number: c.FormulaCache.Number, Bool: c.FormulaCache.Bool, String: c.FormulaCache.String}, code, date1904)
	default:
		return ""
	}
}

func formatNumberOrDate(val float64, code string, date1904 bool) string {
	if code == "" || code == "General" {
		return renderGeneralNumber(val)
	}
	sections := nfp.NumberFormatParser().Parse(code)
	if len(sections) == 0 {
		return renderGeneralNumber(val)
	}
	sec := selectFormatSection(sections, val)
	if isDateFormatCode(code) {
		return renderDateTimeValue(val, sec, date1904)
	}
	return renderNumberValue(val, sec, sections)
}

// selectFormatSection picks the section that applies to val, per Excel's
// positive/negative/zero/text section convention.
func selectFormatSection(sections []nfp.Section, val float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case len(sections) == 2:
		if val < 0 {
			return sections[1]
		}
		return sections[0]
	default:
		switch {
		case val > 0:
			return sections[0]
		case val < 0:
			return sections[1]
		default:
			return sections[2]
		}
	}
}

func renderGeneralNumber(val float64) string {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return strconv.FormatFloat(val, 'G', -1, 64)
	}
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', -1, 64)
}

// renderDateTimeValue renders serial using sec's date/time tokens.
func renderDateTimeValue(serial float64, sec nfp.Section, date1904 bool) string {
	t := ExcelSerialToTime(serial, date1904)

	hasAmPm := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			u := strings.ToUpper(tok.TValue)
			if u == "AM/PM" || u == "A/P" {
				hasAmPm = true
				break
			}
		}
	}

	var sb strings.Builder
	lastWasHour := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			u := strings.ToUpper(tok.TValue)
			sb.WriteString(renderDateToken(u, t, hasAmPm, lastWasHour))
			lastWasHour = u == "H" || u == "HH"
		case nfp.TokenTypeElapsedDateTimes:
			u := strings.ToUpper(tok.TValue)
			sb.WriteString(renderElapsedToken(u, serial))
			lastWasHour = u == "H" || u == "HH"
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		default:
			lastWasHour = false
		}
	}
	if sb.Len() == 0 {
		return renderGeneralNumber(serial)
	}
	return sb.String()
}

// renderDateToken renders one upper-cased date/time token. lastWasHour
// disambiguates "m"/"mm" as minutes (immediately following an hour token)
// versus months.
func renderDateToken(upper string, t time.Time, hasAmPm, lastWasHour bool) string {
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		if lastWasHour {
			return fmt.Sprintf("%02d", t.Minute())
		}
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		if lastWasHour {
			return strconv.Itoa(t.Minute())
		}
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		h := t.Hour()
		if hasAmPm {
			h = hour12(h)
		}
		return fmt.Sprintf("%02d", h)
	case "H":
		h := t.Hour()
		if hasAmPm {
			h = hour12(h)
		}
		return strconv.Itoa(h)
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"
	}
	return ""
}

func hour12(h int) int {
	h = h % 12
	if h == 0 {
		h = 12
	}
	return h
}

func renderElapsedToken(upper string, serial float64) string {
	switch upper {
	case "H", "HH":
		return strconv.Itoa(int(serial * 24))
	case "MM":
		return fmt.Sprintf("%02d", int(serial*24*60)%60)
	case "M":
		return strconv.Itoa(int(serial*24*60) % 60)
	case "SS":
		return fmt.Sprintf("%02d", int(serial*24*3600)%60)
	case "S":
		return strconv.Itoa(int(serial*24*3600) % 60)
	}
	return ""
}

// renderNumberValue renders a non-date float64 using sec's placeholder
// tokens: integer zero-padding, fixed/trimmed decimal places, thousands
// separators, percent scaling.
func renderNumberValue(val float64, sec nfp.Section, sections []nfp.Section) string {
	var hasPercent, hasThousands, hasDecimal, hasExplicitSign bool
	var decZeros, decHashes, intZeros int
	afterDecimal := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			hasPercent = true
		case nfp.TokenTypeThousandsSeparator:
			hasThousands = true
		case nfp.TokenTypeDecimalPoint:
			hasDecimal = true
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if afterDecimal {
				decZeros += len(tok.TValue)
			} else {
				intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				decHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				hasExplicitSign = true
			}
		}
	}
	totalDecPlaces := decZeros + decHashes

	absVal := math.Abs(val)
	if hasPercent {
		absVal *= 100
	}

	var intStr, fracStr string
	if hasDecimal {
		formatted := strconv.FormatFloat(absVal, 'f', totalDecPlaces, 64)
		if dot := strings.IndexByte(formatted, '.'); dot >= 0 {
			intStr, fracStr = formatted[:dot], formatted[dot+1:]
		} else {
			intStr, fracStr = formatted, strings.Repeat("0", totalDecPlaces)
		}
		if decHashes > 0 && len(fracStr) > decZeros {
			trimTo := len(fracStr)
			for trimTo > decZeros && fracStr[trimTo-1] == '0' {
				trimTo--
			}
			fracStr = fracStr[:trimTo]
		}
	} else {
		intStr = strconv.FormatFloat(absVal, 'f', 0, 64)
	}
	for len(intStr) < intZeros {
		intStr = "0" + intStr
	}
	if hasThousands && len(intStr) > 3 {
		intStr = insertThousandsSep(intStr)
	}

	needsMinus := val < 0 && !hasExplicitSign && len(sections) < 2

	var sb strings.Builder
	if needsMinus {
		sb.WriteByte('-')
	}
	intConsumed, fracConsumed := false, false
	afterDecimal = false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if len(fracStr) > 0 {
				sb.WriteByte('.')
			}
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				if !fracConsumed {
					sb.WriteString(fracStr)
					fracConsumed = true
				}
			} else if !intConsumed {
				sb.WriteString(intStr)
				intConsumed = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !intConsumed && !afterDecimal {
		sb.WriteString(intStr)
	}
	if sb.Len() == 0 {
		return renderGeneralNumber(val)
	}
	return sb.String()
}

func insertThousandsSep(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(n + n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
