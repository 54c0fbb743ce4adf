// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import "time"

// excelEpoch1900 is the day count origin for real dates on or after
// 1900-03-01: serial 61 is 1900-03-01. Using Dec 30 rather than the true
// Dec 31, 1899 epoch absorbs the fictitious 1900-02-29 (serial 60) that
// Lotus 1-2-3's leap-year bug introduced and Excel preserved for
// compatibility, so every later date lands one day "ahead" of a naive
// day-count, matching what Excel itself produces.
var excelEpoch1900 = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// excelEpoch1900Pre is the true day count origin for dates before the
// phantom leap day, i.e. 1900-01-01 through 1900-02-28 (serials 1-59):
// unlike excelEpoch1900, it is not shifted, since there is no phantom day
// to absorb yet at this point in the calendar.
var excelEpoch1900Pre = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

// excel1900Pivot is the first real date affected by the 1900 leap-year
// quirk; dates before it use excelEpoch1900Pre, dates on or after it use
// excelEpoch1900.
var excel1900Pivot = time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC)

// excelEpoch1904 is the day the alternate 1904 date system (WorkbookPr
// Date1904=true) counts from.
var excelEpoch1904 = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeToExcelSerial converts a time.Time to its Excel date serial number.
// Under the 1900 date system, t picks its epoch by which side of the
// phantom 1900-02-29 it falls on, so that 1900-01-01 comes out as serial 1
// while dates on or after 1900-03-01 still carry the one-day shift Excel's
// own fictitious leap day produces.
func TimeToExcelSerial(t time.Time, date1904 bool) float64 {
	epoch := excelEpoch1900
	if date1904 {
		epoch = excelEpoch1904
	} else if t.Before(excel1900Pivot) {
		epoch = excelEpoch1900Pre
	}
	d := t.Sub(epoch)
	days := d.Hours() / 24
	return days
}

// ExcelSerialToTime converts an Excel date serial number to a time.Time.
// Serial 60 under the 1900 system has no valid calendar date (it is the
// fictitious 1900-02-29); callers that need to detect this edge case should
// check IsFictitiousLeapDay before calling this function.
func ExcelSerialToTime(serial float64, date1904 bool) time.Time {
	epoch := excelEpoch1900
	if date1904 {
		epoch = excelEpoch1904
	} else if serial < 61 {
		epoch = excelEpoch1900Pre
	}
	days := int64(serial)
	frac := serial - float64(days)
	t := epoch.Add(time.Duration(days) * 24 * time.Hour)
	if frac > 0 {
		t = t.Add(time.Duration(frac*24*3600*1e9) * time.Nanosecond)
	}
	return t
}

// IsFictitiousLeapDay reports whether the given 1900-system serial refers to
// the non-existent 1900-02-29 that Excel carries for Lotus 1-2-3
// compatibility.
func IsFictitiousLeapDay(serial float64, date1904 bool) bool {
	return !date1904 && serial == 60
}

// dateFormatTokens matches the date/time tokens (y, m, d, h, s) a custom
// number-format code uses to request date rendering, the same set the
// reader's date-detection heuristic scans for outside quoted literals and
// backslash escapes; "[$-...]" locale prefixes are scanned like other text.
var dateFormatTokens = map[byte]bool{'y': true, 'm': true, 'd': true, 'h': true, 's': true}

// isDateFormatCode reports whether a custom number-format code contains an
// unescaped date/time token. Tokens inside a quoted string literal ("...")
// or after a backslash escape do not count; a bracketed locale prefix like
// "[$-409]" is scanned like any other text, so a "d" or "m" inside one is
// still treated as a real date token.
func isDateFormatCode(code string) bool {
	inQuote := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == '\\':
			i++ // skip the escaped character
		case inQuote:
			// literal text, ignore
		case dateFormatTokens[lower(c)]:
			return true
		}
	}
	return false
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 32
	}
	return c
}

// isBuiltinDateFormat reports whether a built-in number-format id is one of
// Excel's date/time formats (14-22, 45-47).
func isBuiltinDateFormat(id int) bool {
	return builtInDateFormats[id]
}
