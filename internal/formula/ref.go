// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package formula

import (
	"strconv"
	"strings"
)

// This package stays independent of the root module (it is consumed
// through the Resolver interface, so it can be tested and reused against
// any cell-value source) and so re-implements the small slice of
// column-letter arithmetic it needs rather than importing the root
// package's cellref.go, which would create an import cycle.

func colNameToNum(name string) int {
	n := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		n = n*26 + int(c-'A'+1)
	}
	return n
}

func colNumToName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// parseRefText parses a lexer TokRef token's text (possibly sheet-qualified,
// possibly a range) into a RefNode or RangeNode.
func parseRefText(text string) Node {
	sheet := ""
	rest := text
	if idx := lastUnquotedBang(text); idx >= 0 {
		sheetPart := text[:idx]
		rest = text[idx+1:]
		if strings.HasPrefix(sheetPart, "'") && strings.HasSuffix(sheetPart, "'") {
			sheetPart = strings.ReplaceAll(sheetPart[1:len(sheetPart)-1], "''", "'")
		}
		sheet = sheetPart
	}
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		c1, r1, c1a, r1a := parseOneRef(rest[:i])
		c2, r2, c2a, r2a := parseOneRef(rest[i+1:])
		return RangeNode{Sheet: sheet, C1: c1, R1: r1, C2: c2, R2: r2, C1Abs: c1a, R1Abs: r1a, C2Abs: c2a, R2Abs: r2a}
	}
	c, r, ca, ra := parseOneRef(rest)
	return RefNode{Sheet: sheet, Col: c, Row: r, ColAbs: ca, RowAbs: ra}
}

func lastUnquotedBang(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '!':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

func parseOneRef(s string) (col, row int, colAbs, rowAbs bool) {
	i := 0
	if i < len(s) && s[i] == '$' {
		colAbs = true
		i++
	}
	start := i
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	col = colNameToNum(s[start:i])
	if i < len(s) && s[i] == '$' {
		rowAbs = true
		i++
	}
	row, _ = strconv.Atoi(s[i:])
	return
}

func isAlpha(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
