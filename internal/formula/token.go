// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package formula implements the Excel-dialect formula tokeniser, parser,
// and evaluator: the lexical/syntactic rules, the function catalogue, and
// the scalar evaluation semantics. The
// dependency-DAG recalculation that drives this package across a whole
// workbook lives one level up, in the root package's recalc.go, since it
// needs access to the Workbook/Sheet model that this package must stay
// independent of (it is deliberately usable against any cell-value source
// that implements the Resolver interface).
package formula

import "fmt"

// TokenKind enumerates the lexical categories the tokeniser produces. The
// front end is grounded on github.com/xuri/efp's token categories (Operand,
// Function, Operator-Infix, Paren, Error) and re-expressed as a small
// closed Go enum for the hand-written Pratt parser that consumes it.
type TokenKind int

const (
	TokNumber TokenKind = iota
	TokString
	TokBool
	TokErrorLit
	TokIdent // bare function name or defined name
	TokRef   // cell or range reference, possibly sheet-qualified
	TokFunc  // function name immediately followed by '('
	TokComma
	TokLParen
	TokRParen
	TokOp // + - * / ^ & = <> < <= > >= %
	TokEOF
)

// Token is one lexical token plus its source text.
type Token struct {
	Kind TokenKind
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("%v(%q)", t.Kind, t.Text)
}
