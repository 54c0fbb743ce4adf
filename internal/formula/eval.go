// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package formula

import "math"

// Resolver is the cell-value source an Evaluator runs against. The root
// package implements it over its Workbook/Sheet model; tests implement it
// over a plain map, which is what keeps this package's test suite free of
// any dependency on the package/OPC layer.
type Resolver interface {
	// Cell returns one cell's current value. row/col are 1-based.
	Cell(sheet string, col, row int) Value
	// SheetExists reports whether sheet is a real sheet name, so a
	// reference to a deleted or misspelled sheet can evaluate to #REF!
	// rather than silently reading an empty grid.
	SheetExists(sheet string) bool
	// DefinedName resolves a workbook- or sheet-scoped name to its
	// refers-to formula text, as seen from callerSheet.
	DefinedName(name, callerSheet string) (string, bool)
}

// Evaluator evaluates formula ASTs against a Resolver. One Evaluator is
// reused across an entire recalculation pass; it carries no per-cell state
// of its own.
type Evaluator struct {
	R Resolver
}

// NewEvaluator returns an Evaluator bound to r.
func NewEvaluator(r Resolver) *Evaluator { return &Evaluator{R: r} }

// Eval evaluates n as seen from a formula cell living on sheet.
func (e *Evaluator) Eval(n Node, sheet string) Value {
	switch t := n.(type) {
	case NumberLit:
		return Num(t.Value)
	case StringLit:
		return Str(t.Value)
	case BoolLit:
		return Boolean(t.Value)
	case ErrorLit:
		return ErrVal(t.Token)
	case RefNode:
		return e.evalRef(t, sheet)
	case RangeNode:
		return e.evalRangeAsScalar(t, sheet)
	case NameNode:
		return e.evalName(t, sheet)
	case UnaryNode:
		return e.evalUnary(t, sheet)
	case PercentNode:
		x := e.Eval(t.X, sheet).ToNumber()
		if x.IsError() {
			return x
		}
		return Num(x.Number / 100)
	case BinaryNode:
		return e.evalBinary(t, sheet)
	case CallNode:
		return e.evalCall(t, sheet)
	default:
		return ErrVal(ErrValue)
	}
}

func (e *Evaluator) evalRef(r RefNode, sheet string) Value {
	s := r.Sheet
	if s == "" {
		s = sheet
	}
	if !e.R.SheetExists(s) {
		return ErrVal(ErrRef)
	}
	return e.R.Cell(s, r.Col, r.Row)
}

// evalRangeAsScalar is what a bare range reference evaluates to outside a
// function argument position: the top-left cell, matching Excel's implicit
// intersection behavior for the common single-row/column case.
func (e *Evaluator) evalRangeAsScalar(r RangeNode, sheet string) Value {
	s := r.Sheet
	if s == "" {
		s = sheet
	}
	if !e.R.SheetExists(s) {
		return ErrVal(ErrRef)
	}
	c1, c2 := r.C1, r.C2
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	r1, r2 := r.R1, r.R2
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	return e.R.Cell(s, c1, r1)
}

// evalRangeAsArray is what function arguments use: the full rectangle.
func (e *Evaluator) evalRangeAsArray(rn RangeNode, sheet string) [][]Value {
	s := rn.Sheet
	if s == "" {
		s = sheet
	}
	c1, c2 := rn.C1, rn.C2
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	r1, r2 := rn.R1, rn.R2
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	if !e.R.SheetExists(s) {
		out := make([][]Value, r2-r1+1)
		for i := range out {
			row := make([]Value, c2-c1+1)
			for j := range row {
				row[j] = ErrVal(ErrRef)
			}
			out[i] = row
		}
		return out
	}
	out := make([][]Value, 0, r2-r1+1)
	for row := r1; row <= r2; row++ {
		line := make([]Value, 0, c2-c1+1)
		for col := c1; col <= c2; col++ {
			line = append(line, e.R.Cell(s, col, row))
		}
		out = append(out, line)
	}
	return out
}

// flattenArg evaluates n to a flat []Value, expanding ranges and arrays in
// row-major order, for use by aggregate functions like SUM/COUNT/AVERAGE.
func (e *Evaluator) flattenArg(n Node, sheet string) []Value {
	if rn, ok := n.(RangeNode); ok {
		rows := e.evalRangeAsArray(rn, sheet)
		var out []Value
		for _, row := range rows {
			out = append(out, row...)
		}
		return out
	}
	v := e.Eval(n, sheet)
	if v.Kind == KArray {
		var out []Value
		for _, row := range v.Array {
			out = append(out, row...)
		}
		return out
	}
	return []Value{v}
}

func (e *Evaluator) evalName(nm NameNode, sheet string) Value {
	refersTo, ok := e.R.DefinedName(nm.Name, sheet)
	if !ok {
		return ErrVal(ErrName)
	}
	ast, err := Parse(refersTo)
	if err != nil {
		return ErrVal(ErrName)
	}
	return e.Eval(ast, sheet)
}

func (e *Evaluator) evalUnary(u UnaryNode, sheet string) Value {
	x := e.Eval(u.X, sheet).ToNumber()
	if x.IsError() {
		return x
	}
	if u.Op == "-" {
		return Num(-x.Number)
	}
	return x
}

func (e *Evaluator) evalBinary(b BinaryNode, sheet string) Value {
	switch b.Op {
	case "=", "<>", "<", "<=", ">", ">=":
		l, r := e.Eval(b.L, sheet), e.Eval(b.R, sheet)
		if l.IsError() {
			return l
		}
		if r.IsError() {
			return r
		}
		cmp := compareValues(l, r)
		switch b.Op {
		case "=":
			return Boolean(cmp == 0)
		case "<>":
			return Boolean(cmp != 0)
		case "<":
			return Boolean(cmp < 0)
		case "<=":
			return Boolean(cmp <= 0)
		case ">":
			return Boolean(cmp > 0)
		default: // >=
			return Boolean(cmp >= 0)
		}
	case "&":
		l, r := e.Eval(b.L, sheet), e.Eval(b.R, sheet)
		if l.IsError() {
			return l
		}
		if r.IsError() {
			return r
		}
		return Str(l.ToText() + r.ToText())
	default:
		l := e.Eval(b.L, sheet).ToNumber()
		if l.IsError() {
			return l
		}
		r := e.Eval(b.R, sheet).ToNumber()
		if r.IsError() {
			return r
		}
		switch b.Op {
		case "+":
			return Num(l.Number + r.Number)
		case "-":
			return Num(l.Number - r.Number)
		case "*":
			return Num(l.Number * r.Number)
		case "/":
			if r.Number == 0 {
				return ErrVal(ErrDiv0)
			}
			return Num(l.Number / r.Number)
		case "^":
			return numPow(l.Number, r.Number)
		default:
			return ErrVal(ErrValue)
		}
	}
}

func numPow(base, exp float64) Value {
	v := math.Pow(base, exp)
	if math.IsNaN(v) { // e.g. negative base with fractional exponent
		return ErrVal(ErrNum)
	}
	return Num(v)
}

func (e *Evaluator) evalCall(c CallNode, sheet string) Value {
	fn, ok := functions[c.Name]
	if !ok {
		return ErrVal(ErrName)
	}
	return fn(e, sheet, c.Args)
}
