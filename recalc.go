// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"strings"

	"github.com/sheetkit/sheetkit/internal/formula"
)

// Cell implements formula.Resolver, letting the evaluator read the live
// worksheet grid during a recalculation pass.
func (f *File) Cell(sheet string, col, row int) formula.Value {
	f.mu.RLock()
	sh, ok := f.sheets[sheet]
	f.mu.RUnlock()
	if !ok {
		return formula.ErrVal(formula.ErrRef)
	}
	return cellToFormulaValue(sh.GetCell(col, row))
}

// SheetExists implements formula.Resolver.
func (f *File) SheetExists(sheet string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.sheets[sheet]
	return ok
}

// DefinedName implements formula.Resolver, preferring a name scoped to
// callerSheet over the workbook-scoped one of the same spelling.
func (f *File) DefinedName(name, callerSheet string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, dn := range f.definedNames {
		if dn.Name == name && dn.Scope == callerSheet {
			return dn.RefersTo, true
		}
	}
	for _, dn := range f.definedNames {
		if dn.Name == name && dn.Scope == "Workbook" {
			return dn.RefersTo, true
		}
	}
	return "", false
}

func cellToFormulaValue(c Cell) formula.Value {
	switch c.Type {
	case CellNumber, CellDate:
		return formula.Num(c.Number)
	case CellBool:
		return formula.Boolean(c.Bool)
	case CellString, CellInlineString:
		return formula.Str(c.String)
	case CellError:
		return formula.ErrVal(c.String)
	case CellRichString:
		var b strings.Builder
		for _, r := range c.Runs {
			b.WriteString(r.Text)
		}
		return formula.Str(b.String())
	case CellFormula:
		if c.FormulaCache == nil {
			return formula.Empty()
		}
		switch c.FormulaCache.Type {
		case CellNumber, CellDate:
			return formula.Num(c.FormulaCache.Number)
		case CellBool:
			return formula.Boolean(c.FormulaCache.Bool)
		case CellError:
			return formula.ErrVal(c.FormulaCache.String)
		default:
			return formula.Str(c.FormulaCache.String)
		}
	default:
		return formula.Empty()
	}
}

func formulaValueToCache(v formula.Value) *FormulaResult {
	switch v.Kind {
	case formula.KNumber:
		return &FormulaResult{Type: CellNumber, Number: v.Number}
	case formula.KBool:
		return &FormulaResult{Type: CellBool, Bool: v.Bool}
	case formula.KError:
		return &FormulaResult{Type: CellError, String: v.Err}
	default:
		return &FormulaResult{Type: CellString, String: v.ToText()}
	}
}

// formulaNode addresses one formula cell in the dependency graph.
type formulaNode struct {
	sheet    string
	col, row int
}

// CalculateAll re-evaluates every formula cell in the workbook in dependency
// order: cells that reference nothing else (or only non-formula cells) are
// evaluated first, and a cell is only evaluated once every formula cell it
// depends on already has a fresh FormulaCache. Circular references are
// detected and resolved to #REF!, matching a deterministic recalculation
// contract rather than Excel's iterative-calculation mode.
func (f *File) CalculateAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ast := make(map[formulaNode]formula.Node)
	deps := make(map[formulaNode][]formulaNode)
	indegree := make(map[formulaNode]int)

	for sheetName, sh := range f.sheets {
		for _, row := range sh.NonEmptyRows() {
			for _, rc := range sh.RowCells(row) {
				if rc.Cell.Type != CellFormula {
					continue
				}
				n := formulaNode{sheetName, rc.Col, row}
				node, err := formula.Parse(rc.Cell.Formula)
				if err != nil {
					sh.SetCell(rc.Col, row, withFormulaCache(rc.Cell, &FormulaResult{Type: CellError, String: formula.ErrName}))
					continue
				}
				ast[n] = node
				if _, ok := indegree[n]; !ok {
					indegree[n] = 0
				}
			}
		}
	}

	for n, node := range ast {
		for _, ref := range collectRefs(node, n.sheet) {
			if _, isFormula := ast[ref]; isFormula {
				deps[ref] = append(deps[ref], n) // ref must be computed before n
				indegree[n]++
			}
		}
	}

	var queue []formulaNode
	for n, d := range indegree {
		if d == 0 {
			queue = append(queue, n)
		}
	}

	ev := formula.NewEvaluator(f)
	done := make(map[formulaNode]bool, len(ast))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if done[n] {
			continue
		}
		done[n] = true
		result := ev.Eval(ast[n], n.sheet)
		sh := f.sheets[n.sheet]
		sh.SetCell(n.col, n.row, withFormulaCache(sh.GetCell(n.col, n.row), formulaValueToCache(result)))
		for _, next := range deps[n] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	// Anything left unvisited sits on a dependency cycle.
	for n := range ast {
		if done[n] {
			continue
		}
		sh := f.sheets[n.sheet]
		sh.SetCell(n.col, n.row, withFormulaCache(sh.GetCell(n.col, n.row), &FormulaResult{Type: CellError, String: formula.ErrRef}))
	}
	return nil
}

func withFormulaCache(c Cell, result *FormulaResult) Cell {
	c.FormulaCache = result
	return c
}

// collectRefs walks a parsed formula AST and returns every concrete cell it
// reads, resolving sheet-unqualified references against defaultSheet. Range
// references expand to every cell in the rectangle; defined-name references
// are not expanded here (CalculateAll treats a formula that only reaches
// other cells through a name as depending on nothing, and evalName
// re-resolves the name's text at evaluation time).
func collectRefs(n formula.Node, defaultSheet string) []formulaNode {
	var out []formulaNode
	var walk func(formula.Node)
	walk = func(n formula.Node) {
		switch t := n.(type) {
		case formula.RefNode:
			s := t.Sheet
			if s == "" {
				s = defaultSheet
			}
			out = append(out, formulaNode{s, t.Col, t.Row})
		case formula.RangeNode:
			s := t.Sheet
			if s == "" {
				s = defaultSheet
			}
			c1, c2 := t.C1, t.C2
			if c2 < c1 {
				c1, c2 = c2, c1
			}
			r1, r2 := t.R1, t.R2
			if r2 < r1 {
				r1, r2 = r2, r1
			}
			// A whole-row/column range expanded cell-by-cell could be huge;
			// cap it the same way a real recalculation engine would bound a
			// dependency edge count, since a dependency on the range's
			// extent is what matters, not every individual empty cell.
			const maxRangeDeps = 10000
			count := 0
			for row := r1; row <= r2 && count < maxRangeDeps; row++ {
				for col := c1; col <= c2 && count < maxRangeDeps; col++ {
					out = append(out, formulaNode{s, col, row})
					count++
				}
			}
		case formula.UnaryNode:
			walk(t.X)
		case formula.PercentNode:
			walk(t.X)
		case formula.BinaryNode:
			walk(t.L)
			walk(t.R)
		case formula.CallNode:
			for _, a := range t.Args {
				walk(a)
			}
		}
	}
	walk(n)
	return out
}
