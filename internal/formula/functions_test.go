// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver is a minimal Resolver over an in-memory grid, keeping this
// package's test suite free of any dependency on the root module.
type mapResolver struct {
	sheets map[string]map[[2]int]Value
	names  map[string]string
}

func newMapResolver() *mapResolver {
	return &mapResolver{sheets: map[string]map[[2]int]Value{"Sheet1": {}}, names: map[string]string{}}
}

func (m *mapResolver) Cell(sheet string, col, row int) Value {
	grid, ok := m.sheets[sheet]
	if !ok {
		return Empty()
	}
	v, ok := grid[[2]int{col, row}]
	if !ok {
		return Empty()
	}
	return v
}

func (m *mapResolver) SheetExists(sheet string) bool {
	_, ok := m.sheets[sheet]
	return ok
}

func (m *mapResolver) DefinedName(name, callerSheet string) (string, bool) {
	v, ok := m.names[name]
	return v, ok
}

func (m *mapResolver) set(cellRef string, v Value) {
	n := parseRefText(cellRef).(RefNode)
	m.sheets["Sheet1"][[2]int{n.Col, n.Row}] = v
}

func evalText(t *testing.T, r *mapResolver, formula string) string {
	t.Helper()
	n, err := Parse(formula)
	require.NoError(t, err)
	e := NewEvaluator(r)
	return e.Eval(n, "Sheet1").ToText()
}

func TestLogicalIfsAndSwitch(t *testing.T) {
	r := newMapResolver()
	assert.Equal(t, "mid", evalText(t, r, `IFS(1=2,"lo",1=1,"mid",TRUE,"hi")`))
	assert.Equal(t, "#N/A", evalText(t, r, `IFS(FALSE,"x")`))
	assert.Equal(t, "two", evalText(t, r, `SWITCH(2,1,"one",2,"two","default")`))
	assert.Equal(t, "default", evalText(t, r, `SWITCH(9,1,"one",2,"two","default")`))
}

func TestInformationFunctions(t *testing.T) {
	r := newMapResolver()
	assert.Equal(t, "TRUE", evalText(t, r, "ISEVEN(4)"))
	assert.Equal(t, "FALSE", evalText(t, r, "ISEVEN(3)"))
	assert.Equal(t, "TRUE", evalText(t, r, "ISODD(3)"))
	assert.Equal(t, "TRUE", evalText(t, r, "ISREF(A1)"))
	assert.Equal(t, "FALSE", evalText(t, r, "ISREF(1+1)"))
	assert.Equal(t, "FALSE", evalText(t, r, "ISFORMULA(A1)"))
	assert.Equal(t, "1", evalText(t, r, "TYPE(1)"))
	assert.Equal(t, "2", evalText(t, r, `TYPE("x")`))
	assert.Equal(t, "4", evalText(t, r, "TYPE(TRUE)"))
	assert.Equal(t, "2", evalText(t, r, "ERROR.TYPE(1/0)"))
	assert.Equal(t, "#N/A", evalText(t, r, "NA()"))
}

func TestDateTimeAdditions(t *testing.T) {
	r := newMapResolver()
	assert.Equal(t, "43831", evalText(t, r, "DATEVALUE(\"2020-01-01\")"))
	assert.Equal(t, "43862", evalText(t, r, "EDATE(DATEVALUE(\"2020-01-01\"),1)"))
	assert.Equal(t, "43890", evalText(t, r, "EOMONTH(DATEVALUE(\"2020-01-01\"),1)"))
	assert.Equal(t, "1", evalText(t, r, `DATEDIF(DATEVALUE("2020-01-01"),DATEVALUE("2021-01-01"),"Y")`))
	assert.Equal(t, "366", evalText(t, r, `DAYS(DATEVALUE("2021-01-01"),DATEVALUE("2020-01-01"))`))
}

func TestLookupAdditions(t *testing.T) {
	r := newMapResolver()
	r.set("A1", Num(10))
	r.set("A2", Num(20))
	r.set("A3", Num(30))

	assert.Equal(t, "two", evalText(t, r, `CHOOSE(2,"one","two","three")`))
	assert.Equal(t, "20", evalText(t, r, "OFFSET(A1,1,0)"))
	assert.Equal(t, "20", evalText(t, r, "INDIRECT(\"A2\")"))
	assert.Equal(t, "$B$5", evalText(t, r, "ADDRESS(5,2)"))
	assert.Equal(t, "20", evalText(t, r, "LOOKUP(25,A1:A3)"))
}

func TestEngineeringFunctions(t *testing.T) {
	r := newMapResolver()
	assert.Equal(t, "5", evalText(t, r, "BIN2DEC(101)"))
	assert.Equal(t, "101", evalText(t, r, "DEC2BIN(5)"))
	assert.Equal(t, "A", evalText(t, r, "DEC2HEX(10)"))
	assert.Equal(t, "10", evalText(t, r, "HEX2DEC(\"A\")"))
	assert.Equal(t, "1", evalText(t, r, "BITAND(5,3)"))
	assert.Equal(t, "7", evalText(t, r, "BITOR(5,3)"))
	assert.Equal(t, "8", evalText(t, r, "BITLSHIFT(1,3)"))
	assert.Equal(t, "1", evalText(t, r, "BITRSHIFT(8,3)"))
	assert.Equal(t, "1", evalText(t, r, "DELTA(5,5)"))
	assert.Equal(t, "0", evalText(t, r, "GESTEP(1,5)"))
}
