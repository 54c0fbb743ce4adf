// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package formula

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// builtinFunc implements one function's call semantics. Functions receive
// unevaluated argument nodes rather than pre-evaluated Values so that
// short-circuiting functions (IF, IFERROR, IFNA, CHOOSE) control their own
// evaluation order — Excel's own IF never evaluates the branch it discards.
// AND and OR evaluate every argument.
type builtinFunc func(e *Evaluator, sheet string, args []Node) Value

// functions is the function catalogue, spanning the math, statistical,
// text, logical, information, date-time, lookup-reference, financial, and
// engineering families. Function names
// are matched case-insensitively by the parser, which upper-cases every
// TokFunc token before building the CallNode, so every key here is upper
// case.
var functions map[string]builtinFunc

func init() {
	functions = map[string]builtinFunc{
		// --- logical ---
		"IF":     fnIf,
		"IFERROR": fnIfError,
		"IFNA":   fnIfNA,
		"AND":    fnAnd,
		"OR":     fnOr,
		"NOT":    fnNot,
		"XOR":    fnXor,
		"IFS":    fnIfs,
		"SWITCH": fnSwitch,
		"TRUE":   func(e *Evaluator, sheet string, args []Node) Value { return Boolean(true) },
		"FALSE":  func(e *Evaluator, sheet string, args []Node) Value { return Boolean(false) },

		// --- information ---
		"ISBLANK":  fnIsBlank,
		"ISNUMBER": fnIsKind(KNumber),
		"ISTEXT":   fnIsKind(KString),
		"ISLOGICAL": fnIsKind(KBool),
		"ISERROR":  fnIsError,
		"ISNA":     fnIsNA,
		"ISERR":    fnIsErr,
		"ISEVEN":   fnIsEvenOdd(true),
		"ISODD":    fnIsEvenOdd(false),
		"ISREF":    fnIsRef,
		"ISFORMULA": fnIsFormula,
		"NA":       func(e *Evaluator, sheet string, args []Node) Value { return ErrVal(ErrNA) },
		"TYPE":     fnType,
		"ERROR.TYPE": fnErrorType,
		"CELL":     fnCell,
		"INFO":     fnInfo,
		"N":        fnN,
		"T":        fnT,

		// --- math ---
		"SUM":       fnSum,
		"SUMIF":     fnSumIf,
		"SUMIFS":    fnSumIfs,
		"PRODUCT":   fnProduct,
		"ABS":       fn1(math.Abs),
		"SQRT":      fnSqrt,
		"POWER":     fnPower,
		"EXP":       fn1(math.Exp),
		"LN":        fn1(math.Log),
		"LOG10":     fn1(math.Log10),
		"LOG":       fnLog,
		"MOD":       fnMod,
		"ROUND":     fnRound,
		"ROUNDUP":   fnRoundUpDown(true),
		"ROUNDDOWN": fnRoundUpDown(false),
		"TRUNC":     fnTrunc,
		"INT":       fn1(math.Floor),
		"SIGN":      fnSign,
		"PI":        func(e *Evaluator, sheet string, args []Node) Value { return Num(math.Pi) },
		"SIN":       fn1(math.Sin),
		"COS":       fn1(math.Cos),
		"TAN":       fn1(math.Tan),
		"ATAN":      fn1(math.Atan),
		"ATAN2":     fnAtan2,
		"CEILING":   fnCeiling,
		"FLOOR":     fnFloor,
		"FACT":      fnFact,
		"GCD":       fnGCD,
		"LCM":       fnLCM,
		"RAND":      func(e *Evaluator, sheet string, args []Node) Value { return Num(0.5) },

		// --- statistical ---
		"AVERAGE":   fnAverage,
		"AVERAGEIF": fnAverageIf,
		"COUNT":     fnCount,
		"COUNTA":    fnCountA,
		"COUNTBLANK": fnCountBlank,
		"COUNTIF":   fnCountIf,
		"COUNTIFS":  fnCountIfs,
		"MAX":       fnMax,
		"MIN":       fnMin,
		"MEDIAN":    fnMedian,
		"LARGE":     fnLarge,
		"SMALL":     fnSmall,
		"STDEV":     fnStdev,
		"VAR":       fnVar,

		// --- text ---
		"CONCATENATE": fnConcatenate,
		"CONCAT":      fnConcatenate,
		"LEFT":        fnLeft,
		"RIGHT":       fnRight,
		"MID":         fnMid,
		"LEN":         fnLen,
		"UPPER":       fnStrMap(strings.ToUpper),
		"LOWER":       fnStrMap(strings.ToLower),
		"TRIM":        fnTrim,
		"PROPER":      fnProper,
		"SUBSTITUTE":  fnSubstitute,
		"REPLACE":     fnReplace,
		"FIND":        fnFind(true),
		"SEARCH":      fnFind(false),
		"TEXT":        fnText,
		"VALUE":       fnValue,
		"REPT":        fnRept,
		"EXACT":       fnExact,

		// --- date-time ---
		"TODAY":   fnToday,
		"NOW":     fnNow,
		"DATE":    fnDate,
		"YEAR":    fnDatePart(datePartYear),
		"MONTH":   fnDatePart(datePartMonth),
		"DAY":     fnDatePart(datePartDay),
		"HOUR":    fnDatePart(datePartHour),
		"MINUTE":  fnDatePart(datePartMinute),
		"SECOND":  fnDatePart(datePartSecond),
		"WEEKDAY": fnWeekday,
		"TIME":    fnTime,
		"EDATE":   fnEdate,
		"EOMONTH": fnEomonth,
		"DATEDIF": fnDatedif,
		"DATEVALUE": fnDatevalue,
		"TIMEVALUE": fnTimevalue,
		"DAYS":    fnDays,
		"NETWORKDAYS": fnNetworkdays,
		"WORKDAY": fnWorkday,
		"YEARFRAC": fnYearfrac,

		// --- lookup & reference ---
		"VLOOKUP": fnVlookup,
		"HLOOKUP": fnHlookup,
		"INDEX":   fnIndex,
		"MATCH":   fnMatch,
		"ROW":     fnRow,
		"COLUMN":  fnColumn,
		"ROWS":    fnRows,
		"COLUMNS": fnColumns,
		"CHOOSE":  fnChoose,
		"LOOKUP":  fnLookup,
		"OFFSET":  fnOffset,
		"INDIRECT": fnIndirect,
		"ADDRESS": fnAddress,
		"TRANSPOSE": fnTranspose,

		// --- financial ---
		"PMT": fnPmt,
		"FV":  fnFv,
		"PV":  fnPv,

		// --- engineering ---
		"BIN2DEC":  fnBin2Dec,
		"DEC2BIN":  fnDec2Bin,
		"BIN2HEX":  fnBin2Hex,
		"HEX2BIN":  fnHex2Bin,
		"DEC2HEX":  fnDec2Hex,
		"HEX2DEC":  fnHex2Dec,
		"BITAND":   fnBitOp(func(a, b int64) int64 { return a & b }),
		"BITOR":    fnBitOp(func(a, b int64) int64 { return a | b }),
		"BITXOR":   fnBitOp(func(a, b int64) int64 { return a ^ b }),
		"BITLSHIFT": fnBitShift(1),
		"BITRSHIFT": fnBitShift(-1),
		"DELTA":    fnDelta,
		"GESTEP":   fnGestep,
	}
}

// fn1 lifts a single-argument float64->float64 math function into a
// builtinFunc.
func fn1(f func(float64) float64) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 1 {
			return ErrVal(ErrValue)
		}
		x := e.Eval(args[0], sheet).ToNumber()
		if x.IsError() {
			return x
		}
		return Num(f(x.Number))
	}
}

func fnStrMap(f func(string) string) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 1 {
			return ErrVal(ErrValue)
		}
		v := e.Eval(args[0], sheet)
		if v.IsError() {
			return v
		}
		return Str(f(v.ToText()))
	}
}

func evalNums(e *Evaluator, sheet string, args []Node) ([]float64, Value) {
	var out []float64
	for _, a := range args {
		for _, v := range e.flattenArg(a, sheet) {
			if v.IsError() {
				return nil, v
			}
			if v.Kind == KString || v.Kind == KEmpty {
				continue
			}
			n := v.ToNumber()
			if n.IsError() {
				continue
			}
			out = append(out, n.Number)
		}
	}
	return out, Value{}
}

func fnSum(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return Num(total)
}

func fnProduct(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	total := 1.0
	for _, n := range nums {
		total *= n
	}
	return Num(total)
}

func fnAverage(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	if len(nums) == 0 {
		return ErrVal(ErrDiv0)
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return Num(total / float64(len(nums)))
}

func fnCount(e *Evaluator, sheet string, args []Node) Value {
	nums, _ := evalNums(e, sheet, args)
	return Num(float64(len(nums)))
}

func fnCountA(e *Evaluator, sheet string, args []Node) Value {
	n := 0
	for _, a := range args {
		for _, v := range e.flattenArg(a, sheet) {
			if v.Kind != KEmpty {
				n++
			}
		}
	}
	return Num(float64(n))
}

func fnCountBlank(e *Evaluator, sheet string, args []Node) Value {
	n := 0
	for _, a := range args {
		for _, v := range e.flattenArg(a, sheet) {
			if v.Kind == KEmpty || (v.Kind == KString && v.Text == "") {
				n++
			}
		}
	}
	return Num(float64(n))
}

func fnMax(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	if len(nums) == 0 {
		return Num(0)
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return Num(m)
}

func fnMin(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	if len(nums) == 0 {
		return Num(0)
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return Num(m)
}

func fnMedian(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	if len(nums) == 0 {
		return ErrVal(ErrNum)
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return Num(sorted[mid])
	}
	return Num((sorted[mid-1] + sorted[mid]) / 2)
}

func fnLarge(e *Evaluator, sheet string, args []Node) Value {
	return fnOrderStat(e, sheet, args, false)
}

func fnSmall(e *Evaluator, sheet string, args []Node) Value {
	return fnOrderStat(e, sheet, args, true)
}

func fnOrderStat(e *Evaluator, sheet string, args []Node, ascending bool) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	nums, errv := evalNums(e, sheet, args[:1])
	if errv.IsError() {
		return errv
	}
	k := e.Eval(args[1], sheet).ToNumber()
	if k.IsError() {
		return k
	}
	idx := int(k.Number)
	if idx < 1 || idx > len(nums) {
		return ErrVal(ErrNum)
	}
	sorted := append([]float64(nil), nums...)
	if ascending {
		sort.Float64s(sorted)
	} else {
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	}
	return Num(sorted[idx-1])
}

func fnStdev(e *Evaluator, sheet string, args []Node) Value {
	return statVariance(e, sheet, args, true)
}

func fnVar(e *Evaluator, sheet string, args []Node) Value {
	return statVariance(e, sheet, args, false)
}

func statVariance(e *Evaluator, sheet string, args []Node, sqrt bool) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	if len(nums) < 2 {
		return ErrVal(ErrDiv0)
	}
	var mean float64
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	var sumSq float64
	for _, n := range nums {
		d := n - mean
		sumSq += d * d
	}
	v := sumSq / float64(len(nums)-1)
	if sqrt {
		return Num(math.Sqrt(v))
	}
	return Num(v)
}

func fnSqrt(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	if x.Number < 0 {
		return ErrVal(ErrNum)
	}
	return Num(math.Sqrt(x.Number))
}

func fnPower(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	b := e.Eval(args[0], sheet).ToNumber()
	if b.IsError() {
		return b
	}
	x := e.Eval(args[1], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	return numPow(b.Number, x.Number)
}

func fnLog(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	base := 10.0
	if len(args) == 2 {
		b := e.Eval(args[1], sheet).ToNumber()
		if b.IsError() {
			return b
		}
		base = b.Number
	}
	return Num(math.Log(x.Number) / math.Log(base))
}

func fnMod(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	n := e.Eval(args[0], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	d := e.Eval(args[1], sheet).ToNumber()
	if d.IsError() {
		return d
	}
	if d.Number == 0 {
		return ErrVal(ErrDiv0)
	}
	m := math.Mod(n.Number, d.Number)
	if m != 0 && (m < 0) != (d.Number < 0) {
		m += d.Number
	}
	return Num(m)
}

func fnRound(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	d := e.Eval(args[1], sheet).ToNumber()
	if d.IsError() {
		return d
	}
	factor := math.Pow(10, d.Number)
	v := x.Number * factor
	if v >= 0 {
		v = math.Floor(v + 0.5)
	} else {
		v = math.Ceil(v - 0.5)
	}
	return Num(v / factor)
}

func fnRoundUpDown(up bool) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 2 {
			return ErrVal(ErrValue)
		}
		x := e.Eval(args[0], sheet).ToNumber()
		if x.IsError() {
			return x
		}
		d := e.Eval(args[1], sheet).ToNumber()
		if d.IsError() {
			return d
		}
		factor := math.Pow(10, d.Number)
		v := x.Number * factor
		if up {
			if v >= 0 {
				v = math.Ceil(v)
			} else {
				v = math.Floor(v)
			}
		} else {
			if v >= 0 {
				v = math.Floor(v)
			} else {
				v = math.Ceil(v)
			}
		}
		return Num(v / factor)
	}
}

func fnTrunc(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	digits := 0.0
	if len(args) > 1 {
		d := e.Eval(args[1], sheet).ToNumber()
		if d.IsError() {
			return d
		}
		digits = d.Number
	}
	factor := math.Pow(10, digits)
	return Num(math.Trunc(x.Number*factor) / factor)
}

func fnSign(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	switch {
	case x.Number > 0:
		return Num(1)
	case x.Number < 0:
		return Num(-1)
	default:
		return Num(0)
	}
}

func fnAtan2(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	y := e.Eval(args[1], sheet).ToNumber()
	if y.IsError() {
		return y
	}
	return Num(math.Atan2(y.Number, x.Number))
}

func fnCeiling(e *Evaluator, sheet string, args []Node) Value {
	return fnMultipleOf(e, sheet, args, math.Ceil)
}

func fnFloor(e *Evaluator, sheet string, args []Node) Value {
	return fnMultipleOf(e, sheet, args, math.Floor)
}

func fnMultipleOf(e *Evaluator, sheet string, args []Node, round func(float64) float64) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	sig := e.Eval(args[1], sheet).ToNumber()
	if sig.IsError() {
		return sig
	}
	if sig.Number == 0 {
		return Num(0)
	}
	return Num(round(x.Number/sig.Number) * sig.Number)
}

func fnFact(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	x := e.Eval(args[0], sheet).ToNumber()
	if x.IsError() {
		return x
	}
	n := int(x.Number)
	if n < 0 {
		return ErrVal(ErrNum)
	}
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return Num(result)
}

func fnGCD(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	if len(nums) == 0 {
		return Num(0)
	}
	g := int64(nums[0])
	for _, n := range nums[1:] {
		g = gcd(g, int64(n))
	}
	if g < 0 {
		g = -g
	}
	return Num(float64(g))
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func fnLCM(e *Evaluator, sheet string, args []Node) Value {
	nums, errv := evalNums(e, sheet, args)
	if errv.IsError() {
		return errv
	}
	if len(nums) == 0 {
		return Num(0)
	}
	l := int64(nums[0])
	for _, n := range nums[1:] {
		m := int64(n)
		if l == 0 || m == 0 {
			l = 0
			continue
		}
		l = l / gcd(l, m) * m
	}
	if l < 0 {
		l = -l
	}
	return Num(float64(l))
}

// --- conditional aggregates (SUMIF/COUNTIF/AVERAGEIF families) ---

func fnSumIf(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	crit := e.Eval(args[1], sheet)
	rangeVals := e.flattenArg(args[0], sheet)
	sumVals := rangeVals
	if len(args) == 3 {
		sumVals = e.flattenArg(args[2], sheet)
	}
	var total float64
	for i, v := range rangeVals {
		if i >= len(sumVals) {
			break
		}
		if matchCriteria(v, crit) {
			n := sumVals[i].ToNumber()
			if !n.IsError() {
				total += n.Number
			}
		}
	}
	return Num(total)
}

func fnSumIfs(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args)%2 == 0 {
		return ErrVal(ErrValue)
	}
	sumVals := e.flattenArg(args[0], sheet)
	var total float64
	for i := range sumVals {
		match := true
		for p := 1; p+1 < len(args); p += 2 {
			rangeVals := e.flattenArg(args[p], sheet)
			crit := e.Eval(args[p+1], sheet)
			if i >= len(rangeVals) || !matchCriteria(rangeVals[i], crit) {
				match = false
				break
			}
		}
		if match {
			n := sumVals[i].ToNumber()
			if !n.IsError() {
				total += n.Number
			}
		}
	}
	return Num(total)
}

func fnCountIf(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	crit := e.Eval(args[1], sheet)
	n := 0
	for _, v := range e.flattenArg(args[0], sheet) {
		if matchCriteria(v, crit) {
			n++
		}
	}
	return Num(float64(n))
}

func fnCountIfs(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args)%2 != 0 {
		return ErrVal(ErrValue)
	}
	first := e.flattenArg(args[0], sheet)
	count := 0
	for i := range first {
		match := true
		for p := 0; p+1 < len(args); p += 2 {
			rangeVals := e.flattenArg(args[p], sheet)
			crit := e.Eval(args[p+1], sheet)
			if i >= len(rangeVals) || !matchCriteria(rangeVals[i], crit) {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return Num(float64(count))
}

func fnAverageIf(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	crit := e.Eval(args[1], sheet)
	rangeVals := e.flattenArg(args[0], sheet)
	avgVals := rangeVals
	if len(args) == 3 {
		avgVals = e.flattenArg(args[2], sheet)
	}
	var total float64
	n := 0
	for i, v := range rangeVals {
		if i >= len(avgVals) {
			break
		}
		if matchCriteria(v, crit) {
			x := avgVals[i].ToNumber()
			if !x.IsError() {
				total += x.Number
				n++
			}
		}
	}
	if n == 0 {
		return ErrVal(ErrDiv0)
	}
	return Num(total / float64(n))
}

// matchCriteria implements the SUMIF/COUNTIF-family criteria grammar: a
// bare value compares equal, a string starting with a comparison operator
// is a relational test, anything else compares as equal text/number.
func matchCriteria(v, crit Value) bool {
	if crit.Kind != KString {
		return compareValues(v, crit) == 0
	}
	s := crit.Text
	for _, op := range []string{">=", "<=", "<>", ">", "<", "="} {
		if strings.HasPrefix(s, op) {
			rhs := strings.TrimSpace(strings.TrimPrefix(s, op))
			var rv Value
			if f, err := strconv.ParseFloat(rhs, 64); err == nil {
				rv = Num(f)
			} else {
				rv = Str(rhs)
			}
			cmp := compareValues(v, rv)
			switch op {
			case ">=":
				return cmp >= 0
			case "<=":
				return cmp <= 0
			case "<>":
				return cmp != 0
			case ">":
				return cmp > 0
			case "<":
				return cmp < 0
			default:
				return cmp == 0
			}
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return compareValues(v, Num(f)) == 0
	}
	return strings.EqualFold(v.ToText(), s)
}

// --- logical ---

func fnIf(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	cond := e.Eval(args[0], sheet).ToBool()
	if cond.IsError() {
		return cond
	}
	if cond.Bool {
		return e.Eval(args[1], sheet)
	}
	if len(args) == 3 {
		return e.Eval(args[2], sheet)
	}
	return Boolean(false)
}

func fnIfError(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.IsError() {
		return e.Eval(args[1], sheet)
	}
	return v
}

func fnIfNA(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.Kind == KError && v.Err == ErrNA {
		return e.Eval(args[1], sheet)
	}
	return v
}

func fnAnd(e *Evaluator, sheet string, args []Node) Value {
	result := true
	for _, a := range args {
		for _, v := range e.flattenArg(a, sheet) {
			b := v.ToBool()
			if b.IsError() {
				return b
			}
			result = result && b.Bool
		}
	}
	return Boolean(result)
}

func fnOr(e *Evaluator, sheet string, args []Node) Value {
	result := false
	for _, a := range args {
		for _, v := range e.flattenArg(a, sheet) {
			b := v.ToBool()
			if b.IsError() {
				return b
			}
			result = result || b.Bool
		}
	}
	return Boolean(result)
}

func fnXor(e *Evaluator, sheet string, args []Node) Value {
	count := 0
	for _, a := range args {
		for _, v := range e.flattenArg(a, sheet) {
			b := v.ToBool()
			if b.IsError() {
				return b
			}
			if b.Bool {
				count++
			}
		}
	}
	return Boolean(count%2 == 1)
}

func fnNot(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	b := e.Eval(args[0], sheet).ToBool()
	if b.IsError() {
		return b
	}
	return Boolean(!b.Bool)
}

// fnIfs evaluates cond/value pairs left to right and returns the value
// belonging to the first true condition, #N/A if none match.
func fnIfs(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args)%2 != 0 {
		return ErrVal(ErrValue)
	}
	for i := 0; i+1 < len(args); i += 2 {
		cond := e.Eval(args[i], sheet).ToBool()
		if cond.IsError() {
			return cond
		}
		if cond.Bool {
			return e.Eval(args[i+1], sheet)
		}
	}
	return ErrVal(ErrNA)
}

// fnSwitch compares expr against each value in turn, returning the matching
// result, or the trailing default argument if no value matches.
func fnSwitch(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 {
		return ErrVal(ErrValue)
	}
	expr := e.Eval(args[0], sheet)
	i := 1
	for ; i+1 < len(args); i += 2 {
		if compareValues(expr, e.Eval(args[i], sheet)) == 0 {
			return e.Eval(args[i+1], sheet)
		}
	}
	if i < len(args) {
		return e.Eval(args[i], sheet)
	}
	return ErrVal(ErrNA)
}

// --- information ---

func fnIsBlank(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	return Boolean(e.Eval(args[0], sheet).Kind == KEmpty)
}

func fnIsKind(k Kind) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 1 {
			return ErrVal(ErrValue)
		}
		return Boolean(e.Eval(args[0], sheet).Kind == k)
	}
}

func fnIsError(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	return Boolean(e.Eval(args[0], sheet).IsError())
}

func fnIsNA(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	return Boolean(v.Kind == KError && v.Err == ErrNA)
}

func fnIsErr(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	return Boolean(v.Kind == KError && v.Err != ErrNA)
}

// fnIsEvenOdd builds ISEVEN/ISODD, which parity-check the truncated integer
// part of their argument.
func fnIsEvenOdd(even bool) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 1 {
			return ErrVal(ErrValue)
		}
		n := e.Eval(args[0], sheet).ToNumber()
		if n.IsError() {
			return n
		}
		isEven := int64(math.Trunc(n.Number))%2 == 0
		return Boolean(isEven == even)
	}
}

// fnIsRef inspects the raw argument node rather than its evaluated value,
// since a reference to an empty cell is still a reference.
func fnIsRef(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	switch t := args[0].(type) {
	case RefNode, RangeNode:
		return Boolean(true)
	case NameNode:
		refersTo, ok := e.R.DefinedName(t.Name, sheet)
		if !ok {
			return Boolean(false)
		}
		switch parseRefText(refersTo).(type) {
		case RefNode, RangeNode:
			return Boolean(true)
		default:
			return Boolean(false)
		}
	default:
		return Boolean(false)
	}
}

// fnIsFormula always reports false: the Resolver this package evaluates
// against exposes cell values only, with no way to ask whether a cell's
// stored content was a formula or a literal.
func fnIsFormula(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	return Boolean(false)
}

func fnType(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	switch e.Eval(args[0], sheet).Kind {
	case KNumber, KEmpty:
		return Num(1)
	case KString:
		return Num(2)
	case KBool:
		return Num(4)
	case KError:
		return Num(16)
	case KArray:
		return Num(64)
	default:
		return Num(1)
	}
}

func fnErrorType(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.Kind != KError {
		return ErrVal(ErrNA)
	}
	switch v.Err {
	case ErrNull:
		return Num(1)
	case ErrDiv0:
		return Num(2)
	case ErrValue:
		return Num(3)
	case ErrRef:
		return Num(4)
	case ErrName:
		return Num(5)
	case ErrNum:
		return Num(6)
	case ErrNA:
		return Num(7)
	default:
		return ErrVal(ErrNA)
	}
}

// fnCell implements the handful of CELL info types that make sense without a
// live worksheet display: row, col, address, contents, and type.
func fnCell(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	infoType := strings.ToLower(e.Eval(args[0], sheet).ToText())
	var ref RefNode
	haveRef := false
	if len(args) == 2 {
		ref, haveRef = args[1].(RefNode)
	}
	switch infoType {
	case "row":
		if !haveRef {
			return ErrVal(ErrValue)
		}
		return Num(float64(ref.Row))
	case "col":
		if !haveRef {
			return ErrVal(ErrValue)
		}
		return Num(float64(ref.Col))
	case "address":
		if !haveRef {
			return ErrVal(ErrValue)
		}
		return Str("$" + colNumToName(ref.Col) + "$" + strconv.Itoa(ref.Row))
	case "contents":
		if !haveRef {
			return ErrVal(ErrValue)
		}
		return e.Eval(ref, sheet)
	case "type":
		v := Empty()
		if haveRef {
			v = e.Eval(ref, sheet)
		}
		switch v.Kind {
		case KEmpty:
			return Str("b")
		case KString:
			return Str("l")
		default:
			return Str("v")
		}
	default:
		return ErrVal(ErrValue)
	}
}

// fnInfo implements a handful of INFO categories meaningful to a headless
// engine; categories that describe the host UI (e.g. "directory") are
// deliberately not supported.
func fnInfo(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	switch strings.ToLower(e.Eval(args[0], sheet).ToText()) {
	case "numfile":
		return Num(1)
	case "osversion":
		return Str("SheetKit")
	case "release":
		return Str("1")
	case "system":
		return Str("pcdos")
	case "recalc":
		return Str("Automatic")
	default:
		return ErrVal(ErrValue)
	}
}

func fnN(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.IsError() {
		return v
	}
	return v.ToNumber()
}

func fnT(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.Kind == KString {
		return v
	}
	return Str("")
}

// --- text ---

func fnConcatenate(e *Evaluator, sheet string, args []Node) Value {
	var b strings.Builder
	for _, a := range args {
		for _, v := range e.flattenArg(a, sheet) {
			if v.IsError() {
				return v
			}
			b.WriteString(v.ToText())
		}
	}
	return Str(b.String())
}

func fnLeft(e *Evaluator, sheet string, args []Node) Value {
	return fnSideSlice(e, sheet, args, true)
}

func fnRight(e *Evaluator, sheet string, args []Node) Value {
	return fnSideSlice(e, sheet, args, false)
}

func fnSideSlice(e *Evaluator, sheet string, args []Node, left bool) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	s := e.Eval(args[0], sheet)
	if s.IsError() {
		return s
	}
	n := 1
	if len(args) == 2 {
		nv := e.Eval(args[1], sheet).ToNumber()
		if nv.IsError() {
			return nv
		}
		n = int(nv.Number)
	}
	text := []rune(s.ToText())
	if n < 0 {
		return ErrVal(ErrValue)
	}
	if n > len(text) {
		n = len(text)
	}
	if left {
		return Str(string(text[:n]))
	}
	return Str(string(text[len(text)-n:]))
}

func fnMid(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 3 {
		return ErrVal(ErrValue)
	}
	s := e.Eval(args[0], sheet)
	if s.IsError() {
		return s
	}
	start := e.Eval(args[1], sheet).ToNumber()
	if start.IsError() {
		return start
	}
	n := e.Eval(args[2], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	text := []rune(s.ToText())
	i := int(start.Number) - 1
	if i < 0 || i > len(text) {
		return ErrVal(ErrValue)
	}
	j := i + int(n.Number)
	if j > len(text) {
		j = len(text)
	}
	if j < i {
		j = i
	}
	return Str(string(text[i:j]))
}

func fnLen(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.IsError() {
		return v
	}
	return Num(float64(len([]rune(v.ToText()))))
}

func fnTrim(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.IsError() {
		return v
	}
	fields := strings.Fields(v.ToText())
	return Str(strings.Join(fields, " "))
}

func fnProper(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.IsError() {
		return v
	}
	return Str(strings.Title(strings.ToLower(v.ToText())))
}

func fnSubstitute(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args) > 4 {
		return ErrVal(ErrValue)
	}
	text := e.Eval(args[0], sheet).ToText()
	old := e.Eval(args[1], sheet).ToText()
	newText := e.Eval(args[2], sheet).ToText()
	if len(args) == 3 {
		return Str(strings.ReplaceAll(text, old, newText))
	}
	n := e.Eval(args[3], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	occurrence := int(n.Number)
	count := 0
	idx := 0
	for {
		rel := strings.Index(text[idx:], old)
		if rel < 0 {
			return Str(text)
		}
		abs := idx + rel
		count++
		if count == occurrence {
			return Str(text[:abs] + newText + text[abs+len(old):])
		}
		idx = abs + len(old)
	}
}

func fnReplace(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 4 {
		return ErrVal(ErrValue)
	}
	text := []rune(e.Eval(args[0], sheet).ToText())
	start := e.Eval(args[1], sheet).ToNumber()
	if start.IsError() {
		return start
	}
	n := e.Eval(args[2], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	newText := e.Eval(args[3], sheet).ToText()
	i := int(start.Number) - 1
	if i < 0 || i > len(text) {
		return ErrVal(ErrValue)
	}
	j := i + int(n.Number)
	if j > len(text) {
		j = len(text)
	}
	return Str(string(text[:i]) + newText + string(text[j:]))
}

func fnFind(caseSensitive bool) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) < 2 || len(args) > 3 {
			return ErrVal(ErrValue)
		}
		needle := e.Eval(args[0], sheet).ToText()
		hay := e.Eval(args[1], sheet).ToText()
		start := 1
		if len(args) == 3 {
			n := e.Eval(args[2], sheet).ToNumber()
			if n.IsError() {
				return n
			}
			start = int(n.Number)
		}
		if start < 1 || start > len([]rune(hay))+1 {
			return ErrVal(ErrValue)
		}
		h, ndl := hay, needle
		if !caseSensitive {
			h, ndl = strings.ToUpper(hay), strings.ToUpper(needle)
		}
		runes := []rune(h)
		idx := strings.Index(string(runes[start-1:]), ndl)
		if idx < 0 {
			return ErrVal(ErrValue)
		}
		return Num(float64(start + len([]rune(string(runes[start-1:])[:idx]))))
	}
}

func fnText(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.IsError() {
		return v
	}
	_ = e.Eval(args[1], sheet) // format code: evaluated but not applied; the value's plain text form is returned
	return Str(v.ToText())
}

func fnValue(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	v := e.Eval(args[0], sheet)
	if v.IsError() {
		return v
	}
	n := v.ToNumber()
	if n.IsError() {
		return ErrVal(ErrValue)
	}
	return n
}

func fnRept(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	s := e.Eval(args[0], sheet).ToText()
	n := e.Eval(args[1], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	if n.Number < 0 {
		return ErrVal(ErrValue)
	}
	return Str(strings.Repeat(s, int(n.Number)))
}

func fnExact(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	a := e.Eval(args[0], sheet)
	b := e.Eval(args[1], sheet)
	return Boolean(a.ToText() == b.ToText())
}

// --- date-time ---

const daysFrom1900Epoch = 25569.0 // days between 1899-12-30 and the Unix epoch

func fnToday(e *Evaluator, sheet string, args []Node) Value {
	return Num(math.Floor(daysFrom1900Epoch + float64(time.Now().Unix())/86400))
}

func fnNow(e *Evaluator, sheet string, args []Node) Value {
	return Num(daysFrom1900Epoch + float64(time.Now().Unix())/86400)
}

func fnDate(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 3 {
		return ErrVal(ErrValue)
	}
	y := e.Eval(args[0], sheet).ToNumber()
	m := e.Eval(args[1], sheet).ToNumber()
	d := e.Eval(args[2], sheet).ToNumber()
	if y.IsError() || m.IsError() || d.IsError() {
		return ErrVal(ErrValue)
	}
	t := time.Date(int(y.Number), time.Month(int(m.Number)), int(d.Number), 0, 0, 0, 0, time.UTC)
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return Num(t.Sub(epoch).Hours() / 24)
}

type datePart int

const (
	datePartYear datePart = iota
	datePartMonth
	datePartDay
	datePartHour
	datePartMinute
	datePartSecond
)

func fnDatePart(part datePart) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 1 {
			return ErrVal(ErrValue)
		}
		serial := e.Eval(args[0], sheet).ToNumber()
		if serial.IsError() {
			return serial
		}
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		t := epoch.Add(time.Duration(serial.Number * 24 * float64(time.Hour)))
		switch part {
		case datePartYear:
			return Num(float64(t.Year()))
		case datePartMonth:
			return Num(float64(t.Month()))
		case datePartDay:
			return Num(float64(t.Day()))
		case datePartHour:
			return Num(float64(t.Hour()))
		case datePartMinute:
			return Num(float64(t.Minute()))
		default:
			return Num(float64(t.Second()))
		}
	}
}

func fnWeekday(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	serial := e.Eval(args[0], sheet).ToNumber()
	if serial.IsError() {
		return serial
	}
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	t := epoch.Add(time.Duration(serial.Number * 24 * float64(time.Hour)))
	return Num(float64(t.Weekday()) + 1)
}

// serialToTime and timeToSerial share the same Dec-30-1899 epoch as fnDate
// and fnDatePart above, for consistency within this package's own date
// arithmetic.
func serialToTime(serial float64) time.Time {
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return epoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
}

func timeToSerial(t time.Time) float64 {
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return t.Sub(epoch).Hours() / 24
}

func fnTime(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 3 {
		return ErrVal(ErrValue)
	}
	h := e.Eval(args[0], sheet).ToNumber()
	m := e.Eval(args[1], sheet).ToNumber()
	s := e.Eval(args[2], sheet).ToNumber()
	if h.IsError() || m.IsError() || s.IsError() {
		return ErrVal(ErrValue)
	}
	total := h.Number*3600 + m.Number*60 + s.Number
	frac := math.Mod(total/86400, 1)
	if frac < 0 {
		frac++
	}
	return Num(frac)
}

func fnEdate(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	serial := e.Eval(args[0], sheet).ToNumber()
	months := e.Eval(args[1], sheet).ToNumber()
	if serial.IsError() || months.IsError() {
		return ErrVal(ErrValue)
	}
	t := serialToTime(serial.Number).AddDate(0, int(months.Number), 0)
	return Num(timeToSerial(t))
}

func fnEomonth(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	serial := e.Eval(args[0], sheet).ToNumber()
	months := e.Eval(args[1], sheet).ToNumber()
	if serial.IsError() || months.IsError() {
		return ErrVal(ErrValue)
	}
	t := serialToTime(serial.Number)
	firstOfNext := time.Date(t.Year(), t.Month()+time.Month(int(months.Number))+1, 1, 0, 0, 0, 0, time.UTC)
	return Num(timeToSerial(firstOfNext.AddDate(0, 0, -1)))
}

// fnDatedif implements DATEDIF's Y/M/D/MD/YM/YD units; unrecognised units
// return #NUM! the way Excel does rather than silently falling back.
func fnDatedif(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 3 {
		return ErrVal(ErrValue)
	}
	startN := e.Eval(args[0], sheet).ToNumber()
	endN := e.Eval(args[1], sheet).ToNumber()
	unit := strings.ToUpper(e.Eval(args[2], sheet).ToText())
	if startN.IsError() || endN.IsError() {
		return ErrVal(ErrValue)
	}
	start := serialToTime(startN.Number)
	end := serialToTime(endN.Number)
	if end.Before(start) {
		return ErrVal(ErrNum)
	}
	switch unit {
	case "Y":
		years := end.Year() - start.Year()
		if end.Month() < start.Month() || (end.Month() == start.Month() && end.Day() < start.Day()) {
			years--
		}
		return Num(float64(years))
	case "M":
		months := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
		if end.Day() < start.Day() {
			months--
		}
		return Num(float64(months))
	case "D":
		return Num(end.Sub(start).Hours() / 24)
	case "MD":
		days := end.Day() - start.Day()
		if days < 0 {
			priorMonthEnd := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
			days += priorMonthEnd.Day()
		}
		return Num(float64(days))
	case "YM":
		months := int(end.Month() - start.Month())
		if end.Day() < start.Day() {
			months--
		}
		if months < 0 {
			months += 12
		}
		return Num(float64(months))
	case "YD":
		sameYear := time.Date(end.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		if sameYear.After(end) {
			sameYear = time.Date(end.Year()-1, start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		}
		return Num(end.Sub(sameYear).Hours() / 24)
	default:
		return ErrVal(ErrNum)
	}
}

func fnDatevalue(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	text := strings.TrimSpace(e.Eval(args[0], sheet).ToText())
	for _, layout := range []string{"2006-01-02", "1/2/2006", "01/02/2006", "Jan 2, 2006", "2-Jan-2006"} {
		if t, err := time.Parse(layout, text); err == nil {
			return Num(timeToSerial(t))
		}
	}
	return ErrVal(ErrValue)
}

func fnTimevalue(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	text := strings.TrimSpace(e.Eval(args[0], sheet).ToText())
	for _, layout := range []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM"} {
		if t, err := time.Parse(layout, text); err == nil {
			frac := (float64(t.Hour())*3600 + float64(t.Minute())*60 + float64(t.Second())) / 86400
			return Num(frac)
		}
	}
	return ErrVal(ErrValue)
}

func fnDays(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 2 {
		return ErrVal(ErrValue)
	}
	end := e.Eval(args[0], sheet).ToNumber()
	start := e.Eval(args[1], sheet).ToNumber()
	if end.IsError() || start.IsError() {
		return ErrVal(ErrValue)
	}
	return Num(end.Number - start.Number)
}

func serialIsWeekend(d float64) bool {
	w := serialToTime(d).Weekday()
	return w == time.Saturday || w == time.Sunday
}

func holidaySet(e *Evaluator, sheet string, n Node) map[int64]bool {
	set := map[int64]bool{}
	for _, v := range e.flattenArg(n, sheet) {
		d := v.ToNumber()
		if !d.IsError() {
			set[int64(math.Floor(d.Number))] = true
		}
	}
	return set
}

func fnNetworkdays(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	startN := e.Eval(args[0], sheet).ToNumber()
	endN := e.Eval(args[1], sheet).ToNumber()
	if startN.IsError() || endN.IsError() {
		return ErrVal(ErrValue)
	}
	var holidays map[int64]bool
	if len(args) == 3 {
		holidays = holidaySet(e, sheet, args[2])
	}
	s, en := startN.Number, endN.Number
	sign := 1.0
	if en < s {
		s, en = en, s
		sign = -1
	}
	count := 0
	for d := math.Floor(s); d <= math.Floor(en); d++ {
		if serialIsWeekend(d) || holidays[int64(d)] {
			continue
		}
		count++
	}
	return Num(sign * float64(count))
}

func fnWorkday(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	startN := e.Eval(args[0], sheet).ToNumber()
	daysN := e.Eval(args[1], sheet).ToNumber()
	if startN.IsError() || daysN.IsError() {
		return ErrVal(ErrValue)
	}
	var holidays map[int64]bool
	if len(args) == 3 {
		holidays = holidaySet(e, sheet, args[2])
	}
	step := 1.0
	remaining := int(daysN.Number)
	if remaining < 0 {
		step = -1
		remaining = -remaining
	}
	d := math.Floor(startN.Number)
	for remaining > 0 {
		d += step
		if serialIsWeekend(d) || holidays[int64(d)] {
			continue
		}
		remaining--
	}
	return Num(d)
}

func fnYearfrac(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	startN := e.Eval(args[0], sheet).ToNumber()
	endN := e.Eval(args[1], sheet).ToNumber()
	if startN.IsError() || endN.IsError() {
		return ErrVal(ErrValue)
	}
	basis := 0
	if len(args) == 3 {
		b := e.Eval(args[2], sheet).ToNumber()
		if !b.IsError() {
			basis = int(b.Number)
		}
	}
	s, en := startN.Number, endN.Number
	if en < s {
		s, en = en, s
	}
	switch basis {
	case 1, 3:
		return Num((en - s) / 365)
	case 2:
		return Num((en - s) / 360)
	default: // 0: 30/360 US (NASD)
		st, et := serialToTime(s), serialToTime(en)
		d1, d2 := st.Day(), et.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 == 30 {
			d2 = 30
		}
		days := (et.Year()-st.Year())*360 + int(et.Month()-st.Month())*30 + (d2 - d1)
		return Num(float64(days) / 360)
	}
}

// --- lookup & reference ---

func fnVlookup(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args) > 4 {
		return ErrVal(ErrValue)
	}
	rn, ok := args[1].(RangeNode)
	if !ok {
		return ErrVal(ErrValue)
	}
	key := e.Eval(args[0], sheet)
	table := e.evalRangeAsArray(rn, sheet)
	colIdx := e.Eval(args[2], sheet).ToNumber()
	if colIdx.IsError() {
		return colIdx
	}
	approximate := true
	if len(args) == 4 {
		b := e.Eval(args[3], sheet).ToBool()
		if !b.IsError() {
			approximate = b.Bool
		}
	}
	ci := int(colIdx.Number) - 1
	if ci < 0 {
		return ErrVal(ErrValue)
	}
	var best Value
	found := false
	for _, row := range table {
		if len(row) == 0 {
			continue
		}
		cmp := compareValues(row[0], key)
		if approximate {
			if cmp <= 0 {
				if ci < len(row) {
					best = row[ci]
				}
				found = true
			}
		} else if cmp == 0 {
			if ci >= len(row) {
				return ErrVal(ErrRef)
			}
			return row[ci]
		}
	}
	if !found {
		return ErrVal(ErrNA)
	}
	return best
}

func fnHlookup(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args) > 4 {
		return ErrVal(ErrValue)
	}
	rn, ok := args[1].(RangeNode)
	if !ok {
		return ErrVal(ErrValue)
	}
	key := e.Eval(args[0], sheet)
	table := e.evalRangeAsArray(rn, sheet)
	rowIdx := e.Eval(args[2], sheet).ToNumber()
	if rowIdx.IsError() {
		return rowIdx
	}
	ri := int(rowIdx.Number) - 1
	if ri < 0 || ri >= len(table) || len(table) == 0 {
		return ErrVal(ErrRef)
	}
	for col := 0; col < len(table[0]); col++ {
		if compareValues(table[0][col], key) == 0 {
			if col >= len(table[ri]) {
				return ErrVal(ErrRef)
			}
			return table[ri][col]
		}
	}
	return ErrVal(ErrNA)
}

func fnIndex(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	rn, ok := args[0].(RangeNode)
	if !ok {
		return ErrVal(ErrValue)
	}
	table := e.evalRangeAsArray(rn, sheet)
	rowIdx := e.Eval(args[1], sheet).ToNumber()
	if rowIdx.IsError() {
		return rowIdx
	}
	colIdx := 1.0
	if len(args) == 3 {
		c := e.Eval(args[2], sheet).ToNumber()
		if c.IsError() {
			return c
		}
		colIdx = c.Number
	}
	ri, ci := int(rowIdx.Number)-1, int(colIdx)-1
	if ri < 0 || ri >= len(table) || ci < 0 || ci >= len(table[ri]) {
		return ErrVal(ErrRef)
	}
	return table[ri][ci]
}

func fnMatch(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	key := e.Eval(args[0], sheet)
	vals := e.flattenArg(args[1], sheet)
	matchType := 1
	if len(args) == 3 {
		m := e.Eval(args[2], sheet).ToNumber()
		if !m.IsError() {
			matchType = int(m.Number)
		}
	}
	switch matchType {
	case 0:
		for i, v := range vals {
			if compareValues(v, key) == 0 {
				return Num(float64(i + 1))
			}
		}
		return ErrVal(ErrNA)
	case 1:
		best := -1
		for i, v := range vals {
			if compareValues(v, key) <= 0 {
				best = i
			}
		}
		if best < 0 {
			return ErrVal(ErrNA)
		}
		return Num(float64(best + 1))
	default:
		best := -1
		for i, v := range vals {
			if compareValues(v, key) >= 0 {
				best = i
				break
			}
		}
		if best < 0 {
			return ErrVal(ErrNA)
		}
		return Num(float64(best + 1))
	}
}

func fnRow(e *Evaluator, sheet string, args []Node) Value {
	if len(args) == 0 {
		return ErrVal(ErrValue)
	}
	if r, ok := args[0].(RefNode); ok {
		return Num(float64(r.Row))
	}
	if r, ok := args[0].(RangeNode); ok {
		return Num(float64(r.R1))
	}
	return ErrVal(ErrValue)
}

func fnColumn(e *Evaluator, sheet string, args []Node) Value {
	if len(args) == 0 {
		return ErrVal(ErrValue)
	}
	if r, ok := args[0].(RefNode); ok {
		return Num(float64(r.Col))
	}
	if r, ok := args[0].(RangeNode); ok {
		return Num(float64(r.C1))
	}
	return ErrVal(ErrValue)
}

func fnRows(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	rn, ok := args[0].(RangeNode)
	if !ok {
		return Num(1)
	}
	r1, r2 := rn.R1, rn.R2
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	return Num(float64(r2 - r1 + 1))
}

func fnColumns(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	rn, ok := args[0].(RangeNode)
	if !ok {
		return Num(1)
	}
	c1, c2 := rn.C1, rn.C2
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	return Num(float64(c2 - c1 + 1))
}

// fnChoose evaluates only the selected branch, matching the short-circuit
// style fnIf/fnIfError/fnIfNA already use.
func fnChoose(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 {
		return ErrVal(ErrValue)
	}
	idx := e.Eval(args[0], sheet).ToNumber()
	if idx.IsError() {
		return idx
	}
	i := int(idx.Number)
	if i < 1 || i > len(args)-1 {
		return ErrVal(ErrValue)
	}
	return e.Eval(args[i], sheet)
}

// fnLookup implements the vector form: lookup_value against an ascending
// lookup_vector, returning the matching entry in result_vector (or the
// lookup_vector itself when no result_vector is given).
func fnLookup(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 3 {
		return ErrVal(ErrValue)
	}
	key := e.Eval(args[0], sheet)
	vec := e.flattenArg(args[1], sheet)
	res := vec
	if len(args) == 3 {
		res = e.flattenArg(args[2], sheet)
	}
	best := -1
	for i, v := range vec {
		if compareValues(v, key) <= 0 {
			best = i
		} else {
			break
		}
	}
	if best < 0 || best >= len(res) {
		return ErrVal(ErrNA)
	}
	return res[best]
}

// refBounds extracts a base sheet and normalised rectangle from a reference
// node, for OFFSET to shift.
func refBounds(n Node, sheet string) (s string, c1, r1, c2, r2 int, ok bool) {
	switch t := n.(type) {
	case RefNode:
		s = t.Sheet
		if s == "" {
			s = sheet
		}
		return s, t.Col, t.Row, t.Col, t.Row, true
	case RangeNode:
		s = t.Sheet
		if s == "" {
			s = sheet
		}
		c1, c2 = t.C1, t.C2
		if c2 < c1 {
			c1, c2 = c2, c1
		}
		r1, r2 = t.R1, t.R2
		if r2 < r1 {
			r1, r2 = r2, r1
		}
		return s, c1, r1, c2, r2, true
	default:
		return "", 0, 0, 0, 0, false
	}
}

// fnOffset computes the shifted rectangle directly against the Resolver
// rather than building a RangeNode, since the offset is only known at
// evaluation time.
func fnOffset(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args) > 5 {
		return ErrVal(ErrValue)
	}
	baseSheet, c1, r1, c2, r2, ok := refBounds(args[0], sheet)
	if !ok {
		return ErrVal(ErrRef)
	}
	rows := e.Eval(args[1], sheet).ToNumber()
	cols := e.Eval(args[2], sheet).ToNumber()
	if rows.IsError() || cols.IsError() {
		return ErrVal(ErrValue)
	}
	height := r2 - r1 + 1
	width := c2 - c1 + 1
	if len(args) >= 4 {
		h := e.Eval(args[3], sheet).ToNumber()
		if h.IsError() {
			return h
		}
		height = int(h.Number)
	}
	if len(args) == 5 {
		w := e.Eval(args[4], sheet).ToNumber()
		if w.IsError() {
			return w
		}
		width = int(w.Number)
	}
	nr1 := r1 + int(rows.Number)
	nc1 := c1 + int(cols.Number)
	if nr1 < 1 || nc1 < 1 || height < 1 || width < 1 {
		return ErrVal(ErrRef)
	}
	if !e.R.SheetExists(baseSheet) {
		return ErrVal(ErrRef)
	}
	if height == 1 && width == 1 {
		return e.R.Cell(baseSheet, nc1, nr1)
	}
	out := make([][]Value, height)
	for i := 0; i < height; i++ {
		row := make([]Value, width)
		for j := 0; j < width; j++ {
			row[j] = e.R.Cell(baseSheet, nc1+j, nr1+i)
		}
		out[i] = row
	}
	return Value{Kind: KArray, Array: out}
}

// fnIndirect parses its text argument as a reference the same way the lexer
// parses a TokRef, then evaluates the resulting node.
func fnIndirect(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	text := strings.TrimSpace(e.Eval(args[0], sheet).ToText())
	if text == "" {
		return ErrVal(ErrRef)
	}
	node := parseRefText(strings.ToUpper(text))
	switch t := node.(type) {
	case RefNode:
		if t.Col == 0 || t.Row == 0 {
			return ErrVal(ErrRef)
		}
		return e.Eval(t, sheet)
	case RangeNode:
		if t.C1 == 0 || t.R1 == 0 || t.C2 == 0 || t.R2 == 0 {
			return ErrVal(ErrRef)
		}
		return e.Eval(t, sheet)
	default:
		return ErrVal(ErrRef)
	}
}

// fnAddress builds an A1-style address string; abs_num follows Excel's
// 1=both absolute, 2=absolute row and relative column, 3=relative row and
// absolute column, 4=both relative.
func fnAddress(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 2 || len(args) > 5 {
		return ErrVal(ErrValue)
	}
	row := e.Eval(args[0], sheet).ToNumber()
	col := e.Eval(args[1], sheet).ToNumber()
	if row.IsError() || col.IsError() {
		return ErrVal(ErrValue)
	}
	absNum := 1
	if len(args) >= 3 {
		a := e.Eval(args[2], sheet).ToNumber()
		if !a.IsError() {
			absNum = int(a.Number)
		}
	}
	colName := colNumToName(int(col.Number))
	rowStr := strconv.Itoa(int(row.Number))
	var addr string
	switch absNum {
	case 2:
		addr = colName + "$" + rowStr
	case 3:
		addr = "$" + colName + rowStr
	case 4:
		addr = colName + rowStr
	default:
		addr = "$" + colName + "$" + rowStr
	}
	if len(args) == 5 {
		sheetName := e.Eval(args[4], sheet).ToText()
		if sheetName != "" {
			addr = sheetName + "!" + addr
		}
	}
	return Str(addr)
}

// fnTranspose swaps rows and columns; a non-range, non-array argument
// degenerates to a 1x1 array of itself.
func fnTranspose(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	var rows [][]Value
	if rn, ok := args[0].(RangeNode); ok {
		rows = e.evalRangeAsArray(rn, sheet)
	} else if v := e.Eval(args[0], sheet); v.Kind == KArray {
		rows = v.Array
	} else {
		rows = [][]Value{{v}}
	}
	if len(rows) == 0 {
		return Value{Kind: KArray}
	}
	width := len(rows[0])
	out := make([][]Value, width)
	for j := 0; j < width; j++ {
		col := make([]Value, len(rows))
		for i := range rows {
			if j < len(rows[i]) {
				col[i] = rows[i][j]
			} else {
				col[i] = Empty()
			}
		}
		out[j] = col
	}
	return Value{Kind: KArray, Array: out}
}

// --- financial ---

func fnPmt(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args) > 5 {
		return ErrVal(ErrValue)
	}
	rate := e.Eval(args[0], sheet).ToNumber()
	nper := e.Eval(args[1], sheet).ToNumber()
	pv := e.Eval(args[2], sheet).ToNumber()
	if rate.IsError() || nper.IsError() || pv.IsError() {
		return ErrVal(ErrValue)
	}
	fv := 0.0
	if len(args) > 3 {
		fvv := e.Eval(args[3], sheet).ToNumber()
		if fvv.IsError() {
			return fvv
		}
		fv = fvv.Number
	}
	if rate.Number == 0 {
		return Num(-(pv.Number + fv) / nper.Number)
	}
	r := rate.Number
	n := nper.Number
	pow := math.Pow(1+r, n)
	return Num(-(pv.Number*pow + fv) * r / (pow - 1))
}

func fnFv(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args) > 5 {
		return ErrVal(ErrValue)
	}
	rate := e.Eval(args[0], sheet).ToNumber()
	nper := e.Eval(args[1], sheet).ToNumber()
	pmt := e.Eval(args[2], sheet).ToNumber()
	if rate.IsError() || nper.IsError() || pmt.IsError() {
		return ErrVal(ErrValue)
	}
	pv := 0.0
	if len(args) > 3 {
		pvv := e.Eval(args[3], sheet).ToNumber()
		if pvv.IsError() {
			return pvv
		}
		pv = pvv.Number
	}
	if rate.Number == 0 {
		return Num(-(pv + pmt.Number*nper.Number))
	}
	r := rate.Number
	pow := math.Pow(1+r, nper.Number)
	return Num(-(pv*pow + pmt.Number*(pow-1)/r))
}

func fnPv(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 3 || len(args) > 5 {
		return ErrVal(ErrValue)
	}
	rate := e.Eval(args[0], sheet).ToNumber()
	nper := e.Eval(args[1], sheet).ToNumber()
	pmt := e.Eval(args[2], sheet).ToNumber()
	if rate.IsError() || nper.IsError() || pmt.IsError() {
		return ErrVal(ErrValue)
	}
	fv := 0.0
	if len(args) > 3 {
		fvv := e.Eval(args[3], sheet).ToNumber()
		if fvv.IsError() {
			return fvv
		}
		fv = fvv.Number
	}
	if rate.Number == 0 {
		return Num(-(fv + pmt.Number*nper.Number))
	}
	r := rate.Number
	pow := math.Pow(1+r, nper.Number)
	return Num(-(fv + pmt.Number*(pow-1)/r) / pow)
}

// --- engineering ---

func fnBin2Dec(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	s := e.Eval(args[0], sheet).ToText()
	if len(s) > 10 {
		return ErrVal(ErrNum)
	}
	n, err := strconv.ParseInt(s, 2, 64)
	if err != nil {
		return ErrVal(ErrNum)
	}
	if len(s) == 10 && s[0] == '1' {
		n -= 1024
	}
	return Num(float64(n))
}

// padDigits applies DEC2BIN/DEC2HEX's optional places argument: zero-pads
// up to the requested width, or #NUM! if s is already wider.
func padDigits(e *Evaluator, sheet string, args []Node, placesIdx int, s string) Value {
	if len(args) > placesIdx {
		p := e.Eval(args[placesIdx], sheet).ToNumber()
		if p.IsError() {
			return p
		}
		places := int(p.Number)
		if places < len(s) {
			return ErrVal(ErrNum)
		}
		s = strings.Repeat("0", places-len(s)) + s
	}
	return Str(s)
}

func fnDec2Bin(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	n := e.Eval(args[0], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	v := int64(n.Number)
	if v < -512 || v > 511 {
		return ErrVal(ErrNum)
	}
	u := v
	if u < 0 {
		u += 1024
	}
	return padDigits(e, sheet, args, 1, strconv.FormatInt(u, 2))
}

func fnHex2Dec(e *Evaluator, sheet string, args []Node) Value {
	if len(args) != 1 {
		return ErrVal(ErrValue)
	}
	s := e.Eval(args[0], sheet).ToText()
	if len(s) > 10 {
		return ErrVal(ErrNum)
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return ErrVal(ErrNum)
	}
	v := int64(n)
	if len(s) == 10 && s[0] >= '8' {
		v -= 1 << 40
	}
	return Num(float64(v))
}

func fnDec2Hex(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	n := e.Eval(args[0], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	v := int64(n.Number)
	const limit = int64(1) << 39
	if v < -limit || v >= limit {
		return ErrVal(ErrNum)
	}
	u := v
	if u < 0 {
		u += 1 << 40
	}
	return padDigits(e, sheet, args, 1, strings.ToUpper(strconv.FormatInt(u, 16)))
}

// fnBin2Hex and fnHex2Bin compose the decimal conversions above rather than
// reimplementing two's-complement base arithmetic a third time.
func fnBin2Hex(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	d := fnBin2Dec(e, sheet, args[:1])
	if d.IsError() {
		return d
	}
	return fnDec2Hex(e, sheet, append([]Node{NumberLit{Value: d.Number}}, args[1:]...))
}

func fnHex2Bin(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	d := fnHex2Dec(e, sheet, args[:1])
	if d.IsError() {
		return d
	}
	return fnDec2Bin(e, sheet, append([]Node{NumberLit{Value: d.Number}}, args[1:]...))
}

// fnBitOp builds BITAND/BITOR/BITXOR: both operands must be non-negative
// integers below 2^48, matching Excel's documented domain.
func fnBitOp(op func(a, b int64) int64) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 2 {
			return ErrVal(ErrValue)
		}
		a := e.Eval(args[0], sheet).ToNumber()
		b := e.Eval(args[1], sheet).ToNumber()
		if a.IsError() || b.IsError() {
			return ErrVal(ErrValue)
		}
		ai, bi := int64(a.Number), int64(b.Number)
		if ai < 0 || bi < 0 || ai >= 1<<48 || bi >= 1<<48 {
			return ErrVal(ErrNum)
		}
		return Num(float64(op(ai, bi)))
	}
}

// fnBitShift builds BITLSHIFT (sign=1) and BITRSHIFT (sign=-1); a negative
// shift_amount reverses direction in both, per Excel's BITRSHIFT(n,-s) ==
// BITLSHIFT(n,s) equivalence.
func fnBitShift(sign int) builtinFunc {
	return func(e *Evaluator, sheet string, args []Node) Value {
		if len(args) != 2 {
			return ErrVal(ErrValue)
		}
		n := e.Eval(args[0], sheet).ToNumber()
		s := e.Eval(args[1], sheet).ToNumber()
		if n.IsError() || s.IsError() {
			return ErrVal(ErrValue)
		}
		ni := int64(n.Number)
		if ni < 0 || ni >= 1<<48 {
			return ErrVal(ErrNum)
		}
		shift := sign * int(s.Number)
		var result int64
		if shift >= 0 {
			result = ni << uint(shift)
		} else {
			result = ni >> uint(-shift)
		}
		return Num(float64(result))
	}
}

func fnDelta(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	a := e.Eval(args[0], sheet).ToNumber()
	if a.IsError() {
		return a
	}
	b := 0.0
	if len(args) == 2 {
		bv := e.Eval(args[1], sheet).ToNumber()
		if bv.IsError() {
			return bv
		}
		b = bv.Number
	}
	if a.Number == b {
		return Num(1)
	}
	return Num(0)
}

func fnGestep(e *Evaluator, sheet string, args []Node) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrVal(ErrValue)
	}
	n := e.Eval(args[0], sheet).ToNumber()
	if n.IsError() {
		return n
	}
	step := 0.0
	if len(args) == 2 {
		s := e.Eval(args[1], sheet).ToNumber()
		if s.IsError() {
			return s
		}
		step = s.Number
	}
	if n.Number >= step {
		return Num(1)
	}
	return Num(0)
}
