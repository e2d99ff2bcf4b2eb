package lang

import (
	"math"
	"strconv"
	"strings"
)

// Runtime values are int, float64, string, bool, or nil.

// render converts a runtime value to output text. Integral floats print
// without a fractional part and nil prints as "None".
func render(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"

	case string:
		return v

	case int:
		return strconv.Itoa(v)

	case int64:
		return strconv.FormatInt(v, 10)

	case float64:
		return formatFloat(v)

	case bool:
		return strconv.FormatBool(v)

	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber parses s as an int or, failing that, a finite float64.
func parseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}

	return f, true
}

// numeric converts v to a number, parsing numeric strings.
func numeric(v any) (any, bool) {
	switch v := v.(type) {
	case int, float64:
		return v, true

	case int64:
		return int(v), true

	case string:
		return parseNumber(v)

	default:
		return nil, false
	}
}

// toFloat converts v to a float64, parsing numeric strings.
func toFloat(v any) (float64, bool) {
	n, ok := numeric(v)
	if !ok {
		return 0, false
	}

	switch n := n.(type) {
	case int:
		return float64(n), true

	case float64:
		return n, true
	}

	return 0, false
}

// toInt converts v to an int, truncating floats.
func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}

	return int(f), true
}

// truthy reports whether v counts as true in a condition.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false

	case bool:
		return v

	case int:
		return v != 0

	case int64:
		return v != 0

	case float64:
		return v != 0

	case string:
		return v != ""

	default:
		return true
	}
}

// arith applies a binary arithmetic operator to two numbers. Integer
// operands stay integers except under division.
func arith(op Op, a, b any) (any, bool) {
	ai, aInt := a.(int)
	bi, bInt := b.(int)

	if aInt && bInt {
		switch op {
		case OpAdd:
			return ai + bi, true

		case OpSub:
			return ai - bi, true

		case OpMul:
			return ai * bi, true
		}
	}

	af, ok := toFloat(a)
	if !ok {
		return nil, false
	}

	bf, ok := toFloat(b)
	if !ok {
		return nil, false
	}

	switch op {
	case OpAdd:
		return af + bf, true

	case OpSub:
		return af - bf, true

	case OpMul:
		return af * bf, true

	case OpDiv:
		if bf == 0 {
			return nil, false
		}

		return af / bf, true
	}

	return nil, false
}
