package filter

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"

	"scim-patch/internal/accessor"
	"scim-patch/primitive"
)

// compileComparison builds the test of a single value of type leaf against
// the literal of e.
//
// The literal is coerced in the order int, bool, time; the first stage that
// parses the literal and matches the attribute's kind decides how values
// compare. Otherwise strings compare as text, numbers as floats when the
// literal is a float, and everything else only supports eq/ne against the
// printed form of the value.
func compileComparison(e *Comparison, leaf reflect.Type) (evaluator, error) {
	shape, _ := accessor.Classify(leaf)
	if shape != accessor.ShapeScalar {
		return nil, semanticError(e, leaf, "%s attributes cannot be compared", shape)
	}

	kind := primitive.Underlying(leaf)
	lit := primitive.ParseLiteral(e.Value.Text)

	if e.Op.IsSubstring() {
		if kind != primitive.KindString {
			return nil, semanticError(e, leaf, "%s applies to strings only", e.Op)
		}

		return substring(e.Op, e.Value.Text), nil
	}

	switch {
	case lit.Kind == primitive.LiteralInt && kind.IsSigned():
		return ordered(e.Op, func(v reflect.Value) int64 { return v.Int() }, lit.Int), nil
	case lit.Kind == primitive.LiteralInt && kind.IsUnsigned():
		if lit.Int < 0 {
			// every unsigned value is greater than a negative literal
			return ordered(e.Op, func(reflect.Value) int64 { return 1 }, 0), nil
		}

		return ordered(e.Op, func(v reflect.Value) uint64 { return v.Uint() }, uint64(lit.Int)), nil
	case lit.Kind == primitive.LiteralInt && kind.IsFloat():
		return ordered(e.Op, func(v reflect.Value) float64 { return v.Float() }, float64(lit.Int)), nil
	case lit.Kind == primitive.LiteralBool && kind == primitive.KindBool:
		if e.Op.IsOrdering() {
			return nil, semanticError(e, leaf, "%s does not apply to booleans", e.Op)
		}

		return equality(e.Op, func(v reflect.Value) bool { return v.Bool() == lit.Bool }), nil
	case lit.Kind == primitive.LiteralTime && kind == primitive.KindTime:
		return relation(e.Op, func(v reflect.Value) int {
			return v.Interface().(time.Time).Compare(lit.Time)
		}), nil
	}

	// fallback
	switch {
	case kind == primitive.KindString:
		return text(e.Op, e.Value.Text), nil
	case kind.IsNumber():
		if f, ok := primitive.ParseFloat(e.Value.Text); ok {
			return ordered(e.Op, toFloat, f), nil
		}
	}

	if e.Op.IsOrdering() {
		return nil, semanticError(e, leaf, "%s needs a literal of the attribute's type, got %q", e.Op, e.Value.Text)
	}

	return equality(e.Op, func(v reflect.Value) bool {
		return strings.EqualFold(fmt.Sprint(v.Interface()), e.Value.Text)
	}), nil
}

// ordered compares get(v) with want for any of eq ne gt ge lt le.
func ordered[T cmp.Ordered](op Operator, get func(reflect.Value) T, want T) evaluator {
	return relation(op, func(v reflect.Value) int { return cmp.Compare(get(v), want) })
}

// relation applies op to the three-way comparison result of compare.
func relation(op Operator, compare func(reflect.Value) int) evaluator {
	return func(v reflect.Value) bool {
		v = accessor.Indirect(v)
		if !v.IsValid() {
			return false
		}

		c := compare(v)

		switch op {
		case OpEq:
			return c == 0
		case OpNe:
			return c != 0
		case OpGt:
			return c > 0
		case OpGe:
			return c >= 0
		case OpLt:
			return c < 0
		case OpLe:
			return c <= 0
		default:
			return false
		}
	}
}

func equality(op Operator, eq func(reflect.Value) bool) evaluator {
	return func(v reflect.Value) bool {
		v = accessor.Indirect(v)
		if !v.IsValid() {
			return false
		}

		if op == OpNe {
			return !eq(v)
		}

		return eq(v)
	}
}

// text tests equality case-insensitively and orders by byte value.
func text(op Operator, want string) evaluator {
	if op == OpEq || op == OpNe {
		return equality(op, func(v reflect.Value) bool { return strings.EqualFold(v.String(), want) })
	}

	return ordered(op, func(v reflect.Value) string { return v.String() }, want)
}

func substring(op Operator, want string) evaluator {
	want = strings.ToLower(want)

	var match func(s, sub string) bool

	switch op {
	case OpCo:
		match = strings.Contains
	case OpSw:
		match = strings.HasPrefix
	default:
		match = strings.HasSuffix
	}

	return func(v reflect.Value) bool {
		v = accessor.Indirect(v)
		if !v.IsValid() {
			return false
		}

		return match(strings.ToLower(v.String()), want)
	}
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
