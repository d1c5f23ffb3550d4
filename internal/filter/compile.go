package filter

import (
	"fmt"
	"reflect"
	"strings"

	"scim-patch/internal/accessor"
	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
)

// Predicate reports whether a value satisfies a compiled filter.
type Predicate func(v reflect.Value) bool

// Compile specializes expr for values of type t (or pointers to t). Unknown
// attributes and operators that do not apply to an attribute's type fail
// with InvalidFilterSemantics.
func Compile(expr Expression, t reflect.Type) (Predicate, error) {
	eval, err := compile(expr, t)
	if err != nil {
		return nil, err
	}

	return func(v reflect.Value) (ok bool) {
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()

		return eval(v)
	}, nil
}

// CompileText parses text and compiles it for t.
func CompileText(text string, t reflect.Type) (Predicate, error) {
	expr, err := Parse(text)
	if err != nil {
		return nil, err
	}

	return Compile(expr, t)
}

// CompileFor compiles expr for values of type T.
func CompileFor[T any](expr Expression) (func(T) bool, error) {
	pred, err := Compile(expr, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}

	return func(v T) bool {
		return pred(reflect.ValueOf(&v).Elem())
	}, nil
}

type evaluator func(v reflect.Value) bool

func compile(expr Expression, t reflect.Type) (evaluator, error) {
	switch e := expr.(type) {
	case *Logical:
		return compileLogical(e, t)
	case *Not:
		inner, err := compile(e.Expr, t)
		if err != nil {
			return nil, err
		}

		return func(v reflect.Value) bool { return !inner(v) }, nil
	case *Presence:
		c, err := compileChain(e.Path, t)
		if err != nil {
			return nil, err
		}

		return c.exists(func(v reflect.Value) bool { return !accessor.IsAbsent(v) }), nil
	case *Comparison:
		c, err := compileChain(e.Path, t)
		if err != nil {
			return nil, err
		}

		if e.Value.Null {
			return compileNull(e, c)
		}

		cmp, err := compileComparison(e, c.leaf)
		if err != nil {
			return nil, err
		}

		return c.exists(cmp), nil
	case *ValuePath:
		c, err := compileChain(e.Path, t)
		if err != nil {
			return nil, err
		}

		// the sub-filter is specialized for the element type reached by the path
		sub, err := compile(e.Filter, c.leaf)
		if err != nil {
			return nil, err
		}

		return c.exists(sub), nil
	case nil:
		return nil, diagnostic.New(diagnostic.InvalidFilterSemantics, "empty filter")
	default:
		return nil, diagnostic.New(diagnostic.InvalidFilterSemantics, "unsupported filter node %T", expr)
	}
}

// compileNull handles "eq null" and "ne null", which test the absence of
// the whole attribute rather than a property of each of its values.
func compileNull(e *Comparison, c *chain) (evaluator, error) {
	present := c.exists(func(v reflect.Value) bool { return !accessor.IsAbsent(v) })

	switch e.Op {
	case OpEq:
		return func(v reflect.Value) bool { return !present(v) }, nil
	case OpNe:
		return present, nil
	default:
		return nil, semanticError(e, c.leaf, "null only compares with eq or ne")
	}
}

func compileLogical(e *Logical, t reflect.Type) (evaluator, error) {
	left, err := compile(e.Left, t)
	if err != nil {
		return nil, err
	}

	right, err := compile(e.Right, t)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case OpAnd:
		return func(v reflect.Value) bool { return left(v) && right(v) }, nil
	case OpOr:
		return func(v reflect.Value) bool { return left(v) || right(v) }, nil
	default:
		return nil, diagnostic.New(diagnostic.InvalidFilterSemantics, "unknown logical operator %s", e.Op)
	}
}

// chain is a compiled attribute path: a sequence of property reads where
// sequences fan out into their elements.
type chain struct {
	steps []step
	// leaf is the type of the values the chain produces.
	leaf reflect.Type
}

type step struct {
	prop   *accessor.Property
	fanout bool
}

func compileChain(path AttrPath, t reflect.Type) (*chain, error) {
	c := &chain{leaf: t}

	names := path.Names
	if len(names) > 0 && strings.EqualFold(names[0], ThisKeyword) {
		names = names[1:]
	}

	for i, name := range names {
		if i > 0 && accessor.ObjectType(c.leaf) == nil {
			return nil, diagnostic.New(diagnostic.InvalidFilterSemantics,
				"attribute %q of type %s has no sub-attribute %q",
				strings.Join(names[:i], "."), common.TypeName(c.leaf), name)
		}

		prop, err := accessor.Lookup(c.leaf, name)
		if err != nil {
			return nil, diagnostic.Wrap(diagnostic.InvalidFilterSemantics, err,
				"filter attribute %q", path.String())
		}

		c.steps = append(c.steps, step{prop: prop, fanout: prop.Shape == accessor.ShapeSequence})

		if prop.Shape == accessor.ShapeSequence {
			c.leaf = prop.Elem
		} else {
			c.leaf = prop.Type
		}
	}

	return c, nil
}

// values returns every value the chain reaches from v. Absent objects along
// the way degrade to their zero value, absent sequences to no values.
func (c *chain) values(v reflect.Value) []reflect.Value {
	vals := []reflect.Value{v}

	for _, st := range c.steps {
		next := make([]reflect.Value, 0, len(vals))

		for _, x := range vals {
			obj := accessor.Indirect(x)
			if !obj.IsValid() {
				obj = reflect.Zero(st.prop.Owner)
			}

			field := st.prop.Get(obj)
			if st.fanout {
				next = append(next, accessor.Elements(field)...)
			} else {
				next = append(next, field)
			}
		}

		vals = next
	}

	return vals
}

// exists quantifies cond existentially over the chain's values.
func (c *chain) exists(cond evaluator) evaluator {
	if len(c.steps) == 0 {
		return cond
	}

	return func(v reflect.Value) bool {
		for _, x := range c.values(v) {
			if cond(x) {
				return true
			}
		}

		return false
	}
}

func semanticError(e *Comparison, leaf reflect.Type, format string, args ...any) error {
	return diagnostic.New(diagnostic.InvalidFilterSemantics, "%s: %s (attribute type %s)",
		e.String(), fmt.Sprintf(format, args...), common.TypeName(leaf))
}
