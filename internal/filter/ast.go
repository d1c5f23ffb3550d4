package filter

import (
	"strconv"
	"strings"

	"scim-patch/internal/common"
)

// Expression is a node of a parsed filter.
type Expression interface {
	String() string
	expression()
}

// Operator is a comparison or logical operator.
type Operator int

const (
	OpEq Operator = iota + 1
	OpNe
	OpCo
	OpSw
	OpEw
	OpGt
	OpGe
	OpLt
	OpLe
	OpAnd
	OpOr
)

var operatorNames = map[Operator]string{
	OpEq:  "eq",
	OpNe:  "ne",
	OpCo:  "co",
	OpSw:  "sw",
	OpEw:  "ew",
	OpGt:  "gt",
	OpGe:  "ge",
	OpLt:  "lt",
	OpLe:  "le",
	OpAnd: "and",
	OpOr:  "or",
}

func (o Operator) String() string {
	if s, ok := operatorNames[o]; ok {
		return s
	}

	return common.UnknownStr
}

// IsOrdering reports whether o is gt, ge, lt or le.
func (o Operator) IsOrdering() bool {
	return o >= OpGt && o <= OpLe
}

// IsSubstring reports whether o is co, sw or ew.
func (o Operator) IsSubstring() bool {
	return o >= OpCo && o <= OpEw
}

func compareOperator(word string) (Operator, bool) {
	for op := OpEq; op <= OpLe; op++ {
		if strings.EqualFold(word, operatorNames[op]) {
			return op, true
		}
	}

	return 0, false
}

// ThisKeyword names the filtered element itself.
const ThisKeyword = "this"

// AttrPath is a dotted attribute reference inside a filter.
type AttrPath struct {
	Names []string
}

func (p AttrPath) String() string {
	return strings.Join(p.Names, ".")
}

// Literal is a comparison value as written.
type Literal struct {
	Text   string
	Quoted bool
	Null   bool
}

func (l Literal) String() string {
	switch {
	case l.Null:
		return "null"
	case l.Quoted:
		return strconv.Quote(l.Text)
	default:
		return l.Text
	}
}

// Comparison is "attrPath op value".
type Comparison struct {
	Path  AttrPath
	Op    Operator
	Value Literal
}

// Presence is "attrPath pr".
type Presence struct {
	Path AttrPath
}

// Logical is "left and right" or "left or right".
type Logical struct {
	Op          Operator
	Left, Right Expression
}

// Not negates Expr.
type Not struct {
	Expr Expression
}

// ValuePath is "attrPath[filter]": some element of the attribute satisfies
// Filter.
type ValuePath struct {
	Path   AttrPath
	Filter Expression
}

func (*Comparison) expression() {}
func (*Presence) expression()   {}
func (*Logical) expression()    {}
func (*Not) expression()        {}
func (*ValuePath) expression()  {}

func (c *Comparison) String() string {
	return c.Path.String() + " " + c.Op.String() + " " + c.Value.String()
}

func (p *Presence) String() string {
	return p.Path.String() + " pr"
}

func (l *Logical) String() string {
	return l.operand(l.Left) + " " + l.Op.String() + " " + l.operand(l.Right)
}

// operand parenthesizes an or nested under an and.
func (l *Logical) operand(e Expression) string {
	if inner, ok := e.(*Logical); ok && l.Op == OpAnd && inner.Op == OpOr {
		return "(" + inner.String() + ")"
	}

	return e.String()
}

func (n *Not) String() string {
	return "not (" + n.Expr.String() + ")"
}

func (v *ValuePath) String() string {
	return v.Path.String() + "[" + v.Filter.String() + "]"
}
