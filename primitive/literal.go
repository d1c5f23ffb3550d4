package primitive

import (
	"strconv"
	"strings"
	"time"
)

// LiteralEnum tells which coercion stage accepted a filter literal.
type LiteralEnum int

const (
	LiteralString LiteralEnum = iota // fallback, raw text
	LiteralInt
	LiteralBool
	LiteralTime
)

func (l LiteralEnum) String() string {
	switch l {
	case LiteralString:
		return "string"
	case LiteralInt:
		return "int"
	case LiteralBool:
		return "bool"
	case LiteralTime:
		return "time"
	default:
		return "LiteralEnum(" + strconv.Itoa(int(l)) + ")"
	}
}

// TimeLayouts are tried in order when a literal is parsed as a date/time.
var TimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Literal is a filter comparison value after coercion. The first stage of
// int, bool, time that parses the raw text wins; Kind is LiteralString when
// none of them did.
type Literal struct {
	Raw  string
	Kind LiteralEnum
	Int  int64
	Bool bool
	Time time.Time
}

// ParseLiteral coerces raw in the fixed order int, bool, time, string.
func ParseLiteral(raw string) Literal {
	lit := Literal{Raw: raw}

	if n, ok := ParseInt(raw); ok {
		lit.Kind, lit.Int = LiteralInt, n
		return lit
	}

	if b, ok := ParseBool(raw); ok {
		lit.Kind, lit.Bool = LiteralBool, b
		return lit
	}

	if t, ok := ParseTime(raw); ok {
		lit.Kind, lit.Time = LiteralTime, t
		return lit
	}

	return lit
}

func ParseInt(raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return n, err == nil
}

func ParseUint(raw string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	return n, err == nil
}

func ParseFloat(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return f, err == nil
}

// ParseBool accepts only "true" and "false", in any case. strconv.ParseBool
// would also take "1" and "t", which must stay integers or strings here.
func ParseBool(raw string) (bool, bool) {
	switch s := strings.TrimSpace(raw); {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}

func ParseTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
