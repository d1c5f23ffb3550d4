package primitive

import (
	"reflect"
	"time"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

// KindEnum classifies the scalar attribute types a filter literal can be
// compared against.
type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindPrimitiveEnum // named type over an integer, boolean or string

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

func (k KindEnum) IsNumber() bool {
	return k.IsInteger() || k.IsFloat()
}

func (k KindEnum) IsInteger() bool {
	return k.IsSigned() || k.IsUnsigned()
}

func (k KindEnum) IsFloat() bool {
	switch k {
	default:
		return false
	case KindFloat32, KindFloat64:
		return true
	}
}

func (k KindEnum) IsSigned() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64, KindDuration:
		return true
	}
}

func (k KindEnum) IsUnsigned() bool {
	switch k {
	default:
		return false
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
}

// IsOrdered reports whether gt/ge/lt/le are meaningful for the kind.
func (k KindEnum) IsOrdered() bool {
	return k.IsNumber() || k == KindString || k == KindTime
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// FromReflectType returns the scalar kind of rtype, dereferencing pointers.
// Zero is returned for anything that is not a scalar.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	for rtype.Kind() == reflect.Ptr {
		rtype = rtype.Elem()
	}

	switch rtype {
	case timeType:
		return KindTime
	case durationType:
		return KindDuration
	}

	kind := fromReflectKind(rtype.Kind())
	if kind == 0 || rtype.PkgPath() == "" {
		return kind
	}

	// named types keep their numeric kind, except the ones a stringer or a
	// string value is expected for
	switch rtype.Kind() {
	case reflect.String, reflect.Bool:
		return KindPrimitiveEnum
	default:
		return kind
	}
}

// Underlying returns the kind of the builtin type a named enum is declared
// over. Non-enum kinds are returned unchanged.
func Underlying(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	for rtype.Kind() == reflect.Ptr {
		rtype = rtype.Elem()
	}

	if k := FromReflectType(rtype); k != KindPrimitiveEnum {
		return k
	}

	return fromReflectKind(rtype.Kind())
}

func fromReflectKind(kind reflect.Kind) KindEnum {
	switch kind {
	case reflect.Int:
		return KindInt
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint:
		return KindUint
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	default:
		return 0
	}
}
