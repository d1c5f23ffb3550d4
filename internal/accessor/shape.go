package accessor

import (
	"reflect"
	"time"

	"scim-patch/internal/common"
	"scim-patch/primitive"
)

// Shape is the structural class of an attribute's declared type.
type Shape int

const (
	ShapeOther Shape = iota
	ShapeScalar
	ShapeSequence
	ShapeObject
)

// String returns a human-readable shape name.
func (s Shape) String() string {
	switch s {
	case ShapeOther:
		return "other"
	case ShapeScalar:
		return "scalar"
	case ShapeSequence:
		return "sequence"
	case ShapeObject:
		return "object"
	default:
		return common.UnknownStr
	}
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// Classify returns the shape of the declared type t and the type elements of
// that shape carry: the element type of a sequence, the struct type of an
// object, t itself otherwise.
//
// Classification looks at the declared type only, so a nil slice is still a
// sequence. Strings and byte slices are scalars. Pointers to scalars and to
// structs are classified by what they point to; a pointer to a slice is
// ShapeOther.
func Classify(t reflect.Type) (Shape, reflect.Type) {
	if t == nil {
		return ShapeOther, nil
	}

	if t.Kind() == reflect.Slice {
		if t == bytesType || t.Elem().Kind() == reflect.Uint8 {
			return ShapeScalar, t
		}

		return ShapeSequence, t.Elem()
	}

	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}

	switch {
	case base == timeType:
		return ShapeScalar, t
	case base.Kind() == reflect.Struct:
		return ShapeObject, base
	case primitive.FromReflectType(base) != 0:
		return ShapeScalar, t
	default:
		return ShapeOther, t
	}
}

// ObjectType returns the struct type behind t, dereferencing pointers, or
// nil if t is not a struct or a pointer to one.
func ObjectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	return t
}
