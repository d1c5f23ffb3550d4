package accessor

import (
	"fmt"
	"reflect"

	"scim-patch/internal/common"
	"scim-patch/primitive"
)

// Assign converts v so it can be stored in a location of type t.
//
// Accepted, in order: v assignable to t; t is a pointer and v assignable to
// what it points to (a new pointer is allocated); v is a non-nil pointer whose
// target is assignable to t; t and v are both numeric, both strings or both
// booleans, possibly named, and convertible.
func Assign(t reflect.Type, v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}

	vt := v.Type()

	switch {
	case vt.AssignableTo(t):
		return v, nil
	case t.Kind() == reflect.Ptr && vt.AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v)

		return p, nil
	case vt.Kind() == reflect.Ptr && !v.IsNil() && vt.Elem().AssignableTo(t):
		return v.Elem(), nil
	case sameScalarFamily(t, vt) && vt.ConvertibleTo(t):
		return v.Convert(t), nil
	case t.Kind() == reflect.Interface && vt.Implements(t):
		return v.Convert(t), nil
	}

	return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s",
		common.TypeName(vt), common.TypeName(t))
}

func sameScalarFamily(a, b reflect.Type) bool {
	ka, kb := primitive.Underlying(a), primitive.Underlying(b)
	if ka == 0 || kb == 0 || a.Kind() == reflect.Ptr || b.Kind() == reflect.Ptr {
		return false
	}

	switch {
	case ka.IsNumber() && kb.IsNumber():
		return true
	case ka == primitive.KindString && kb == primitive.KindString:
		return true
	case ka == primitive.KindBool && kb == primitive.KindBool:
		return true
	default:
		return false
	}
}

// IsAbsent reports whether v holds no value: it is invalid, nil, the zero
// value of its type, or an empty slice or map.
func IsAbsent(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

// IsNil reports whether v is invalid or a nil pointer, slice, map or
// interface.
func IsNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// Indirect dereferences pointers and interfaces held by v. A nil pointer
// degrades to the zero value of the type it points to; a nil interface
// yields an invalid value.
func Indirect(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Ptr:
			if v.IsNil() {
				return reflect.Zero(indirectType(v.Type()))
			}

			v = v.Elem()
		case reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}
			}

			v = v.Elem()
		default:
			return v
		}
	}

	return v
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t
}

// Object returns the struct behind v, or false when v does not reach a
// non-nil struct.
func Object(v reflect.Value) (reflect.Value, bool) {
	v = deref(v)
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	return v, true
}

// Interface returns v.Interface(), or nil for invalid values.
func Interface(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}

	return v.Interface()
}
