package patch

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrIsNotACaster         = errors.New("provided function is not a recognizable caster")
	ErrCasterIsNotAFunction = errors.New("provided caster is not a function")
	ErrDoublePointer        = errors.New("caster function does not support double pointers")
)

var (
	boolType  = reflect.TypeFor[bool]()
	errorType = reflect.TypeFor[error]()
)

// Caster is a user function converting a decoded payload of type Src into
// an attribute value of type Dst.
type Caster struct {
	Src, Dst reflect.Type
	HasBool  bool
	HasErr   bool

	fn reflect.Value
}

// ParseCaster inspects the provided function and returns a Caster if it is
// a valid caster function.
//
// Supports signatures:
//   - func(src Type) (dst Type)
//   - func(src Type) (dst Type, bool)
//   - func(src Type) (dst Type, error)
//   - func(src Type) (dst Type, bool, error)
func ParseCaster(fn any) (Caster, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return Caster{}, ErrCasterIsNotAFunction
	}

	fnType := fnVal.Type()
	if fnType.NumIn() != 1 || fnType.NumOut() == 0 || fnType.IsVariadic() {
		return Caster{}, ErrIsNotACaster
	}

	src := fnType.In(0)
	if src.Kind() == reflect.Ptr && src.Elem().Kind() == reflect.Ptr {
		return Caster{}, ErrDoublePointer
	}

	dst := fnType.Out(0)
	if dst.Kind() == reflect.Ptr && dst.Elem().Kind() == reflect.Ptr {
		return Caster{}, ErrDoublePointer
	}

	caster := Caster{Src: src, Dst: dst, fn: fnVal}

	switch fnType.NumOut() {
	case 1:
	case 2:
		switch fnType.Out(1) {
		case boolType:
			caster.HasBool = true
		case errorType:
			caster.HasErr = true
		default:
			return Caster{}, ErrIsNotACaster
		}
	case 3:
		if fnType.Out(1) != boolType || fnType.Out(2) != errorType {
			return Caster{}, ErrIsNotACaster
		}

		caster.HasBool, caster.HasErr = true, true
	default:
		return Caster{}, ErrIsNotACaster
	}

	return caster, nil
}

// Cast calls the function. A false bool result is reported as an error.
func (c Caster) Cast(src reflect.Value) (reflect.Value, error) {
	out := c.fn.Call([]reflect.Value{src})

	if c.HasErr {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return reflect.Value{}, err
		}
	}

	if c.HasBool && !out[1].Bool() {
		return reflect.Value{}, fmt.Errorf("%s does not accept %v", c, src.Interface())
	}

	return out[0], nil
}

func (c Caster) String() string {
	return fmt.Sprintf("caster %s -> %s", c.Src, c.Dst)
}
