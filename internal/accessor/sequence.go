package accessor

import (
	"fmt"
	"reflect"
)

// Materializer produces the empty sequence stored into an absent sequence
// attribute before the first element is appended.
type Materializer interface {
	// Materialize returns an empty, appendable value of the slice type t.
	Materialize(t reflect.Type) reflect.Value
}

// MaterializerFunc adapts a function to Materializer.
type MaterializerFunc func(t reflect.Type) reflect.Value

func (f MaterializerFunc) Materialize(t reflect.Type) reflect.Value {
	return f(t)
}

// DefaultMaterializer allocates an empty slice of the declared type.
var DefaultMaterializer Materializer = MaterializerFunc(func(t reflect.Type) reflect.Value {
	return reflect.MakeSlice(t, 0, 0)
})

// Elements returns the elements of the slice v. Nil and invalid values have
// no elements. The returned values are addressable.
func Elements(v reflect.Value) []reflect.Value {
	v = deref(v)
	if !v.IsValid() || v.Kind() != reflect.Slice {
		return nil
	}

	out := make([]reflect.Value, v.Len())
	for i := range out {
		out[i] = v.Index(i)
	}

	return out
}

// Append returns seq with elem added at the end. The backing array of seq is
// never written: the result is always a fresh allocation so that a slice
// header captured earlier keeps observing the old elements.
func Append(seq, elem reflect.Value) (reflect.Value, error) {
	t := seq.Type()

	e, err := Assign(t.Elem(), elem)
	if err != nil {
		return reflect.Value{}, err
	}

	out := reflect.MakeSlice(t, seq.Len(), seq.Len()+1)
	reflect.Copy(out, seq)

	return reflect.Append(out, e), nil
}

// RemoveAt returns a fresh copy of seq without the element at i.
func RemoveAt(seq reflect.Value, i int) (reflect.Value, error) {
	n := seq.Len()
	if i < 0 || i >= n {
		return reflect.Value{}, fmt.Errorf("index %d out of range for sequence of length %d", i, n)
	}

	out := reflect.MakeSlice(seq.Type(), 0, n-1)
	out = reflect.AppendSlice(out, seq.Slice(0, i))
	out = reflect.AppendSlice(out, seq.Slice(i+1, n))

	return out, nil
}

// ReplaceAt returns a fresh copy of seq with elem stored at i.
func ReplaceAt(seq reflect.Value, i int, elem reflect.Value) (reflect.Value, error) {
	n := seq.Len()
	if i < 0 || i >= n {
		return reflect.Value{}, fmt.Errorf("index %d out of range for sequence of length %d", i, n)
	}

	e, err := Assign(seq.Type().Elem(), elem)
	if err != nil {
		return reflect.Value{}, err
	}

	out := Clone(seq)
	out.Index(i).Set(e)

	return out, nil
}

// IndexOf returns the index of the first element of seq that is v, or -1.
func IndexOf(seq, v reflect.Value) int {
	if !v.IsValid() {
		return -1
	}

	for i, e := range Elements(seq) {
		if SameElement(e, v) {
			return i
		}
	}

	return -1
}

// Find returns the position of key in seq, trying hint first. When key is
// no longer in seq (the element was edited in place) hint is returned if it
// is in range, otherwise -1.
func Find(seq, key reflect.Value, hint int) int {
	elems := Elements(seq)
	inRange := hint >= 0 && hint < len(elems)

	if inRange && SameElement(elems[hint], key) {
		return hint
	}

	if i := IndexOf(seq, key); i >= 0 {
		return i
	}

	if inRange {
		return hint
	}

	return -1
}

// SameElement reports whether e and v are the same sequence element:
// pointers by identity, other values by deep equality.
func SameElement(e, v reflect.Value) bool {
	if e.Kind() == reflect.Ptr && v.Kind() == reflect.Ptr {
		return e.Pointer() == v.Pointer()
	}

	return reflect.DeepEqual(Interface(e), Interface(v))
}

// Clone returns a shallow copy of the slice v. A nil slice stays nil and
// non-slice values are returned unchanged.
func Clone(v reflect.Value) reflect.Value {
	if !v.IsValid() || v.Kind() != reflect.Slice || v.IsNil() {
		return v
	}

	out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(out, v)

	return out
}
