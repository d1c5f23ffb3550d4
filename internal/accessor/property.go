package accessor

import (
	"reflect"

	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
)

// Property is one attribute of a struct type.
type Property struct {
	// Name is the attribute name: the json tag name, or the field name.
	Name string
	// Field is the Go field name.
	Field string
	// Index is the field index path, as for reflect.Value.FieldByIndex.
	Index []int
	// Type is the declared field type.
	Type reflect.Type
	// Shape of Type, see Classify.
	Shape Shape
	// Elem is the type Classify returned along with Shape.
	Elem reflect.Type
	// Owner is the struct type declaring (or promoting) the field.
	Owner reflect.Type
}

// String returns "Owner.Name".
func (p *Property) String() string {
	return common.TypeName(p.Owner) + "." + p.Name
}

// Get reads the attribute from owner, which may be a struct or a pointer to
// one. A nil owner, or a nil embedded pointer on the way to a promoted
// field, yields the zero value of the declared type.
func (p *Property) Get(owner reflect.Value) reflect.Value {
	owner = deref(owner)
	if !owner.IsValid() || owner.Type() != p.Owner {
		return reflect.Zero(p.Type)
	}

	v, err := owner.FieldByIndexErr(p.Index)
	if err != nil {
		return reflect.Zero(p.Type)
	}

	return v
}

// Set stores v into the attribute of owner. owner must be addressable: a
// pointer to the struct or an addressable struct value. An invalid v stores
// the zero value. v is converted with Assign.
func (p *Property) Set(owner, v reflect.Value) error {
	field, err := p.field(owner)
	if err != nil {
		return err
	}

	if !v.IsValid() {
		field.SetZero()
		return nil
	}

	assigned, err := Assign(p.Type, v)
	if err != nil {
		return diagnostic.Wrap(diagnostic.TypeMismatch, err, "cannot set %s", p)
	}

	field.Set(assigned)

	return nil
}

// Reset stores the zero value of the declared type.
func (p *Property) Reset(owner reflect.Value) error {
	return p.Set(owner, reflect.Value{})
}

// Zero returns the zero value of the declared type.
func (p *Property) Zero() reflect.Value {
	return reflect.Zero(p.Type)
}

// field returns the settable field of owner, allocating nil embedded
// pointers along the index path.
func (p *Property) field(owner reflect.Value) (reflect.Value, error) {
	owner = deref(owner)
	if !owner.IsValid() {
		return reflect.Value{}, diagnostic.New(diagnostic.TypeMismatch,
			"cannot set %s on a nil object", p)
	}

	if owner.Type() != p.Owner {
		return reflect.Value{}, diagnostic.New(diagnostic.TypeMismatch,
			"cannot set %s on %s", p, common.TypeName(owner.Type()))
	}

	if !owner.CanSet() {
		return reflect.Value{}, diagnostic.New(diagnostic.TypeMismatch,
			"cannot set %s on a non-addressable %s", p, common.TypeName(owner.Type()))
	}

	v := owner
	for i, idx := range p.Index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}

			v = v.Elem()
		}

		v = v.Field(idx)
	}

	return v, nil
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}
