package accessor

import (
	"reflect"
	"strings"
	"sync"

	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
	"scim-patch/internal/match"
)

// descriptors caches *Descriptor by reflect.Type. Entries are never evicted.
var descriptors sync.Map

// Descriptor lists the attributes of a struct type.
type Descriptor struct {
	// Type is the described struct type, or the non-struct type for which
	// an empty descriptor was produced.
	Type reflect.Type
	// Properties in field declaration order, promoted fields included.
	Properties []*Property

	exact map[string]*Property
	fold  map[string]*Property
	norm  map[string]*Property
}

// Describe returns the descriptor for t, dereferencing pointers. Types that
// are not structs get a descriptor without properties.
func Describe(t reflect.Type) *Descriptor {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if d, ok := descriptors.Load(t); ok {
		return d.(*Descriptor)
	}

	d, _ := descriptors.LoadOrStore(t, describe(t))

	return d.(*Descriptor)
}

// Lookup is a shorthand for Describe(t).Property(name).
func Lookup(t reflect.Type, name string) (*Property, error) {
	return Describe(t).Property(name)
}

// Property returns the attribute called name. The json tag name and the Go
// field name are tried first, then a case-insensitive match, then the
// normalized form. Unknown names fail with an AttributeNotFound error that
// names the owning type and suggests close attribute names.
func (d *Descriptor) Property(name string) (*Property, error) {
	if p, ok := d.exact[name]; ok {
		return p, nil
	}

	if p, ok := d.fold[strings.ToLower(name)]; ok {
		return p, nil
	}

	if p, ok := d.norm[match.Normalize(name)]; ok {
		return p, nil
	}

	return nil, diagnostic.NotFound(name, common.TypeName(d.Type), match.Suggest(name, d.Names())...)
}

// Names returns the attribute names in declaration order.
func (d *Descriptor) Names() []string {
	names := make([]string, 0, len(d.Properties))
	for _, p := range d.Properties {
		names = append(names, p.Name)
	}

	return names
}

func describe(t reflect.Type) *Descriptor {
	d := &Descriptor{
		Type:  t,
		exact: map[string]*Property{},
		fold:  map[string]*Property{},
		norm:  map[string]*Property{},
	}

	if t == nil || t.Kind() != reflect.Struct {
		return d
	}

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}

		name, skip := attributeName(f)
		if skip {
			continue
		}

		if f.Anonymous && ObjectType(f.Type) != nil && name == f.Name {
			// promoted fields are visited on their own
			continue
		}

		shape, elem := Classify(f.Type)
		d.Properties = append(d.Properties, &Property{
			Name:  name,
			Field: f.Name,
			Index: f.Index,
			Type:  f.Type,
			Shape: shape,
			Elem:  elem,
			Owner: t,
		})
	}

	// json names win over Go field names, earlier fields win over later ones
	for _, p := range d.Properties {
		addOnce(d.exact, p.Name, p)
	}

	for _, p := range d.Properties {
		addOnce(d.exact, p.Field, p)
		addOnce(d.fold, strings.ToLower(p.Name), p)
	}

	for _, p := range d.Properties {
		addOnce(d.fold, strings.ToLower(p.Field), p)
		addOnce(d.norm, match.Normalize(p.Name), p)
		addOnce(d.norm, match.Normalize(p.Field), p)
	}

	return d
}

func attributeName(f reflect.StructField) (string, bool) {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name, false
	}

	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return "", true
	case "":
		return f.Name, false
	default:
		return name, false
	}
}

func addOnce(m map[string]*Property, key string, p *Property) {
	if _, ok := m[key]; !ok {
		m[key] = p
	}
}
