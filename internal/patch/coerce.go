package patch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
	"scim-patch/primitive"
)

// Coercer turns an untyped payload into a value of a given type.
type Coercer interface {
	Coerce(payload *yaml.Node, t reflect.Type) (reflect.Value, error)
}

// CoercerFunc adapts a function to Coercer.
type CoercerFunc func(payload *yaml.Node, t reflect.Type) (reflect.Value, error)

func (f CoercerFunc) Coerce(payload *yaml.Node, t reflect.Type) (reflect.Value, error) {
	return f(payload, t)
}

// JSONCoercer decodes payloads through their JSON form, so the json tags of
// the target types apply. Time values additionally accept the layouts of
// primitive.TimeLayouts. A scalar that does not decode is retried with the
// Lenient categories. A caster registered for the target type replaces all
// of this: the payload is decoded into the caster's source type and the
// caster produces the value.
//
// The zero value decodes strictly and has no casters.
type JSONCoercer struct {
	Lenient Category

	casters map[reflect.Type]Caster
}

// NewJSONCoercer returns a JSONCoercer with the given lenient categories
// and caster functions (see ParseCaster). A later caster for the same
// target type wins.
func NewJSONCoercer(lenient Category, casters ...any) (JSONCoercer, error) {
	c := JSONCoercer{Lenient: lenient}

	for i, fn := range casters {
		cs, err := ParseCaster(fn)
		if err != nil {
			return JSONCoercer{}, fmt.Errorf("caster %d: %w", i, err)
		}

		if c.casters == nil {
			c.casters = map[reflect.Type]Caster{}
		}

		c.casters[cs.Dst] = cs
	}

	return c, nil
}

var (
	timeType     = reflect.TypeFor[time.Time]()
	timePtrType  = reflect.TypeFor[*time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
)

func (c JSONCoercer) Coerce(payload *yaml.Node, t reflect.Type) (reflect.Value, error) {
	payload = content(payload)
	if isNull(payload) {
		return reflect.Zero(t), nil
	}

	if cs, ok := c.casters[t]; ok {
		src, err := c.decode(payload, cs.Src)
		if err != nil {
			return reflect.Value{}, err
		}

		v, err := cs.Cast(src)
		if err != nil {
			return reflect.Value{}, coercionError(err, payload, t)
		}

		return v, nil
	}

	v, err := c.decode(payload, t)
	if err == nil || c.Lenient == CategoryNone || payload.Kind != yaml.ScalarNode {
		return v, err
	}

	if lv, ok := lenient(c.Lenient, payload, t); ok {
		return lv, nil
	}

	return reflect.Value{}, err
}

func (c JSONCoercer) decode(payload *yaml.Node, t reflect.Type) (reflect.Value, error) {
	if (t == timeType || t == timePtrType) && payload.Kind == yaml.ScalarNode {
		tm, ok := primitive.ParseTime(payload.Value)
		if !ok {
			return reflect.Value{}, coercionError(fmt.Errorf("invalid time %q", payload.Value), payload, t)
		}

		if t == timePtrType {
			return reflect.ValueOf(&tm), nil
		}

		return reflect.ValueOf(tm), nil
	}

	var generic any
	if err := payload.Decode(&generic); err != nil {
		return reflect.Value{}, coercionError(err, payload, t)
	}

	data, err := json.Marshal(generic)
	if err != nil {
		return reflect.Value{}, coercionError(err, payload, t)
	}

	out := reflect.New(t)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, coercionError(err, payload, t)
	}

	return out.Elem(), nil
}

// lenient converts a scalar payload into t, or into the type t points to.
func lenient(cat Category, payload *yaml.Node, t reflect.Type) (reflect.Value, bool) {
	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}

	v, ok := lenientScalar(cat, payload, base)
	if !ok {
		return reflect.Value{}, false
	}

	if t.Kind() == reflect.Ptr {
		p := reflect.New(base)
		p.Elem().Set(v)

		return p, true
	}

	return v, true
}

func lenientScalar(cat Category, payload *yaml.Node, t reflect.Type) (reflect.Value, bool) {
	text := strings.TrimSpace(payload.Value)
	v := reflect.New(t).Elem()

	switch t {
	case timeType:
		if cat.Has(CategoryTimestamp) {
			if sec, err := strconv.ParseInt(text, 10, 64); err == nil {
				v.Set(reflect.ValueOf(time.Unix(sec, 0).UTC()))
				return v, true
			}
		}

		return reflect.Value{}, false
	case durationType:
		if cat.Has(CategoryDuration) {
			if d, err := time.ParseDuration(text); err == nil {
				v.SetInt(int64(d))
				return v, true
			}
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		if cat.Has(CategoryTextualBool) {
			if b, ok := textualBool(text); ok {
				v.SetBool(b)
				return v, true
			}
		}

		if cat.Has(CategoryNumericBool) && (text == "0" || text == "1") {
			v.SetBool(text == "1")
			return v, true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(text, 10, t.Bits()); err == nil && cat.Has(CategoryTextNumber) {
			v.SetInt(n)
			return v, true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseUint(text, 10, t.Bits()); err == nil && cat.Has(CategoryTextNumber) {
			v.SetUint(n)
			return v, true
		}
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(text, t.Bits()); err == nil && cat.Has(CategoryTextNumber) {
			v.SetFloat(f)
			return v, true
		}
	case reflect.String:
		tag := payload.ShortTag()
		number := (tag == "!!int" || tag == "!!float") && cat.Has(CategoryTextNumber)
		if number || (tag == "!!bool" && cat.Has(CategoryTextualBool)) {
			v.SetString(text)
			return v, true
		}
	}

	return reflect.Value{}, false
}

func textualBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true, true
	case "false", "no", "off":
		return false, true
	}

	return false, false
}

func coercionError(err error, payload *yaml.Node, t reflect.Type) error {
	return diagnostic.Wrap(diagnostic.ValueCoercionFailure, err,
		"line %d: cannot coerce payload to %s", payload.Line, common.TypeName(t))
}
