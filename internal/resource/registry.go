package resource

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"scim-patch/internal/accessor"
)

type factory func() any

var registry = map[string]factory{}

func register(kind string, f factory) {
	registry[kind] = f
	// descriptors are built up front so that the first patch does not pay
	// for them
	accessor.Describe(reflect.TypeOf(f()))
}

func init() {
	register("user", func() any { return &User{Schemas: []string{UserSchema}} })
	register("group", func() any { return &Group{Schemas: []string{GroupSchema}} })
}

// Kinds returns the registered kind names, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}

	slices.Sort(kinds)

	return kinds
}

// New returns a pointer to a new resource of the given kind. Kind names are
// matched without regard to case.
func New(kind string) (any, error) {
	f, ok := registry[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q (known: %s)", kind, strings.Join(Kinds(), ", "))
	}

	return f(), nil
}

// Decode reads a resource of the given kind from JSON or YAML. YAML input
// goes through its JSON form, so json tags apply in both cases.
func Decode(kind string, data []byte) (any, error) {
	r, err := New(kind)
	if err != nil {
		return nil, err
	}

	if !json.Valid(data) {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("failed to parse %s resource: %w", kind, err)
		}

		if data, err = json.Marshal(generic); err != nil {
			return nil, fmt.Errorf("failed to convert %s resource: %w", kind, err)
		}
	}

	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to decode %s resource: %w", kind, err)
	}

	return r, nil
}
