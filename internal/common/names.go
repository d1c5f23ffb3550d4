package common

import (
	"path"
	"reflect"
)

// UnknownStr is the String() result for enum values outside their range.
const UnknownStr = "unknown"

// TypeName returns a short, package-qualified name for t, such as
// "resource.User" or "[]resource.Email". Pointers are rendered with '*'.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Ptr:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		if t.Name() == "" {
			return "[]" + TypeName(t.Elem())
		}
	case reflect.Map:
		if t.Name() == "" {
			return "map[" + TypeName(t.Key()) + "]" + TypeName(t.Elem())
		}
	}

	if t.Name() == "" {
		return t.String()
	}

	if alias := PkgAlias(t.PkgPath()); alias != "" {
		return alias + "." + t.Name()
	}

	return t.Name()
}

// PkgAlias returns the package alias (last element of path) for a given package path.
// Returns empty string if pkgPath is empty.
func PkgAlias(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	return path.Base(pkgPath)
}
