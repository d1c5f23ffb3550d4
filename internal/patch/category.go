package patch

import (
	"fmt"
	"strings"
)

// Category is a set of lenient conversions the JSONCoercer may apply to
// scalar payloads that do not decode as they are. SCIM clients commonly
// send booleans and numbers as strings.
type Category int

const (
	CategoryTextNumber  Category = 1 << iota // string <-> int, uint, float: "42" for 42
	CategoryTextualBool                      // string <-> bool: yes, no, on, off, true, false in any case
	CategoryNumericBool                      // number <-> bool: 0 and 1
	CategoryTimestamp                        // number(Unix seconds) <-> time.Time
	CategoryDuration                         // string(2h45m) <-> time.Duration

	CategoryAll  Category = (1 << iota) - 1 // all categories combined
	CategoryNone Category = 0               // no categories selected
)

var categoryNames = []struct {
	c    Category
	name string
}{
	{CategoryTextNumber, "text-number"},
	{CategoryTextualBool, "textual-bool"},
	{CategoryNumericBool, "numeric-bool"},
	{CategoryTimestamp, "timestamp"},
	{CategoryDuration, "duration"},
}

// Has reports whether all of other is in c.
func (c Category) Has(other Category) bool {
	return c&other == other
}

func (c Category) String() string {
	if c == CategoryNone {
		return "none"
	}

	var names []string

	for _, n := range categoryNames {
		if c.Has(n.c) {
			names = append(names, n.name)
		}
	}

	return strings.Join(names, "|")
}

// ParseCategories combines category names; "all" and "none" are accepted
// too.
func ParseCategories(names ...string) (Category, error) {
	c := CategoryNone

	for _, name := range names {
		switch name = strings.ToLower(strings.TrimSpace(name)); name {
		case "all":
			c |= CategoryAll
			continue
		case "none", "":
			continue
		}

		found := false

		for _, n := range categoryNames {
			if n.name == name {
				c |= n.c
				found = true

				break
			}
		}

		if !found {
			return CategoryNone, fmt.Errorf("unknown coercion category %q", name)
		}
	}

	return c, nil
}
