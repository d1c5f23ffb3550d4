package path

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scim-patch/internal/diagnostic"
)

type SubItem struct {
	Id   int
	Name string
}

type Item struct {
	Id       int
	Name     string
	SubItems []SubItem
}

type Root struct {
	Name   string
	Items  []Item
	Parent *Item
	Nested []*Item
}

func mockRoot() *Root {
	return &Root{
		Name: "Root",
		Items: []Item{
			{Id: 1, Name: "Item1", SubItems: []SubItem{{Id: 1, Name: "SubItem1-1"}, {Id: 2, Name: "SubItem1-2"}}},
			{Id: 2, Name: "Item2", SubItems: []SubItem{{Id: 1, Name: "SubItem2-1"}, {Id: 2, Name: "SubItem2-2"}}},
		},
	}
}

func interfaces(values []reflect.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Interface()
	}

	return out
}

func TestResolver_Values(t *testing.T) {
	root := mockRoot()
	r := NewResolver()

	tests := []struct {
		path string
		want []any
	}{
		{"Items", []any{root.Items}},
		{`Items[Name eq "Item1" and Id eq 1]`, []any{root.Items[0]}},
		{`Items[Name eq "Item1"]`, []any{root.Items[0]}},
		{`Items[Name eq "Item1" or Id eq 2]`, []any{root.Items[0], root.Items[1]}},
		{"Items.Name", []any{"Item1", "Item2"}},
		{"Items.SubItems.Name", []any{"SubItem1-1", "SubItem1-2", "SubItem2-1", "SubItem2-2"}},
		{"Items.SubItems", []any{root.Items[0].SubItems, root.Items[1].SubItems}},
		{`Items[Id eq 2].SubItems[Id eq 1].Name`, []any{"SubItem2-1"}},
		{`Name[Id eq 2]`, []any{"Root"}},
		{`Items[Id eq 9].Name`, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			values, err := r.Values(MustParse(tt.path), root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, interfaces(values))
		})
	}
}

func TestResolver_ValuesFlattenNested(t *testing.T) {
	type C struct{ C string }

	type B struct{ B []C }

	type A struct{ A []B }

	root := &A{A: []B{
		{B: []C{{C: "x1"}, {C: "x2"}}},
		{B: []C{{C: "y1"}, {C: "y2"}}},
	}}

	values, err := NewResolver().Values(MustParse("a.b.c"), root)
	require.NoError(t, err)
	assert.Equal(t, []any{"x1", "x2", "y1", "y2"}, interfaces(values))
}

func TestResolver_Resolve(t *testing.T) {
	root := mockRoot()
	r := NewResolver()

	res, err := r.Resolve(MustParse("Name"), root)
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Same(t, root, res.Targets[0].Value.Addr().Interface())
	assert.Equal(t, "Name", res.Property.Field)
	assert.Nil(t, res.Filter)

	res, err = r.Resolve(MustParse("Items.SubItems.Name"), root)
	require.NoError(t, err)
	require.Len(t, res.Targets, 4)
	assert.Same(t, &root.Items[0].SubItems[0], res.Targets[0].Value.Addr().Interface())
	assert.Same(t, &root.Items[1].SubItems[1], res.Targets[3].Value.Addr().Interface())
	assert.Equal(t, "Name", res.Segment.Name)

	res, err = r.Resolve(MustParse(`Items[Name eq "Item1"].SubItems[not(Id eq 1)].Name`), root)
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Same(t, &root.Items[0].SubItems[1], res.Targets[0].Value.Addr().Interface())

	res, err = r.Resolve(MustParse(`Items[Id eq 1]`), root)
	require.NoError(t, err)
	require.NotNil(t, res.Filter)

	matches, indexes := res.Matches(res.Targets[0])
	require.Len(t, matches, 1)
	assert.Equal(t, []int{0}, indexes)
	assert.Equal(t, root.Items[0], matches[0].Interface())
}

func TestResolver_ResolveSkipsNil(t *testing.T) {
	root := &Root{Nested: []*Item{nil, {Name: "n"}}}

	res, err := NewResolver().Resolve(MustParse("Nested.Name"), root)
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Same(t, root.Nested[1], res.Targets[0].Value.Addr().Interface())

	res, err = NewResolver().Resolve(MustParse("Parent.Name"), root)
	require.NoError(t, err)
	assert.Empty(t, res.Targets)
}

func TestResolver_AttributeNotFound(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		path      string
		attribute string
		typeName  string
	}{
		{"InvalidPath", "InvalidPath", "path.Root"},
		{"Items.Nope", "Nope", "path.Item"},
		{"Items.SubItems.Missing", "Missing", "path.SubItem"},
		{"Name.Length", "Length", "string"},
		{"[Id eq 1]", "[Id eq 1]", "path.Root"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := r.Resolve(MustParse(tt.path), mockRoot())
			require.Error(t, err)
			assert.ErrorIs(t, err, diagnostic.ErrAttributeNotFound)

			var de *diagnostic.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.attribute, de.Attribute)
			assert.Equal(t, tt.typeName, de.Type)
			assert.Equal(t, tt.path, de.Path)
		})
	}

	_, err := r.Resolve(MustParse(`Items[Unknown eq 1].Name`), mockRoot())
	assert.ErrorIs(t, err, diagnostic.ErrInvalidFilterSemantics)

	_, err = r.Resolve(MustParse("Name"), nil)
	assert.ErrorIs(t, err, diagnostic.ErrInvalidOperationSemantics)
}

func TestResolver_Source(t *testing.T) {
	root := mockRoot()
	r := NewResolver()

	src, prop, err := r.Source(MustParse("Items"), root)
	require.NoError(t, err)
	assert.Same(t, root, src.Value.Addr().Interface())
	assert.Equal(t, "Items", prop.Name)

	src, prop, err = r.Source(MustParse(`Items[Name eq "Item1"].SubItems[not(Id eq 1)].Name`), root)
	require.NoError(t, err)
	assert.Same(t, &root.Items[0].SubItems[1], src.Value.Addr().Interface())
	assert.Equal(t, "Name", prop.Name)

	// a single sequence value stands for its first element
	src, _, err = r.Source(MustParse(`Items[Id eq 1].SubItems.Name`), root)
	require.NoError(t, err)
	assert.Same(t, &root.Items[0].SubItems[0], src.Value.Addr().Interface())

	_, _, err = r.Source(MustParse("Items.SubItems.Name"), root)
	assert.ErrorIs(t, err, diagnostic.ErrAmbiguousSource)

	_, _, err = r.Source(MustParse(`Items[Id eq 9].Name`), root)
	assert.ErrorIs(t, err, diagnostic.ErrAttributeNotFound)

	_, _, err = r.Source(MustParse("Items.Missing"), root)
	assert.ErrorIs(t, err, diagnostic.ErrAttributeNotFound)
}

func TestResolver_Locations(t *testing.T) {
	root := mockRoot()
	r := NewResolver()

	res, err := r.Resolve(MustParse("Items.SubItems.Name"), root)
	require.NoError(t, err)
	require.Len(t, res.Targets, 4)
	assert.Equal(t, "Items[0].SubItems[0]", res.Targets[0].Location.String())
	assert.Equal(t, "Items[1].SubItems[1]", res.Targets[3].Location.String())

	res, err = r.Resolve(MustParse(`Items[Id eq 2].SubItems[Id eq 1].Name`), root)
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, "Items[1].SubItems[0]", res.Targets[0].Location.String())

	res, err = r.Resolve(MustParse("Name"), root)
	require.NoError(t, err)
	assert.Empty(t, res.Targets[0].Location)

	src, _, err := r.Source(MustParse(`Items[Id eq 1].SubItems.Name`), root)
	require.NoError(t, err)
	assert.Equal(t, "Items[0].SubItems[0]", src.Location.String())
}

func TestLocation_Locate(t *testing.T) {
	root := mockRoot()

	res, err := NewResolver().Resolve(MustParse(`Items[Id eq 2].SubItems[Id eq 2].Name`), root)
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)

	loc := res.Targets[0].Location

	// a fresh backing array is followed
	root.Items = append([]Item(nil), root.Items...)
	root.Items[1].SubItems = append([]SubItem(nil), root.Items[1].SubItems...)

	v, _, ok := loc.Locate(reflect.ValueOf(root))
	require.True(t, ok)
	assert.Same(t, &root.Items[1].SubItems[1], v.Addr().Interface())

	// an element moved by an earlier removal is found by its key
	root.Items = root.Items[1:]

	v, found, ok := loc.Locate(reflect.ValueOf(root))
	require.True(t, ok)
	assert.Same(t, &root.Items[0].SubItems[1], v.Addr().Interface())
	assert.Equal(t, "Items[0].SubItems[1]", found.String())
	assert.Equal(t, "Items[1].SubItems[1]", loc.String(), "receiver is left alone")

	// an edited element falls back to its position
	root.Items[0].SubItems[1].Name = "edited"

	v, found, ok = found.Locate(reflect.ValueOf(root))
	require.True(t, ok)
	assert.Same(t, &root.Items[0].SubItems[1], v.Addr().Interface())
	assert.Equal(t, "edited", found[1].Key.Interface().(SubItem).Name)

	root.Items = nil
	_, _, ok = loc.Locate(reflect.ValueOf(root))
	assert.False(t, ok)

	v, _, ok = Location(nil).Locate(reflect.ValueOf(root))
	require.True(t, ok)
	assert.Same(t, root, v.Addr().Interface())
}

func TestResolver_Absent(t *testing.T) {
	type Leaf struct{ Name string }

	type Mid struct{ Leaf *Leaf }

	type Top struct {
		Mid   *Mid
		Items []Item
	}

	r := NewResolver()
	root := &Top{}

	target, ok := r.Absent(MustParse("mid.leaf.name"), root)
	require.True(t, ok)
	assert.Same(t, root, target.Value.Addr().Interface())
	assert.Empty(t, target.Location)
	require.Len(t, target.Missing, 2)
	assert.Equal(t, "Mid", target.Missing[0].Name)
	assert.Equal(t, "Leaf", target.Missing[1].Name)

	root.Mid = &Mid{}

	target, ok = r.Absent(MustParse("mid.leaf.name"), root)
	require.True(t, ok)
	assert.Same(t, root.Mid, target.Value.Addr().Interface())
	assert.Equal(t, "Mid", target.Location.String())
	require.Len(t, target.Missing, 1)

	root.Mid.Leaf = &Leaf{}

	_, ok = r.Absent(MustParse("mid.leaf.name"), root)
	assert.False(t, ok, "nothing is missing")

	_, ok = r.Absent(MustParse("items.name"), root)
	assert.False(t, ok, "sequences select nothing")

	_, ok = r.Absent(MustParse("name"), &Root{})
	assert.False(t, ok)
}
