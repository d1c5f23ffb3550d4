package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scim-patch/internal/diagnostic"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a", []string{"a"}},
		{"a.b.c", []string{"a", "b", "c"}},
		{`emails[type eq "work"].value`, []string{`emails[type eq "work"]`, "value"}},
		{`emails[value ew "example.com"].display`, []string{`emails[value ew "example.com"]`, "display"}},
		{"a..b", []string{"a", "", "b"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitPath(tt.in))
		})
	}
}

func TestParseSegment_BracketRule(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		filter string
	}{
		{"Items", "Items", ""},
		{`Items[Id eq 1]`, "Items", "Id eq 1"},
		// a one letter name still carries a filter
		{`I[Id eq 1]`, "I", "Id eq 1"},
		{`a[x eq 1]`, "a", "x eq 1"},
		{`[Id eq 1]`, "[Id eq 1]", ""},
		{`Items]Id eq 1[`, "Items]Id eq 1[", ""},
		{`Items[Id eq 1`, "Items[Id eq 1", ""},
		{`Items[Id eq 1]tail`, "Items", "Id eq 1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			seg, err := parseSegment(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, seg.Name)
			assert.Equal(t, tt.filter, seg.Filter)
			assert.Equal(t, tt.filter != "", seg.HasFilter())
		})
	}
}

func TestParse(t *testing.T) {
	p, err := Parse(`Items[Name eq "Item1"].SubItems[not(Id eq 1)].Name`)
	require.NoError(t, err)
	require.Len(t, p.Segments, 3)

	assert.Equal(t, "Items", p.Segments[0].Name)
	assert.True(t, p.Segments[0].HasFilter())
	assert.Equal(t, `Name eq "Item1"`, p.Segments[0].Expr.String())
	assert.Equal(t, "SubItems", p.Segments[1].Name)
	assert.Equal(t, "not(Id eq 1)", p.Segments[1].Filter)
	assert.Equal(t, "Name", p.Last().Name)
	assert.Equal(t, `Items[Name eq "Item1"].SubItems[not(Id eq 1)].Name`, p.String())

	assert.Equal(t, `Items[Id eq 1].Name`, Path{Segments: []Segment{
		{Name: "Items", Filter: "Id eq 1", Expr: p.Segments[0].Expr},
		{Name: "Name"},
	}}.String())
}

func TestParse_SchemaPrefix(t *testing.T) {
	p, err := Parse("urn:ietf:params:scim:schemas:core:2.0:User:name.givenName")
	require.NoError(t, err)
	require.Len(t, p.Segments, 2)
	assert.Equal(t, "name", p.Segments[0].Name)
	assert.Equal(t, "givenName", p.Segments[1].Name)

	p, err = Parse(`URN:ietf:params:scim:schemas:core:2.0:User:emails[value ew "a:b"].type`)
	require.NoError(t, err)
	require.Len(t, p.Segments, 2)
	assert.Equal(t, "emails", p.Segments[0].Name)
	assert.Equal(t, `value ew "a:b"`, p.Segments[0].Filter)

	assert.Equal(t, "urnish", MustParse("urnish").Segments[0].Name)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, diagnostic.ErrInvalidOperationSemantics)

	_, err = Parse("a..b")
	assert.ErrorIs(t, err, diagnostic.ErrInvalidOperationSemantics)

	_, err = Parse(`Items[Id eq]`)
	assert.ErrorIs(t, err, diagnostic.ErrInvalidFilterSyntax)

	assert.Panics(t, func() { MustParse("") })
}
