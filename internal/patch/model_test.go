package patch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type nested struct {
	Name      string `json:"name"`
	NestedInt *int   `json:"nestedInt,omitempty"`
}

type deepNested struct {
	Title      *string    `json:"title,omitempty"`
	NestedDate *time.Time `json:"nestedDate,omitempty"`
	NestedList []nested   `json:"nestedList"`
}

type target struct {
	IntProperty          int          `json:"intProperty"`
	NullableIntProperty  *int         `json:"nullableIntProperty,omitempty"`
	LongProperty         int64        `json:"longProperty"`
	NullableLongProperty *int64       `json:"nullableLongProperty,omitempty"`
	DateProperty         time.Time    `json:"dateProperty"`
	NullableDateProperty *time.Time   `json:"nullableDateProperty,omitempty"`
	StringProperty       *string      `json:"stringProperty,omitempty"`
	BoolProperty         bool         `json:"boolProperty"`
	NullableBoolProperty *bool        `json:"nullableBoolProperty,omitempty"`
	StringList           []string     `json:"stringList"`
	NullableIntList      []int        `json:"nullableIntList,omitempty"`
	NestedObject         *deepNested  `json:"nestedObject"`
	NestedList           []deepNested `json:"nestedList"`
	Members              []*nested    `json:"members,omitempty"`
}

func ptr[T any](v T) *T {
	return &v
}

var day = time.Date(2023, 8, 19, 0, 0, 0, 0, time.UTC)

func mockTarget() *target {
	return &target{
		IntProperty:          10,
		LongProperty:         1000000,
		NullableLongProperty: ptr[int64](2000000),
		DateProperty:         day,
		StringProperty:       ptr("Initial String"),
		BoolProperty:         true,
		StringList:           []string{"Item1", "Item2", "Item3"},
		NullableIntList:      []int{1, 2, 3},
		NestedObject: &deepNested{
			Title:      ptr("Nested Initial"),
			NestedDate: ptr(day),
			NestedList: []nested{
				{Name: "Nested 1", NestedInt: ptr(10)},
				{Name: "Nested 2", NestedInt: ptr(20)},
			},
		},
		NestedList: []deepNested{
			{
				Title:      ptr("Deep Nested 1"),
				NestedDate: ptr(day),
				NestedList: []nested{
					{Name: "Deep Nested 1-1", NestedInt: ptr(10)},
					{Name: "Deep Nested 1-2", NestedInt: ptr(20)},
				},
			},
			{
				Title:      ptr("Deep Nested 2"),
				NestedList: []nested{},
			},
		},
	}
}

func op(kind Kind, path string, value any) Operation {
	o := Operation{Kind: kind, Path: path}
	if value != nil {
		o.Value = MustValueOf(value)
	}

	return o
}

func transferOp(kind Kind, from, to string) Operation {
	return Operation{Kind: kind, From: from, Path: to}
}

func bind(t *testing.T, root any, o Operation) []*Node {
	t.Helper()

	nodes, err := NewBinder().Bind(o, root)
	require.NoError(t, err)

	return nodes
}

func bindOne(t *testing.T, root any, o Operation) *Node {
	t.Helper()

	nodes := bind(t, root, o)
	require.Len(t, nodes, 1)

	return nodes[0]
}
