package patch

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scim-patch/internal/diagnostic"
)

func TestFromDocument_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		// reorders is set when a filtered remove of an element that is not
		// last is reverted, which appends the element at the end.
		reorders bool
		expect   func(want *target)
	}{
		{
			name: "single add",
			doc:  `[{"op": "add", "path": "StringProperty", "value": "New Value"}]`,
			expect: func(want *target) {
				want.StringProperty = ptr("New Value")
			},
		},
		{
			name:     "single remove",
			doc:      `[{"op": "remove", "path": "StringList[this eq \"Item2\"]"}]`,
			reorders: true,
			expect: func(want *target) {
				want.StringList = []string{"Item1", "Item3"}
			},
		},
		{
			name: "two operations",
			doc: `[
				{"op": "add", "path": "IntProperty", "value": 123},
				{"op": "remove", "path": "NullableBoolProperty"}
			]`,
			expect: func(want *target) {
				want.IntProperty = 123
			},
		},
		{
			name:     "three operations",
			reorders: true,
			doc: `[
				{"op": "add", "path": "NestedObject.Title", "value": "Nested Name"},
				{"op": "add", "path": "NestedList[Title eq \"Deep Nested 1\"].Title", "value": "Title 1"},
				{"op": "remove", "path": "StringList[this eq \"Item2\"]"}
			]`,
			expect: func(want *target) {
				want.NestedObject.Title = ptr("Nested Name")
				want.NestedList[0].Title = ptr("Title 1")
				want.StringList = []string{"Item1", "Item3"}
			},
		},
		{
			name: "four operations",
			doc: `[
				{"op": "add", "path": "DateProperty", "value": "2024-08-20T00:00:00Z"},
				{"op": "remove", "path": "NullableIntList"},
				{"op": "add", "path": "LongProperty", "value": 9999999999},
				{"op": "remove", "path": "NestedList[Title eq \"Deep Nested 1\"].NestedDate"}
			]`,
			expect: func(want *target) {
				want.DateProperty = time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC)
				want.NullableIntList = nil
				want.LongProperty = 9999999999
				want.NestedList[0].NestedDate = nil
			},
		},
		{
			name: "five operations",
			doc: `
- op: add
  path: NullableIntProperty
  value: 42
- op: replace
  path: BoolProperty
  value: false
- op: replace
  path: NestedObject.NestedList[Name eq "Nested 1"].NestedInt
  value: 7
- op: add
  path: StringList
  value: Added Value
- op: remove
  path: NestedList[Title sw "Deep"].Title
`,
			expect: func(want *target) {
				want.NullableIntProperty = ptr(42)
				want.BoolProperty = false
				want.NestedObject.NestedList[0].NestedInt = ptr(7)
				want.StringList = append(want.StringList, "Added Value")
				want.NestedList[0].Title = nil
				want.NestedList[1].Title = nil
			},
		},
		{
			name: "patch message",
			doc: `{
				"schemas": ["urn:ietf:params:scim:api:messages:2.0:PatchOp"],
				"Operations": [
					{"op": "copy", "from": "StringProperty", "path": "NestedObject.Title"},
					{"op": "move", "from": "IntProperty", "path": "NullableIntProperty"},
					{"op": "test", "path": "NullableIntProperty", "value": 10}
				]
			}`,
			expect: func(want *target) {
				want.NestedObject.Title = ptr("Initial String")
				want.NullableIntProperty = ptr(10)
				want.IntProperty = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mockTarget()

			nodes, err := FromDocument(root, []byte(tt.doc))
			require.NoError(t, err)

			tr := NewTracker(nodes)
			require.NoError(t, tr.Apply(context.Background()))

			want := mockTarget()
			tt.expect(want)
			assert.Empty(t, cmp.Diff(want, root))

			for _, n := range tr.Nodes() {
				assert.Equal(t, StateApplied, n.State())
			}

			assert.False(t, tr.Report().HasErrors())

			require.NoError(t, tr.Revert(context.Background()))

			original := mockTarget()
			if tt.reorders {
				assert.ElementsMatch(t, original.StringList, root.StringList)
				root.StringList = original.StringList
			}

			assert.Empty(t, cmp.Diff(original, root))
		})
	}
}

func TestTracker_BatchRevertRestoresOriginal(t *testing.T) {
	root := mockTarget()
	ctx := context.Background()

	nodes, err := NewBinder().BindAll([]Operation{
		op(KindAdd, "stringList", "Item4"),
		op(KindAdd, "stringList", "Item5"),
		{Kind: KindRemove, Path: "intProperty"},
		op(KindAdd, "nullableIntList", 4),
		{Kind: KindRemove, Path: "nullableIntList"},
		op(KindAdd, "nullableIntList", 5),
		op(KindAdd, "stringProperty", "changed"),
		{Kind: KindRemove, Path: "stringProperty"},
		op(KindAdd, "nestedObject.nestedList", map[string]any{"name": "n"}),
		{Kind: KindRemove, Path: `nestedList[title eq "Deep Nested 2"]`},
	}, root)
	require.NoError(t, err)

	tr := NewTracker(nodes)
	require.NoError(t, tr.Apply(ctx))

	assert.Equal(t, []string{"Item1", "Item2", "Item3", "Item4", "Item5"}, root.StringList)
	assert.Equal(t, 0, root.IntProperty)
	assert.Equal(t, []int{5}, root.NullableIntList)
	assert.Nil(t, root.StringProperty)
	assert.Len(t, root.NestedObject.NestedList, 3)
	assert.Len(t, root.NestedList, 1)

	require.NoError(t, tr.Revert(ctx))
	assert.Empty(t, cmp.Diff(mockTarget(), root))
}

func TestTracker_ValueSliceElements(t *testing.T) {
	root := mockTarget()
	ctx := context.Background()

	nodes, err := NewBinder().BindAll([]Operation{
		{Kind: KindRemove, Path: `nestedList[title eq "Deep Nested 1"]`},
		op(KindReplace, `nestedList[title eq "Deep Nested 2"].title`, "Moved"),
		op(KindReplace, `nestedObject.nestedList[name eq "Nested 1"].name`, "N1"),
		op(KindAdd, "nestedObject.nestedList", map[string]any{"name": "Nested 3"}),
	}, root)
	require.NoError(t, err)

	tr := NewTracker(nodes)
	require.NoError(t, tr.Apply(ctx))

	require.Len(t, root.NestedList, 1)
	assert.Equal(t, "Moved", *root.NestedList[0].Title)
	require.Len(t, root.NestedObject.NestedList, 3)
	assert.Equal(t, "N1", root.NestedObject.NestedList[0].Name)

	require.NoError(t, tr.Revert(ctx))

	want := mockTarget()
	assert.ElementsMatch(t, want.NestedList, root.NestedList)
	assert.Equal(t, want.NestedObject, root.NestedObject)
}

func TestTracker_EditedElementThenFilteredRemove(t *testing.T) {
	root := mockTarget()
	ctx := context.Background()

	nodes, err := NewBinder().BindAll([]Operation{
		op(KindAdd, `nestedObject.nestedList[name eq "Nested 1"].nestedInt`, 11),
		{Kind: KindRemove, Path: `nestedObject.nestedList[name eq "Nested 1"]`},
	}, root)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	tr := NewTracker(nodes)
	require.NoError(t, tr.Apply(ctx))
	assert.Equal(t, []nested{{Name: "Nested 2", NestedInt: ptr(20)}}, root.NestedObject.NestedList)
	assert.Equal(t, nested{Name: "Nested 1", NestedInt: ptr(11)}, nodes[1].Value())

	require.NoError(t, tr.Revert(ctx))
	assert.ElementsMatch(t, mockTarget().NestedObject.NestedList, root.NestedObject.NestedList)
}

func TestTracker_EditedElementThenFilteredReplace(t *testing.T) {
	root := mockTarget()
	ctx := context.Background()

	nodes, err := NewBinder().BindAll([]Operation{
		op(KindReplace, `nestedList[title eq "Deep Nested 1"].title`, "Edited"),
		op(KindReplace, `nestedList[title eq "Deep Nested 1"]`, map[string]any{"title": "Whole"}),
	}, root)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	tr := NewTracker(nodes)
	require.NoError(t, tr.Apply(ctx))
	require.Len(t, root.NestedList, 2)
	assert.Equal(t, deepNested{Title: ptr("Whole")}, root.NestedList[0])
	assert.Equal(t, "Edited", *nodes[1].Previous().(deepNested).Title)

	require.NoError(t, tr.Revert(ctx))
	assert.Empty(t, cmp.Diff(mockTarget(), root))
}

func TestTracker_CreatesMissingObjects(t *testing.T) {
	root := mockTarget()
	root.NestedObject = nil
	ctx := context.Background()

	nodes, err := NewBinder().BindAll([]Operation{
		op(KindAdd, "nestedObject.title", "Created"),
		op(KindReplace, "nestedObject.nestedList", []map[string]any{{"name": "n"}}),
	}, root)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Nil(t, root.NestedObject, "binding changes nothing")

	tr := NewTracker(nodes)
	require.NoError(t, tr.Apply(ctx))
	require.NotNil(t, root.NestedObject)
	assert.Equal(t, "Created", *root.NestedObject.Title)
	assert.Equal(t, []nested{{Name: "n"}}, root.NestedObject.NestedList)

	require.NoError(t, tr.Revert(ctx))
	assert.Nil(t, root.NestedObject)

	// a failed apply leaves nothing behind
	n := bindOne(t, root, Operation{Kind: KindAdd, Path: "nestedObject.title"})
	assert.False(t, n.TryApply(ctx))
	assert.ErrorIs(t, n.Err(), diagnostic.ErrValueRequired)
	assert.Nil(t, root.NestedObject)

	// remove and filtered paths under a nil object select nothing
	assert.Empty(t, bind(t, root, Operation{Kind: KindRemove, Path: "nestedObject.title"}))
	assert.Empty(t, bind(t, root, op(KindAdd, `nestedObject.nestedList[name eq "x"].name`, "y")))
}

func TestTracker_RollbackOnFailure(t *testing.T) {
	root := mockTarget()
	ctx := context.Background()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	nodes, err := FromDocument(root, []byte(`[
		{"op": "replace", "path": "stringProperty", "value": "changed"},
		{"op": "add", "path": "stringList", "value": "Item4"},
		{"op": "test", "path": "intProperty", "value": 11},
		{"op": "remove", "path": "longProperty"}
	]`), WithLogger(logger))
	require.NoError(t, err)

	tr := NewTracker(nodes, WithLogger(logger))
	err = tr.Apply(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, diagnostic.ErrTestFailed)
	assert.ErrorIs(t, err, diagnostic.ErrApplyFailure)

	assert.Empty(t, cmp.Diff(mockTarget(), root))
	assert.Equal(t, StateReverted, nodes[0].State())
	assert.Equal(t, StateReverted, nodes[1].State())
	assert.Equal(t, StateApplyFailed, nodes[2].State())
	assert.Equal(t, StateBound, nodes[3].State())

	report := tr.Report()
	require.True(t, report.HasErrors())
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "#3 test patch.target.intProperty", report.Errors[0].Operation)
	assert.Equal(t, "ApplyFailure", report.Errors[0].Code)
	assert.Len(t, report.Warnings, 2)

	assert.Contains(t, logs.String(), "rolling back")
	assert.Contains(t, logs.String(), "bound")
}

func TestTracker_NoRollback(t *testing.T) {
	root := mockTarget()
	ctx := context.Background()

	nodes, err := NewBinder().BindAll([]Operation{
		op(KindReplace, "intProperty", 1),
		op(KindTest, "intProperty", 2),
	}, root)
	require.NoError(t, err)

	tr := NewTracker(nodes, WithRollback(false))
	require.Error(t, tr.Apply(ctx))
	assert.Equal(t, 1, root.IntProperty)
	assert.Equal(t, StateApplied, nodes[0].State())

	require.NoError(t, tr.Revert(ctx))
	assert.Equal(t, 10, root.IntProperty)
}

func TestTracker_Canceled(t *testing.T) {
	root := mockTarget()

	nodes, err := NewBinder().BindAll([]Operation{op(KindReplace, "intProperty", 1)}, root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewTracker(nodes).Apply(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateBound, nodes[0].State())
	assert.Equal(t, 10, root.IntProperty)
}

func TestFromDocument_Errors(t *testing.T) {
	_, err := FromDocument(mockTarget(), []byte(`[{"op": "add"}]`))
	assert.ErrorIs(t, err, diagnostic.ErrInvalidDocument)

	_, err = FromDocument(mockTarget(), []byte(`[{"op": "add", "path": "StringList[this eq \"x\"]", "value": "x"}]`))
	assert.ErrorIs(t, err, diagnostic.ErrInvalidOperationSemantics)

	_, err = FromDocument(mockTarget(), []byte(`[{"op": "add", "path": "InvalidPath", "value": "x"}]`))
	assert.ErrorIs(t, err, diagnostic.ErrAttributeNotFound)
}
