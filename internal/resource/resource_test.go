package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scim-patch/internal/patch"
)

const bjensen = `{
	"schemas": ["urn:ietf:params:scim:schemas:core:2.0:User"],
	"id": "2819c223-7f76-453a-919d-413861904646",
	"userName": "bjensen",
	"name": {"familyName": "Jensen", "givenName": "Barbara"},
	"active": true,
	"emails": [
		{"value": "bjensen@example.com", "type": "work", "primary": true},
		{"value": "babs@jensen.org", "type": "home"}
	],
	"meta": {"resourceType": "User", "created": "2010-01-23T04:56:22Z"}
}`

func TestNew(t *testing.T) {
	assert.Equal(t, []string{"group", "user"}, Kinds())

	u, err := New("User")
	require.NoError(t, err)
	require.IsType(t, &User{}, u)
	assert.Equal(t, []string{UserSchema}, u.(*User).Schemas)

	g, err := New("group")
	require.NoError(t, err)
	assert.Equal(t, []string{GroupSchema}, g.(*Group).Schemas)

	_, err = New("device")
	assert.ErrorContains(t, err, `unknown resource kind "device" (known: group, user)`)
}

func TestDecode(t *testing.T) {
	r, err := Decode("user", []byte(bjensen))
	require.NoError(t, err)

	u := r.(*User)
	assert.Equal(t, "bjensen", u.UserName)
	assert.Equal(t, "Jensen", u.Name.FamilyName)
	require.Len(t, u.Emails, 2)
	assert.True(t, u.Emails[0].Primary)
	assert.Equal(t, 2010, u.Meta.Created.Year())

	r, err = Decode("group", []byte(`
displayName: Tour Guides
members:
  - value: 2819c223-7f76-453a-919d-413861904646
    display: Babs Jensen
`))
	require.NoError(t, err)

	g := r.(*Group)
	assert.Equal(t, "Tour Guides", g.DisplayName)
	require.Len(t, g.Members, 1)
	assert.Equal(t, "Babs Jensen", g.Members[0].Display)

	_, err = Decode("user", []byte(`userName: [`))
	assert.Error(t, err)

	_, err = Decode("user", []byte(`{"userName": 5}`))
	assert.Error(t, err)
}

func apply(t *testing.T, r any, doc string) *patch.Tracker {
	t.Helper()

	nodes, err := patch.FromDocument(r, []byte(doc))
	require.NoError(t, err)

	tr := patch.NewTracker(nodes)
	require.NoError(t, tr.Apply(context.Background()))

	return tr
}

func TestPatch_User(t *testing.T) {
	r, err := Decode("user", []byte(bjensen))
	require.NoError(t, err)

	u := r.(*User)

	tr := apply(t, u, `{
		"schemas": ["urn:ietf:params:scim:api:messages:2.0:PatchOp"],
		"Operations": [
			{"op": "replace", "path": "emails[type eq \"work\"].value", "value": "babs@example.com"},
			{"op": "add", "path": "phoneNumbers", "value": [{"value": "555-555-8377", "type": "work"}]},
			{"op": "replace", "path": "name.givenName", "value": "Babs"},
			{"op": "remove", "path": "emails[type eq \"home\"]"},
			{"op": "replace", "path": "active", "value": false},
			{"op": "test", "path": "urn:ietf:params:scim:schemas:core:2.0:User:userName", "value": "bjensen"}
		]
	}`)

	require.Len(t, u.Emails, 1)
	assert.Equal(t, "babs@example.com", u.Emails[0].Value)
	assert.Equal(t, []PhoneNumber{{Value: "555-555-8377", Type: "work"}}, u.PhoneNumbers)
	assert.Equal(t, "Babs", u.Name.GivenName)
	assert.False(t, *u.Active)

	require.NoError(t, tr.Revert(context.Background()))

	want, err := Decode("user", []byte(bjensen))
	require.NoError(t, err)
	assert.Equal(t, want, u)
}

func TestPatch_EditThenRemoveEmail(t *testing.T) {
	u := &User{UserName: "bjensen", Emails: []Email{
		{Value: "a@x", Type: "work"},
		{Value: "b@x", Type: "home"},
	}}

	tr := apply(t, u, `[
		{"op": "add", "path": "emails[type eq \"work\"].display", "value": "W"},
		{"op": "remove", "path": "emails[type eq \"work\"]"}
	]`)
	assert.Equal(t, []Email{{Value: "b@x", Type: "home"}}, u.Emails)

	require.NoError(t, tr.Revert(context.Background()))
	assert.ElementsMatch(t, []Email{{Value: "a@x", Type: "work"}, {Value: "b@x", Type: "home"}}, u.Emails)
}

func TestPatch_AddUnderMissingName(t *testing.T) {
	u := &User{UserName: "bjensen"}

	tr := apply(t, u, `[{"op": "add", "path": "name.givenName", "value": "Babs"}]`)
	require.Len(t, tr.Nodes(), 1)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Babs", u.Name.GivenName)

	require.NoError(t, tr.Revert(context.Background()))
	assert.Nil(t, u.Name)
}

func TestPatch_GroupMembers(t *testing.T) {
	g := &Group{DisplayName: "Tour Guides"}

	apply(t, g, `[
		{"op": "add", "path": "members", "value": [
			{"display": "Babs Jensen", "value": "2819c223"},
			{"display": "Mandy Pepperidge", "value": "902c246b"}
		]}
	]`)
	require.Len(t, g.Members, 2)

	apply(t, g, `[{"op": "remove", "path": "members[value eq \"2819c223\"]"}]`)
	assert.Equal(t, []Member{{Value: "902c246b", Display: "Mandy Pepperidge"}}, g.Members)

	apply(t, g, `[{"op": "remove", "path": "members"}]`)
	assert.Empty(t, g.Members)
}
