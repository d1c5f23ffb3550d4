package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"userName", "username"},
		{"UserName", "username"},
		{"user_name", "username"},
		{"user-name", "username"},
		{"PHONE NUMBERS", "phonenumbers"},
		{"$ref", "$ref"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"emails", "email", 1},
		{"nmae", "name", 2},
		{"héllo", "hello", 1},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"id", "userName", "name", "emails", "displayName", "nickName"}

	assert.Equal(t, []string{"emails"}, Suggest("email", candidates))
	assert.Equal(t, []string{"userName"}, Suggest("user_nam", candidates))
	assert.Equal(t, []string{"name", "nm", "names"}, Suggest("nam", []string{"names", "nme", "name", "nm"}))
	assert.Equal(t, []string{"name"}, Suggest("nam", []string{"nickName", "name", "nickName"}))
	assert.Equal(t, []string{"name", "nme"}, Suggest("nam", []string{"name", "nme", "name"}), "repeated candidates collapse")
	assert.Empty(t, Suggest("completelyDifferent", candidates))
}
