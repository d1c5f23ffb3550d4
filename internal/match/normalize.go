package match

import (
	"strings"
	"unicode"
)

// Normalize folds an attribute name for loose lookup: lower case with the
// separators '_', '-' and ' ' removed. "phone_numbers", "PhoneNumbers" and
// "phoneNumbers" all normalize to "phonenumbers".
func Normalize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// isSeparator returns true if the rune is a common separator.
func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}
