package filter

import (
	"encoding/json"
	"fmt"
	"unicode"
	"unicode/utf8"

	"scim-patch/internal/diagnostic"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenWord
	tokenString
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of filter"
	case tokenWord:
		return "word"
	case tokenString:
		return "string"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBracket:
		return "'['"
	case tokenRBracket:
		return "']'"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits a filter into tokens. Words are maximal runs of characters
// other than white space, parentheses, brackets and double quotes.
func lex(src string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])

		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case r == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case r == '[':
			tokens = append(tokens, token{tokenLBracket, "[", i})
			i++
		case r == ']':
			tokens = append(tokens, token{tokenRBracket, "]", i})
			i++
		case r == '"':
			end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}

			var text string
			if err := json.Unmarshal([]byte(src[i:end]), &text); err != nil {
				return nil, syntaxError(i, "invalid string literal %s: %v", src[i:end], err)
			}

			tokens = append(tokens, token{tokenString, text, i})
			i = end
		default:
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if unicode.IsSpace(r) || r == '(' || r == ')' || r == '[' || r == ']' || r == '"' {
					break
				}

				i += size
			}

			tokens = append(tokens, token{tokenWord, src[start:i], start})
		}
	}

	return append(tokens, token{tokenEOF, "", len(src)}), nil
}

// scanString returns the offset just past the closing quote of the string
// starting at src[start].
func scanString(src string, start int) (int, error) {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}

	return 0, syntaxError(start, "unterminated string literal")
}

func syntaxError(pos int, format string, args ...any) error {
	return diagnostic.New(diagnostic.InvalidFilterSyntax, "offset %d: %s", pos, fmt.Sprintf(format, args...))
}
