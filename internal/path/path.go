package path

import (
	"strings"

	"scim-patch/internal/diagnostic"
	"scim-patch/internal/filter"
)

// Path is a parsed attribute path.
type Path struct {
	Segments []Segment
	raw      string
}

// Segment is one attribute name, optionally narrowed by a filter.
type Segment struct {
	Name string
	// Filter is the raw text between the brackets, empty for plain segments.
	Filter string
	// Expr is the parsed Filter.
	Expr filter.Expression
}

// HasFilter reports whether the segment carries a filter.
func (s Segment) HasFilter() bool {
	return s.Expr != nil
}

func (s Segment) String() string {
	if !s.HasFilter() {
		return s.Name
	}

	return s.Name + "[" + s.Filter + "]"
}

// Parse splits text into segments and parses their filters. A leading
// schema URN, as in "urn:ietf:params:scim:schemas:core:2.0:User:userName",
// is dropped.
func Parse(text string) (Path, error) {
	parts := splitPath(stripSchema(text))
	if len(parts) == 0 {
		return Path{}, diagnostic.New(diagnostic.InvalidOperationSemantics, "invalid path %q: empty path", text)
	}

	p := Path{raw: text, Segments: make([]Segment, 0, len(parts))}

	for _, part := range parts {
		if part == "" {
			return Path{}, diagnostic.New(diagnostic.InvalidOperationSemantics, "invalid path %q: empty segment", text)
		}

		seg, err := parseSegment(part)
		if err != nil {
			return Path{}, diagnostic.Wrap(diagnostic.KindOf(err), err, "invalid path %q", text)
		}

		p.Segments = append(p.Segments, seg)
	}

	return p, nil
}

// stripSchema drops a schema URN prefix: everything up to the last ':'
// before the first filter bracket.
func stripSchema(text string) string {
	if len(text) < 4 || !strings.EqualFold(text[:4], "urn:") {
		return text
	}

	head := text
	if i := strings.IndexByte(text, '['); i >= 0 {
		head = text[:i]
	}

	return text[strings.LastIndexByte(head, ':')+1:]
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Path) String() string {
	if p.raw != "" {
		return p.raw
	}

	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		parts[i] = s.String()
	}

	return strings.Join(parts, ".")
}

// Last returns the terminal segment.
func (p Path) Last() Segment {
	return p.Segments[len(p.Segments)-1]
}

// splitPath splits on '.' outside brackets. Empty parts are kept so that
// Parse can reject them.
func splitPath(text string) []string {
	if text == "" {
		return nil
	}

	var parts []string

	var current strings.Builder

	inBracket := false

	for _, ch := range text {
		switch ch {
		case '[':
			inBracket = true
			current.WriteRune(ch)
		case ']':
			inBracket = false
			current.WriteRune(ch)
		case '.':
			if inBracket {
				current.WriteRune(ch)
			} else {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	return append(parts, current.String())
}

// parseSegment extracts the name and filter of one segment. Text after the
// closing bracket is ignored.
func parseSegment(part string) (Segment, error) {
	open := strings.IndexByte(part, '[')
	end := strings.IndexByte(part, ']')

	if open <= 0 || end <= open {
		return Segment{Name: part}, nil
	}

	seg := Segment{Name: part[:open], Filter: part[open+1 : end]}

	expr, err := filter.Parse(seg.Filter)
	if err != nil {
		return Segment{}, err
	}

	seg.Expr = expr

	return seg, nil
}
