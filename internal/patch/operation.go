package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
)

// Kind is the kind of a patch operation.
type Kind int

const (
	KindAdd Kind = iota + 1
	KindRemove
	KindReplace
	KindMove
	KindCopy
	KindTest
)

var kindNames = map[Kind]string{
	KindAdd:     "add",
	KindRemove:  "remove",
	KindReplace: "replace",
	KindMove:    "move",
	KindCopy:    "copy",
	KindTest:    "test",
}

// String returns the lower-case operation name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return common.UnknownStr
}

// NeedsFrom reports whether operations of kind k read a "from" path.
func (k Kind) NeedsFrom() bool {
	return k == KindMove || k == KindCopy
}

// NeedsValue reports whether operations of kind k carry a payload.
func (k Kind) NeedsValue() bool {
	return k == KindAdd || k == KindReplace || k == KindTest
}

// ParseKind parses an operation name, ignoring case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}

	return 0, diagnostic.New(diagnostic.InvalidDocument, "unknown operation %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// Operation is one decoded patch instruction.
type Operation struct {
	Kind Kind
	// Path addresses the attribute the operation changes or tests.
	Path string
	// From addresses the source attribute of move and copy.
	From string
	// Value is the untyped payload; nil when the document carries none.
	Value *yaml.Node
}

// String returns "kind path", or "kind from -> path" for move and copy.
func (op Operation) String() string {
	if op.Kind.NeedsFrom() {
		return fmt.Sprintf("%s %s -> %s", op.Kind, op.From, op.Path)
	}

	return fmt.Sprintf("%s %s", op.Kind, op.Path)
}

// HasValue reports whether the operation carries a non-null payload.
func (op Operation) HasValue() bool {
	return op.Value != nil && !isNull(op.Value)
}

// ValueOf builds a payload from a Go value. The value goes through its JSON
// form, so struct json tags apply.
func ValueOf(v any) (*yaml.Node, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.ValueCoercionFailure, err, "cannot encode payload")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, diagnostic.Wrap(diagnostic.ValueCoercionFailure, err, "cannot encode payload")
	}

	return content(&doc), nil
}

// MustValueOf is like ValueOf but panics on error.
func MustValueOf(v any) *yaml.Node {
	n, err := ValueOf(v)
	if err != nil {
		panic(err)
	}

	return n
}

// content unwraps a document node.
func content(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}

	return n
}

func isNull(n *yaml.Node) bool {
	n = content(n)

	return n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}
