package patch

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"scim-patch/internal/diagnostic"
)

// operationsKey is the member of a SCIM PatchOp message holding the
// operations.
const operationsKey = "operations"

// Decode reads a patch document in JSON or YAML form. The document is either
// a bare array of operations or a SCIM PatchOp message carrying them in its
// "Operations" member. Member names and operation names are matched without
// regard to case.
//
// A "from" member is required for move and copy. Payload presence is not
// checked here: a missing value surfaces when the node is applied.
func Decode(data []byte) ([]Operation, error) {
	data = spaceJSON(data)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, diagnostic.Wrap(diagnostic.InvalidDocument, err, "malformed patch document")
	}

	root := content(&doc)
	if root == nil || root.Kind == 0 {
		return nil, diagnostic.New(diagnostic.InvalidDocument, "empty patch document")
	}

	list, err := operationList(root)
	if err != nil {
		return nil, err
	}

	ops := make([]Operation, 0, len(list.Content))

	for i, item := range list.Content {
		op, err := decodeOperation(item)
		if err != nil {
			if de, ok := err.(*diagnostic.Error); ok {
				de.Message = "operation " + strconv.Itoa(i) + ": " + de.Message
			}

			return nil, err
		}

		ops = append(ops, op)
	}

	return ops, nil
}

func operationList(root *yaml.Node) (*yaml.Node, error) {
	switch root.Kind {
	case yaml.SequenceNode:
		return root, nil
	case yaml.MappingNode:
		v, ok := member(root, operationsKey)
		if !ok {
			return nil, diagnostic.New(diagnostic.InvalidDocument,
				"line %d: patch message has no Operations member", root.Line)
		}

		if v.Kind != yaml.SequenceNode {
			return nil, diagnostic.New(diagnostic.InvalidDocument,
				"line %d: Operations must be an array", v.Line)
		}

		return v, nil
	default:
		return nil, diagnostic.New(diagnostic.InvalidDocument,
			"line %d: patch document must be an array or a PatchOp message", root.Line)
	}
}

func decodeOperation(n *yaml.Node) (Operation, error) {
	var op Operation

	if n.Kind != yaml.MappingNode {
		return op, diagnostic.New(diagnostic.InvalidDocument, "line %d: operation must be an object", n.Line)
	}

	name, ok, err := scalarMember(n, "op")
	if err != nil {
		return op, err
	}

	if !ok {
		return op, diagnostic.New(diagnostic.InvalidDocument, "line %d: missing \"op\"", n.Line)
	}

	if op.Kind, err = ParseKind(name); err != nil {
		return op, err
	}

	if op.Path, ok, err = scalarMember(n, "path"); err != nil {
		return op, err
	}

	if !ok || op.Path == "" {
		return op, diagnostic.New(diagnostic.InvalidDocument, "line %d: missing \"path\"", n.Line)
	}

	if op.From, _, err = scalarMember(n, "from"); err != nil {
		return op, err
	}

	if op.Kind.NeedsFrom() && op.From == "" {
		return op, diagnostic.New(diagnostic.InvalidOperationSemantics,
			"line %d: %s requires \"from\"", n.Line, op.Kind)
	}

	if v, ok := member(n, "value"); ok {
		op.Value = v
	}

	return op, nil
}

// spaceJSON re-indents JSON input so that every member colon is followed by
// a blank, as YAML requires outside of quoted keys. Other input is returned
// unchanged.
func spaceJSON(data []byte) []byte {
	if !json.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return data
	}

	return buf.Bytes()
}

// member returns the value of key in the mapping n, ignoring case.
func member(n *yaml.Node, key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if strings.EqualFold(n.Content[i].Value, key) {
			return n.Content[i+1], true
		}
	}

	return nil, false
}

func scalarMember(n *yaml.Node, key string) (string, bool, error) {
	v, ok := member(n, key)
	if !ok || isNull(v) {
		return "", false, nil
	}

	if v.Kind != yaml.ScalarNode {
		return "", false, diagnostic.New(diagnostic.InvalidDocument,
			"line %d: %q must be a string", v.Line, key)
	}

	return v.Value, true, nil
}
