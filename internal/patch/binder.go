package patch

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"scim-patch/internal/accessor"
	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
	"scim-patch/internal/path"
)

// Binder turns operation records into nodes bound to a root object.
type Binder struct {
	opts options
}

// NewBinder returns a Binder configured by opts.
func NewBinder(opts ...Option) *Binder {
	return &Binder{opts: newOptions(opts)}
}

// BindAll binds every operation of a document, in order. The first error
// aborts binding and nothing is returned.
func (b *Binder) BindAll(ops []Operation, root any) ([]*Node, error) {
	var nodes []*Node

	for i, op := range ops {
		bound, err := b.Bind(op, root)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op, err)
		}

		for _, n := range bound {
			n.ordinal = i + 1
		}

		nodes = append(nodes, bound...)
	}

	return nodes, nil
}

// Bind resolves op against root, which must be a non-nil pointer to a
// struct, and returns one node per concrete target. A path reaching no
// object yields no nodes, except for add and replace under nil complex
// attributes: their node creates the missing objects when applied.
func (b *Binder) Bind(op Operation, root any) ([]*Node, error) {
	rv, err := rootValue(root)
	if err != nil {
		return nil, err
	}

	s, err := StrategyFor(op.Kind)
	if err != nil {
		return nil, err
	}

	p, err := path.Parse(op.Path)
	if err != nil {
		return nil, err
	}

	res, err := b.opts.resolver.Resolve(p, rv)
	if err != nil {
		return nil, err
	}

	if len(res.Targets) == 0 && (op.Kind == KindAdd || op.Kind == KindReplace) && !res.Segment.HasFilter() {
		if target, ok := b.opts.resolver.Absent(p, rv); ok {
			res.Targets = []path.Target{target}
		}
	}

	var nodes []*Node

	switch op.Kind {
	case KindAdd:
		nodes, err = b.bindAdd(op, s, res, rv)
	case KindRemove:
		nodes = b.bindRemove(op, s, res, rv)
	case KindReplace:
		nodes, err = b.bindReplace(op, s, res, rv)
	case KindMove, KindCopy:
		nodes, err = b.bindTransfer(op, s, res, rv)
	case KindTest:
		nodes, err = b.bindTest(op, s, res, rv)
	}

	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		b.opts.logger.Debug("bound",
			"node", n.String(),
			"owner", common.TypeName(n.instance.Type()),
			"attribute", n.property.Name)
	}

	return nodes, nil
}

// bindAdd emits one node per target. An array payload added to a sequence
// emits one node per item, so each node appends a single element.
func (b *Binder) bindAdd(op Operation, s Strategy, res *path.Resolution, root reflect.Value) ([]*Node, error) {
	if err := rejectTerminalFilter(op, res); err != nil {
		return nil, err
	}

	prop := res.Property
	payloads := []*yaml.Node{op.Value}

	if op.HasValue() && prop.Shape == accessor.ShapeSequence && content(op.Value).Kind == yaml.SequenceNode {
		payloads = content(op.Value).Content
	}

	var nodes []*Node

	for _, target := range res.Targets {
		for _, payload := range payloads {
			n := newNode(op, s, &b.opts, root, target, prop)

			v, err := b.coerce(payload, elementOrDeclared(prop))
			if err != nil {
				return nil, withPath(err, op)
			}

			n.value = v
			nodes = append(nodes, n)
		}
	}

	return nodes, nil
}

// bindRemove emits one node per element matched by a terminal filter on a
// sequence, or one node per target clearing the attribute. A terminal
// filter on anything but a sequence selects nothing.
func (b *Binder) bindRemove(op Operation, s Strategy, res *path.Resolution, root reflect.Value) []*Node {
	var nodes []*Node

	for _, target := range res.Targets {
		if !res.Segment.HasFilter() {
			nodes = append(nodes, newNode(op, s, &b.opts, root, target, res.Property))
			continue
		}

		matches, indexes := res.Matches(target)
		for j, m := range matches {
			n := newNode(op, s, &b.opts, root, target, res.Property)
			n.value = snapshot(m)
			n.element = indexes[j]
			nodes = append(nodes, n)
		}
	}

	return nodes
}

// bindReplace emits one node per element matched by a terminal filter on a
// sequence, each swapping that element, or one node per target setting the
// attribute. A single payload replacing a sequence becomes a one element
// sequence.
func (b *Binder) bindReplace(op Operation, s Strategy, res *path.Resolution, root reflect.Value) ([]*Node, error) {
	prop := res.Property

	var nodes []*Node

	for _, target := range res.Targets {
		if res.Segment.HasFilter() {
			_, indexes := res.Matches(target)
			elems := accessor.Elements(prop.Get(target.Value))

			for _, i := range indexes {
				n := newNode(op, s, &b.opts, root, target, prop)
				n.previous = snapshot(elems[i])
				n.element = i

				v, err := b.coerce(op.Value, prop.Elem)
				if err != nil {
					return nil, withPath(err, op)
				}

				n.value = v
				nodes = append(nodes, n)
			}

			continue
		}

		n := newNode(op, s, &b.opts, root, target, prop)

		v, err := b.coerceWhole(op.Value, prop)
		if err != nil {
			return nil, withPath(err, op)
		}

		n.value = v
		nodes = append(nodes, n)
	}

	return nodes, nil
}

// bindTransfer binds move and copy. The source must resolve to exactly one
// object; the target is resolved like add.
func (b *Binder) bindTransfer(op Operation, s Strategy, res *path.Resolution, root reflect.Value) ([]*Node, error) {
	if err := rejectTerminalFilter(op, res); err != nil {
		return nil, err
	}

	from, err := path.Parse(op.From)
	if err != nil {
		return nil, err
	}

	src, srcProp, err := b.opts.resolver.Source(from, root)
	if err != nil {
		return nil, err
	}

	nodes := make([]*Node, 0, len(res.Targets))

	for _, target := range res.Targets {
		n := newNode(op, s, &b.opts, root, target, res.Property)
		n.source = src.Value
		n.sourceLocation = src.Location
		n.sourceProperty = srcProp
		n.sourcePrevious = snapshot(srcProp.Get(src.Value))
		nodes = append(nodes, n)
	}

	return nodes, nil
}

// bindTest emits one node per target. An array payload tested against a
// sequence is compared as a whole; any other payload is an element the
// sequence must contain.
func (b *Binder) bindTest(op Operation, s Strategy, res *path.Resolution, root reflect.Value) ([]*Node, error) {
	if err := rejectTerminalFilter(op, res); err != nil {
		return nil, err
	}

	nodes := make([]*Node, 0, len(res.Targets))

	for _, target := range res.Targets {
		n := newNode(op, s, &b.opts, root, target, res.Property)

		t := elementOrDeclared(res.Property)
		if op.HasValue() && content(op.Value).Kind == yaml.SequenceNode {
			t = res.Property.Type
		}

		v, err := b.coerce(op.Value, t)
		if err != nil {
			return nil, withPath(err, op)
		}

		n.value = v
		nodes = append(nodes, n)
	}

	return nodes, nil
}

// coerce converts a payload; a missing or null payload yields an invalid
// value, reported when the node is applied.
func (b *Binder) coerce(payload *yaml.Node, t reflect.Type) (reflect.Value, error) {
	if isNull(payload) {
		return reflect.Value{}, nil
	}

	return b.opts.coercer.Coerce(payload, t)
}

func (b *Binder) coerceWhole(payload *yaml.Node, prop *accessor.Property) (reflect.Value, error) {
	if prop.Shape != accessor.ShapeSequence || isNull(payload) || content(payload).Kind == yaml.SequenceNode {
		return b.coerce(payload, prop.Type)
	}

	elem, err := b.coerce(payload, prop.Elem)
	if err != nil {
		return reflect.Value{}, err
	}

	return accessor.Append(reflect.MakeSlice(prop.Type, 0, 1), elem)
}

func elementOrDeclared(prop *accessor.Property) reflect.Type {
	if prop.Shape == accessor.ShapeSequence {
		return prop.Elem
	}

	return prop.Type
}

func rejectTerminalFilter(op Operation, res *path.Resolution) error {
	if !res.Segment.HasFilter() {
		return nil
	}

	return diagnostic.New(diagnostic.InvalidOperationSemantics,
		"%s does not accept a filter on the last path segment %q", op.Kind, res.Segment).WithPath(op.Path)
}

func rootValue(root any) (reflect.Value, error) {
	rv, ok := root.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(root)
	}

	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, diagnostic.New(diagnostic.InvalidOperationSemantics,
			"root must be a non-nil pointer to a struct, got %s", describeRoot(rv))
	}

	return rv, nil
}

func describeRoot(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return "nil " + common.TypeName(rv.Type())
	}

	return common.TypeName(rv.Type())
}

func withPath(err error, op Operation) error {
	if de, ok := err.(*diagnostic.Error); ok {
		return de.WithPath(op.Path)
	}

	return err
}
