package patch

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"scim-patch/internal/accessor"
	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
	"scim-patch/internal/path"
)

// State is the lifecycle state of a Node.
type State int

const (
	StateBound State = iota
	StateApplied
	StateApplyFailed
	StateReverted
	StateRevertFailed
)

func (s State) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StateApplied:
		return "applied"
	case StateApplyFailed:
		return "apply-failed"
	case StateReverted:
		return "reverted"
	case StateRevertFailed:
		return "revert-failed"
	default:
		return common.UnknownStr
	}
}

// noIndex marks an unset sequence position.
const noIndex = -1

// Node is one bound, executable and revertible operation against a single
// object. It keeps a snapshot of the attribute taken when it was bound and
// taken again each time the node is applied, so that a revert restores the
// state the apply started from. Reverting nodes of a batch in reverse order
// restores the original graph. Reverting a single node out of order does
// not: it restores what that node overwrote, including changes made by
// nodes applied before it, rather than the value seen at bind time.
//
// The object is found again from the root before every apply and revert,
// so a node still reaches an element of a value slice after an earlier
// node rewrote that slice. A node bound under nil complex attributes
// allocates them on apply and clears them again on revert.
type Node struct {
	op       Operation
	ordinal  int
	strategy Strategy
	logger   *slog.Logger
	seq      accessor.Materializer

	root     reflect.Value
	location path.Location
	instance reflect.Value
	property *accessor.Property
	previous reflect.Value
	value    reflect.Value

	// element is the position of the element a filtered replace swaps,
	// located again when the node is applied.
	element int
	// inserted is where the last apply appended to a sequence.
	inserted int

	// missing are nil attributes leading from the located object to the
	// owner of property; created is the index of the first one the last
	// apply allocated, or noIndex.
	missing []*accessor.Property
	created int

	// source of move and copy.
	source         reflect.Value
	sourceLocation path.Location
	sourceProperty *accessor.Property
	sourcePrevious reflect.Value

	state State
	err   error
}

func newNode(op Operation, s Strategy, o *options, root reflect.Value, target path.Target, prop *accessor.Property) *Node {
	return &Node{
		op:       op,
		strategy: s,
		logger:   o.logger,
		seq:      o.materializer,
		root:     root,
		location: target.Location,
		instance: target.Value,
		property: prop,
		previous: snapshot(prop.Get(target.Value)),
		element:  noIndex,
		inserted: noIndex,
		missing:  target.Missing,
		created:  noIndex,
	}
}

// TryApply applies the node. It is allowed from the bound, apply-failed and
// reverted states. On failure the node moves to the apply-failed state and
// Err reports why.
func (n *Node) TryApply(ctx context.Context) bool {
	switch n.state {
	case StateBound, StateApplyFailed, StateReverted:
	default:
		n.err = diagnostic.New(diagnostic.InvalidOperationSemantics, "cannot apply %s in state %s", n, n.state)
		return false
	}

	err := n.relocate()
	if err == nil {
		base := n.instance

		if err = n.descend(true); err == nil {
			n.capture()

			if err = n.strategy.Apply(ctx, n); err != nil {
				_ = n.uncreate(base)
			}
		}
	}

	if err != nil {
		n.state = StateApplyFailed
		n.err = diagnostic.Wrap(diagnostic.ApplyFailure, err, "%s", n).WithPath(n.op.Path)
		n.logger.WarnContext(ctx, "apply failed", "node", n.String(), "error", err)

		return false
	}

	n.track()
	n.state = StateApplied
	n.err = nil
	n.logger.DebugContext(ctx, "applied", "node", n.String())

	return true
}

// TryRevert undoes an applied node. It is allowed from the applied and
// revert-failed states.
func (n *Node) TryRevert(ctx context.Context) bool {
	switch n.state {
	case StateApplied, StateRevertFailed:
	default:
		n.err = diagnostic.New(diagnostic.InvalidOperationSemantics, "cannot revert %s in state %s", n, n.state)
		return false
	}

	err := n.relocate()
	if err == nil {
		base := n.instance

		if err = n.descend(false); err == nil {
			if err = n.strategy.Revert(ctx, n); err == nil {
				err = n.uncreate(base)
			}
		}
	}

	if err != nil {
		n.state = StateRevertFailed
		n.err = diagnostic.Wrap(diagnostic.RevertFailure, err, "%s", n).WithPath(n.op.Path)
		n.logger.WarnContext(ctx, "revert failed", "node", n.String(), "error", err)

		return false
	}

	n.track()
	n.state = StateReverted
	n.err = nil
	n.logger.DebugContext(ctx, "reverted", "node", n.String())

	return true
}

// Kind returns the operation kind.
func (n *Node) Kind() Kind { return n.strategy.Kind() }

// Operation returns the record the node was bound from.
func (n *Node) Operation() Operation { return n.op }

// Instance returns a pointer to the object owning the attribute.
func (n *Node) Instance() any {
	if n.instance.CanAddr() {
		return n.instance.Addr().Interface()
	}

	return accessor.Interface(n.instance)
}

// Attribute returns the attribute the node changes.
func (n *Node) Attribute() *accessor.Property { return n.property }

// Previous returns the captured attribute value: the value at bind time
// until the node is applied, the value the last apply replaced afterwards.
// For a filtered replace it is the replaced element.
func (n *Node) Previous() any { return accessor.Interface(n.previous) }

// Value returns the coerced payload, the element a filtered remove deletes,
// or nil.
func (n *Node) Value() any { return accessor.Interface(n.value) }

// State returns the lifecycle state.
func (n *Node) State() State { return n.state }

// Err returns the failure of the last TryApply or TryRevert.
func (n *Node) Err() error { return n.err }

// Label identifies the node in reports: "#2 add User.emails".
func (n *Node) Label() string {
	if n.ordinal > 0 {
		return fmt.Sprintf("#%d %s", n.ordinal, n)
	}

	return n.String()
}

func (n *Node) String() string {
	s := fmt.Sprintf("%s %s", n.Kind(), n.property)
	if n.sourceProperty != nil {
		s = fmt.Sprintf("%s %s -> %s", n.Kind(), n.sourceProperty, n.property)
	}

	if n.element != noIndex {
		s += fmt.Sprintf("[%d]", n.element)
	}

	return s
}

// relocate finds the object and the source again from the root.
func (n *Node) relocate() error {
	if !n.root.IsValid() {
		return nil
	}

	v, loc, ok := n.location.Locate(n.root)
	if !ok {
		return diagnostic.New(diagnostic.AttributeNotFound, "%s no longer exists", n.location)
	}

	n.instance, n.location = v, loc

	if n.sourceProperty == nil {
		return nil
	}

	src, loc, ok := n.sourceLocation.Locate(n.root)
	if !ok {
		return diagnostic.New(diagnostic.AttributeNotFound, "source %s no longer exists", n.sourceLocation)
	}

	n.source, n.sourceLocation = src, loc

	return nil
}

// descend walks the missing attributes from the located object to the
// owner of the node's attribute. With create, nil attributes get a new
// object.
func (n *Node) descend(create bool) error {
	obj := n.instance

	for i, prop := range n.missing {
		child := prop.Get(obj)

		if accessor.IsNil(child) {
			if !create {
				return diagnostic.New(diagnostic.AttributeNotFound, "%s no longer exists", prop)
			}

			if prop.Type.Kind() != reflect.Ptr {
				return diagnostic.New(diagnostic.TypeMismatch, "cannot create %s", prop)
			}

			if err := prop.Set(obj, reflect.New(prop.Type.Elem())); err != nil {
				return err
			}

			if n.created == noIndex {
				n.created = i
			}

			child = prop.Get(obj)
		}

		next, ok := accessor.Object(child)
		if !ok {
			return diagnostic.New(diagnostic.TypeMismatch, "%s is not an object", prop)
		}

		obj = next
	}

	n.instance = obj

	return nil
}

// uncreate clears the outermost attribute the last apply allocated.
func (n *Node) uncreate(base reflect.Value) error {
	if n.created == noIndex {
		return nil
	}

	owner := base
	for _, prop := range n.missing[:n.created] {
		next, ok := accessor.Object(prop.Get(owner))
		if !ok {
			return diagnostic.New(diagnostic.AttributeNotFound, "%s no longer exists", prop)
		}

		owner = next
	}

	if err := n.missing[n.created].Reset(owner); err != nil {
		return err
	}

	n.created = noIndex

	return nil
}

// track records the elements on the way to the object as they are after
// the node changed them.
func (n *Node) track() {
	if !n.root.IsValid() {
		return
	}

	if _, loc, ok := n.location.Locate(n.root); ok {
		n.location = loc
	}

	if n.sourceProperty != nil {
		if _, loc, ok := n.sourceLocation.Locate(n.root); ok {
			n.sourceLocation = loc
		}
	}
}

func (n *Node) capture() {
	if n.element == noIndex {
		n.previous = snapshot(n.current())
	}

	if n.sourceProperty != nil {
		n.sourcePrevious = snapshot(n.sourceProperty.Get(n.source))
	}
}

func (n *Node) isSequence() bool {
	return n.property.Shape == accessor.ShapeSequence
}

// current returns the attribute value as it is now.
func (n *Node) current() reflect.Value {
	return n.property.Get(n.instance)
}

func (n *Node) set(v reflect.Value) error {
	return n.property.Set(n.instance, v)
}

// sequence returns the current sequence, materializing it when absent.
func (n *Node) sequence() reflect.Value {
	cur := n.current()
	if accessor.IsNil(cur) {
		return n.seq.Materialize(n.property.Type)
	}

	return cur
}

// snapshot detaches v from the location it was read from. Slices are
// copied so that later in-place edits cannot reach the snapshot.
func snapshot(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	out := reflect.New(v.Type()).Elem()
	out.Set(v)

	return accessor.Clone(out)
}
