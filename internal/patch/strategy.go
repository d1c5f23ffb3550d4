package patch

import (
	"context"
	"fmt"
	"reflect"

	"scim-patch/internal/accessor"
	"scim-patch/internal/diagnostic"
)

// Strategy is the apply and revert behaviour of one operation kind.
// Strategies hold no state; everything they need is on the node.
type Strategy interface {
	Kind() Kind
	Apply(ctx context.Context, n *Node) error
	Revert(ctx context.Context, n *Node) error
}

var strategies = map[Kind]Strategy{
	KindAdd:     addStrategy{},
	KindRemove:  removeStrategy{},
	KindReplace: replaceStrategy{},
	KindMove:    moveStrategy{},
	KindCopy:    copyStrategy{},
	KindTest:    testStrategy{},
}

// StrategyFor returns the strategy of kind k.
func StrategyFor(k Kind) (Strategy, error) {
	s, ok := strategies[k]
	if !ok {
		return nil, diagnostic.New(diagnostic.InvalidOperationSemantics, "no strategy for operation %s", k)
	}

	return s, nil
}

func valueRequired(n *Node) error {
	return diagnostic.New(diagnostic.ValueRequired, "%s requires a value", n.Kind())
}

type addStrategy struct{}

func (addStrategy) Kind() Kind { return KindAdd }

// Apply appends to sequences and sets anything else.
func (addStrategy) Apply(_ context.Context, n *Node) error {
	if !n.value.IsValid() {
		return valueRequired(n)
	}

	if !n.isSequence() {
		return n.set(n.value)
	}

	return appendValue(n, n.value)
}

// Revert removes the element appended by Apply, or restores the snapshot.
func (addStrategy) Revert(_ context.Context, n *Node) error {
	if !n.isSequence() || accessor.IsAbsent(n.previous) {
		return n.set(n.previous)
	}

	return removeInserted(n)
}

type removeStrategy struct{}

func (removeStrategy) Kind() Kind { return KindRemove }

// Apply removes the node's element from a sequence, or clears the
// attribute when the node has no element. The element is looked up by
// value, then at the position it was matched at when an earlier node
// edited it.
func (removeStrategy) Apply(_ context.Context, n *Node) error {
	if !n.isSequence() || !n.value.IsValid() {
		return n.property.Reset(n.instance)
	}

	cur := n.current()

	i := accessor.Find(cur, n.value, n.element)
	if i < 0 {
		return fmt.Errorf("element is no longer in %s", n.property)
	}

	removed := snapshot(cur.Index(i))

	next, err := accessor.RemoveAt(cur, i)
	if err != nil {
		return err
	}

	n.value, n.element = removed, i

	return n.set(next)
}

// Revert appends the removed element at the end of the sequence, which
// does not restore its position unless it was last. Cleared attributes get
// their snapshot back.
func (removeStrategy) Revert(_ context.Context, n *Node) error {
	if !n.isSequence() || !n.value.IsValid() {
		return n.set(n.previous)
	}

	return appendValue(n, n.value)
}

type replaceStrategy struct{}

func (replaceStrategy) Kind() Kind { return KindReplace }

// Apply swaps the matched element of a sequence, or sets the attribute.
func (replaceStrategy) Apply(_ context.Context, n *Node) error {
	if !n.value.IsValid() {
		return valueRequired(n)
	}

	if n.element == noIndex {
		return n.set(n.value)
	}

	cur := n.current()

	i := accessor.Find(cur, n.previous, n.element)
	if i < 0 {
		return fmt.Errorf("element is no longer in %s", n.property)
	}

	n.previous = snapshot(cur.Index(i))

	next, err := accessor.ReplaceAt(cur, i, n.value)
	if err != nil {
		return err
	}

	n.element = i

	return n.set(next)
}

// Revert puts the replaced element or the snapshot back.
func (replaceStrategy) Revert(_ context.Context, n *Node) error {
	if n.element == noIndex {
		return n.set(n.previous)
	}

	cur := n.current()

	i := accessor.Find(cur, n.value, n.element)
	if i < 0 {
		return fmt.Errorf("element %d is no longer in %s", n.element, n.property)
	}

	next, err := accessor.ReplaceAt(cur, i, n.previous)
	if err != nil {
		return err
	}

	return n.set(next)
}

type moveStrategy struct{}

func (moveStrategy) Kind() Kind { return KindMove }

// Apply copies the source into the target, then clears the source.
func (moveStrategy) Apply(_ context.Context, n *Node) error {
	if err := transfer(n); err != nil {
		return err
	}

	if n.sourceProperty == n.property && sameObject(n.source, n.instance) {
		return nil
	}

	return n.sourceProperty.Reset(n.source)
}

// Revert restores the target, then the source.
func (moveStrategy) Revert(_ context.Context, n *Node) error {
	if err := n.set(n.previous); err != nil {
		return err
	}

	return n.sourceProperty.Set(n.source, n.sourcePrevious)
}

type copyStrategy struct{}

func (copyStrategy) Kind() Kind { return KindCopy }

// Apply copies the source into the target.
func (copyStrategy) Apply(_ context.Context, n *Node) error {
	return transfer(n)
}

// Revert restores the target.
func (copyStrategy) Revert(_ context.Context, n *Node) error {
	return n.set(n.previous)
}

type testStrategy struct{}

func (testStrategy) Kind() Kind { return KindTest }

// Apply compares the attribute with the payload. A sequence attribute
// tested against a single element passes when it contains it.
func (testStrategy) Apply(_ context.Context, n *Node) error {
	if !n.value.IsValid() {
		return valueRequired(n)
	}

	cur := n.current()

	if n.isSequence() && n.value.Type() != n.property.Type {
		if !contains(cur, n.value) {
			return diagnostic.New(diagnostic.TestFailed, "%s does not contain %v", n.property, accessor.Interface(n.value))
		}

		return nil
	}

	if !equal(cur, n.value) {
		return diagnostic.New(diagnostic.TestFailed, "%s is %v, expected %v",
			n.property, accessor.Interface(cur), accessor.Interface(n.value))
	}

	return nil
}

// Revert does nothing: test changes nothing.
func (testStrategy) Revert(context.Context, *Node) error {
	return nil
}

// transfer writes the current source value into the target. A sequence
// target receives an element-typed source value as a new element.
func transfer(n *Node) error {
	v := snapshot(n.sourceProperty.Get(n.source))

	if n.isSequence() && v.Type() != n.property.Type {
		if _, err := accessor.Assign(n.property.Elem, v); err == nil {
			return appendValue(n, v)
		}
	}

	return n.set(v)
}

func appendValue(n *Node, v reflect.Value) error {
	next, err := accessor.Append(n.sequence(), v)
	if err != nil {
		return diagnostic.Wrap(diagnostic.TypeMismatch, err, "cannot add to %s", n.property)
	}

	n.inserted = next.Len() - 1

	return n.set(next)
}

// removeInserted drops the element recorded by the last append, or the
// last element when the recorded position is gone.
func removeInserted(n *Node) error {
	cur := n.current()
	if cur.Len() == 0 {
		return fmt.Errorf("%s is empty", n.property)
	}

	i := n.inserted
	if i < 0 || i >= cur.Len() {
		i = cur.Len() - 1
	}

	next, err := accessor.RemoveAt(cur, i)
	if err != nil {
		return err
	}

	n.inserted = noIndex

	return n.set(next)
}

func contains(seq, v reflect.Value) bool {
	for _, e := range accessor.Elements(seq) {
		if equal(e, v) {
			return true
		}
	}

	return false
}

func sameObject(a, b reflect.Value) bool {
	if !a.CanAddr() || !b.CanAddr() {
		return false
	}

	return a.Type() == b.Type() && a.Addr().Pointer() == b.Addr().Pointer()
}

// equal compares two attribute values. Two absent values are equal, so a
// nil slice matches an empty one.
func equal(a, b reflect.Value) bool {
	if accessor.IsAbsent(a) && accessor.IsAbsent(b) {
		return true
	}

	return reflect.DeepEqual(accessor.Interface(a), accessor.Interface(b))
}
