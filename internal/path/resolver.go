package path

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"scim-patch/internal/accessor"
	"scim-patch/internal/common"
	"scim-patch/internal/diagnostic"
	"scim-patch/internal/filter"
)

// Resolver walks paths through object graphs. Compiled paths are cached per
// (path, root type); a Resolver is safe for concurrent use, the graphs it
// walks are not.
type Resolver struct {
	plans sync.Map // planKey -> *plan
}

// NewResolver returns a Resolver with an empty cache.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Hop is one step from an object towards a nested object: the attribute
// read and, when the attribute is a sequence, the element taken from it.
type Hop struct {
	Property *accessor.Property
	// Index is the element position, or -1.
	Index int
	// Key is the element seen at Index when the hop was last followed.
	Key reflect.Value
}

// Location addresses an object by the hops leading to it from a root.
type Location []Hop

// Locate follows l from root through the current values of the graph and
// returns the object with a copy of l updated to what was found. An element
// is looked up by its key first, so earlier removals shifting positions do
// not redirect the location; when the key is gone (the element itself was
// edited) the recorded position is used. Locate fails when an object on the
// way is nil or the position is out of range.
func (l Location) Locate(root reflect.Value) (reflect.Value, Location, bool) {
	v := root
	found := make(Location, len(l))

	for i, h := range l {
		obj, ok := accessor.Object(v)
		if !ok {
			return reflect.Value{}, nil, false
		}

		v = h.Property.Get(obj)
		found[i] = h

		if h.Index < 0 {
			continue
		}

		v = accessor.Indirect(v)
		if v.Kind() != reflect.Slice {
			return reflect.Value{}, nil, false
		}

		index := h.find(v)
		if index < 0 {
			return reflect.Value{}, nil, false
		}

		v = v.Index(index)
		found[i].Index = index
		found[i].Key = keyOf(v)
	}

	obj, ok := accessor.Object(v)

	return obj, found, ok
}

func (h Hop) find(seq reflect.Value) int {
	if h.Key.IsValid() {
		return accessor.Find(seq, h.Key, h.Index)
	}

	if h.Index < seq.Len() {
		return h.Index
	}

	return -1
}

func keyOf(e reflect.Value) reflect.Value {
	k := reflect.New(e.Type()).Elem()
	k.Set(e)

	return k
}

func (l Location) String() string {
	var b strings.Builder

	for i, h := range l {
		if i > 0 {
			b.WriteByte('.')
		}

		b.WriteString(h.Property.Name)

		if h.Index >= 0 {
			b.WriteString("[" + strconv.Itoa(h.Index) + "]")
		}
	}

	return b.String()
}

// Target is an object reached by a path, with its location from the root.
type Target struct {
	Value    reflect.Value
	Location Location
	// Missing are the nil attributes between Value and the object owning the
	// terminal attribute, outermost first. Only Absent sets it.
	Missing []*accessor.Property
}

// Resolution is the result of resolving a path for mutation.
type Resolution struct {
	// Targets are the addressable structs owning the terminal attribute, in
	// depth-first order.
	Targets []Target
	// Segment is the terminal segment.
	Segment Segment
	// Property is the terminal attribute, declared on every target.
	Property *accessor.Property
	// Filter is the compiled terminal filter. It is nil unless the terminal
	// segment carries a filter and the attribute is a sequence.
	Filter filter.Predicate
}

// Matches returns the elements of the terminal attribute of target selected
// by the terminal filter, together with their indexes.
func (r *Resolution) Matches(target Target) ([]reflect.Value, []int) {
	if r.Filter == nil {
		return nil, nil
	}

	var (
		values  []reflect.Value
		indexes []int
	)

	for i, e := range accessor.Elements(r.Property.Get(target.Value)) {
		if r.Filter(e) {
			values = append(values, e)
			indexes = append(indexes, i)
		}
	}

	return values, indexes
}

type planKey struct {
	path string
	root reflect.Type
}

// plan is a path checked against a root type. Every step's attribute is
// known to exist on the declared type reached by the previous steps.
type plan struct {
	steps []planStep
}

type planStep struct {
	seg  Segment
	prop *accessor.Property
	// pred is set when the segment has a filter and the attribute is a
	// sequence; filters on other attributes have no effect.
	pred filter.Predicate
}

func (r *Resolver) plan(p Path, root reflect.Type) (*plan, error) {
	key := planKey{p.String(), root}
	if cached, ok := r.plans.Load(key); ok {
		return cached.(*plan), nil
	}

	pl, err := compilePlan(p, root)
	if err != nil {
		return nil, err
	}

	cached, _ := r.plans.LoadOrStore(key, pl)

	return cached.(*plan), nil
}

func compilePlan(p Path, root reflect.Type) (*plan, error) {
	if len(p.Segments) == 0 {
		return nil, diagnostic.New(diagnostic.InvalidOperationSemantics, "empty path")
	}

	pl := &plan{steps: make([]planStep, 0, len(p.Segments))}

	owner := root
	for _, seg := range p.Segments {
		if accessor.ObjectType(owner) == nil {
			return nil, diagnostic.NotFound(seg.Name, common.TypeName(owner)).WithPath(p.String())
		}

		prop, err := accessor.Lookup(owner, seg.Name)
		if err != nil {
			return nil, withPath(err, p)
		}

		st := planStep{seg: seg, prop: prop}

		if seg.HasFilter() && prop.Shape == accessor.ShapeSequence {
			st.pred, err = filter.Compile(seg.Expr, prop.Elem)
			if err != nil {
				return nil, withPath(err, p)
			}
		}

		pl.steps = append(pl.steps, st)

		switch prop.Shape {
		case accessor.ShapeSequence, accessor.ShapeObject:
			owner = prop.Elem
		default:
			owner = prop.Type
		}
	}

	return pl, nil
}

// Values returns the values the whole path reaches from root. Sequences met
// along the path are fanned out into their elements before the next segment
// is applied; a filtered segment yields the matching elements; the values
// of the last segment are returned as they are, so an unfiltered sequence
// attribute stays a single value.
func (r *Resolver) Values(p Path, root any) ([]reflect.Value, error) {
	rv, err := valueOf(root)
	if err != nil {
		return nil, err
	}

	pl, err := r.plan(p, rv.Type())
	if err != nil {
		return nil, err
	}

	found := walk(pl.steps, located{v: rv})

	out := make([]reflect.Value, len(found))
	for i, f := range found {
		out[i] = f.v
	}

	return out, nil
}

// Resolve returns the objects owning the terminal attribute of p: the
// values of all segments but the last, with sequences flattened into their
// elements. Nil objects are skipped.
func (r *Resolver) Resolve(p Path, root any) (*Resolution, error) {
	rv, err := valueOf(root)
	if err != nil {
		return nil, err
	}

	pl, err := r.plan(p, rv.Type())
	if err != nil {
		return nil, err
	}

	lastStep := pl.steps[len(pl.steps)-1]
	res := &Resolution{Segment: lastStep.seg, Property: lastStep.prop, Filter: lastStep.pred}

	for _, v := range owners(pl.steps[:len(pl.steps)-1], rv) {
		for _, x := range flatten(v) {
			if obj, ok := accessor.Object(x.v); ok {
				res.Targets = append(res.Targets, Target{Value: obj, Location: x.loc})
			}
		}
	}

	return res, nil
}

// Source resolves p to exactly one object owning its terminal attribute, as
// needed for the "from" path of move and copy. More than one object fails
// with AmbiguousSource, none with AttributeNotFound. A single sequence value
// is replaced by its first element.
func (r *Resolver) Source(p Path, root any) (Target, *accessor.Property, error) {
	rv, err := valueOf(root)
	if err != nil {
		return Target{}, nil, err
	}

	pl, err := r.plan(p, rv.Type())
	if err != nil {
		return Target{}, nil, err
	}

	lastStep := pl.steps[len(pl.steps)-1]
	values := owners(pl.steps[:len(pl.steps)-1], rv)

	switch {
	case len(values) > 1:
		return Target{}, nil, diagnostic.New(diagnostic.AmbiguousSource,
			"source path resolved to %d objects", len(values)).WithPath(p.String())
	case len(values) == 0:
		return Target{}, nil, notResolved(p, lastStep)
	}

	source := values[0]
	if isSequence(source.v) {
		elems := flatten(source)
		if len(elems) == 0 {
			return Target{}, nil, notResolved(p, lastStep)
		}

		source = elems[0]
	}

	obj, ok := accessor.Object(source.v)
	if !ok {
		return Target{}, nil, notResolved(p, lastStep)
	}

	return Target{Value: obj, Location: source.loc}, lastStep.prop, nil
}

// Absent reports where p stops reaching an object because an intermediate
// single-valued attribute is nil. The returned target is the deepest object
// that exists, with the nil attribute and those after it in Missing. Paths
// with a filter or a sequence before the terminal segment are never absent:
// they select nothing instead.
func (r *Resolver) Absent(p Path, root any) (Target, bool) {
	rv, err := valueOf(root)
	if err != nil {
		return Target{}, false
	}

	pl, err := r.plan(p, rv.Type())
	if err != nil {
		return Target{}, false
	}

	steps := pl.steps[:len(pl.steps)-1]
	for _, st := range steps {
		if st.pred != nil || st.prop.Shape != accessor.ShapeObject {
			return Target{}, false
		}
	}

	cur := located{v: rv}

	for i, st := range steps {
		obj, ok := accessor.Object(cur.v)
		if !ok {
			return Target{}, false
		}

		child := st.prop.Get(obj)
		if accessor.IsNil(child) {
			missing := make([]*accessor.Property, 0, len(steps)-i)
			for _, rest := range steps[i:] {
				missing = append(missing, rest.prop)
			}

			return Target{Value: obj, Location: cur.loc, Missing: missing}, true
		}

		cur = located{v: child, loc: cur.hop(st.prop, -1, reflect.Value{})}
	}

	return Target{}, false
}

// located is a value with the location of the object it is, or belongs to.
type located struct {
	v   reflect.Value
	loc Location
}

func (l located) hop(prop *accessor.Property, index int, elem reflect.Value) Location {
	loc := make(Location, len(l.loc), len(l.loc)+1)
	copy(loc, l.loc)

	h := Hop{Property: prop, Index: index}
	if elem.IsValid() {
		h.Key = keyOf(elem)
	}

	return append(loc, h)
}

func owners(steps []planStep, root reflect.Value) []located {
	if len(steps) == 0 {
		return []located{{v: root}}
	}

	return walk(steps, located{v: root})
}

func walk(steps []planStep, o located) []located {
	children := apply(steps[0], o)
	if len(steps) == 1 {
		return children
	}

	var out []located

	for _, child := range children {
		for _, item := range flatten(child) {
			out = append(out, walk(steps[1:], item)...)
		}
	}

	return out
}

// apply reads the attribute of st from o, or from each element of o. An
// unfiltered value keeps the location of the sequence attribute itself
// with the element index still open; flatten fills it in.
func apply(st planStep, o located) []located {
	var out []located

	for _, item := range flatten(o) {
		obj, ok := accessor.Object(item.v)
		if !ok {
			continue
		}

		child := st.prop.Get(obj)
		if st.pred == nil {
			out = append(out, located{v: child, loc: item.hop(st.prop, -1, reflect.Value{})})
			continue
		}

		for i, e := range accessor.Elements(child) {
			if st.pred(e) {
				out = append(out, located{v: e, loc: item.hop(st.prop, i, e)})
			}
		}
	}

	return out
}

// flatten returns the elements of a sequence, or v itself. Elements get
// the index of their position in the sequence.
func flatten(v located) []located {
	if !isSequence(v.v) {
		return []located{v}
	}

	elems := accessor.Elements(v.v)
	out := make([]located, len(elems))

	for i, e := range elems {
		loc := make(Location, len(v.loc))
		copy(loc, v.loc)

		if n := len(loc); n > 0 && loc[n-1].Index < 0 {
			loc[n-1].Index = i
			loc[n-1].Key = keyOf(e)
		}

		out[i] = located{v: e, loc: loc}
	}

	return out
}

func isSequence(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}

	shape, _ := accessor.Classify(v.Type())

	return shape == accessor.ShapeSequence
}

// valueOf returns root as a reflect.Value, accepting a reflect.Value too.
func valueOf(root any) (reflect.Value, error) {
	rv, ok := root.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(root)
	}

	if !rv.IsValid() {
		return reflect.Value{}, diagnostic.New(diagnostic.InvalidOperationSemantics, "nil root object")
	}

	return rv, nil
}

func notResolved(p Path, last planStep) error {
	return diagnostic.NotFound(last.seg.Name, common.TypeName(last.prop.Owner)).WithPath(p.String())
}

func withPath(err error, p Path) error {
	if de, ok := err.(*diagnostic.Error); ok {
		return de.WithPath(p.String())
	}

	return err
}
