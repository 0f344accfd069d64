package ssbo

import "fmt"

// Element is one resolved member of a finalized layout: a scalar leaf,
// a struct with named members, or an array of anonymous slots.
//
// Elements are produced by RawLayout.Finalize and are immutable from
// that point on. Offsets are absolute byte offsets from the start of
// the enclosing buffer.
type Element struct {
	name   string
	kind   ElementKind
	typ    DataType // scalar type for KindScalar, TypeStruct/TypeArray otherwise
	offset int
	size   int

	// Struct members, declaration order. memberIndex maps name to the
	// members slice position.
	members     []*Element
	memberIndex map[string]int

	// Array slots, anonymous, addressed by index. elemType is the slot
	// type (TypeStruct for arrays of structs).
	slots    []*Element
	elemType DataType

	// The finalized layout this element belongs to, set once by
	// Finalize. Stores use it to reject elements held across a Grow.
	owner *Layout
}

// adopt records the owning layout on the element and its descendants.
func (e *Element) adopt(l *Layout) {
	e.owner = l
	for _, m := range e.members {
		m.adopt(l)
	}
	for _, s := range e.slots {
		s.adopt(l)
	}
}

// Name returns the element's declared name. Array slots are anonymous
// and return their bracketed index, e.g. "[3]".
func (e *Element) Name() string { return e.name }

// Kind returns the element's kind (scalar, struct, or array).
func (e *Element) Kind() ElementKind { return e.kind }

// Type returns the element's data type tag: the scalar type for
// scalars, TypeStruct for structs, TypeArray for arrays.
func (e *Element) Type() DataType { return e.typ }

// Offset returns the absolute byte offset from the start of the buffer.
func (e *Element) Offset() int { return e.offset }

// SizeInBytes returns the element's resolved size. For structs this is
// the padded member span; trailing alignment for whatever follows the
// struct is not included.
func (e *Element) SizeInBytes() int { return e.size }

// Count returns the number of array slots, or 0 for non-arrays.
func (e *Element) Count() int { return len(e.slots) }

// ElementType returns the slot type of an array element, or TypeNone
// for non-arrays.
func (e *Element) ElementType() DataType {
	if e.kind != KindArray {
		return TypeNone
	}
	return e.elemType
}

// Scalar returns the named scalar member of a struct element.
// It fails with ErrKindMismatch if e is not a struct or the member is
// not a scalar, and ErrNotFound if no member has that name.
func (e *Element) Scalar(name string) (*Element, error) {
	return e.member(name, KindScalar)
}

// Struct returns the named struct member of a struct element.
func (e *Element) Struct(name string) (*Element, error) {
	return e.member(name, KindStruct)
}

// Array returns the named array member of a struct element.
func (e *Element) Array(name string) (*Element, error) {
	return e.member(name, KindArray)
}

func (e *Element) member(name string, want ElementKind) (*Element, error) {
	if e.kind != KindStruct {
		return nil, fmt.Errorf("%w: %q is %s, not Struct", ErrKindMismatch, e.name, e.kind)
	}
	i, ok := e.memberIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in struct %q", ErrNotFound, name, e.name)
	}
	m := e.members[i]
	if m.kind != want {
		return nil, fmt.Errorf("%w: %q is %s, not %s", ErrKindMismatch, name, m.kind, want)
	}
	return m, nil
}

// ScalarAt returns the i'th slot of an array of scalars.
// It fails with ErrKindMismatch if e is not an array of scalars and
// ErrIndexOutOfRange if i is outside [0, Count).
func (e *Element) ScalarAt(i int) (*Element, error) {
	return e.slot(i, KindScalar)
}

// StructAt returns the i'th slot of an array of structs.
func (e *Element) StructAt(i int) (*Element, error) {
	return e.slot(i, KindStruct)
}

func (e *Element) slot(i int, want ElementKind) (*Element, error) {
	if e.kind != KindArray {
		return nil, fmt.Errorf("%w: %q is %s, not Array", ErrKindMismatch, e.name, e.kind)
	}
	if i < 0 || i >= len(e.slots) {
		return nil, fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfRange, i, len(e.slots))
	}
	s := e.slots[i]
	if s.kind != want {
		return nil, fmt.Errorf("%w: slot is %s, not %s", ErrKindMismatch, s.kind, want)
	}
	return s, nil
}

// end returns the first byte past the element's range.
func (e *Element) end() int { return e.offset + e.size }
