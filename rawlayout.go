package ssbo

import "fmt"

// RawLayout is an ordered, mutable declaration of named block elements.
// It is built incrementally by a single owner, then consumed by Finalize
// to produce an immutable, offset-resolved Layout.
//
// RawLayout is not safe for concurrent use during construction.
type RawLayout struct {
	scope declScope
}

// NewRawLayout creates an empty declaration.
func NewRawLayout() *RawLayout {
	return &RawLayout{}
}

// AddScalar appends a scalar element of the given type.
// It fails with ErrInvalidName for an empty name, ErrDuplicateName if the
// name is taken in this scope, and ErrInvalidType if typ is not a
// concrete scalar tag.
func (l *RawLayout) AddScalar(name string, typ DataType) error {
	return l.scope.addScalar(name, typ)
}

// AddStruct appends a struct element with an empty member list and
// returns a handle for declaring its members.
func (l *RawLayout) AddStruct(name string) (*StructDecl, error) {
	return l.scope.addStruct(name)
}

// AddArray appends an array element with no element type yet assigned.
// The returned handle's SetScalar or SetStruct must be called exactly
// once before Finalize.
func (l *RawLayout) AddArray(name string) (*ArrayDecl, error) {
	return l.scope.addArray(name)
}

// Len returns the number of top-level elements declared so far.
func (l *RawLayout) Len() int { return len(l.scope.elems) }

// StructDecl declares the members of one struct element. The same
// name-validation rules apply within the struct's own scope.
type StructDecl struct {
	scope *declScope
}

// AddScalar appends a scalar member. See RawLayout.AddScalar.
func (d *StructDecl) AddScalar(name string, typ DataType) error {
	return d.scope.addScalar(name, typ)
}

// AddStruct appends a nested struct member. See RawLayout.AddStruct.
func (d *StructDecl) AddStruct(name string) (*StructDecl, error) {
	return d.scope.addStruct(name)
}

// AddArray appends a nested array member. See RawLayout.AddArray.
func (d *StructDecl) AddArray(name string) (*ArrayDecl, error) {
	return d.scope.addArray(name)
}

// ArrayDecl declares the element type and count of one array element.
type ArrayDecl struct {
	elem *rawElement
}

// SetScalar declares an array of count scalars of the given type.
// It fails with ErrInvalidCount if count < 1, ErrInvalidType if typ is
// not a concrete scalar tag (arrays of structs are declared with
// SetStruct; arrays of arrays are not supported), and ErrAlreadyTyped
// if the array was already typed.
func (a *ArrayDecl) SetScalar(typ DataType, count int) error {
	if err := a.checkSet(count); err != nil {
		return err
	}
	if !typ.scalar() {
		return fmt.Errorf("%w: %s as array element type", ErrInvalidType, typ)
	}
	a.elem.elemType = typ
	a.elem.count = count
	return nil
}

// SetStruct declares an array of count structs and returns a handle used
// once to describe the shape of a single element. That shape is
// replicated count times at resolution time.
func (a *ArrayDecl) SetStruct(count int) (*StructDecl, error) {
	if err := a.checkSet(count); err != nil {
		return nil, err
	}
	a.elem.elemType = TypeStruct
	a.elem.count = count
	a.elem.proto = &declScope{}
	return &StructDecl{scope: a.elem.proto}, nil
}

func (a *ArrayDecl) checkSet(count int) error {
	if a.elem.elemType != TypeNone {
		return fmt.Errorf("%w: array %q", ErrAlreadyTyped, a.elem.name)
	}
	if count < 1 {
		return fmt.Errorf("%w: %d for array %q", ErrInvalidCount, count, a.elem.name)
	}
	return nil
}

// rawElement is one not-yet-resolved declared member.
type rawElement struct {
	name string
	kind ElementKind
	typ  DataType // scalar type, only for KindScalar

	members *declScope // KindStruct

	// KindArray. elemType stays TypeNone until SetScalar/SetStruct.
	elemType DataType
	count    int
	proto    *declScope // struct prototype, nil for scalar arrays
}

// declScope is one declaration scope: the top level, one struct's member
// list, or an array-of-structs prototype. Declaration order is placement
// order.
type declScope struct {
	elems []*rawElement
	names map[string]struct{}
}

func (s *declScope) checkName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

func (s *declScope) insert(e *rawElement) {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	s.names[e.name] = struct{}{}
	s.elems = append(s.elems, e)
}

func (s *declScope) addScalar(name string, typ DataType) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	if !typ.scalar() {
		return fmt.Errorf("%w: %s for scalar %q", ErrInvalidType, typ, name)
	}
	s.insert(&rawElement{name: name, kind: KindScalar, typ: typ})
	return nil
}

func (s *declScope) addStruct(name string) (*StructDecl, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}
	e := &rawElement{name: name, kind: KindStruct, members: &declScope{}}
	s.insert(e)
	return &StructDecl{scope: e.members}, nil
}

func (s *declScope) addArray(name string) (*ArrayDecl, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}
	e := &rawElement{name: name, kind: KindArray}
	s.insert(e)
	return &ArrayDecl{elem: e}, nil
}
