package ssbo

import "fmt"

// Layout is the immutable, name-indexed view over a resolved
// declaration. It is produced by RawLayout.Finalize and is safe for
// concurrent reads once published; no offset is mutable after this
// point. Replacing a layout (growth) always means building a new
// declaration and resolving it from scratch.
type Layout struct {
	elements []*Element
	index    map[string]int
	size     int
}

// TotalSize returns the buffer size in bytes: the end of the last
// top-level element's range.
func (l *Layout) TotalSize() int { return l.size }

// Len returns the number of top-level elements.
func (l *Layout) Len() int { return len(l.elements) }

// Scalar returns the named top-level scalar element.
// It fails with ErrNotFound if the name is absent and ErrKindMismatch
// if the element was declared as a different kind.
func (l *Layout) Scalar(name string) (*Element, error) {
	return l.get(name, KindScalar)
}

// Struct returns the named top-level struct element.
func (l *Layout) Struct(name string) (*Element, error) {
	return l.get(name, KindStruct)
}

// Array returns the named top-level array element.
func (l *Layout) Array(name string) (*Element, error) {
	return l.get(name, KindArray)
}

func (l *Layout) get(name string, want ElementKind) (*Element, error) {
	i, ok := l.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	e := l.elements[i]
	if e.kind != want {
		return nil, fmt.Errorf("%w: %q is %s, not %s", ErrKindMismatch, name, e.kind, want)
	}
	return e, nil
}
