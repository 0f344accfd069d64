package ssbo

import "fmt"

// boundary is the std430 page size. An element that would straddle two
// pages, or that is larger than one page, starts on the next page.
const boundary = 16

// Finalize resolves the declaration into an immutable Layout with
// absolute byte offsets for every element.
//
// Resolution is a pure computation: it builds a fresh element tree and
// leaves the declaration untouched, so finalizing the same declaration
// twice yields identical offsets. The declaration is conventionally
// discarded after this call.
func (l *RawLayout) Finalize() (*Layout, error) {
	elems, end, err := resolveScope(&l.scope, 0)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(elems))
	for i, e := range elems {
		index[e.name] = i
	}
	layout := &Layout{elements: elems, index: index, size: end}
	for _, e := range elems {
		e.adopt(layout)
	}
	Logger().Debug("ssbo: layout resolved",
		"elements", len(elems),
		"total_bytes", end)
	return layout, nil
}

// resolveScope walks one declaration scope in order, threading a byte
// cursor from start, and returns the resolved elements together with
// the ending cursor (the first byte past the last element).
func resolveScope(s *declScope, start int) ([]*Element, int, error) {
	resolved := make([]*Element, 0, len(s.elems))
	cursor := start

	for _, raw := range s.elems {
		var (
			e   *Element
			err error
		)
		switch raw.kind {
		case KindScalar:
			e, cursor, err = resolveScalar(raw.name, raw.typ, cursor)
		case KindStruct:
			e, cursor, err = resolveStruct(raw.name, raw.members, cursor)
		case KindArray:
			e, cursor, err = resolveArray(raw, cursor)
		default:
			err = fmt.Errorf("%w: element %q", ErrInvalidType, raw.name)
		}
		if err != nil {
			return nil, 0, err
		}
		resolved = append(resolved, e)
	}
	return resolved, cursor, nil
}

// resolveScalar places one fixed-size leaf at the boundary-corrected
// cursor position.
func resolveScalar(name string, typ DataType, cursor int) (*Element, int, error) {
	size, err := SizeOf(typ)
	if err != nil {
		return nil, 0, fmt.Errorf("element %q: %w", name, err)
	}
	offset := alignOffset(cursor, size)
	e := &Element{name: name, kind: KindScalar, typ: typ, offset: offset, size: size}
	return e, offset + size, nil
}

// resolveStruct places a struct with two passes: a trial resolution at
// offset 0 to learn the struct's own padded size, then a second pass at
// the boundary-corrected placement to fix the members' absolute offsets.
// Only inter-member padding is charged to the struct's size; trailing
// alignment for whatever follows is not.
func resolveStruct(name string, members *declScope, cursor int) (*Element, int, error) {
	if len(members.elems) == 0 {
		return nil, 0, fmt.Errorf("%w: struct %q has no members", ErrInvalidType, name)
	}

	_, sizingEnd, err := resolveScope(members, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("struct %q: %w", name, err)
	}
	structSize := sizingEnd

	offset := alignOffset(cursor, structSize)
	placed, end, err := resolveScope(members, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("struct %q: %w", name, err)
	}

	index := make(map[string]int, len(placed))
	for i, m := range placed {
		index[m.name] = i
	}
	e := &Element{
		name:        name,
		kind:        KindStruct,
		typ:         TypeStruct,
		offset:      offset,
		size:        end - offset,
		members:     placed,
		memberIndex: index,
	}
	return e, e.end(), nil
}

// resolveArray dispatches on the declared element type. An array left
// untyped by its declarer cannot be resolved.
func resolveArray(raw *rawElement, cursor int) (*Element, int, error) {
	switch {
	case raw.elemType == TypeNone:
		return nil, 0, fmt.Errorf("%w: array %q has no element type", ErrInvalidType, raw.name)
	case raw.elemType == TypeStruct:
		return resolveStructArray(raw, cursor)
	default:
		return resolveScalarArray(raw, cursor)
	}
}

// resolveScalarArray places count scalar slots contiguously at a fixed
// stride. Only the first slot's placement is boundary-checked; later
// slots follow at the stride verbatim, matching the std430 rule that
// array strides are fixed rather than re-validated per slot.
func resolveScalarArray(raw *rawElement, cursor int) (*Element, int, error) {
	stride, err := SizeOf(raw.elemType)
	if err != nil {
		return nil, 0, fmt.Errorf("array %q: %w", raw.name, err)
	}

	offset := alignOffset(cursor, stride)
	slots := make([]*Element, raw.count)
	for i := range slots {
		slots[i] = &Element{
			name:   fmt.Sprintf("[%d]", i),
			kind:   KindScalar,
			typ:    raw.elemType,
			offset: offset + i*stride,
			size:   stride,
		}
	}

	e := &Element{
		name:     raw.name,
		kind:     KindArray,
		typ:      TypeArray,
		offset:   offset,
		size:     stride * raw.count,
		slots:    slots,
		elemType: raw.elemType,
	}
	return e, e.end(), nil
}

// resolveStructArray replicates the declared prototype struct count
// times. The prototype is first resolved in isolation to learn the slot
// size; slot 0 is then boundary-checked against that size, and every
// later slot starts exactly where the previous one ended.
func resolveStructArray(raw *rawElement, cursor int) (*Element, int, error) {
	if len(raw.proto.elems) == 0 {
		return nil, 0, fmt.Errorf("%w: array %q prototype has no members", ErrInvalidType, raw.name)
	}

	_, protoEnd, err := resolveScope(raw.proto, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("array %q: %w", raw.name, err)
	}
	elemSize := protoEnd

	slotCursor := alignOffset(cursor, elemSize)
	offset := slotCursor

	slots := make([]*Element, raw.count)
	for i := range slots {
		members, end, err := resolveScope(raw.proto, slotCursor)
		if err != nil {
			return nil, 0, fmt.Errorf("array %q: %w", raw.name, err)
		}
		index := make(map[string]int, len(members))
		for j, m := range members {
			index[m.name] = j
		}
		slots[i] = &Element{
			name:        fmt.Sprintf("[%d]", i),
			kind:        KindStruct,
			typ:         TypeStruct,
			offset:      slotCursor,
			size:        end - slotCursor,
			members:     members,
			memberIndex: index,
		}
		slotCursor = end
	}

	e := &Element{
		name:     raw.name,
		kind:     KindArray,
		typ:      TypeArray,
		offset:   offset,
		size:     slotCursor - offset,
		slots:    slots,
		elemType: TypeStruct,
	}
	return e, e.end(), nil
}

// alignOffset returns the offset at which an element of the given size
// may be placed: unchanged when the element fits inside its 16-byte
// page, otherwise bumped to the next page boundary.
func alignOffset(offset, size int) int {
	if !crossesBoundary(offset, size) {
		return offset
	}
	return offset + (boundary-offset%boundary)%boundary
}

// crossesBoundary reports whether an element placed at offset would
// straddle two 16-byte pages. Anything larger than one page must start
// on a page boundary regardless.
func crossesBoundary(offset, size int) bool {
	end := offset + size
	if size > boundary {
		return true
	}
	return offset/boundary != end/boundary && end%boundary != 0
}
