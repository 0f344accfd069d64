package ssbo

import (
	"errors"
	"testing"
)

// mustScalar adds a scalar or fails the test.
func mustScalar(t *testing.T, l *RawLayout, name string, typ DataType) {
	t.Helper()
	if err := l.AddScalar(name, typ); err != nil {
		t.Fatalf("AddScalar(%q, %s) = %v", name, typ, err)
	}
}

// mustFinalize resolves the declaration or fails the test.
func mustFinalize(t *testing.T, l *RawLayout) *Layout {
	t.Helper()
	layout, err := l.Finalize()
	if err != nil {
		t.Fatalf("Finalize() = %v", err)
	}
	return layout
}

func scalarOffset(t *testing.T, l *Layout, name string) int {
	t.Helper()
	e, err := l.Scalar(name)
	if err != nil {
		t.Fatalf("Scalar(%q) = %v", name, err)
	}
	return e.Offset()
}

func TestFinalizeUintThenVec4Padding(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "count", TypeUint32)
	mustScalar(t, raw, "color", TypeVec4f)

	layout := mustFinalize(t, raw)

	// 12 bytes of padding keep the vec4 off the first page's tail.
	if got := scalarOffset(t, layout, "count"); got != 0 {
		t.Errorf("count offset = %d, want 0", got)
	}
	if got := scalarOffset(t, layout, "color"); got != 16 {
		t.Errorf("color offset = %d, want 16", got)
	}
	if got := layout.TotalSize(); got != 32 {
		t.Errorf("TotalSize() = %d, want 32", got)
	}
}

func TestFinalizeContiguousUints(t *testing.T) {
	raw := NewRawLayout()
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		mustScalar(t, raw, n, TypeUint32)
	}

	layout := mustFinalize(t, raw)

	// None of the five uints individually crosses a 16-byte page.
	want := []int{0, 4, 8, 12, 16}
	for i, n := range names {
		if got := scalarOffset(t, layout, n); got != want[i] {
			t.Errorf("%s offset = %d, want %d", n, got, want[i])
		}
	}
	if got := layout.TotalSize(); got != 20 {
		t.Errorf("TotalSize() = %d, want 20", got)
	}
}

func TestFinalizeVec2Pairs(t *testing.T) {
	tests := []struct {
		name    string
		second  DataType
		wantOff int
	}{
		{"vec2 then uint", TypeUint32, 8},
		{"vec2 then vec2", TypeVec2f, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := NewRawLayout()
			mustScalar(t, raw, "first", TypeVec2f)
			mustScalar(t, raw, "second", tt.second)

			layout := mustFinalize(t, raw)

			if got := scalarOffset(t, layout, "first"); got != 0 {
				t.Errorf("first offset = %d, want 0", got)
			}
			if got := scalarOffset(t, layout, "second"); got != tt.wantOff {
				t.Errorf("second offset = %d, want %d", got, tt.wantOff)
			}
		})
	}
}

func TestFinalizeScalarArray(t *testing.T) {
	raw := NewRawLayout()
	arr, err := raw.AddArray("values")
	if err != nil {
		t.Fatalf("AddArray() = %v", err)
	}
	if err := arr.SetScalar(TypeUint32, 4); err != nil {
		t.Fatalf("SetScalar() = %v", err)
	}

	layout := mustFinalize(t, raw)

	values, err := layout.Array("values")
	if err != nil {
		t.Fatalf("Array(values) = %v", err)
	}
	if values.Offset() != 0 {
		t.Errorf("array offset = %d, want 0", values.Offset())
	}
	if values.Count() != 4 {
		t.Errorf("Count() = %d, want 4", values.Count())
	}
	for i, want := range []int{0, 4, 8, 12} {
		slot, err := values.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d) = %v", i, err)
		}
		if slot.Offset() != want {
			t.Errorf("slot %d offset = %d, want %d", i, slot.Offset(), want)
		}
	}
}

func TestFinalizeScalarArrayThenTrailingUint(t *testing.T) {
	raw := NewRawLayout()
	arr, _ := raw.AddArray("values")
	if err := arr.SetScalar(TypeUint32, 3); err != nil {
		t.Fatalf("SetScalar() = %v", err)
	}
	mustScalar(t, raw, "tail", TypeUint32)

	layout := mustFinalize(t, raw)

	// The trailing scalar packs right after the 12-byte array.
	if got := scalarOffset(t, layout, "tail"); got != 12 {
		t.Errorf("tail offset = %d, want 12", got)
	}
}

func TestFinalizeVec4ArrayPadding(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "count", TypeUint32)
	arr, _ := raw.AddArray("colors")
	if err := arr.SetScalar(TypeVec4f, 3); err != nil {
		t.Fatalf("SetScalar() = %v", err)
	}

	layout := mustFinalize(t, raw)

	colors, err := layout.Array("colors")
	if err != nil {
		t.Fatalf("Array(colors) = %v", err)
	}
	// The vec4 would straddle pages at offset 4, so the array starts at 16.
	if colors.Offset() != 16 {
		t.Errorf("array offset = %d, want 16", colors.Offset())
	}
	for i, want := range []int{16, 32, 48} {
		slot, err := colors.ScalarAt(i)
		if err != nil {
			t.Fatalf("ScalarAt(%d) = %v", i, err)
		}
		if slot.Offset() != want {
			t.Errorf("slot %d offset = %d, want %d", i, slot.Offset(), want)
		}
	}
	if got := layout.TotalSize(); got != 64 {
		t.Errorf("TotalSize() = %d, want 64", got)
	}
}

func TestFinalizeStructBetweenScalars(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "head", TypeUint32)

	inner, err := raw.AddStruct("inner")
	if err != nil {
		t.Fatalf("AddStruct() = %v", err)
	}
	if err := inner.AddScalar("id", TypeUint32); err != nil {
		t.Fatalf("inner.AddScalar(id) = %v", err)
	}
	if err := inner.AddScalar("color", TypeVec4f); err != nil {
		t.Fatalf("inner.AddScalar(color) = %v", err)
	}

	mustScalar(t, raw, "tail", TypeUint32)

	layout := mustFinalize(t, raw)

	if got := scalarOffset(t, layout, "head"); got != 0 {
		t.Errorf("head offset = %d, want 0", got)
	}

	st, err := layout.Struct("inner")
	if err != nil {
		t.Fatalf("Struct(inner) = %v", err)
	}
	if st.Offset() != 16 {
		t.Errorf("struct offset = %d, want 16", st.Offset())
	}
	if st.SizeInBytes() != 32 {
		t.Errorf("struct size = %d, want 32", st.SizeInBytes())
	}

	id, err := st.Scalar("id")
	if err != nil {
		t.Fatalf("Scalar(id) = %v", err)
	}
	if id.Offset() != 16 {
		t.Errorf("inner.id offset = %d, want 16", id.Offset())
	}
	color, err := st.Scalar("color")
	if err != nil {
		t.Fatalf("Scalar(color) = %v", err)
	}
	if color.Offset() != 32 {
		t.Errorf("inner.color offset = %d, want 32", color.Offset())
	}

	if got := scalarOffset(t, layout, "tail"); got != 48 {
		t.Errorf("tail offset = %d, want 48", got)
	}
}

func TestFinalizeSiblingStructs(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "head", TypeUint32)

	for _, name := range []string{"first", "second"} {
		st, err := raw.AddStruct(name)
		if err != nil {
			t.Fatalf("AddStruct(%q) = %v", name, err)
		}
		if err := st.AddScalar("id", TypeUint32); err != nil {
			t.Fatalf("%s.AddScalar(id) = %v", name, err)
		}
		if err := st.AddScalar("color", TypeVec4f); err != nil {
			t.Fatalf("%s.AddScalar(color) = %v", name, err)
		}
	}

	layout := mustFinalize(t, raw)

	first, err := layout.Struct("first")
	if err != nil {
		t.Fatalf("Struct(first) = %v", err)
	}
	second, err := layout.Struct("second")
	if err != nil {
		t.Fatalf("Struct(second) = %v", err)
	}
	if first.Offset() != 16 {
		t.Errorf("first offset = %d, want 16", first.Offset())
	}
	if second.Offset() != 48 {
		t.Errorf("second offset = %d, want 48", second.Offset())
	}
	id2, err := second.Scalar("id")
	if err != nil {
		t.Fatalf("second.Scalar(id) = %v", err)
	}
	if id2.Offset() != 48 {
		t.Errorf("second.id offset = %d, want 48", id2.Offset())
	}
	color2, err := second.Scalar("color")
	if err != nil {
		t.Fatalf("second.Scalar(color) = %v", err)
	}
	if color2.Offset() != 64 {
		t.Errorf("second.color offset = %d, want 64", color2.Offset())
	}
}

func TestFinalizeStructArray(t *testing.T) {
	raw := NewRawLayout()
	arr, _ := raw.AddArray("items")
	proto, err := arr.SetStruct(5)
	if err != nil {
		t.Fatalf("SetStruct() = %v", err)
	}
	if err := proto.AddScalar("id", TypeUint32); err != nil {
		t.Fatalf("proto.AddScalar(id) = %v", err)
	}
	if err := proto.AddScalar("color", TypeVec4f); err != nil {
		t.Fatalf("proto.AddScalar(color) = %v", err)
	}
	mustScalar(t, raw, "tail", TypeUint32)

	layout := mustFinalize(t, raw)

	items, err := layout.Array("items")
	if err != nil {
		t.Fatalf("Array(items) = %v", err)
	}
	if items.Offset() != 0 {
		t.Errorf("array offset = %d, want 0", items.Offset())
	}
	if items.ElementType() != TypeStruct {
		t.Errorf("ElementType() = %s, want Struct", items.ElementType())
	}

	// Each 32-byte struct packs back-to-back: slot i at i*32.
	for i := 0; i < 5; i++ {
		slot, err := items.StructAt(i)
		if err != nil {
			t.Fatalf("StructAt(%d) = %v", i, err)
		}
		if slot.Offset() != i*32 {
			t.Errorf("slot %d offset = %d, want %d", i, slot.Offset(), i*32)
		}
		id, err := slot.Scalar("id")
		if err != nil {
			t.Fatalf("slot %d Scalar(id) = %v", i, err)
		}
		if id.Offset() != i*32 {
			t.Errorf("slot %d id offset = %d, want %d", i, id.Offset(), i*32)
		}
		color, err := slot.Scalar("color")
		if err != nil {
			t.Fatalf("slot %d Scalar(color) = %v", i, err)
		}
		if color.Offset() != i*32+16 {
			t.Errorf("slot %d color offset = %d, want %d", i, color.Offset(), i*32+16)
		}
	}

	if got := scalarOffset(t, layout, "tail"); got != 160 {
		t.Errorf("tail offset = %d, want 160", got)
	}
}

func TestFinalizeStructArrayWithLeadingUint(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "head", TypeUint32)

	arr, _ := raw.AddArray("items")
	proto, err := arr.SetStruct(5)
	if err != nil {
		t.Fatalf("SetStruct() = %v", err)
	}
	if err := proto.AddScalar("id", TypeUint32); err != nil {
		t.Fatalf("proto.AddScalar(id) = %v", err)
	}
	if err := proto.AddScalar("color", TypeVec4f); err != nil {
		t.Fatalf("proto.AddScalar(color) = %v", err)
	}

	mustScalar(t, raw, "tail", TypeUint32)

	layout := mustFinalize(t, raw)

	items, err := layout.Array("items")
	if err != nil {
		t.Fatalf("Array(items) = %v", err)
	}
	if items.Offset() != 16 {
		t.Errorf("array offset = %d, want 16", items.Offset())
	}
	for i := 0; i < 5; i++ {
		slot, err := items.StructAt(i)
		if err != nil {
			t.Fatalf("StructAt(%d) = %v", i, err)
		}
		if want := i*32 + 16; slot.Offset() != want {
			t.Errorf("slot %d offset = %d, want %d", i, slot.Offset(), want)
		}
	}
	if got := scalarOffset(t, layout, "tail"); got != 176 {
		t.Errorf("tail offset = %d, want 176", got)
	}
}

func TestFinalizeSmallStructUnaligned(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "head", TypeUint32)

	inner, err := raw.AddStruct("inner")
	if err != nil {
		t.Fatalf("AddStruct() = %v", err)
	}
	if err := inner.AddScalar("value", TypeUint32); err != nil {
		t.Fatalf("inner.AddScalar() = %v", err)
	}

	layout := mustFinalize(t, raw)

	// A 4-byte struct does not cross a page, so it lands at 4 unaligned.
	st, err := layout.Struct("inner")
	if err != nil {
		t.Fatalf("Struct(inner) = %v", err)
	}
	if st.Offset() != 4 {
		t.Errorf("struct offset = %d, want 4", st.Offset())
	}
	value, err := st.Scalar("value")
	if err != nil {
		t.Fatalf("Scalar(value) = %v", err)
	}
	if value.Offset() != 4 {
		t.Errorf("inner.value offset = %d, want 4", value.Offset())
	}
}

func TestFinalizeMat4(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "flags", TypeUint32)
	mustScalar(t, raw, "transform", TypeMat4f)

	layout := mustFinalize(t, raw)

	// A matrix is larger than one page and must start page-aligned.
	if got := scalarOffset(t, layout, "transform"); got != 16 {
		t.Errorf("transform offset = %d, want 16", got)
	}
	if got := layout.TotalSize(); got != 80 {
		t.Errorf("TotalSize() = %d, want 80", got)
	}
}

func TestFinalizeDeterministic(t *testing.T) {
	build := func() *RawLayout {
		raw := NewRawLayout()
		mustScalar(t, raw, "head", TypeUint32)
		st, _ := raw.AddStruct("inner")
		st.AddScalar("id", TypeUint32)
		st.AddScalar("color", TypeVec4f)
		arr, _ := raw.AddArray("values")
		arr.SetScalar(TypeVec2f, 7)
		return raw
	}

	rawA := build()
	first := mustFinalize(t, rawA)
	second := mustFinalize(t, build())
	// Finalize is pure, so re-finalizing the same declaration must agree too.
	third := mustFinalize(t, rawA)

	layouts := []*Layout{first, second, third}
	for _, name := range []string{"head"} {
		for i := 1; i < len(layouts); i++ {
			if a, b := scalarOffset(t, layouts[0], name), scalarOffset(t, layouts[i], name); a != b {
				t.Errorf("offset of %q differs between resolutions: %d vs %d", name, a, b)
			}
		}
	}
	for i := 1; i < len(layouts); i++ {
		if layouts[0].TotalSize() != layouts[i].TotalSize() {
			t.Errorf("TotalSize differs between resolutions: %d vs %d",
				layouts[0].TotalSize(), layouts[i].TotalSize())
		}
	}
}

// TestFinalizeNoOverlaps checks the core range invariant over a layout
// exercising every element shape at once.
func TestFinalizeNoOverlaps(t *testing.T) {
	raw := NewRawLayout()
	mustScalar(t, raw, "a", TypeUint32)
	mustScalar(t, raw, "b", TypeVec2f)
	st, _ := raw.AddStruct("s")
	st.AddScalar("x", TypeUint32)
	st.AddScalar("m", TypeMat4f)
	arr, _ := raw.AddArray("arr")
	proto, _ := arr.SetStruct(3)
	proto.AddScalar("u", TypeUint32)
	proto.AddScalar("v", TypeVec4f)
	mustScalar(t, raw, "z", TypeUint32)

	layout := mustFinalize(t, raw)

	type span struct {
		name       string
		start, end int
	}
	var spans []span
	prevEnd := -1
	for _, name := range []string{"a", "b", "s", "arr", "z"} {
		var e *Element
		var err error
		switch name {
		case "s":
			e, err = layout.Struct(name)
		case "arr":
			e, err = layout.Array(name)
		default:
			e, err = layout.Scalar(name)
		}
		if err != nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
		spans = append(spans, span{name, e.Offset(), e.Offset() + e.SizeInBytes()})
		// Offsets in declaration order are non-decreasing.
		if e.Offset() < prevEnd && prevEnd >= 0 {
			t.Errorf("%q starts at %d before previous element ends at %d", name, e.Offset(), prevEnd)
		}
		prevEnd = e.Offset() + e.SizeInBytes()
	}

	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			a, b := spans[i], spans[j]
			if a.start < b.end && b.start < a.end {
				t.Errorf("ranges overlap: %s [%d,%d) and %s [%d,%d)",
					a.name, a.start, a.end, b.name, b.start, b.end)
			}
		}
	}

	if got, want := layout.TotalSize(), spans[len(spans)-1].end; got != want {
		t.Errorf("TotalSize() = %d, want end of last element %d", got, want)
	}
}

func TestFinalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *RawLayout
		wantErr error
	}{
		{
			"untyped array",
			func() *RawLayout {
				raw := NewRawLayout()
				raw.AddArray("arr")
				return raw
			},
			ErrInvalidType,
		},
		{
			"empty struct",
			func() *RawLayout {
				raw := NewRawLayout()
				raw.AddStruct("empty")
				return raw
			},
			ErrInvalidType,
		},
		{
			"empty struct prototype",
			func() *RawLayout {
				raw := NewRawLayout()
				arr, _ := raw.AddArray("arr")
				arr.SetStruct(2)
				return raw
			},
			ErrInvalidType,
		},
		{
			"nested empty struct",
			func() *RawLayout {
				raw := NewRawLayout()
				st, _ := raw.AddStruct("outer")
				st.AddStruct("inner")
				return raw
			},
			ErrInvalidType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Finalize()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Finalize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFinalizeEmptyDeclaration(t *testing.T) {
	layout := mustFinalize(t, NewRawLayout())
	if layout.TotalSize() != 0 {
		t.Errorf("TotalSize() = %d, want 0", layout.TotalSize())
	}
	if layout.Len() != 0 {
		t.Errorf("Len() = %d, want 0", layout.Len())
	}
}

func TestCrossesBoundary(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		size   int
		want   bool
	}{
		{"uint at page start", 0, 4, false},
		{"uint at page tail", 12, 4, false},
		{"vec4 straddling", 4, 16, true},
		{"vec4 at boundary", 16, 16, false},
		{"vec2 ending on boundary", 8, 8, false},
		{"vec2 straddling", 12, 8, true},
		{"mat4 anywhere", 0, 64, true},
		{"mat4 unaligned", 4, 64, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crossesBoundary(tt.offset, tt.size); got != tt.want {
				t.Errorf("crossesBoundary(%d, %d) = %v, want %v", tt.offset, tt.size, got, tt.want)
			}
		})
	}
}

func TestAlignOffset(t *testing.T) {
	tests := []struct {
		offset int
		size   int
		want   int
	}{
		{0, 4, 0},
		{4, 16, 16},
		{12, 8, 16},
		{16, 16, 16},
		{20, 64, 32},
		{0, 64, 0},
	}
	for _, tt := range tests {
		if got := alignOffset(tt.offset, tt.size); got != tt.want {
			t.Errorf("alignOffset(%d, %d) = %d, want %d", tt.offset, tt.size, got, tt.want)
		}
	}
}
