package ssbo

import "fmt"

// DataType identifies the declared type of a block element.
//
// The scalar tags (TypeUint32 through TypeMat4f) have fixed sizes given
// by SizeOf. TypeArray and TypeStruct are structural: their sizes are
// resolved from their contents, never looked up. TypeNone is the zero
// value and is invalid everywhere a concrete type is required.
type DataType uint8

const (
	// TypeNone is the invalid zero value.
	TypeNone DataType = iota

	// TypeUint32 is a 4-byte unsigned integer.
	TypeUint32

	// TypeVec2f is a 2-component float vector (8 bytes).
	TypeVec2f

	// TypeVec4f is a 4-component float vector (16 bytes).
	TypeVec4f

	// TypeMat4f is a 4x4 float matrix (four 16-byte columns, 64 bytes).
	TypeMat4f

	// TypeArray marks an array element. Structural, no intrinsic size.
	TypeArray

	// TypeStruct marks a struct element. Structural, no intrinsic size.
	TypeStruct
)

// String returns the string representation of the data type.
func (t DataType) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeUint32:
		return "Uint32"
	case TypeVec2f:
		return "Vec2f"
	case TypeVec4f:
		return "Vec4f"
	case TypeMat4f:
		return "Mat4f"
	case TypeArray:
		return "Array"
	case TypeStruct:
		return "Struct"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// scalar reports whether t is a concrete fixed-size scalar tag.
func (t DataType) scalar() bool {
	switch t {
	case TypeUint32, TypeVec2f, TypeVec4f, TypeMat4f:
		return true
	default:
		return false
	}
}

// SizeOf returns the fixed byte size of a scalar data type.
//
// It fails with ErrUnknownType for TypeNone and for the structural tags
// TypeArray and TypeStruct, whose sizes exist only after resolution.
func SizeOf(t DataType) (int, error) {
	switch t {
	case TypeUint32:
		return 4, nil
	case TypeVec2f:
		return 8, nil
	case TypeVec4f:
		return 16, nil
	case TypeMat4f:
		return 64, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// ElementKind discriminates the three shapes a resolved element can take.
type ElementKind uint8

const (
	// KindScalar is a fixed-size leaf element.
	KindScalar ElementKind = iota + 1

	// KindStruct is an ordered list of named members.
	KindStruct

	// KindArray is a fixed count of same-shaped anonymous slots.
	KindArray
)

// String returns the string representation of the element kind.
func (k ElementKind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindStruct:
		return "Struct"
	case KindArray:
		return "Array"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}
