package ssbo

import (
	"encoding/binary"
	"math"
)

// Value is a typed scalar value that can be written into a store. The
// byte encodings match what std430 shader storage blocks read directly:
// little-endian 32-bit lanes, matrices as four consecutive 16-byte
// columns.
type Value interface {
	// Type returns the scalar data type this value encodes as.
	Type() DataType

	// Bytes returns the value's std430 byte encoding.
	Bytes() []byte
}

// Uint32 is a 4-byte unsigned integer value.
type Uint32 uint32

// Type implements Value.
func (Uint32) Type() DataType { return TypeUint32 }

// Bytes implements Value.
func (v Uint32) Bytes() []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

// Vec2 is a 2-component float vector value.
type Vec2 [2]float32

// Type implements Value.
func (Vec2) Type() DataType { return TypeVec2f }

// Bytes implements Value.
func (v Vec2) Bytes() []byte { return packFloats(v[:]) }

// Vec4 is a 4-component float vector value.
type Vec4 [4]float32

// Type implements Value.
func (Vec4) Type() DataType { return TypeVec4f }

// Bytes implements Value.
func (v Vec4) Bytes() []byte { return packFloats(v[:]) }

// Mat4 is a 4x4 float matrix value in column-major order: element i*4+j
// is row j of column i, so each column occupies one 16-byte page.
type Mat4 [16]float32

// Type implements Value.
func (Mat4) Type() DataType { return TypeMat4f }

// Bytes implements Value.
func (v Mat4) Bytes() []byte { return packFloats(v[:]) }

// Mat4Identity returns the identity matrix.
func Mat4Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

func packFloats(f []float32) []byte {
	b := make([]byte, 4*len(f))
	for i, v := range f {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}
