// Package ssbo computes std430-compatible byte layouts for GPU shader
// storage blocks and mediates typed writes into the buffers that back them.
//
// # Overview
//
// A shader storage block declared in GLSL or WGSL has a precise byte
// layout that the host must reproduce bit-for-bit: scalars are packed
// tightly unless they would straddle a 16-byte page, structs and array
// starts snap to 16-byte boundaries, and array slots repeat at a fixed
// stride. ssbo models a block as a declaration of named elements,
// resolves it into absolute byte offsets, and exposes typed lookups and
// writes over the result.
//
// # Quick Start
//
//	raw := ssbo.NewRawLayout()
//	raw.AddScalar("frame", ssbo.TypeUint32)
//	arr, _ := raw.AddArray("positions")
//	arr.SetScalar(ssbo.TypeVec4f, 64)
//
//	layout, err := raw.Finalize()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(layout.TotalSize())
//
// A resolved Layout is immutable and safe for concurrent reads. To put
// the layout on a GPU, wrap a Device (see backend/wgpu) in a Store:
//
//	store, err := ssbo.NewStore(device, raw, 0)
//	frame, _ := store.Layout().Scalar("frame")
//	store.WriteScalar(frame, ssbo.Uint32(42))
//
// Store.Grow replaces the layout and buffer in one atomic step,
// device-copying the live bytes into the new buffer.
//
// # Architecture
//
// The library is organized into:
//   - Public API: RawLayout, Layout, Element, Store, scalar Value types
//   - backend/wgpu: Device implementation over gogpu/wgpu HAL
//   - fontsprite: bitmap-font text block built on the layout core
package ssbo
