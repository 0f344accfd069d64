package ssbo

import (
	"errors"
	"fmt"
	"sync"
)

// BufferID is an opaque handle to a device buffer. Each Device
// implementation maintains its own mapping between IDs and backend
// resources. The zero value is invalid.
type BufferID uint64

// InvalidBufferID is the zero value, representing no buffer.
const InvalidBufferID BufferID = 0

// Device abstracts the graphics collaborator the store needs: buffer
// allocation, sub-range upload, device-side sub-range copy, storage
// binding, and destruction. backend/wgpu provides the gogpu/wgpu HAL
// implementation; tests use an in-memory fake.
//
// All calls are synchronous and fallible. Implementations must be safe
// for concurrent use.
type Device interface {
	// CreateBuffer allocates a GPU-visible buffer of size bytes.
	CreateBuffer(size int) (BufferID, error)

	// WriteBuffer uploads data into the buffer at the given byte offset.
	WriteBuffer(id BufferID, offset int, data []byte) error

	// CopyBuffer copies size bytes between two buffers on the device.
	CopyBuffer(src, dst BufferID, srcOffset, dstOffset, size int) error

	// BindStorageBuffer binds the buffer as a shader storage block at
	// the given binding index.
	BindStorageBuffer(id BufferID, binding uint32) error

	// DestroyBuffer releases the buffer. The ID is invalid afterwards.
	DestroyBuffer(id BufferID) error
}

// minBufferSize guards against zero-size allocations, which several
// backends reject.
const minBufferSize = 4

// Store owns a device buffer sized to a finalized layout and mediates
// typed scalar writes into it.
//
// A store is created over a declaration, which it finalizes, allocates
// and binds in one step. Grow replaces the layout and buffer in a
// single atomic operation; readers and writers never observe a
// half-swapped state. The store serializes growth against concurrent
// writers internally, but the intended usage is a single writer driving
// it between frames.
type Store struct {
	mu       sync.RWMutex
	device   Device
	layout   *Layout
	buffer   BufferID
	binding  uint32
	released bool
}

// NewStore finalizes the declaration, allocates a buffer of the
// layout's total size on the device, and binds it as a storage block at
// the given binding index.
func NewStore(device Device, raw *RawLayout, binding uint32) (*Store, error) {
	if device == nil {
		return nil, errors.New("ssbo: device is nil")
	}
	layout, err := raw.Finalize()
	if err != nil {
		return nil, err
	}

	buffer, err := allocateBound(device, layout.TotalSize(), binding)
	if err != nil {
		return nil, err
	}

	Logger().Debug("ssbo: store allocated",
		"bytes", layout.TotalSize(),
		"binding", binding)

	return &Store{
		device:  device,
		layout:  layout,
		buffer:  buffer,
		binding: binding,
	}, nil
}

// allocateBound creates and binds a buffer for a layout of the given size.
func allocateBound(device Device, size int, binding uint32) (BufferID, error) {
	if size < minBufferSize {
		size = minBufferSize
	}
	buffer, err := device.CreateBuffer(size)
	if err != nil {
		return InvalidBufferID, &DeviceError{Op: "create buffer", Err: err}
	}
	if err := device.BindStorageBuffer(buffer, binding); err != nil {
		if derr := device.DestroyBuffer(buffer); derr != nil {
			Logger().Warn("ssbo: destroy buffer after failed bind", "error", derr)
		}
		return InvalidBufferID, &DeviceError{Op: "bind buffer", Err: err}
	}
	return buffer, nil
}

// Layout returns the store's active finalized layout.
func (s *Store) Layout() *Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// Buffer returns the store's active buffer handle, for callers that
// need to reference it in pipeline bindings.
func (s *Store) Buffer() BufferID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer
}

// Binding returns the storage binding index the store binds to.
func (s *Store) Binding() uint32 { return s.binding }

// WriteScalar writes a typed value into the resolved scalar element.
// It fails with ErrKindMismatch if elem is not a scalar,
// ErrTypeMismatch if the value's type differs from the element's
// declared type, and ErrStaleElement if elem was resolved from a layout
// that Grow has since replaced. Exactly the element's size in bytes is
// uploaded at the element's offset.
func (s *Store) WriteScalar(elem *Element, value Value) error {
	if elem.Kind() != KindScalar {
		return fmt.Errorf("%w: cannot write %s element %q", ErrKindMismatch, elem.Kind(), elem.Name())
	}
	if value.Type() != elem.Type() {
		return fmt.Errorf("%w: %s value for %s element %q",
			ErrTypeMismatch, value.Type(), elem.Type(), elem.Name())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.released {
		return ErrStoreReleased
	}
	if elem.owner != s.layout {
		return fmt.Errorf("%w: element %q", ErrStaleElement, elem.Name())
	}
	if err := s.device.WriteBuffer(s.buffer, elem.Offset(), value.Bytes()); err != nil {
		return &DeviceError{Op: "write buffer", Err: err}
	}
	return nil
}

// Grow finalizes the new declaration, allocates a buffer sized to it,
// device-copies the live bytes from the old buffer, retires the old
// buffer, and swaps the store's layout/buffer pair. The swap is atomic:
// concurrent readers see either the old pair or the new one.
//
// Despite the name, the new layout may also be smaller; the copy covers
// min(old, new) bytes.
func (s *Store) Grow(raw *RawLayout) error {
	layout, err := raw.Finalize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrStoreReleased
	}

	buffer, err := allocateBound(s.device, layout.TotalSize(), s.binding)
	if err != nil {
		return err
	}

	copySize := min(s.layout.TotalSize(), layout.TotalSize())
	if copySize > 0 {
		if err := s.device.CopyBuffer(s.buffer, buffer, 0, 0, copySize); err != nil {
			if derr := s.device.DestroyBuffer(buffer); derr != nil {
				Logger().Warn("ssbo: destroy buffer after failed copy", "error", derr)
			}
			// Leave the old pair active and bound.
			if berr := s.device.BindStorageBuffer(s.buffer, s.binding); berr != nil {
				Logger().Warn("ssbo: rebind old buffer after failed copy", "error", berr)
			}
			return &DeviceError{Op: "copy buffer", Err: err}
		}
	}

	if err := s.device.DestroyBuffer(s.buffer); err != nil {
		Logger().Warn("ssbo: destroy old buffer", "error", err)
	}

	Logger().Debug("ssbo: store grown",
		"old_bytes", s.layout.TotalSize(),
		"new_bytes", layout.TotalSize(),
		"copied", copySize)

	s.layout = layout
	s.buffer = buffer
	return nil
}

// Bind re-binds the active buffer as a storage block at the store's
// binding index.
func (s *Store) Bind() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.released {
		return ErrStoreReleased
	}
	if err := s.device.BindStorageBuffer(s.buffer, s.binding); err != nil {
		return &DeviceError{Op: "bind buffer", Err: err}
	}
	return nil
}

// Release destroys the store's buffer. The store must not be used
// afterwards; all operations fail with ErrStoreReleased. Release is
// idempotent.
func (s *Store) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	if err := s.device.DestroyBuffer(s.buffer); err != nil {
		return &DeviceError{Op: "destroy buffer", Err: err}
	}
	s.buffer = InvalidBufferID
	return nil
}
