package ssbo

import (
	"errors"
	"fmt"
)

// Layout and store errors. All of them signal caller mistakes detected
// synchronously at the offending call; none are transient and none are
// retried. Match with errors.Is.
var (
	// ErrInvalidName is returned when an element name is empty.
	ErrInvalidName = errors.New("ssbo: invalid element name")

	// ErrDuplicateName is returned when a name is already taken in the
	// same declaration scope.
	ErrDuplicateName = errors.New("ssbo: duplicate element name")

	// ErrInvalidType is returned when a structural or None tag is supplied
	// where a concrete scalar type is required, or vice versa.
	ErrInvalidType = errors.New("ssbo: invalid data type")

	// ErrInvalidCount is returned when an array element count is < 1.
	ErrInvalidCount = errors.New("ssbo: invalid array element count")

	// ErrAlreadyTyped is returned when an array's element type is set
	// more than once.
	ErrAlreadyTyped = errors.New("ssbo: array element type already set")

	// ErrNotFound is returned when a lookup by name finds nothing.
	ErrNotFound = errors.New("ssbo: no such element")

	// ErrKindMismatch is returned when a lookup requests a different
	// element kind than was declared.
	ErrKindMismatch = errors.New("ssbo: element kind mismatch")

	// ErrIndexOutOfRange is returned when an array index is >= the
	// declared element count.
	ErrIndexOutOfRange = errors.New("ssbo: array index out of range")

	// ErrTypeMismatch is returned when a written value's type does not
	// match the target element's declared type.
	ErrTypeMismatch = errors.New("ssbo: value type mismatch")

	// ErrUnknownType is returned by SizeOf for tags without a fixed size.
	ErrUnknownType = errors.New("ssbo: unknown data type")

	// ErrStoreReleased is returned when operating on a released store.
	ErrStoreReleased = errors.New("ssbo: store has been released")

	// ErrStaleElement is returned when a write targets an element from a
	// layout that is no longer the store's active one, typically an
	// element held across a Grow. Re-fetch the element from Layout.
	ErrStaleElement = errors.New("ssbo: element is not part of the active layout")
)

// DeviceError wraps a failure reported by the graphics device during a
// store operation. Device failures are passed through, never retried.
type DeviceError struct {
	// Op names the store operation that failed ("create buffer",
	// "write buffer", "copy buffer", "bind buffer", "destroy buffer").
	Op string

	// Err is the underlying device error.
	Err error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("ssbo: device %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying device error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}
