// Package wgpu implements the ssbo.Device interface over the gogpu/wgpu
// hardware abstraction layer.
//
// Buffers are allocated with storage-block usage plus both copy
// directions, so the same buffer can be written from the CPU, read by
// shaders, and carried through copy-and-swap growth. Device-side copies
// go through a short-lived command encoder and wait for the queue to
// drain, making the copy synchronous from the caller's perspective.
//
// A Device is obtained in one of three ways:
//
//   - NewDevice, wrapping HAL handles the host already owns
//   - NewDeviceFromProvider, extracting HAL handles from a
//     gpucontext.DeviceProvider shared with the host application
//   - Open, standalone adapter enumeration for hosts without a context
package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/ssbo"
)

// ErrDeviceClosed is returned when operating on a closed device.
var ErrDeviceClosed = errors.New("wgpu: device has been closed")

// Device implements ssbo.Device over hal.Device and hal.Queue.
//
// Device is safe for concurrent use. Buffer handles are opaque IDs
// mapped to hal.Buffer internally, following the adapter convention of
// the gogpu backends.
type Device struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	nextID   atomic.Uint64
	buffers  map[ssbo.BufferID]hal.Buffer
	bindings map[uint32]ssbo.BufferID

	// Set by Open for standalone devices; zero when the host owns the
	// device and queue.
	instance   hal.Instance
	ownsDevice bool

	closed bool
}

var _ ssbo.Device = (*Device)(nil)

// NewDevice wraps existing HAL handles. The caller retains ownership of
// the device and queue; Close releases only the buffers created here.
func NewDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, errors.New("wgpu: device and queue are required")
	}
	d := &Device{
		device:   device,
		queue:    queue,
		buffers:  make(map[ssbo.BufferID]hal.Buffer),
		bindings: make(map[uint32]ssbo.BufferID),
	}
	d.nextID.Store(1)
	return d, nil
}

// Open creates a standalone device: it picks the Vulkan HAL backend,
// enumerates adapters preferring discrete or integrated GPUs, and opens
// a device and queue. Hosts that already hold a GPU context should use
// NewDeviceFromProvider instead so resources are shared.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, errors.New("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, errors.New("wgpu: no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d, err := NewDevice(openDev.Device, openDev.Queue)
	if err != nil {
		return nil, err
	}
	d.instance = instance
	d.ownsDevice = true

	ssbo.Logger().Info("wgpu: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// CreateBuffer allocates a storage buffer of size bytes.
func (d *Device) CreateBuffer(size int) (ssbo.BufferID, error) {
	if size <= 0 {
		return ssbo.InvalidBufferID, fmt.Errorf("wgpu: buffer size must be positive, got %d", size)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ssbo.InvalidBufferID, ErrDeviceClosed
	}

	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ssbo",
		Size:  uint64(size),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return ssbo.InvalidBufferID, fmt.Errorf("wgpu: create buffer: %w", err)
	}

	id := ssbo.BufferID(d.nextID.Add(1) - 1)
	d.buffers[id] = buf
	return id, nil
}

// WriteBuffer uploads data at the given byte offset via the queue.
func (d *Device) WriteBuffer(id ssbo.BufferID, offset int, data []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDeviceClosed
	}
	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: unknown buffer %d", id)
	}
	if len(data) == 0 {
		return nil
	}
	d.queue.WriteBuffer(buf, uint64(offset), data)
	return nil
}

// CopyBuffer copies size bytes between two buffers on the device and
// waits for completion.
func (d *Device) CopyBuffer(src, dst ssbo.BufferID, srcOffset, dstOffset, size int) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDeviceClosed
	}
	srcBuf, ok := d.buffers[src]
	if !ok {
		return fmt.Errorf("wgpu: unknown source buffer %d", src)
	}
	dstBuf, ok := d.buffers[dst]
	if !ok {
		return fmt.Errorf("wgpu: unknown destination buffer %d", dst)
	}
	if size <= 0 {
		return nil
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ssbo_copy"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ssbo_copy"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	encoder.CopyBufferToBuffer(srcBuf, dstBuf, []hal.BufferCopy{
		{SrcOffset: uint64(srcOffset), DstOffset: uint64(dstOffset), Size: uint64(size)},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("wgpu: submit copy: %w", err)
	}
	// The HAL tracks submission completion internally; block until the
	// copy has landed so the caller may retire the source buffer.
	d.device.WaitIdle()

	ssbo.Logger().Debug("wgpu: buffer copied", "bytes", size)
	return nil
}

// BindStorageBuffer records the buffer for the given binding index.
// Bind group assembly happens at pipeline setup, when the host collects
// the recorded bindings via BoundBuffer.
func (d *Device) BindStorageBuffer(id ssbo.BufferID, binding uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if _, ok := d.buffers[id]; !ok {
		return fmt.Errorf("wgpu: unknown buffer %d", id)
	}
	d.bindings[binding] = id
	return nil
}

// DestroyBuffer releases the buffer. The ID is invalid afterwards;
// stale binding records pointing at it are removed.
func (d *Device) DestroyBuffer(id ssbo.BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: unknown buffer %d", id)
	}
	delete(d.buffers, id)
	for binding, bound := range d.bindings {
		if bound == id {
			delete(d.bindings, binding)
		}
	}
	d.device.DestroyBuffer(buf)
	return nil
}

// BoundBuffer returns the HAL buffer recorded for a binding index, for
// hosts assembling bind groups around the store's buffer.
func (d *Device) BoundBuffer(binding uint32) (hal.Buffer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.bindings[binding]
	if !ok {
		return nil, false
	}
	buf, ok := d.buffers[id]
	return buf, ok
}

// Close destroys all remaining buffers created through this device.
// For standalone devices from Open, the HAL device and instance are
// torn down as well; handles passed in by the host are left alone.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	for id, buf := range d.buffers {
		d.device.DestroyBuffer(buf)
		delete(d.buffers, id)
	}
	d.bindings = map[uint32]ssbo.BufferID{}
	if d.ownsDevice {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	return nil
}
