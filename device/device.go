// Package device defines the boundary between the pool allocator and the
// kernel service that hands out physically contiguous memory.
//
// A Device performs exactly four primitive operations: allocate a physical
// block, free it, map it into the process, and unmap it. Everything about
// size classes, reuse and recycling lives in the pool package; drivers only
// translate these calls into the device protocol.
//
// Drivers:
//
//   - cmem:   Linux character device speaking the CMEM ioctl protocol.
//   - simdev: in-process simulation with a capacity budget, used by tests
//     and for running the tooling on machines without the hardware.
package device

// Allocation is the device's record of one physical block.
type Allocation struct {
	Token uint64 // device-defined handle for the block
	Phys  uint64 // physical base address
	Size  int    // bytes, as requested from the device
}

// IsZero reports whether a is the zero Allocation.
func (a Allocation) IsZero() bool {
	return a == Allocation{}
}

// Device is an open handle to a backing device.
//
// Implementations are not required to be safe for concurrent use; the pool
// allocator serializes every call under its own lock.
type Device interface {
	// Alloc requests a physically contiguous block of exactly size bytes.
	// Running out of device memory must be reported with an error wrapping
	// ErrExhausted.
	Alloc(size int) (Allocation, error)

	// Free returns a block to the device.
	Free(a Allocation) error

	// Map makes the block addressable from this process.
	Map(a Allocation) ([]byte, error)

	// Unmap removes a mapping returned by Map.
	Unmap(mem []byte) error

	// Close releases the device handle.
	Close() error
}

// Opener opens a device. It is called lazily and may be called again after
// a failed attempt.
type Opener func() (Device, error)
