package pool

import "errors"

var (
	// ErrInvalidSize indicates a non-positive or unrepresentable request size.
	ErrInvalidSize = errors.New("pool: invalid block size")

	// ErrDeviceUnavailable indicates the backing device could not be opened.
	// The next Acquire tries again.
	ErrDeviceUnavailable = errors.New("pool: backing device unavailable")

	// ErrExhausted indicates the device ran out of memory even after idle
	// blocks of other size classes were recycled.
	ErrExhausted = errors.New("pool: device memory exhausted")

	// ErrMapFailed indicates the block was allocated but could not be mapped
	// into the process. The allocation has already been returned to the device.
	ErrMapFailed = errors.New("pool: mapping into process failed")

	// ErrClosed indicates the allocator has been shut down.
	ErrClosed = errors.New("pool: allocator shut down")

	// ErrBadGranularity indicates a granularity that is not a power of two.
	ErrBadGranularity = errors.New("pool: granularity must be a power of two")
)
