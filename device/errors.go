package device

import "errors"

var (
	// ErrExhausted indicates the device has no physical memory left for the request.
	ErrExhausted = errors.New("device: out of physical memory")

	// ErrUnsupported indicates the driver is not available on this platform.
	ErrUnsupported = errors.New("device: driver not supported on this platform")

	// ErrClosed indicates an operation on a closed device.
	ErrClosed = errors.New("device: closed")

	// ErrBadAllocation indicates an allocation the device does not know about.
	ErrBadAllocation = errors.New("device: unknown allocation")
)
