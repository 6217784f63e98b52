//go:build !linux

package cmem

import (
	"fmt"

	"github.com/joshuapare/contigkit/device"
)

// Device is unavailable on this platform.
type Device struct{}

// Open always fails on this platform.
func Open(path string) (*Device, error) {
	return nil, fmt.Errorf("cmem: open %s: %w", path, device.ErrUnsupported)
}

// Opener returns a device.Opener that always fails on this platform.
func Opener(path string) device.Opener {
	return func() (device.Device, error) {
		return nil, fmt.Errorf("cmem: open %s: %w", path, device.ErrUnsupported)
	}
}
