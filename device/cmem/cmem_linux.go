//go:build linux

package cmem

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/contigkit/device"
	"github.com/joshuapare/contigkit/internal/mmfile"
)

// Device is an open contiguous-memory device node.
type Device struct {
	path string
	fd   int
}

// Open opens the device node at path.
func Open(path string) (*Device, error) {
	if path == "" {
		path = DefaultPath
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("cmem: open %s: %w", path, err)
	}
	return &Device{path: path, fd: fd}, nil
}

// Opener returns a device.Opener for the node at path.
func Opener(path string) device.Opener {
	return func() (device.Device, error) {
		d, err := Open(path)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// Path returns the device node this handle was opened from.
func (d *Device) Path() string { return d.path }

func (d *Device) ioctl(req uintptr, r *request) error {
	if d.fd < 0 {
		return device.ErrClosed
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(unsafe.Pointer(r)))
	if errno != 0 {
		return errno
	}
	return nil
}

// Alloc implements device.Device.
func (d *Device) Alloc(size int) (device.Allocation, error) {
	if size <= 0 {
		return device.Allocation{}, fmt.Errorf("cmem: invalid allocation size %d", size)
	}
	r := request{Size: uint64(size)}
	if err := d.ioctl(iocAlloc, &r); err != nil {
		if errors.Is(err, unix.ENOMEM) || errors.Is(err, unix.ENOSPC) {
			return device.Allocation{}, fmt.Errorf("cmem: alloc %d bytes: %w: %w", size, device.ErrExhausted, err)
		}
		return device.Allocation{}, fmt.Errorf("cmem: alloc %d bytes: %w", size, err)
	}
	return device.Allocation{Token: r.Token, Phys: r.Phys, Size: size}, nil
}

// Free implements device.Device.
func (d *Device) Free(a device.Allocation) error {
	if a.IsZero() {
		return fmt.Errorf("cmem: free of zero allocation: %w", device.ErrBadAllocation)
	}
	r := request{Size: uint64(a.Size), Phys: a.Phys, Token: a.Token}
	if err := d.ioctl(iocFree, &r); err != nil {
		if errors.Is(err, unix.EINVAL) {
			return fmt.Errorf("cmem: free token=%d: %w", a.Token, device.ErrBadAllocation)
		}
		return fmt.Errorf("cmem: free token=%d: %w", a.Token, err)
	}
	return nil
}

// Map implements device.Device.
func (d *Device) Map(a device.Allocation) ([]byte, error) {
	if d.fd < 0 {
		return nil, device.ErrClosed
	}
	if a.Phys > uint64(1<<63-1) {
		return nil, fmt.Errorf("cmem: phys %#x not mappable", a.Phys)
	}
	return mmfile.MapShared(d.fd, int64(a.Phys), a.Size)
}

// Unmap implements device.Device.
func (d *Device) Unmap(mem []byte) error {
	return mmfile.Unmap(mem)
}

// Close implements device.Device.
func (d *Device) Close() error {
	if d.fd < 0 {
		return device.ErrClosed
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

var _ device.Device = (*Device)(nil)
