//go:build unix

package mmfile

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// PageSize returns the system page size.
func PageSize() int {
	return unix.Getpagesize()
}

// MapShared maps size bytes of the open file descriptor fd, starting at
// offset, read/write and shared with the device.
func MapShared(fd int, offset int64, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	if offset < 0 {
		return nil, fmt.Errorf("mmfile: negative offset %d", offset)
	}
	data, err := unix.Mmap(fd, offset, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmfile: mmap fd=%d off=%#x len=%d: %w", fd, offset, size, err)
	}
	return data, nil
}

// Anonymous returns size bytes of private, zeroed, page-aligned memory.
func Anonymous(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmfile: anonymous mmap len=%d: %w", size, err)
	}
	return data, nil
}

// Unmap releases a mapping returned by MapShared or Anonymous. It must be
// passed the slice that was returned, not a reslice of it.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
