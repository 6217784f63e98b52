//go:build !unix

package mmfile

import (
	"fmt"
	"os"
)

// PageSize returns the system page size.
func PageSize() int {
	return os.Getpagesize()
}

// MapShared is unavailable without mmap.
func MapShared(fd int, offset int64, size int) ([]byte, error) {
	return nil, ErrUnsupported
}

// Anonymous falls back to heap memory when mmap is not available.
func Anonymous(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	return make([]byte, size), nil
}

// Unmap is a no-op for heap-backed memory.
func Unmap(data []byte) error {
	return nil
}
