// Package mmfile provides platform-specific helpers for mapping device memory
// into the process address space.
package mmfile

import "errors"

// ErrUnsupported is returned where the platform has no shared mappings.
var ErrUnsupported = errors.New("mmfile: shared mappings not supported on this platform")
